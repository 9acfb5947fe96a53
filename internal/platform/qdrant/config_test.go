package qdrant

import (
	"errors"
	"testing"
	"time"
)

func TestValidateConfigDefaults(t *testing.T) {
	cfg := Config{URL: " http://qdrant:6333/ ", Collection: "skills", VectorDim: 1536}
	if err := ValidateConfig(&cfg); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if cfg.URL != "http://qdrant:6333" {
		t.Fatalf("URL: want=%q got=%q", "http://qdrant:6333", cfg.URL)
	}
	if cfg.NamespacePrefix != "skillsync" {
		t.Fatalf("NamespacePrefix: want=%q got=%q", "skillsync", cfg.NamespacePrefix)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("Timeout: want=%s got=%s", 10*time.Second, cfg.Timeout)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want ConfigErrorCode
	}{
		{"missing url", Config{Collection: "skills", VectorDim: 3}, ConfigErrorMissingURL},
		{"relative url", Config{URL: "qdrant:6333", Collection: "skills", VectorDim: 3}, ConfigErrorInvalidURL},
		{"grpc scheme", Config{URL: "grpc://qdrant:6334", Collection: "skills", VectorDim: 3}, ConfigErrorInvalidURL},
		{"collection with slash", Config{URL: "http://qdrant:6333", Collection: "a/b", VectorDim: 3}, ConfigErrorInvalidCollection},
		{"missing collection", Config{URL: "http://qdrant:6333", VectorDim: 3}, ConfigErrorMissingCollection},
		{"zero dim", Config{URL: "http://qdrant:6333", Collection: "skills"}, ConfigErrorInvalidVectorDim},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfig(&tc.cfg)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got=%T (%v)", err, err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
		})
	}
}

func TestConfigQualify(t *testing.T) {
	cfg := Config{NamespacePrefix: "skillsync"}
	if got := cfg.Qualify(" skills:m1 "); got != "skillsync:skills:m1" {
		t.Fatalf("Qualify: got=%q", got)
	}
	if got := cfg.Qualify(""); got != "skillsync" {
		t.Fatalf("Qualify empty: got=%q", got)
	}
}
