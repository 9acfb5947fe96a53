package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/skillsync/internal/platform/logger"
)

func TestVectorStoreUpsertRequestShape(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPut {
			t.Fatalf("method: want=%s got=%s", http.MethodPut, r.Method)
		}
		if r.URL.Path != "/collections/skills/points" {
			t.Fatalf("path: want=%q got=%q", "/collections/skills/points", r.URL.Path)
		}
		if r.URL.RawQuery != "wait=true" {
			t.Fatalf("query: want=%q got=%q", "wait=true", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{"status": "acknowledged"}), nil
	})

	payload := map[string]any{"name": "PostgreSQL"}
	err := s.Upsert(context.Background(), "skills:small", []Point{
		{ID: "skill-1", Values: []float32{1, 2, 3}, Payload: payload},
		{ID: "skill-2", Values: []float32{4, 5, 6}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	points, ok := captured["points"].([]any)
	if !ok || len(points) != 2 {
		t.Fatalf("points: got=%v", captured["points"])
	}
	first := points[0].(map[string]any)
	if first["id"] != pointID("ss:skills:small", "skill-1") {
		t.Fatalf("point id mismatch: got=%v", first["id"])
	}
	got := first["payload"].(map[string]any)
	if got[payloadNamespaceKey] != "ss:skills:small" {
		t.Fatalf("payload namespace: got=%v", got[payloadNamespaceKey])
	}
	if got[payloadVectorIDKey] != "skill-1" || got["name"] != "PostgreSQL" {
		t.Fatalf("payload: got=%v", got)
	}
	if _, exists := payload[payloadNamespaceKey]; exists {
		t.Fatalf("input payload mutated")
	}
}

func TestVectorStoreUpsertRejectsWrongDimension(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request to %s", r.URL.Path)
		return nil, nil
	})
	err := s.Upsert(context.Background(), "skills", []Point{{ID: "a", Values: []float32{1, 2}}})
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got=%v", err)
	}
}

func TestVectorStoreQueryMatchesFiltersNamespaceAndSorts(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/collections/skills/points/search" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": "p-b", "score": 0.10, "payload": map[string]any{payloadVectorIDKey: "skill-b"}},
			{"id": "p-a", "score": 0.90, "payload": map[string]any{payloadVectorIDKey: "skill-a"}},
			{"id": 7, "score": 0.50, "payload": map[string]any{}},
		}), nil
	})

	matches, err := s.QueryMatches(context.Background(), "skills:small", []float32{1, 2, 3}, 3)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("matches length: want=3 got=%d", len(matches))
	}
	if matches[0].ID != "skill-a" || matches[1].ID != "7" || matches[2].ID != "skill-b" {
		t.Fatalf("ordering: got=%v", matches)
	}

	filter := captured["filter"].(map[string]any)
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	if cond["key"] != payloadNamespaceKey {
		t.Fatalf("filter key: got=%v", cond["key"])
	}
	if cond["match"].(map[string]any)["value"] != "ss:skills:small" {
		t.Fatalf("filter value: got=%v", cond["match"])
	}
}

func TestVectorStoreEuclidScoresAreFolded(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		return okResponse(t, []map[string]any{
			{"id": "far", "score": 3.0, "payload": map[string]any{payloadVectorIDKey: "far"}},
			{"id": "near", "score": 0.0, "payload": map[string]any{payloadVectorIDKey: "near"}},
		}), nil
	})
	s.distance = "Euclid"
	matches, err := s.QueryMatches(context.Background(), "", []float32{1, 2, 3}, 2)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if matches[0].ID != "near" || matches[0].Score != 1.0 {
		t.Fatalf("closest: got=%v", matches[0])
	}
	if matches[1].Score != 0.25 {
		t.Fatalf("folded score: want=0.25 got=%v", matches[1].Score)
	}
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var calls []string
	var created map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		calls = append(calls, r.Method)
		if r.Method == http.MethodGet {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Header:     make(http.Header),
				Body:       io.NopCloser(bytes.NewReader([]byte(`{"status":{"error":"Not found"}}`))),
			}, nil
		}
		if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, true), nil
	})
	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if len(calls) != 2 || calls[1] != http.MethodPut {
		t.Fatalf("calls: got=%v", calls)
	}
	vectors := created["vectors"].(map[string]any)
	if vectors["size"] != float64(3) || vectors["distance"] != "Cosine" {
		t.Fatalf("vectors: got=%v", vectors)
	}
}

func TestEnsureCollectionSizeMismatch(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		return okResponse(t, map[string]any{
			"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": 8, "distance": "Dot"}}},
		}), nil
	})
	err := s.EnsureCollection(context.Background())
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got=%v", err)
	}
}

func TestDoJSONStatusError(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"status":{"error":"bad vector"},"result":null}`))),
		}, nil
	})
	_, err := s.QueryMatches(context.Background(), "skills", []float32{1, 2, 3}, 1)
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorRequestFailed || oe.Message != "bad vector" {
		t.Fatalf("expected request_failed, got=%v", err)
	}
}

func TestClassifyHTTPCallError(t *testing.T) {
	var oe *OperationError
	if err := classifyHTTPCallError("query", "timeout", context.DeadlineExceeded); !errors.As(err, &oe) || oe.Code != OperationErrorTimeout {
		t.Fatalf("deadline: got=%v", err)
	}
	if err := classifyHTTPCallError("query", "transport", fmt.Errorf("boom")); !errors.As(err, &oe) || oe.Code != OperationErrorTransportFailed {
		t.Fatalf("transport: got=%v", err)
	}
}

func newTestVectorStore(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *vectorStore {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return &vectorStore{
		log:      log,
		cfg:      Config{Collection: "skills", VectorDim: 3, NamespacePrefix: "ss"},
		baseURL:  "http://qdrant.local",
		distance: "Cosine",
		http:     &http.Client{Transport: roundTripFunc(roundTrip)},
	}
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"result": result, "status": "ok", "time": 0.001})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
