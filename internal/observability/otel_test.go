package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillsync/internal/platform/logger"
)

func TestSampleRatioClamps(t *testing.T) {
	require.Equal(t, 1.0, sampleRatio(0))
	require.Equal(t, 1.0, sampleRatio(-0.5))
	require.Equal(t, 1.0, sampleRatio(3))
	require.Equal(t, 0.25, sampleRatio(0.25))
}

func TestInitOTelDisabledReturnsNoopShutdown(t *testing.T) {
	log, err := logger.New("test")
	require.NoError(t, err)

	shutdown := InitOTel(context.Background(), log, OtelConfig{ServiceName: "skillsync-test"})
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
	require.NotNil(t, Tracer())
}

func TestImportSpanHelpersWithNoopTracer(t *testing.T) {
	ctx, span := StartImportSpan(context.Background(), "job-1", "reading_input")
	require.NotNil(t, ctx)
	FailSpan(span, nil, "ignored")
	FailSpan(span, context.Canceled, "INTERNAL")
	FailSpan(nil, context.Canceled, "INTERNAL")
	span.End()
}
