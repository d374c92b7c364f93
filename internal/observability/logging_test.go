package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextAttributesAreLogged(t *testing.T) {
	buf := captureLogs(t)

	ctx := WithBuildID(context.Background(), "b-1")
	ctx = WithStage(ctx, "expand")
	ctx = WithLang(ctx, "de")
	InfoContext(ctx, "Pass finished", slog.Int("labels", 4))

	out := buf.String()
	require.Contains(t, out, "build_id=b-1")
	require.Contains(t, out, "stage=expand")
	require.Contains(t, out, "lang=de")
	require.Contains(t, out, "labels=4")
	require.Equal(t, LogContext{BuildID: "b-1", Stage: "expand", Lang: "de"}, GetContext(ctx))
}

func TestLaterValuesOverrideEarlierOnes(t *testing.T) {
	ctx := WithStage(WithStage(context.Background(), "prepare"), "write")
	require.Equal(t, "write", GetContext(ctx).Stage)
	require.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestLevels(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithBuildID(context.Background(), "b-2")
	DebugContext(ctx, "d")
	WarnContext(ctx, "w")
	ErrorContext(ctx, "e")
	out := buf.String()
	require.Contains(t, out, "level=DEBUG")
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "level=ERROR")
}
