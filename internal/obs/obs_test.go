package obs

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTracerProviderExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, &buf)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	_, span := tp.Tracer("test").Start(ctx, "catalog.fetch")
	span.End()
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "catalog.fetch") || !strings.Contains(out, "storefront") {
		t.Fatalf("expected exported span with service name, got %q", out)
	}
}

func TestInitTracingNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "none")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
