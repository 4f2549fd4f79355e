package common

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("empty context id = %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(ctx, "  ")); got != "" {
		t.Fatalf("blank id stored as %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(ctx, " req-7 ")); got != "req-7" {
		t.Fatalf("id = %q, want req-7", got)
	}

	tagged, id := EnsureRequestID(ctx, "")
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id %q is not a UUID", id)
	}
	if RequestIDFromContext(tagged) != id {
		t.Fatalf("generated id not stored")
	}
	if _, id := EnsureRequestID(ctx, "req-8"); id != "req-8" {
		t.Fatalf("EnsureRequestID kept %q, want req-8", id)
	}
}

func TestLoggerFor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LoggerFor(context.Background(), logger).Info("plain")
	LoggerFor(WithRequestID(context.Background(), "req-9"), logger).Info("tagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if strings.Contains(lines[0], "request_id") {
		t.Errorf("untagged line carries request_id: %s", lines[0])
	}
	if !strings.Contains(lines[1], "request_id=req-9") {
		t.Errorf("tagged line missing request_id: %s", lines[1])
	}
}
