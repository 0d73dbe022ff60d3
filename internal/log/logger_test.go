package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	l.Info("hello", FieldPet, "Rex")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "pet=Rex") {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record written at info level: %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentStorage).With(FieldBackend, "files").Warn("slow")
	if out := buf.String(); !strings.Contains(out, "component=storage") || strings.Contains(out, "component=http") || !strings.Contains(out, "backend=files") {
		t.Fatalf("unexpected child output: %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	l := New(Config{Component: ComponentIngest, Output: &bytes.Buffer{}})
	ctx := WithLogger(context.Background(), l)

	if got := FromContext(ctx); got != l {
		t.Fatalf("FromContext returned %p, want %p", got, l)
	}
	if got := FromContext(context.Background()); got.Component() != ComponentApp {
		t.Fatalf("fallback component = %q", got.Component())
	}
}
