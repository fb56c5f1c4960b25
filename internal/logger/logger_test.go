package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewFallsBackToInfoLevel(t *testing.T) {
	l, err := New("development", "not-a-level")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !l.Core().Enabled(zap.InfoLevel) {
		t.Fatalf("expected info level enabled")
	}
	if l.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("expected debug level disabled")
	}
}

func TestFromContextPrefersAttachedLogger(t *testing.T) {
	base := zap.NewNop()
	scoped := zap.NewExample()

	if got := FromContext(context.Background(), base); got != base {
		t.Fatalf("expected fallback logger without attached one")
	}
	ctx := WithContext(context.Background(), scoped)
	if got := FromContext(ctx, base); got != scoped {
		t.Fatalf("expected attached logger")
	}
	if got := FromContext(context.Background(), nil); got == nil {
		t.Fatalf("expected nop logger when no fallback")
	}
}
