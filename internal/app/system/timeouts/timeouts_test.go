package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure(t *testing.T) {
	defer Reset()

	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short() = %v", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium() changed to %v", Medium())
	}

	Reset()
	if Short() != DefaultShort {
		t.Errorf("Reset did not restore Short: %v", Short())
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "stats")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "stats" {
		t.Errorf("operation field = %v", op)
	}
}

func TestWithTimeout_NoLogWhenCancelledEarly(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "get")
	cancel()
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings: %d", logs.Len())
	}
}
