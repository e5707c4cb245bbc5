package observability_test

import (
	"testing"

	"github.com/rs/zerolog"

	"tenmunches/internal/adapters/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	if got := observability.NewLogger("dev").GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("dev level: %v", got)
	}
	if got := observability.NewLogger("prod").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("prod level: %v", got)
	}
}
