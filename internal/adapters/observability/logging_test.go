package observability_test

import (
	"testing"

	"github.com/rs/zerolog"

	"hotel_search/internal/adapters/observability"
)

func TestNewLogger_Levels(t *testing.T) {
	if l := observability.NewLogger("dev"); l.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("dev level: %v", l.GetLevel())
	}
	if l := observability.NewLogger("prod"); l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("prod level: %v", l.GetLevel())
	}
}
