package history

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"finbridge/cli/internal/bridge/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		max   int
		want  int
	}{
		{name: "zero uses default", limit: 0, max: 500, want: DefaultLimit},
		{name: "negative uses default", limit: -3, max: 500, want: DefaultLimit},
		{name: "within range", limit: 7, max: 500, want: 7},
		{name: "capped at retention", limit: 900, max: 500, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit, tt.max); got != tt.want {
				t.Errorf("clampLimit(%d, %d) = %d, want %d", tt.limit, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 10); got != "héllo" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate() = %q, want %q", got, "hé")
	}
	long := strings.Repeat("€", maxTextLen+10)
	if got := truncate(long, maxTextLen); len([]rune(got)) != maxTextLen {
		t.Errorf("truncated to %d runes, want %d", len([]rune(got)), maxTextLen)
	}
}

func TestEntryElapsed(t *testing.T) {
	e := Entry{ElapsedMS: 1500}
	if e.Elapsed() != 1500*time.Millisecond {
		t.Errorf("Elapsed() = %v", e.Elapsed())
	}
}

// TestStore_RoundTrip runs against a real database when FINBRIDGE_TEST_DSN is set.
func TestStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("FINBRIDGE_TEST_DSN")
	if dsn == "" {
		t.Skip("FINBRIDGE_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Open(ctx, dsn, Options{Keep: 2, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	if _, err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		req := model.Request{ID: uuid.NewString(), Kind: model.KindChat, Message: "q"}
		resp := model.Response{ID: req.ID, Status: model.StatusSuccess, Message: "a", Charts: []string{"c.png"}}
		if err := s.Record(ctx, req, resp, 250*time.Millisecond); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		ids = append(ids, req.ID)
		time.Sleep(10 * time.Millisecond)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2 after pruning", len(entries))
	}
	if entries[0].RequestID != ids[2] || entries[1].RequestID != ids[1] {
		t.Errorf("entries out of order: %s, %s", entries[0].RequestID, entries[1].RequestID)
	}
	if len(entries[0].Charts) != 1 || entries[0].Elapsed() != 250*time.Millisecond {
		t.Errorf("entry = %+v", entries[0])
	}

	n, err := s.Clear(ctx)
	if err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v; want 2, nil", n, err)
	}
}
