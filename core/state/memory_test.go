package state

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestGetUnknownChatDefaultsToRoot(t *testing.T) {
	tr := NewMemoryTracker()
	conv, err := tr.Get(context.Background(), 12345)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv.Level != LevelRoot {
		t.Fatalf("level = %s, want root", conv.Level)
	}
	if !conv.LastWelcomeAt.IsZero() {
		t.Fatal("fresh conversation must not carry a welcome timestamp")
	}
}

func TestSetLevelAndReset(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	if err := tr.SetLevel(ctx, 1, LevelLocations); err != nil {
		t.Fatalf("set: %v", err)
	}
	conv, _ := tr.Get(ctx, 1)
	if conv.Level != LevelLocations {
		t.Fatalf("level = %s, want locations", conv.Level)
	}

	if err := tr.Reset(ctx, 1); err != nil {
		t.Fatalf("reset: %v", err)
	}
	conv, _ = tr.Get(ctx, 1)
	if conv.Level != LevelRoot {
		t.Fatalf("level after reset = %s, want root", conv.Level)
	}
}

func TestMarkWelcomeSurvivesReset(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()
	at := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := tr.MarkWelcome(ctx, 2, at); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := tr.SetLevel(ctx, 2, LevelProjects); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := tr.Reset(ctx, 2); err != nil {
		t.Fatalf("reset: %v", err)
	}

	conv, _ := tr.Get(ctx, 2)
	if !conv.LastWelcomeAt.Equal(at) {
		t.Fatalf("welcome timestamp lost: %v", conv.LastWelcomeAt)
	}
}

func TestTrackerIsolatesChats(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	_ = tr.SetLevel(ctx, 10, LevelLocations)
	_ = tr.SetLevel(ctx, 20, LevelProjects)

	a, _ := tr.Get(ctx, 10)
	b, _ := tr.Get(ctx, 20)
	if a.Level != LevelLocations || b.Level != LevelProjects {
		t.Fatalf("cross-chat leak: %s / %s", a.Level, b.Level)
	}
}

func TestConcurrentWritesSameChat(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lvl := LevelLocations
			if i%2 == 0 {
				lvl = LevelProjects
			}
			_ = tr.SetLevel(ctx, 7, lvl)
			_, _ = tr.Get(ctx, 7)
		}(i)
	}
	wg.Wait()

	conv, err := tr.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv.Level != LevelLocations && conv.Level != LevelProjects {
		t.Fatalf("level = %s", conv.Level)
	}
}
