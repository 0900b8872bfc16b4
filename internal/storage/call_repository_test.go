package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fairquote/quote-service/internal/model"
)

func setupTestRepo(t *testing.T) LLMCallRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewLLMCallRepository(db)
}

func TestLLMCallRepository_CreateAndRecent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	duration := int64(1200)
	call := &model.LLMCall{
		Provider:   "anthropic",
		Model:      "claude-sonnet-4-5-20250929",
		Purpose:    model.CallPurposeParse,
		Augmented:  true,
		Success:    true,
		DurationMs: &duration,
	}

	if err := repo.Create(ctx, call); err != nil {
		t.Fatalf("creating call record: %v", err)
	}
	if call.ID == 0 {
		t.Error("expected call ID to be set after create")
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("listing recent calls: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 call, got %d", len(recent))
	}
	got := recent[0]
	if got.Provider != "anthropic" || got.Purpose != model.CallPurposeParse || !got.Augmented {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.DurationMs == nil || *got.DurationMs != 1200 {
		t.Errorf("expected duration 1200, got %v", got.DurationMs)
	}
}

func TestLLMCallRepository_Stats(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	records := []*model.LLMCall{
		{Provider: "anthropic", Model: "m", Purpose: model.CallPurposeParse, Augmented: true, Success: true},
		{Provider: "anthropic", Model: "m", Purpose: model.CallPurposeRange, Success: false},
		{Provider: "openai", Model: "m", Purpose: model.CallPurposeParse, Success: true},
	}
	for _, rec := range records {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("creating record: %v", err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("getting stats: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("expected 3 total, got %d", stats.Total)
	}
	if stats.Succeeded != 2 {
		t.Errorf("expected 2 succeeded, got %d", stats.Succeeded)
	}
	if stats.Augmented != 1 {
		t.Errorf("expected 1 augmented, got %d", stats.Augmented)
	}
	if stats.ByProvider["anthropic"] != 2 || stats.ByProvider["openai"] != 1 {
		t.Errorf("unexpected provider counts: %v", stats.ByProvider)
	}
	if stats.ByPurpose[model.CallPurposeParse] != 2 || stats.ByPurpose[model.CallPurposeRange] != 1 {
		t.Errorf("unexpected purpose counts: %v", stats.ByPurpose)
	}
}
