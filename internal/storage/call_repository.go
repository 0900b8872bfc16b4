package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fairquote/quote-service/internal/model"
)

// CallStats aggregates LLM call telemetry for the admin stats endpoint.
type CallStats struct {
	Total      int64            `json:"total"`
	Succeeded  int64            `json:"succeeded"`
	Augmented  int64            `json:"augmented"`
	ByProvider map[string]int64 `json:"by_provider"`
	ByPurpose  map[string]int64 `json:"by_purpose"`
}

// LLMCallRepository handles persistence of LLM call telemetry.
type LLMCallRepository interface {
	Create(ctx context.Context, call *model.LLMCall) error
	Stats(ctx context.Context) (*CallStats, error)
	Recent(ctx context.Context, limit int) ([]model.LLMCall, error)
}

type sqliteLLMCallRepository struct {
	db *sqlx.DB
}

// NewLLMCallRepository creates a SQLite-backed LLMCallRepository.
func NewLLMCallRepository(db *sqlx.DB) LLMCallRepository {
	return &sqliteLLMCallRepository{db: db}
}

func (r *sqliteLLMCallRepository) Create(ctx context.Context, call *model.LLMCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_calls (provider, model, purpose, augmented, success, duration_ms)
		VALUES (:provider, :model, :purpose, :augmented, :success, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("recording llm call: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteLLMCallRepository) Stats(ctx context.Context) (*CallStats, error) {
	stats := &CallStats{
		ByProvider: make(map[string]int64),
		ByPurpose:  make(map[string]int64),
	}

	err := r.db.QueryRowxContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(success), 0),
		       COALESCE(SUM(augmented), 0)
		FROM llm_calls
	`).Scan(&stats.Total, &stats.Succeeded, &stats.Augmented)
	if err != nil {
		return nil, fmt.Errorf("counting llm calls: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, "SELECT provider, COUNT(*) FROM llm_calls GROUP BY provider")
	if err != nil {
		return nil, fmt.Errorf("counting calls by provider: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var provider string
		var count int64
		if err := rows.Scan(&provider, &count); err != nil {
			return nil, fmt.Errorf("scanning provider count: %w", err)
		}
		stats.ByProvider[provider] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provider counts: %w", err)
	}

	purposeRows, err := r.db.QueryxContext(ctx, "SELECT purpose, COUNT(*) FROM llm_calls GROUP BY purpose")
	if err != nil {
		return nil, fmt.Errorf("counting calls by purpose: %w", err)
	}
	defer purposeRows.Close()
	for purposeRows.Next() {
		var purpose string
		var count int64
		if err := purposeRows.Scan(&purpose, &count); err != nil {
			return nil, fmt.Errorf("scanning purpose count: %w", err)
		}
		stats.ByPurpose[purpose] = count
	}
	if err := purposeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purpose counts: %w", err)
	}

	return stats, nil
}

func (r *sqliteLLMCallRepository) Recent(ctx context.Context, limit int) ([]model.LLMCall, error) {
	var calls []model.LLMCall
	err := r.db.SelectContext(ctx, &calls,
		"SELECT * FROM llm_calls ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent llm calls: %w", err)
	}
	return calls, nil
}
