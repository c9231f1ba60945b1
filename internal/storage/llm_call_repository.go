package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/company-icons/internal/model"
)

// ErrNotFound is returned when a record doesn't exist in the database.
var ErrNotFound = errors.New("record not found")

// LLMCallRepository handles persistence of LLM call tracking.
type LLMCallRepository interface {
	Create(ctx context.Context, call *model.LLMCall) error
	Count(ctx context.Context) (int64, error)
	CountBySite(ctx context.Context, siteURL string) (int64, error)
	LatestBySite(ctx context.Context, siteURL string) (*model.LLMCall, error)
}

type sqliteLLMCallRepository struct {
	db *sqlx.DB
}

// NewLLMCallRepository creates a new SQLite-backed LLMCallRepository.
func NewLLMCallRepository(db *sqlx.DB) LLMCallRepository {
	return &sqliteLLMCallRepository{db: db}
}

func (r *sqliteLLMCallRepository) Create(ctx context.Context, call *model.LLMCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_calls (site_url, provider, model, result_url, success, duration_ms)
		VALUES (:site_url, :provider, :model, :result_url, :success, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating llm call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteLLMCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls")
	return count, err
}

func (r *sqliteLLMCallRepository) CountBySite(ctx context.Context, siteURL string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls WHERE site_url = ?", siteURL)
	return count, err
}

func (r *sqliteLLMCallRepository) LatestBySite(ctx context.Context, siteURL string) (*model.LLMCall, error) {
	var call model.LLMCall
	err := r.db.GetContext(ctx, &call,
		"SELECT * FROM llm_calls WHERE site_url = ? ORDER BY id DESC LIMIT 1", siteURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest llm call for %s: %w", siteURL, err)
	}
	return &call, nil
}
