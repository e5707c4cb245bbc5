package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tenmunches/internal/domain"
)

// Repo implements domain.CategoryStore on MySQL. Each category's top list is
// stored as one JSON document.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertCategory(ctx context.Context, c domain.CategoryResult) error {
	top := c.Top10
	if top == nil {
		top = []domain.Business{}
	}
	b, err := json.Marshal(top)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.Category, err)
	}
	updated := c.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = r.db.ExecContext(ctx, upsertCategorySQL, strings.ToLower(c.Category), string(b), updated.UTC())
	return err
}

func (r *Repo) LogRefresh(ctx context.Context, l domain.RefreshLog) error {
	_, err := r.db.ExecContext(ctx, insertRefreshLogSQL,
		l.ID, l.StartedAt.UTC(), l.FinishedAt.UTC(), l.Status, l.Details)
	return err
}

func (r *Repo) GetCategory(ctx context.Context, name string) (domain.CategoryResult, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, getCategorySQL, strings.ToLower(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CategoryResult{}, domain.ErrNotFound
	}
	return c, err
}

func (r *Repo) ListCategories(ctx context.Context) ([]domain.CategoryResult, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CategoryResult, 0, 20)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LastRefresh returns the most recent refresh log entry, or nil if none exist.
func (r *Repo) LastRefresh(ctx context.Context) (*domain.RefreshLog, error) {
	var l domain.RefreshLog
	err := r.db.QueryRowContext(ctx, lastRefreshSQL).
		Scan(&l.ID, &l.StartedAt, &l.FinishedAt, &l.Status, &l.Details)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

type scanner interface{ Scan(dest ...any) error }

func scanCategory(s scanner) (domain.CategoryResult, error) {
	var (
		c   domain.CategoryResult
		raw []byte
	)
	if err := s.Scan(&c.Category, &raw, &c.UpdatedAt); err != nil {
		return domain.CategoryResult{}, err
	}
	if err := json.Unmarshal(raw, &c.Top10); err != nil {
		return domain.CategoryResult{}, fmt.Errorf("decode %s: %w", c.Category, err)
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
