package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Taniishaaa/censor-pro/internal/domain/enums"
	"github.com/Taniishaaa/censor-pro/internal/domain/model"
)

var (
	ErrContentNotFound        = errors.New("content not found")
	ErrContentAlreadyResolved = errors.New("content already resolved")
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

// PendingItem is a queue row joined with its owner's identity.
type PendingItem struct {
	Content    model.Content
	OwnerEmail string
}

// StatsSnapshot holds all counters from one point-in-time read.
type StatsSnapshot struct {
	Total       int
	Pending     int
	Done        int
	UnderReview int
	Approved    int
	Rejected    int
}

const contentColumns = `id, user_id, text_content, image_path, status, decision, expert_response, created_at, updated_at`

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) Create(ctx context.Context, userID int64, textContent, imageKey *string) (model.Content, error) {
	if r.pool == nil {
		return model.Content{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.Content{}, fmt.Errorf("invalid user id")
	}
	if (textContent == nil) == (imageKey == nil) {
		return model.Content{}, fmt.Errorf("exactly one of text_content or image_path is required")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO content (user_id, text_content, image_path, status, created_at, updated_at)
VALUES ($1, $2, $3, 'pending', NOW(), NOW())
RETURNING `+contentColumns+`
`, userID, textContent, imageKey)

	record, err := scanContent(row)
	if err != nil {
		return model.Content{}, fmt.Errorf("create content: %w", err)
	}

	return record, nil
}

func (r *ContentRepo) GetByID(ctx context.Context, contentID int64) (model.Content, error) {
	if r.pool == nil {
		return model.Content{}, fmt.Errorf("postgres pool is nil")
	}
	if contentID <= 0 {
		return model.Content{}, fmt.Errorf("invalid content id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+contentColumns+`
FROM content
WHERE id = $1
`, contentID)

	record, err := scanContent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Content{}, ErrContentNotFound
		}
		return model.Content{}, fmt.Errorf("query content: %w", err)
	}

	return record, nil
}

func (r *ContentRepo) ListByUser(ctx context.Context, userID int64) ([]model.Content, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+contentColumns+`
FROM content
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list content by user: %w", err)
	}
	defer rows.Close()

	items := make([]model.Content, 0)
	for rows.Next() {
		record, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content row: %w", err)
		}
		items = append(items, record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate content rows: %w", rows.Err())
	}

	return items, nil
}

func (r *ContentRepo) ListPending(ctx context.Context) ([]PendingItem, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT c.id, c.user_id, c.text_content, c.image_path, c.status, c.decision, c.expert_response, c.created_at, c.updated_at, u.email
FROM content c
JOIN users u ON u.id = c.user_id
WHERE c.status = 'pending'
ORDER BY c.created_at ASC, c.id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list pending content: %w", err)
	}
	defer rows.Close()

	items := make([]PendingItem, 0)
	for rows.Next() {
		var (
			record     model.Content
			decision   *string
			ownerEmail string
		)
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.TextContent,
			&record.ImageKey,
			&record.Status,
			&decision,
			&record.ExpertResponse,
			&record.CreatedAt,
			&record.UpdatedAt,
			&ownerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan pending row: %w", err)
		}
		record.Decision = decisionFromNullable(decision)
		items = append(items, PendingItem{Content: record, OwnerEmail: ownerEmail})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate pending rows: %w", rows.Err())
	}

	return items, nil
}

// ResolvePending moves one pending record to done via a conditional
// update, so a racing second resolution loses cleanly instead of silently
// overwriting the first decision. The update and the follow-up existence
// check share one transaction, so the 404 vs 409 distinction is read from
// the same snapshot the update saw.
func (r *ContentRepo) ResolvePending(ctx context.Context, contentID int64, decision enums.Decision, expertResponse string) (model.Content, error) {
	if contentID <= 0 {
		return model.Content{}, fmt.Errorf("invalid content id")
	}
	if strings.TrimSpace(string(decision)) == "" {
		return model.Content{}, fmt.Errorf("decision is required")
	}

	var record model.Content
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
UPDATE content
SET
	status = 'done',
	decision = $2,
	expert_response = $3,
	updated_at = NOW()
WHERE id = $1 AND status = 'pending'
RETURNING `+contentColumns+`
`, contentID, string(decision), expertResponse)

		var scanErr error
		record, scanErr = scanContent(row)
		if scanErr == nil {
			return nil
		}
		if !errors.Is(scanErr, pgx.ErrNoRows) {
			return fmt.Errorf("resolve content: %w", scanErr)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM content WHERE id = $1)
`, contentID).Scan(&exists); err != nil {
			return fmt.Errorf("check content existence: %w", err)
		}
		if !exists {
			return ErrContentNotFound
		}
		return ErrContentAlreadyResolved
	})
	if err != nil {
		return model.Content{}, err
	}

	return record, nil
}

// AggregateStats reads every counter in one statement so the six values
// always describe the same snapshot.
func (r *ContentRepo) AggregateStats(ctx context.Context) (StatsSnapshot, error) {
	if r.pool == nil {
		return StatsSnapshot{}, fmt.Errorf("postgres pool is nil")
	}

	var stats StatsSnapshot
	err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*)::int AS total,
	COUNT(*) FILTER (WHERE status = 'pending')::int AS pending,
	COUNT(*) FILTER (WHERE status = 'done')::int AS done,
	COUNT(*) FILTER (WHERE status = 'under_review')::int AS under_review,
	COUNT(*) FILTER (WHERE decision = 'approved')::int AS approved,
	COUNT(*) FILTER (WHERE decision = 'rejected')::int AS rejected
FROM content
`).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Done,
		&stats.UnderReview,
		&stats.Approved,
		&stats.Rejected,
	)
	if err != nil {
		return StatsSnapshot{}, fmt.Errorf("aggregate content stats: %w", err)
	}

	return stats, nil
}

func scanContent(row pgx.Row) (model.Content, error) {
	var (
		record   model.Content
		decision *string
	)
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.TextContent,
		&record.ImageKey,
		&record.Status,
		&decision,
		&record.ExpertResponse,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return model.Content{}, err
	}
	record.Decision = decisionFromNullable(decision)
	return record, nil
}

func decisionFromNullable(value *string) enums.Decision {
	if value == nil {
		return enums.DecisionUnset
	}
	return enums.Decision(*value)
}
