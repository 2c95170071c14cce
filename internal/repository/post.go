// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postboard/internal/listing"
	"postboard/internal/models"
	"postboard/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const postsTable = "posts"

// PostRepository defines the read operations of the listing pipeline.
type PostRepository interface {
	// List returns one page of posts matching spec, in spec order.
	List(ctx context.Context, spec listing.QuerySpec) ([]models.Post, error)
	// Count returns the number of posts matching the shared predicate, ignoring paging.
	Count(ctx context.Context, spec listing.QuerySpec) (int64, error)
	// Snapshot runs fn against a repository bound to one read-only REPEATABLE READ
	// transaction, so List and Count see the same data.
	Snapshot(ctx context.Context, fn func(PostRepository) error) error
}

// ErrNullColumn reports a stored row with NULL in a column the Post shape requires.
var ErrNullColumn = errors.New("unexpected NULL column")

// postRow is the scan target of the listing query. NULLs stay detectable here;
// scanning straight into models.Post would turn them into zero values.
type postRow struct {
	ID        sql.NullInt32  `gorm:"column:id"`
	Title     sql.NullString `gorm:"column:title"`
	Content   sql.NullString `gorm:"column:content"`
	CreatedAt sql.NullTime   `gorm:"column:created_at"`
}

func (r postRow) toPost() (models.Post, error) {
	switch {
	case !r.ID.Valid:
		return models.Post{}, fmt.Errorf("id: %w", ErrNullColumn)
	case !r.Title.Valid:
		return models.Post{}, fmt.Errorf("title: %w", ErrNullColumn)
	case !r.Content.Valid:
		return models.Post{}, fmt.Errorf("content: %w", ErrNullColumn)
	case !r.CreatedAt.Valid:
		return models.Post{}, fmt.Errorf("created_at: %w", ErrNullColumn)
	}
	return models.Post{
		ID:        r.ID.Int32,
		Title:     r.Title.String,
		Content:   r.Content.String,
		CreatedAt: r.CreatedAt.Time,
	}, nil
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	spans   *observability.Spans
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(postsTable),
		spans:   observability.DefaultSpans(),
	}
}

func (r *postRepository) List(ctx context.Context, spec listing.QuerySpec) (posts []models.Post, err error) {
	ctx, span := r.spans.Query(ctx, "SELECT", postsTable,
		attribute.Bool("listing.filtered", spec.Filtered()),
		attribute.Int("listing.limit", spec.Limit),
		attribute.Int("listing.offset", spec.Offset),
	)
	done := r.metrics.TrackQuery("list")
	defer func() {
		done(err)
		observability.EndSpan(span, err)
	}()

	var rows []postRow
	err = r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(spec.Page()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts = make([]models.Post, 0, len(rows))
	for i, row := range rows {
		post, mapErr := row.toPost()
		if mapErr != nil {
			err = fmt.Errorf("list posts: map row %d: %w", i, mapErr)
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, spec listing.QuerySpec) (total int64, err error) {
	ctx, span := r.spans.Query(ctx, "COUNT", postsTable,
		attribute.Bool("listing.filtered", spec.Filtered()),
	)
	done := r.metrics.TrackQuery("count")
	defer func() {
		done(err)
		observability.EndSpan(span, err)
	}()

	err = r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(spec.Filter()).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

func (r *postRepository) Snapshot(ctx context.Context, fn func(PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postRepository{db: tx, metrics: r.metrics, spans: r.spans})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}
