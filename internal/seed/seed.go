// Package seed fills an existing posts table with fake rows for local development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postboard/internal/middleware"
	"postboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how many posts are generated and how they look.
type Options struct {
	Count     int
	BatchSize int
	// Seed makes the generated content reproducible. Zero picks a random seed.
	Seed int64
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays int
	// Until is the newest possible created_at. Defaults to now.
	Until time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.Until.IsZero() {
		o.Until = time.Now()
	}
	return o
}

// BuildPosts generates opts.Count posts without persisting them. IDs are left
// zero so the database assigns them.
func BuildPosts(opts Options) []models.Post {
	opts = opts.withDefaults()
	if opts.Count <= 0 {
		return nil
	}

	faker := gofakeit.New(opts.Seed)
	from := opts.Until.Add(-time.Duration(opts.MaxDays) * 24 * time.Hour)

	posts := make([]models.Post, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		posts = append(posts, models.Post{
			Title:     faker.Sentence(faker.Number(3, 8)),
			Content:   faker.Paragraph(1, 3, 12, " "),
			CreatedAt: faker.DateRange(from, opts.Until).UTC(),
		})
	}
	return posts
}

// Posts inserts opts.Count fake posts in batches and returns how many were written.
func Posts(ctx context.Context, db *gorm.DB, opts Options) (int, error) {
	if db == nil {
		return 0, errors.New("seed: database is required")
	}
	opts = opts.withDefaults()

	posts := BuildPosts(opts)
	if len(posts) == 0 {
		return 0, nil
	}

	res := db.WithContext(ctx).
		Select("title", "content", "created_at").
		CreateInBatches(&posts, opts.BatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("insert posts: %w", res.Error)
	}

	middleware.Logger.InfoContext(ctx, "seeded posts", "count", len(posts), "batch_size", opts.BatchSize)
	return len(posts), nil
}
