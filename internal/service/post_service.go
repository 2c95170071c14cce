// Package service implements the listing pipeline on top of the repository layer.
package service

import (
	"context"
	"strconv"
	"time"

	"postboard/internal/listing"
	"postboard/internal/models"
	"postboard/internal/observability"
	"postboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ListOptions configure PostService.
type ListOptions struct {
	Limits listing.Limits
	// QueryTimeout bounds both store calls of one request. Zero means no extra deadline.
	QueryTimeout time.Duration
	// Snapshot runs the page and count queries in one read-only REPEATABLE READ
	// transaction instead of two independent statements.
	Snapshot bool
}

type PostService struct {
	postRepo repository.PostRepository
	opts     ListOptions
	spans    *observability.Spans
}

func NewPostService(postRepo repository.PostRepository, opts ListOptions) *PostService {
	opts.Limits = opts.Limits.WithDefaults()
	return &PostService{
		postRepo: postRepo,
		opts:     opts,
		spans:    observability.DefaultSpans(),
	}
}

// ListPosts validates params, then fetches one page and the filtered total. The
// result is either a complete page with its total or an error: validation
// failures come back as a validation AppError before any query runs, store
// failures as an internal AppError wrapping the cause.
func (s *PostService) ListPosts(ctx context.Context, params listing.Params) (resp models.PaginatedResponse[models.Post], err error) {
	spec, err := listing.Normalize(params, s.opts.Limits)
	if err != nil {
		observability.ListingRequests.WithLabelValues("invalid", "false").Inc()
		return resp, err
	}

	ctx, span := s.spans.Call(ctx, "PostService", "ListPosts",
		attribute.String("listing.sort", string(spec.SortColumn)+" "+spec.SortDirection.String()),
		attribute.Bool("listing.snapshot", s.opts.Snapshot),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		observability.ListingRequests.WithLabelValues(outcome, strconv.FormatBool(spec.Filtered())).Inc()
		observability.EndSpan(span, err)
	}()

	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}

	var (
		posts []models.Post
		total int64
	)
	fetch := func(repo repository.PostRepository) error {
		var err error
		if posts, err = repo.List(ctx, spec); err != nil {
			return err
		}
		total, err = repo.Count(ctx, spec)
		return err
	}

	if s.opts.Snapshot {
		err = s.postRepo.Snapshot(ctx, fetch)
	} else {
		err = fetch(s.postRepo)
	}
	if err != nil {
		return models.PaginatedResponse[models.Post]{}, models.NewInternalError(err)
	}

	observability.ListingPageSize.Observe(float64(len(posts)))
	return models.NewPaginatedResponse(posts, total), nil
}
