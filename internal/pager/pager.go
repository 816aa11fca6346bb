// Package pager turns cursor-based page fetches into an append-only
// sequence of pages per cached view.
package pager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/failure"
	"github.com/BloggingApp/feed-client/internal/metrics"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/remote"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const opFetchNext = "fetchNext"

type Fetcher interface {
	FetchFeedPage(ctx context.Context, key model.ViewKey, cursor string) (*model.FeedPage, error)
}

type Pager struct {
	logger   *zap.Logger
	registry *cache.Registry
	fetcher  Fetcher
	metrics  *metrics.Metrics
	timeout  time.Duration
	group    singleflight.Group
}

func New(logger *zap.Logger, registry *cache.Registry, fetcher Fetcher, m *metrics.Metrics, timeout time.Duration) *Pager {
	return &Pager{
		logger:   logger,
		registry: registry,
		fetcher:  fetcher,
		metrics:  m,
		timeout:  timeout,
	}
}

// FetchNext loads the page after cursor and appends it to the view for key.
// An empty cursor asks for the first page. Concurrent calls for the same
// view and cursor share one upstream fetch and one appended page.
//
// The upstream fetch is not cancelled when ctx is; ctx only bounds how long
// this caller waits for it.
func (p *Pager) FetchNext(ctx context.Context, key model.ViewKey, cursor string) (*model.FeedPage, error) {
	if !key.Valid() {
		return nil, failure.New(failure.Fatal, opFetchNext, ErrInvalidView)
	}

	var view *cache.CachedView
	p.registry.Update(func(tx *cache.Tx) error {
		view = tx.Get(key)
		return nil
	})

	// Flights are per view instance, so a caller never joins a load that
	// belongs to a view discarded since.
	flight := fmt.Sprintf("%s#%d|%s", key.String(), view.Generation(), cursor)
	detached := context.WithoutCancel(ctx)
	ch := p.group.DoChan(flight, func() (interface{}, error) {
		return p.fetch(detached, view, cursor)
	})

	select {
	case res := <-ch:
		if res.Shared {
			p.metrics.FetchesShared.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		page := res.Val.(model.FeedPage)
		posts := make([]model.Post, len(page.Posts))
		copy(posts, page.Posts)
		return &model.FeedPage{Posts: posts, NextCursor: page.NextCursor}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pager) fetch(ctx context.Context, view *cache.CachedView, cursor string) (model.FeedPage, error) {
	key := view.Key()
	if err := p.registry.Update(func(tx *cache.Tx) error {
		if !tx.Live(view) {
			return ErrViewDiscarded
		}
		if err := checkCursor(view, cursor); err != nil {
			return err
		}
		view.BeginFetch()
		return nil
	}); err != nil {
		return model.FeedPage{}, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	page, fetchErr := p.fetcher.FetchFeedPage(ctx, key, cursor)
	if fetchErr == nil && page == nil {
		fetchErr = errors.New("remote returned no page")
	}
	if fetchErr == nil && page.NextCursor != "" && page.NextCursor == cursor {
		fetchErr = fmt.Errorf("%w: next cursor repeats %q", remote.ErrMalformedCursor, cursor)
	}
	if fetchErr != nil {
		fetchErr = classify(fetchErr)
		p.metrics.FetchesTotal.WithLabelValues(string(key.Kind), "error").Inc()
		p.logger.Sugar().Errorf("failed to fetch page of view(%s) at cursor(%q): %s", key.String(), cursor, fetchErr.Error())
	} else {
		p.metrics.FetchesTotal.WithLabelValues(string(key.Kind), "ok").Inc()
	}

	err := p.registry.Update(func(tx *cache.Tx) error {
		view.EndFetch(fetchErr)
		if fetchErr != nil {
			return fetchErr
		}
		if !tx.Live(view) {
			return ErrViewDiscarded
		}
		view.AppendPage(*page)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrViewDiscarded) {
			p.logger.Sugar().Debugf("dropped page of discarded view(%s)", key.String())
		}
		return model.FeedPage{}, err
	}

	p.metrics.PagesAppended.WithLabelValues(string(key.Kind)).Inc()
	return *page, nil
}

func checkCursor(v *cache.CachedView, cursor string) error {
	if !v.Started() {
		if cursor != "" {
			return ErrStaleCursor
		}
		return nil
	}
	if !v.HasMore() {
		return ErrNoMorePages
	}
	if cursor != v.NextCursor() {
		return ErrStaleCursor
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, remote.ErrMalformedCursor), errors.Is(err, remote.ErrInvalidView):
		return failure.New(failure.Fatal, opFetchNext, err)
	case errors.Is(err, remote.ErrNotFound):
		return failure.New(failure.NotFound, opFetchNext, err)
	default:
		return failure.New(failure.Fetch, opFetchNext, err)
	}
}
