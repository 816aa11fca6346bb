package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/failure"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/pager"
	"github.com/BloggingApp/feed-client/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FeedView is what a display layer renders for one view.
type FeedView struct {
	Items     []model.Post `json:"items"`
	IsLoading bool         `json:"isLoading"`
	IsError   bool         `json:"isError"`
	Err       error        `json:"-"`
	Error     string       `json:"error,omitempty"`
	HasMore   bool         `json:"hasMore"`
	IsEmpty   bool         `json:"isEmpty"`
}

type feedService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	registry *cache.Registry
	pager    *pager.Pager
	ttl      time.Duration

	mu       sync.Mutex
	restored map[model.ViewKey]bool
}

func newFeedService(logger *zap.Logger, repo *repository.Repository, registry *cache.Registry, p *pager.Pager, ttl time.Duration) Feed {
	if repo == nil {
		repo = &repository.Repository{}
	}
	return &feedService{
		logger:   logger,
		repo:     repo,
		registry: registry,
		pager:    p,
		ttl:      ttl,
		restored: make(map[model.ViewKey]bool),
	}
}

func (s *feedService) Snapshot(ctx context.Context, key model.ViewKey) (FeedView, error) {
	if !key.Valid() {
		return FeedView{}, failure.New(failure.Fatal, "snapshot", ErrInvalidView)
	}
	s.restore(ctx, key)

	var view FeedView
	s.registry.View(func(tx *cache.Tx) error {
		v := tx.Get(key)
		view = FeedView{
			Items:     v.Items(),
			IsLoading: v.InFlight(),
			Err:       v.Err(),
			HasMore:   v.HasMore(),
		}
		view.IsEmpty = v.Started() && len(view.Items) == 0 && !view.IsLoading
		return nil
	})
	if view.Err != nil {
		view.IsError = true
		view.Error = view.Err.Error()
	}
	return view, nil
}

// LoadMore fetches the next page of the view. It does nothing when the view
// is exhausted or already loading.
func (s *feedService) LoadMore(ctx context.Context, key model.ViewKey) error {
	if !key.Valid() {
		return failure.New(failure.Fatal, "loadMore", ErrInvalidView)
	}
	s.restore(ctx, key)

	var cursor string
	var skip bool
	s.registry.View(func(tx *cache.Tx) error {
		v := tx.Get(key)
		skip = !v.HasMore() || v.InFlight()
		cursor = v.NextCursor()
		return nil
	})
	if skip {
		return nil
	}

	_, err := s.pager.FetchNext(ctx, key, cursor)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pager.ErrStaleCursor), errors.Is(err, pager.ErrNoMorePages), errors.Is(err, pager.ErrViewDiscarded):
		// A concurrent load or discard got there first.
		return nil
	}
	return err
}

func (s *feedService) Refresh(ctx context.Context, key model.ViewKey) error {
	if err := s.Discard(ctx, key); err != nil {
		return err
	}
	return s.LoadMore(ctx, key)
}

// Discard drops the view and its stored snapshot. Loads still in flight for
// it complete without effect.
func (s *feedService) Discard(ctx context.Context, key model.ViewKey) error {
	if !key.Valid() {
		return failure.New(failure.Fatal, "discard", ErrInvalidView)
	}

	s.mu.Lock()
	s.restored[key] = true
	s.mu.Unlock()

	s.registry.Update(func(tx *cache.Tx) error {
		tx.Discard(key)
		return nil
	})

	if s.repo.Redis == nil {
		return nil
	}
	if err := s.repo.Redis.DeleteView(ctx, key); err != nil {
		s.logger.Sugar().Errorf("failed to delete view(%s) snapshot from redis: %s", key.String(), err.Error())
		return ErrInternal
	}
	return nil
}

// Persist stores the confirmed pages of every loaded view. Provisional posts
// are left out.
func (s *feedService) Persist(ctx context.Context) error {
	if s.repo.Redis == nil {
		return nil
	}

	snapshots := make(map[model.ViewKey][]model.FeedPage)
	s.registry.View(func(tx *cache.Tx) error {
		for _, key := range tx.Keys() {
			v, _ := tx.Lookup(key)
			if !v.Started() {
				continue
			}
			snapshots[key] = confirmedPages(v.Pages())
		}
		return nil
	})

	var errs []error
	for key, pages := range snapshots {
		if err := s.repo.Redis.SaveView(ctx, key, pages, s.ttl); err != nil {
			s.logger.Sugar().Errorf("failed to save view(%s) snapshot in redis: %s", key.String(), err.Error())
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return ErrInternal
	}

	s.logger.Sugar().Infof("persisted %d view snapshots", len(snapshots))
	return nil
}

// restore seeds a view from its stored snapshot the first time it is touched,
// unless a fetch has already started it.
func (s *feedService) restore(ctx context.Context, key model.ViewKey) {
	if s.repo.Redis == nil {
		return
	}

	s.mu.Lock()
	done := s.restored[key]
	s.restored[key] = true
	s.mu.Unlock()
	if done {
		return
	}

	pages, err := s.repo.Redis.LoadView(ctx, key)
	if err != nil {
		if err != redis.Nil {
			s.logger.Sugar().Errorf("failed to load view(%s) snapshot from redis: %s", key.String(), err.Error())
		}
		return
	}
	if len(pages) == 0 {
		return
	}

	s.registry.Update(func(tx *cache.Tx) error {
		v := tx.Get(key)
		if v.Started() || v.InFlight() {
			return nil
		}
		for _, page := range pages {
			if page != nil {
				v.AppendPage(*page)
			}
		}
		return nil
	})
	s.logger.Sugar().Debugf("restored %d pages of view(%s)", len(pages), key.String())
}

func confirmedPages(pages []model.FeedPage) []model.FeedPage {
	for i, page := range pages {
		posts := page.Posts[:0]
		for _, p := range page.Posts {
			if !p.IsProvisional() {
				posts = append(posts, p)
			}
		}
		pages[i].Posts = posts
	}
	return pages
}
