package service

import (
	"context"
	"errors"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/failure"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/mutation"
	"github.com/BloggingApp/feed-client/internal/remote"
	"go.uber.org/zap"
)

type profileService struct {
	logger   *zap.Logger
	registry *cache.Registry
	remote   ProfileFetcher
	engine   *mutation.Engine
}

func newProfileService(logger *zap.Logger, registry *cache.Registry, remote ProfileFetcher, engine *mutation.Engine) Profiles {
	return &profileService{
		logger:   logger,
		registry: registry,
		remote:   remote,
		engine:   engine,
	}
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if profile, ok := s.cached(userID); ok {
		return profile, nil
	}
	return s.Reload(ctx, userID)
}

// Reload fetches the profile even when it is cached. Follow toggles still in
// flight stay applied on top of the fetched value.
func (s *profileService) Reload(ctx context.Context, userID string) (*model.Profile, error) {
	fetched, err := s.remote.GetProfile(ctx, userID)
	if err == nil && fetched == nil {
		err = ErrEmptyProfile
	}
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			s.registry.Update(func(tx *cache.Tx) error {
				tx.DeleteProfile(userID)
				return nil
			})
			return nil, failure.New(failure.NotFound, "getProfile", err)
		}
		s.logger.Sugar().Errorf("failed to fetch profile(%s): %s", userID, err.Error())
		return nil, failure.New(failure.Fetch, "getProfile", err)
	}

	if fetched.ID == "" {
		fetched.ID = userID
	}
	s.engine.ObserveProfile(*fetched)

	if profile, ok := s.cached(userID); ok {
		return profile, nil
	}
	return fetched, nil
}

func (s *profileService) cached(userID string) (*model.Profile, bool) {
	var profile model.Profile
	var ok bool
	s.registry.View(func(tx *cache.Tx) error {
		profile, ok = tx.Profile(userID)
		return nil
	})
	if !ok {
		return nil, false
	}
	return &profile, true
}
