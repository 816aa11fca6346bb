// Package mutation applies client writes to every cached view they affect
// before the server answers, then confirms or rolls them back.
package mutation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/failure"
	"github.com/BloggingApp/feed-client/internal/metrics"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/remote"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Submitter interface {
	SubmitLike(ctx context.Context, postID string) (bool, error)
	SubmitPost(ctx context.Context, content string) (*model.Post, error)
	SubmitFollow(ctx context.Context, userID string) (bool, error)
}

type Options struct {
	// MutationTimeout bounds each remote write. Zero means no bound.
	MutationTimeout time.Duration
	// MaxPostLength is counted in runes. Zero means no limit.
	MaxPostLength int
	// SelfInFollowing also puts the viewer's new posts on the following feed.
	SelfInFollowing bool
	// OnSettled is called once for every mutation that reaches a terminal
	// state, from the goroutine that settled it.
	OnSettled func(*Mutation)
}

type Engine struct {
	logger   *zap.Logger
	registry *cache.Registry
	remote   Submitter
	metrics  *metrics.Metrics
	opts     Options

	// Guarded by the registry lock.
	likes   map[string]*ledger
	follows map[string]*ledger
	seq     uint64

	wg sync.WaitGroup
}

func New(logger *zap.Logger, registry *cache.Registry, remote Submitter, m *metrics.Metrics, opts Options) *Engine {
	return &Engine{
		logger:   logger,
		registry: registry,
		remote:   remote,
		metrics:  m,
		opts:     opts,
		likes:    make(map[string]*ledger),
		follows:  make(map[string]*ledger),
	}
}

// ToggleLike flips the viewer's like on every cached copy of the post and
// sends the toggle upstream. It returns as soon as the cache is patched.
func (e *Engine) ToggleLike(ctx context.Context, postID string) (*Mutation, error) {
	if postID == "" {
		return nil, ErrEmptyTarget
	}
	if strings.HasPrefix(postID, model.ProvisionalPrefix) {
		return nil, ErrProvisionalPost
	}

	m := newMutation(KindToggleLike, postID)
	e.registry.Update(func(tx *cache.Tx) error {
		l, ok := e.likes[postID]
		if !ok {
			l = newLedger()
			e.likes[postID] = l
		}
		op := e.nextOp(m)
		for _, v := range tx.ForEachMatching(cache.ContainsPost(postID)) {
			l.track(tx, likeTarget{view: v, postID: postID}, op.seq)
		}
		l.push(op)
		l.apply(tx)
		return nil
	})
	e.issued(m)

	e.dispatch(ctx, m, func(ctx context.Context) {
		added, err := e.remote.SubmitLike(ctx, postID)
		e.registry.Update(func(tx *cache.Tx) error {
			e.settleToggle(tx, e.likes, postID, m, added, err)
			return nil
		})
		if err != nil {
			e.finish(m, RolledBack, classify("toggleLike", err))
			return
		}
		m.mu.Lock()
		m.added = added
		m.mu.Unlock()
		e.finish(m, Confirmed, nil)
	})

	return m, nil
}

// ToggleFollow flips whether viewer follows userID on the cached profile and
// sends the toggle upstream.
func (e *Engine) ToggleFollow(ctx context.Context, viewer model.Viewer, userID string) (*Mutation, error) {
	if userID == "" {
		return nil, ErrEmptyTarget
	}
	if viewer.IsAnonymous() {
		return nil, ErrAnonymousViewer
	}
	if viewer.ID == userID {
		return nil, ErrSelfFollow
	}

	m := newMutation(KindToggleFollow, userID)
	e.registry.Update(func(tx *cache.Tx) error {
		l, ok := e.follows[userID]
		if !ok {
			l = newLedger()
			e.follows[userID] = l
		}
		op := e.nextOp(m)
		l.track(tx, profileTarget{userID: userID}, op.seq)
		l.push(op)
		l.apply(tx)
		return nil
	})
	e.issued(m)

	e.dispatch(ctx, m, func(ctx context.Context) {
		added, err := e.remote.SubmitFollow(ctx, userID)
		e.registry.Update(func(tx *cache.Tx) error {
			e.settleToggle(tx, e.follows, userID, m, added, err)
			return nil
		})
		if err != nil {
			e.finish(m, RolledBack, classify("toggleFollow", err))
			return
		}
		m.mu.Lock()
		m.added = added
		m.mu.Unlock()
		e.finish(m, Confirmed, nil)
	})

	return m, nil
}

// CreatePost shows a provisional post at the head of every feed the new post
// belongs to, then swaps it for the server's post or removes it on failure.
// Only feeds that already hold a first page are patched.
func (e *Engine) CreatePost(ctx context.Context, viewer model.Viewer, content string) (*Mutation, error) {
	if viewer.IsAnonymous() {
		return nil, ErrAnonymousViewer
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if e.opts.MaxPostLength > 0 && utf8.RuneCountInString(content) > e.opts.MaxPostLength {
		return nil, ErrContentTooLong
	}

	provisional := model.Post{
		ID:        model.ProvisionalPrefix + uuid.NewString(),
		Author:    viewer.Author(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	m := newMutation(KindCreatePost, provisional.ID)

	var patched []*cache.CachedView
	e.registry.Update(func(tx *cache.Tx) error {
		for _, key := range e.postTargets(viewer) {
			v, ok := tx.Lookup(key)
			if ok && v.PrependPost(provisional) {
				patched = append(patched, v)
			}
		}
		return nil
	})
	e.issued(m)

	e.dispatch(ctx, m, func(ctx context.Context) {
		created, err := e.remote.SubmitPost(ctx, content)
		if err == nil && created == nil {
			err = errors.New("remote returned no post")
		}

		var canonical model.Post
		if err == nil {
			canonical = *created
			if canonical.Author.ID == "" {
				canonical.Author = viewer.Author()
			}
		}

		e.registry.Update(func(tx *cache.Tx) error {
			for _, v := range patched {
				if !tx.Live(v) {
					continue
				}
				if err != nil || v.ContainsPost(canonical.ID) {
					v.RemovePost(provisional.ID)
					continue
				}
				v.ReplacePost(provisional.ID, canonical)
			}
			return nil
		})

		if err != nil {
			e.finish(m, RolledBack, classify("createPost", err))
			return
		}
		m.mu.Lock()
		m.post = &canonical
		m.mu.Unlock()
		e.finish(m, Confirmed, nil)
	})

	return m, nil
}

// ObserveProfile stores a freshly fetched profile. Follow toggles still in
// flight for it are replayed on top of the fetched value.
func (e *Engine) ObserveProfile(profile model.Profile) {
	e.registry.Update(func(tx *cache.Tx) error {
		tx.PutProfile(profile)
		l, ok := e.follows[profile.ID]
		if !ok {
			return nil
		}
		t := profileTarget{userID: profile.ID}
		l.rebase(t, toggleValue{On: profile.IsFollowing, Count: profile.FollowersCount}, l.firstSeq(e.seq+1))
		l.apply(tx)
		return nil
	})
}

// Wait blocks until every dispatched remote write has settled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) postTargets(viewer model.Viewer) []model.ViewKey {
	keys := []model.ViewKey{model.GlobalView(), model.ProfileView(viewer.ID)}
	if e.opts.SelfInFollowing {
		keys = append(keys, model.FollowingView())
	}
	return keys
}

func (e *Engine) nextOp(m *Mutation) *toggleOp {
	e.seq++
	return &toggleOp{m: m, seq: e.seq}
}

func (e *Engine) settleToggle(tx *cache.Tx, ledgers map[string]*ledger, id string, m *Mutation, added bool, err error) {
	l, ok := ledgers[id]
	if !ok {
		return
	}
	if err != nil {
		l.remove(m)
	} else {
		l.settle(m, added)
	}
	l.apply(tx)
	if l.empty() {
		delete(ledgers, id)
	}
}

func (e *Engine) dispatch(ctx context.Context, m *Mutation, call func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if e.opts.MutationTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.opts.MutationTimeout)
			defer cancel()
		}
		call(ctx)
	}()
}

func (e *Engine) issued(m *Mutation) {
	e.metrics.PendingGauge.Inc()
	e.logger.Sugar().Debugf("issued %s(%s) as mutation(%s)", m.Kind, m.Target, m.ID.String())
}

func (e *Engine) finish(m *Mutation, state State, err error) {
	m.settle(state, err)
	e.metrics.PendingGauge.Dec()
	e.metrics.MutationsTotal.WithLabelValues(string(m.Kind), state.String()).Inc()

	if err != nil {
		e.logger.Sugar().Errorf("rolled back %s(%s): %s", m.Kind, m.Target, err.Error())
	} else {
		e.logger.Sugar().Debugf("confirmed %s(%s)", m.Kind, m.Target)
	}

	if e.opts.OnSettled != nil {
		e.opts.OnSettled(m)
	}
}

func classify(op string, err error) error {
	if errors.Is(err, remote.ErrNotFound) {
		return failure.New(failure.NotFound, op, err)
	}
	return failure.New(failure.Mutation, op, err)
}
