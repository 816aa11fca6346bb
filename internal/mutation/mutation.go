package mutation

import (
	"context"
	"sync"

	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/google/uuid"
)

type Kind string

const (
	KindToggleLike   Kind = "toggle_like"
	KindCreatePost   Kind = "create_post"
	KindToggleFollow Kind = "toggle_follow"
)

type State int

const (
	Pending State = iota
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// Mutation is one client-issued write. It starts Pending and ends either
// Confirmed or RolledBack, at which point Done is closed.
type Mutation struct {
	ID     uuid.UUID
	Kind   Kind
	Target string

	mu    sync.Mutex
	state State
	err   error
	added bool
	post  *model.Post
	done  chan struct{}
}

func newMutation(kind Kind, target string) *Mutation {
	return &Mutation{
		ID:     uuid.New(),
		Kind:   kind,
		Target: target,
		done:   make(chan struct{}),
	}
}

func (m *Mutation) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err is the failure that rolled the mutation back, nil otherwise.
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Added is the server's answer for a confirmed toggle: whether the like or
// follow now exists.
func (m *Mutation) Added() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.added
}

// Post is the canonical post of a confirmed create.
func (m *Mutation) Post() (model.Post, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.post == nil {
		return model.Post{}, false
	}
	return *m.post, true
}

func (m *Mutation) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the mutation settles or ctx ends.
func (m *Mutation) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mutation) settle(state State, err error) {
	m.mu.Lock()
	m.state = state
	m.err = err
	m.mu.Unlock()
	close(m.done)
}
