// Package cache holds every feed view and profile the client has fetched.
//
// All access goes through Registry.Update or Registry.View, so each patch a
// caller makes inside one closure is observed by everyone else as a single
// step.
package cache

import (
	"sort"
	"sync"

	"github.com/BloggingApp/feed-client/internal/model"
)

type Registry struct {
	mu       sync.RWMutex
	views    map[model.ViewKey]*CachedView
	profiles map[string]*model.Profile
	gen      uint64
}

func NewRegistry() *Registry {
	return &Registry{
		views:    make(map[model.ViewKey]*CachedView),
		profiles: make(map[string]*model.Profile),
	}
}

// Update runs fn with exclusive access to the registry.
func (r *Registry) Update(fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&Tx{r: r, writable: true})
}

// View runs fn with shared, read-only access to the registry.
func (r *Registry) View(fn func(tx *Tx) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(&Tx{r: r})
}

type Tx struct {
	r        *Registry
	writable bool
}

// Get returns the view for key, creating an empty one if absent. Inside a
// read-only transaction a missing view is returned empty and not stored.
// Every stored view gets a generation no earlier view for the key had.
func (tx *Tx) Get(key model.ViewKey) *CachedView {
	if v, ok := tx.r.views[key]; ok {
		return v
	}
	v := newCachedView(key)
	if tx.writable {
		tx.r.gen++
		v.gen = tx.r.gen
		tx.r.views[key] = v
	}
	return v
}

func (tx *Tx) Lookup(key model.ViewKey) (*CachedView, bool) {
	v, ok := tx.r.views[key]
	return v, ok
}

// Live reports whether v is still the registered view for its key.
func (tx *Tx) Live(v *CachedView) bool {
	current, ok := tx.r.views[v.key]
	return ok && current == v
}

// ForEachMatching returns the views pred accepts, ordered by key.
func (tx *Tx) ForEachMatching(pred func(*CachedView) bool) []*CachedView {
	var matched []*CachedView
	for _, v := range tx.r.views {
		if pred == nil || pred(v) {
			matched = append(matched, v)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].key.String() < matched[j].key.String()
	})
	return matched
}

func (tx *Tx) Keys() []model.ViewKey {
	keys := make([]model.ViewKey, 0, len(tx.r.views))
	for key := range tx.r.views {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Discard drops the view for key. Anyone still holding the old
// *CachedView sees Discarded() == true.
func (tx *Tx) Discard(key model.ViewKey) bool {
	v, ok := tx.r.views[key]
	if !ok || !tx.writable {
		return false
	}
	v.discarded = true
	delete(tx.r.views, key)
	return true
}

func (tx *Tx) Profile(userID string) (model.Profile, bool) {
	p, ok := tx.r.profiles[userID]
	if !ok {
		return model.Profile{}, false
	}
	return *p, true
}

func (tx *Tx) PutProfile(profile model.Profile) {
	if !tx.writable {
		return
	}
	p := profile
	tx.r.profiles[profile.ID] = &p
}

func (tx *Tx) PatchProfile(userID string, fn func(*model.Profile)) bool {
	p, ok := tx.r.profiles[userID]
	if !ok || !tx.writable {
		return false
	}
	fn(p)
	return true
}

func (tx *Tx) DeleteProfile(userID string) {
	if tx.writable {
		delete(tx.r.profiles, userID)
	}
}

// ContainsPost matches views holding the post.
func ContainsPost(postID string) func(*CachedView) bool {
	return func(v *CachedView) bool {
		return v.ContainsPost(postID)
	}
}

// OfKey matches the view registered under key.
func OfKey(key model.ViewKey) func(*CachedView) bool {
	return func(v *CachedView) bool {
		return v.key == key
	}
}
