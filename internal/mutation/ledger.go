package mutation

import (
	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/model"
)

// toggleValue is a flag with the counter that follows it: liked and the like
// count, or following and the follower count.
type toggleValue struct {
	On    bool
	Count int64
}

func (v toggleValue) flip() toggleValue {
	if v.On {
		v.On = false
		if v.Count > 0 {
			v.Count--
		}
		return v
	}
	v.On = true
	v.Count++
	return v
}

func (v toggleValue) set(on bool) toggleValue {
	if v.On == on {
		return v
	}
	return v.flip()
}

// target is one cached copy of a toggled entity. Targets are compared with
// ==, so implementations must be comparable.
type target interface {
	read(tx *cache.Tx) (toggleValue, bool)
	write(tx *cache.Tx, v toggleValue) bool
}

type likeTarget struct {
	view   *cache.CachedView
	postID string
}

func (t likeTarget) read(tx *cache.Tx) (toggleValue, bool) {
	if !tx.Live(t.view) {
		return toggleValue{}, false
	}
	post, ok := t.view.FindPost(t.postID)
	if !ok {
		return toggleValue{}, false
	}
	return toggleValue{On: post.LikedByMe, Count: post.LikeCount}, true
}

func (t likeTarget) write(tx *cache.Tx, v toggleValue) bool {
	if !tx.Live(t.view) {
		return false
	}
	return t.view.PatchPost(t.postID, func(p *model.Post) {
		p.LikedByMe = v.On
		p.LikeCount = v.Count
	}) > 0
}

type profileTarget struct {
	userID string
}

func (t profileTarget) read(tx *cache.Tx) (toggleValue, bool) {
	p, ok := tx.Profile(t.userID)
	if !ok {
		return toggleValue{}, false
	}
	return toggleValue{On: p.IsFollowing, Count: p.FollowersCount}, true
}

func (t profileTarget) write(tx *cache.Tx, v toggleValue) bool {
	return tx.PatchProfile(t.userID, func(p *model.Profile) {
		p.IsFollowing = v.On
		p.FollowersCount = v.Count
	})
}

type toggleOp struct {
	m       *Mutation
	seq     uint64
	settled bool
	value   bool
}

type tracked struct {
	base  toggleValue
	since uint64
}

// ledger holds the in-flight toggles of one entity. The value shown by a
// target is its base replayed through every op issued since the target was
// first seen: a pending op flips the flag, a settled op sets it to what the
// server answered. Rolling an op back removes it from the replay, so an
// instance only ever takes back its own effect.
//
// A ledger is only touched inside Registry.Update.
type ledger struct {
	ops     []*toggleOp
	targets map[target]*tracked
	order   []target
}

func newLedger() *ledger {
	return &ledger{targets: make(map[target]*tracked)}
}

// track starts following t with its current value as the base for ops
// numbered since and later.
func (l *ledger) track(tx *cache.Tx, t target, since uint64) {
	if _, ok := l.targets[t]; ok {
		return
	}
	v, ok := t.read(tx)
	if !ok {
		return
	}
	l.targets[t] = &tracked{base: v, since: since}
	l.order = append(l.order, t)
}

// rebase replaces the base of t with a freshly fetched value that does not
// yet reflect the ops still in the ledger.
func (l *ledger) rebase(t target, v toggleValue, since uint64) {
	if tr, ok := l.targets[t]; ok {
		tr.base = v
		tr.since = since
		return
	}
	l.targets[t] = &tracked{base: v, since: since}
	l.order = append(l.order, t)
}

func (l *ledger) push(op *toggleOp) {
	l.ops = append(l.ops, op)
}

func (l *ledger) find(m *Mutation) *toggleOp {
	for _, op := range l.ops {
		if op.m == m {
			return op
		}
	}
	return nil
}

func (l *ledger) settle(m *Mutation, value bool) {
	if op := l.find(m); op != nil {
		op.settled = true
		op.value = value
	}
	l.compact()
}

func (l *ledger) remove(m *Mutation) {
	for i, op := range l.ops {
		if op.m == m {
			l.ops = append(l.ops[:i], l.ops[i+1:]...)
			break
		}
	}
	l.compact()
}

// compact folds settled ops at the head of the ledger into the bases.
func (l *ledger) compact() {
	for len(l.ops) > 0 && l.ops[0].settled {
		head := l.ops[0]
		for _, tr := range l.targets {
			if tr.since <= head.seq {
				tr.base = tr.base.set(head.value)
			}
		}
		l.ops = l.ops[1:]
	}
}

func (l *ledger) firstSeq(next uint64) uint64 {
	if len(l.ops) == 0 {
		return next
	}
	return l.ops[0].seq
}

func (l *ledger) empty() bool {
	return len(l.ops) == 0
}

func (l *ledger) value(t target) (toggleValue, bool) {
	tr, ok := l.targets[t]
	if !ok {
		return toggleValue{}, false
	}
	v := tr.base
	for _, op := range l.ops {
		if op.seq < tr.since {
			continue
		}
		if op.settled {
			v = v.set(op.value)
		} else {
			v = v.flip()
		}
	}
	return v, true
}

// apply writes every target's replayed value back into the cache and stops
// tracking targets that no longer exist.
func (l *ledger) apply(tx *cache.Tx) {
	live := l.order[:0]
	for _, t := range l.order {
		v, _ := l.value(t)
		if !t.write(tx, v) {
			delete(l.targets, t)
			continue
		}
		live = append(live, t)
	}
	l.order = live
}
