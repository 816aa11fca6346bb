package cache

import (
	"testing"

	"github.com/BloggingApp/feed-client/internal/model"
)

func post(id string) model.Post {
	return model.Post{ID: id, Content: "content " + id}
}

func TestGetIsStructural(t *testing.T) {
	r := NewRegistry()

	var a, b *CachedView
	r.Update(func(tx *Tx) error {
		a = tx.Get(model.ProfileView("u1"))
		b = tx.Get(model.ViewKey{Kind: model.ViewProfile, UserID: "u1"})
		return nil
	})
	if a != b {
		t.Fatal("equal keys returned different views")
	}

	r.View(func(tx *Tx) error {
		if got := len(tx.Keys()); got != 1 {
			t.Errorf("len(Keys()) = %d, want 1", got)
		}
		return nil
	})
}

func TestGetInReadTxDoesNotStore(t *testing.T) {
	r := NewRegistry()
	r.View(func(tx *Tx) error {
		v := tx.Get(model.GlobalView())
		if v.Started() || !v.HasMore() {
			t.Error("fresh view should be unstarted with more to load")
		}
		return nil
	})
	r.View(func(tx *Tx) error {
		if _, ok := tx.Lookup(model.GlobalView()); ok {
			t.Error("read-only Get stored a view")
		}
		return nil
	})
}

func TestForEachMatching(t *testing.T) {
	r := NewRegistry()
	r.Update(func(tx *Tx) error {
		tx.Get(model.GlobalView()).AppendPage(model.FeedPage{Posts: []model.Post{post("p1"), post("p2")}})
		tx.Get(model.FollowingView()).AppendPage(model.FeedPage{Posts: []model.Post{post("p3")}})
		tx.Get(model.ProfileView("u1")).AppendPage(model.FeedPage{Posts: []model.Post{post("p2")}})
		return nil
	})

	r.View(func(tx *Tx) error {
		views := tx.ForEachMatching(ContainsPost("p2"))
		if len(views) != 2 {
			t.Fatalf("ForEachMatching(p2) returned %d views, want 2", len(views))
		}
		if views[0].Key() != model.GlobalView() || views[1].Key() != model.ProfileView("u1") {
			t.Errorf("unexpected views: %v, %v", views[0].Key(), views[1].Key())
		}
		if got := len(tx.ForEachMatching(nil)); got != 3 {
			t.Errorf("ForEachMatching(nil) returned %d views, want 3", got)
		}
		if got := len(tx.ForEachMatching(OfKey(model.FollowingView()))); got != 1 {
			t.Errorf("OfKey(following) matched %d views, want 1", got)
		}
		return nil
	})
}

func TestDiscard(t *testing.T) {
	r := NewRegistry()
	var old *CachedView
	r.Update(func(tx *Tx) error {
		old = tx.Get(model.GlobalView())
		if !tx.Discard(model.GlobalView()) {
			t.Error("Discard() = false for existing view")
		}
		return nil
	})
	if !old.Discarded() {
		t.Error("discarded view not flagged")
	}
	r.Update(func(tx *Tx) error {
		fresh := tx.Get(model.GlobalView())
		if fresh == old {
			t.Error("Get returned the discarded view")
		}
		if tx.Live(old) {
			t.Error("Live(old) = true after discard")
		}
		if !tx.Live(fresh) {
			t.Error("Live(fresh) = false")
		}
		return nil
	})
}

func TestGenerationChangesAfterDiscard(t *testing.T) {
	r := NewRegistry()
	var first, second, global *CachedView
	r.Update(func(tx *Tx) error {
		first = tx.Get(model.ProfileView("u1"))
		global = tx.Get(model.GlobalView())
		tx.Discard(model.ProfileView("u1"))
		second = tx.Get(model.ProfileView("u1"))
		return nil
	})

	if first.Generation() == 0 || second.Generation() == 0 {
		t.Fatalf("stored views have zero generation: %d, %d", first.Generation(), second.Generation())
	}
	if first.Generation() == second.Generation() {
		t.Error("replacement view reused the discarded view's generation")
	}
	if global.Generation() == first.Generation() {
		t.Error("views under different keys share a generation")
	}

	r.View(func(tx *Tx) error {
		if g := tx.Get(model.FollowingView()).Generation(); g != 0 {
			t.Errorf("unstored view generation = %d, want 0", g)
		}
		return nil
	})
}

func TestViewPatching(t *testing.T) {
	v := newCachedView(model.GlobalView())
	if v.PrependPost(post("x")) {
		t.Error("PrependPost succeeded without a first page")
	}

	v.AppendPage(model.FeedPage{Posts: []model.Post{post("p1"), post("p2")}, NextCursor: "c1"})
	v.AppendPage(model.FeedPage{Posts: []model.Post{post("p3")}})

	if v.HasMore() {
		t.Error("HasMore() = true after page without cursor")
	}
	if !v.PrependPost(post("new")) {
		t.Fatal("PrependPost() = false")
	}

	wantIDs := func(want ...string) {
		t.Helper()
		items := v.Items()
		if len(items) != len(want) {
			t.Fatalf("Items() has %d posts, want %d", len(items), len(want))
		}
		for i, id := range want {
			if items[i].ID != id {
				t.Errorf("Items()[%d] = %s, want %s", i, items[i].ID, id)
			}
		}
	}
	wantIDs("new", "p1", "p2", "p3")

	if n := v.PatchPost("p3", func(p *model.Post) { p.LikeCount = 7 }); n != 1 {
		t.Errorf("PatchPost() = %d, want 1", n)
	}
	if p, _ := v.FindPost("p3"); p.LikeCount != 7 {
		t.Errorf("LikeCount = %d, want 7", p.LikeCount)
	}

	v.ReplacePost("new", post("real"))
	wantIDs("real", "p1", "p2", "p3")

	if !v.RemovePost("p1") {
		t.Error("RemovePost() = false")
	}
	wantIDs("real", "p2", "p3")
	if v.PageCount() != 2 {
		t.Errorf("PageCount() = %d, want 2", v.PageCount())
	}
}

func TestAppendPageCopiesInput(t *testing.T) {
	v := newCachedView(model.GlobalView())
	page := model.FeedPage{Posts: []model.Post{post("p1")}}
	v.AppendPage(page)
	page.Posts[0].Content = "mutated"

	if got, _ := v.FindPost("p1"); got.Content == "mutated" {
		t.Error("view aliases the caller's page")
	}
}

func TestProfiles(t *testing.T) {
	r := NewRegistry()
	r.Update(func(tx *Tx) error {
		tx.PutProfile(model.Profile{ID: "u1", FollowersCount: 2})
		tx.PatchProfile("u1", func(p *model.Profile) { p.FollowersCount++ })
		if tx.PatchProfile("missing", func(p *model.Profile) {}) {
			t.Error("PatchProfile on missing profile returned true")
		}
		return nil
	})
	r.View(func(tx *Tx) error {
		p, ok := tx.Profile("u1")
		if !ok || p.FollowersCount != 3 {
			t.Errorf("Profile(u1) = %+v, %v", p, ok)
		}
		return nil
	})
	r.Update(func(tx *Tx) error {
		tx.DeleteProfile("u1")
		return nil
	})
	r.View(func(tx *Tx) error {
		if _, ok := tx.Profile("u1"); ok {
			t.Error("profile survived delete")
		}
		return nil
	})
}
