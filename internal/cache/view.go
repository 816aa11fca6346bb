package cache

import "github.com/BloggingApp/feed-client/internal/model"

// CachedView is the locally held state of one feed. Methods that change it
// must only be called from inside Registry.Update.
type CachedView struct {
	key       model.ViewKey
	gen       uint64
	pages     []model.FeedPage
	started   bool
	inflight  int
	lastErr   error
	discarded bool
}

func newCachedView(key model.ViewKey) *CachedView {
	return &CachedView{key: key}
}

func (v *CachedView) Key() model.ViewKey {
	return v.key
}

// Generation tells apart successive views registered under the same key.
// It is zero for a view that was never stored.
func (v *CachedView) Generation() uint64 {
	return v.gen
}

// Started reports whether the first page has been stored.
func (v *CachedView) Started() bool {
	return v.started
}

// HasMore is true before the first page and afterwards whenever the
// latest page carried a cursor.
func (v *CachedView) HasMore() bool {
	if !v.started {
		return true
	}
	return v.NextCursor() != ""
}

func (v *CachedView) NextCursor() string {
	if len(v.pages) == 0 {
		return ""
	}
	return v.pages[len(v.pages)-1].NextCursor
}

func (v *CachedView) InFlight() bool {
	return v.inflight > 0
}

func (v *CachedView) Err() error {
	return v.lastErr
}

func (v *CachedView) Discarded() bool {
	return v.discarded
}

func (v *CachedView) PageCount() int {
	return len(v.pages)
}

// Pages returns a copy of the fetched pages in fetch order.
func (v *CachedView) Pages() []model.FeedPage {
	pages := make([]model.FeedPage, len(v.pages))
	for i, page := range v.pages {
		pages[i] = copyPage(page)
	}
	return pages
}

// Items flattens the pages in fetch order, keeping server order inside a page.
func (v *CachedView) Items() []model.Post {
	n := 0
	for _, page := range v.pages {
		n += len(page.Posts)
	}
	items := make([]model.Post, 0, n)
	for _, page := range v.pages {
		items = append(items, page.Posts...)
	}
	return items
}

func (v *CachedView) FindPost(postID string) (model.Post, bool) {
	for _, page := range v.pages {
		for _, post := range page.Posts {
			if post.ID == postID {
				return post, true
			}
		}
	}
	return model.Post{}, false
}

func (v *CachedView) ContainsPost(postID string) bool {
	_, ok := v.FindPost(postID)
	return ok
}

func (v *CachedView) AppendPage(page model.FeedPage) {
	v.pages = append(v.pages, copyPage(page))
	v.started = true
	v.lastErr = nil
}

func (v *CachedView) BeginFetch() {
	v.inflight++
}

func (v *CachedView) EndFetch(err error) {
	if v.inflight > 0 {
		v.inflight--
	}
	if err != nil {
		v.lastErr = err
	}
}

// PatchPost applies fn to every copy of the post in the view and returns the
// number of copies patched.
func (v *CachedView) PatchPost(postID string, fn func(*model.Post)) int {
	patched := 0
	for i := range v.pages {
		posts := v.pages[i].Posts
		for j := range posts {
			if posts[j].ID == postID {
				fn(&posts[j])
				patched++
			}
		}
	}
	return patched
}

// PrependPost puts post at the head of the first page. A view without a
// first page is left alone.
func (v *CachedView) PrependPost(post model.Post) bool {
	if len(v.pages) == 0 {
		return false
	}
	first := v.pages[0].Posts
	posts := make([]model.Post, 0, len(first)+1)
	posts = append(posts, post)
	posts = append(posts, first...)
	v.pages[0].Posts = posts
	return true
}

// ReplacePost swaps the post with id for post, keeping its position.
func (v *CachedView) ReplacePost(postID string, post model.Post) bool {
	return v.PatchPost(postID, func(p *model.Post) { *p = post }) > 0
}

func (v *CachedView) RemovePost(postID string) bool {
	removed := false
	for i := range v.pages {
		posts := v.pages[i].Posts[:0]
		for _, post := range v.pages[i].Posts {
			if post.ID == postID {
				removed = true
				continue
			}
			posts = append(posts, post)
		}
		v.pages[i].Posts = posts
	}
	return removed
}

func copyPage(page model.FeedPage) model.FeedPage {
	posts := make([]model.Post, len(page.Posts))
	copy(posts, page.Posts)
	return model.FeedPage{Posts: posts, NextCursor: page.NextCursor}
}
