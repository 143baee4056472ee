package social

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"example.com/minitwitter/internal/models"
	"example.com/minitwitter/internal/store"
)

//
// --- Helpers ---
//

func newTestService() (*Service, *store.MockStore) {
	mockStore := store.NewMock()
	return New(mockStore, PageConfig{Default: 5, Max: 5}), mockStore
}

// register a profile or fail the test
func registerHelper(t *testing.T, s *Service, username string) models.Profile {
	t.Helper()
	p, err := s.RegisterProfile(username)
	if err != nil {
		t.Fatalf("RegisterProfile(%q) failed: %v", username, err)
	}
	return p
}

// create a post at a fixed time
func createPostAt(t *testing.T, s *Service, ownerID, title string, at time.Time) models.Post {
	t.Helper()
	s.clock = func() time.Time { return at }
	p, err := s.CreatePost(ownerID, PostInput{Title: title, Body: "body of " + title})
	if err != nil {
		t.Fatalf("CreatePost(%q) failed: %v", title, err)
	}
	return p
}

//
// --- Registration ---
//

func TestRegisterProfile_Duplicate(t *testing.T) {
	s, _ := newTestService()

	registerHelper(t, s, "almaz")
	if _, err := s.RegisterProfile("almaz"); !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

func TestRegisterProfile_InvalidUsername(t *testing.T) {
	s, _ := newTestService()

	if _, err := s.RegisterProfile(""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty username, got %v", err)
	}
	if _, err := s.RegisterProfile(strings.Repeat("x", 51)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for long username, got %v", err)
	}
}

//
// --- Follow graph ---
//

// two consecutive toggles return FOLLOWED then UNFOLLOWED and restore state
func TestToggleFollow_PairRestoresState(t *testing.T) {
	s, mockStore := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")

	outcome, err := s.ToggleFollow(a.ID, b.ID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if outcome != models.Followed {
		t.Fatalf("expected FOLLOWED, got %s", outcome)
	}

	inFollowees, inFollowers, _ := mockStore.FollowEdgeState(a.ID, b.ID)
	if !inFollowees || !inFollowers {
		t.Fatalf("edge not symmetric after follow: followees=%t followers=%t", inFollowees, inFollowers)
	}

	outcome, err = s.ToggleFollow(a.ID, b.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if outcome != models.Unfollowed {
		t.Fatalf("expected UNFOLLOWED, got %s", outcome)
	}

	inFollowees, inFollowers, _ = mockStore.FollowEdgeState(a.ID, b.ID)
	if inFollowees || inFollowers {
		t.Fatalf("edge not removed symmetrically: followees=%t followers=%t", inFollowees, inFollowers)
	}
}

// every applied toggle leaves the two views in lockstep
func TestToggleFollow_SymmetryAcrossToggles(t *testing.T) {
	s, mockStore := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")

	for i := 0; i < 5; i++ {
		if _, err := s.ToggleFollow(a.ID, b.ID); err != nil {
			t.Fatalf("toggle %d failed: %v", i, err)
		}
		inFollowees, inFollowers, err := mockStore.FollowEdgeState(a.ID, b.ID)
		if err != nil {
			t.Fatalf("edge state failed: %v", err)
		}
		if inFollowees != inFollowers {
			t.Fatalf("edge views disagree after toggle %d: followees=%t followers=%t", i, inFollowees, inFollowers)
		}
	}
}

func TestToggleFollow_SelfRejected(t *testing.T) {
	s, mockStore := newTestService()
	a := registerHelper(t, s, "a")

	if _, err := s.ToggleFollow(a.ID, a.ID); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}

	followees, _ := mockStore.ListFollowees(a.ID)
	if len(followees) != 0 {
		t.Fatalf("graph changed by rejected self-follow: %v", followees)
	}
}

func TestToggleFollow_TargetMissing(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")

	if _, err := s.ToggleFollow(a.ID, "no-such-profile"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

//
// --- Like set ---
//

func TestToggleLike_PairRestoresState(t *testing.T) {
	s, mockStore := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")
	post := createPostAt(t, s, a.ID, "p", time.Now())

	outcome, err := s.ToggleLike(b.ID, post.ID)
	if err != nil {
		t.Fatalf("first like toggle failed: %v", err)
	}
	if outcome != models.Liked {
		t.Fatalf("expected LIKED, got %s", outcome)
	}
	counter, setSize, _ := mockStore.LikeState(post.ID)
	if counter != 1 || setSize != 1 {
		t.Fatalf("expected counter=1 set=1, got counter=%d set=%d", counter, setSize)
	}

	outcome, err = s.ToggleLike(b.ID, post.ID)
	if err != nil {
		t.Fatalf("second like toggle failed: %v", err)
	}
	if outcome != models.Unliked {
		t.Fatalf("expected UNLIKED, got %s", outcome)
	}
	counter, setSize, _ = mockStore.LikeState(post.ID)
	if counter != 0 || setSize != 0 {
		t.Fatalf("expected counter=0 set=0, got counter=%d set=%d", counter, setSize)
	}
}

// counter equals set size for any interleaving of concurrent toggles
func TestToggleLike_CounterConsistentUnderConcurrency(t *testing.T) {
	s, mockStore := newTestService()
	author := registerHelper(t, s, "author")
	post := createPostAt(t, s, author.ID, "p", time.Now())

	const actors = 20
	var wg sync.WaitGroup
	for i := 0; i < actors; i++ {
		actor := registerHelper(t, s, "actor"+strings.Repeat("x", i+1))
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			// odd number of toggles per actor: final state is liked
			for n := 0; n < 3; n++ {
				if _, err := s.ToggleLike(id, post.ID); err != nil {
					t.Errorf("toggle failed: %v", err)
					return
				}
			}
		}(actor.ID)
	}
	wg.Wait()

	counter, setSize, err := mockStore.LikeState(post.ID)
	if err != nil {
		t.Fatalf("like state failed: %v", err)
	}
	if counter != setSize {
		t.Fatalf("counter diverged from set: counter=%d set=%d", counter, setSize)
	}
	if counter != actors {
		t.Fatalf("expected %d likes, got %d", actors, counter)
	}
}

func TestToggleLike_MissingPost(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")

	if _, err := s.ToggleLike(a.ID, "no-such-post"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// an INACTIVE post is treated as not found by the like path
func TestToggleLike_InactivePostNotFound(t *testing.T) {
	s, mockStore := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")
	post := createPostAt(t, s, a.ID, "p", time.Now())

	mockStore.SetPostStatus(post.ID, models.StatusInactive)

	if _, err := s.ToggleLike(b.ID, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive post, got %v", err)
	}
}

//
// --- Post store ---
//

func TestCreatePost_Validation(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")

	if _, err := s.CreatePost(a.ID, PostInput{Title: "", Body: "b"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty title, got %v", err)
	}
	if _, err := s.CreatePost(a.ID, PostInput{Title: "t", Body: strings.Repeat("x", 1001)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for long body, got %v", err)
	}
}

// a foreign post is indistinguishable from a missing one
func TestUpdateDeletePost_OwnerScoped(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")
	post := createPostAt(t, s, a.ID, "p", time.Now())

	title := "renamed"
	if _, err := s.UpdatePost(b.ID, post.ID, store.PostUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating foreign post, got %v", err)
	}
	if err := s.DeletePost(b.ID, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign post, got %v", err)
	}

	// owner can do both
	updated, err := s.UpdatePost(a.ID, post.ID, store.PostUpdate{Title: &title})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Title != "renamed" || updated.Body != post.Body {
		t.Fatalf("partial update wrong: %+v", updated)
	}
	if err := s.DeletePost(a.ID, post.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := s.ToggleLike(a.ID, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted post to be gone, got %v", err)
	}
}

func TestListPosts_NewestFirstActiveOnly(t *testing.T) {
	s, mockStore := newTestService()
	a := registerHelper(t, s, "a")

	base := time.Now()
	p1 := createPostAt(t, s, a.ID, "p1", base.Add(1*time.Minute))
	p2 := createPostAt(t, s, a.ID, "p2", base.Add(2*time.Minute))
	p3 := createPostAt(t, s, a.ID, "p3", base.Add(3*time.Minute))

	mockStore.SetPostStatus(p2.ID, models.StatusInactive)

	posts, err := s.ListPosts(a.ID)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 visible posts, got %d", len(posts))
	}
	if posts[0].ID != p3.ID || posts[1].ID != p1.ID {
		t.Fatalf("wrong order: got [%s %s]", posts[0].Title, posts[1].Title)
	}
}

// creation-time ties keep insertion order
func TestListPosts_StableTies(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")

	at := time.Now()
	first := createPostAt(t, s, a.ID, "first", at)
	second := createPostAt(t, s, a.ID, "second", at)

	posts, err := s.ListPosts(a.ID)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != first.ID || posts[1].ID != second.ID {
		t.Fatalf("tie order not stable: %+v", posts)
	}
}

//
// --- Feed assembly ---
//

func TestGetFeed_OrderingAndExclusion(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")
	c := registerHelper(t, s, "c")

	base := time.Now()
	p1 := createPostAt(t, s, b.ID, "t1", base.Add(1*time.Minute))
	p2 := createPostAt(t, s, b.ID, "t2", base.Add(2*time.Minute))
	p3 := createPostAt(t, s, b.ID, "t3", base.Add(3*time.Minute))
	createPostAt(t, s, c.ID, "not followed", base.Add(4*time.Minute))
	createPostAt(t, s, a.ID, "own post", base.Add(5*time.Minute))

	if _, err := s.ToggleFollow(a.ID, b.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	feed, err := s.GetFeed(a.ID, 1, 5)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("expected 3 feed posts, got %d", len(feed))
	}
	want := []string{p3.ID, p2.ID, p1.ID}
	for i, id := range want {
		if feed[i].ID != id {
			t.Fatalf("feed[%d] = %s, want %s", i, feed[i].Title, id)
		}
	}
}

func TestGetFeed_EmptyFolloweeSet(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")

	feed, err := s.GetFeed(a.ID, 1, 5)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %d posts", len(feed))
	}
}

func TestGetFeed_ExcludesInactive(t *testing.T) {
	s, mockStore := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")

	post := createPostAt(t, s, b.ID, "p", time.Now())
	mockStore.SetPostStatus(post.ID, models.StatusInactive)

	if _, err := s.ToggleFollow(a.ID, b.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	feed, err := s.GetFeed(a.ID, 1, 5)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("inactive post leaked into feed: %+v", feed)
	}
}

// with max page size 5 and 7 qualifying posts: pages of 5, 2, 0
func TestGetFeed_PaginationBoundary(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")

	base := time.Now()
	for i := 0; i < 7; i++ {
		createPostAt(t, s, b.ID, "p", base.Add(time.Duration(i)*time.Minute))
	}
	if _, err := s.ToggleFollow(a.ID, b.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	page1, err := s.GetFeed(a.ID, 1, 5)
	if err != nil {
		t.Fatalf("page 1 failed: %v", err)
	}
	page2, err := s.GetFeed(a.ID, 2, 5)
	if err != nil {
		t.Fatalf("page 2 failed: %v", err)
	}
	page3, err := s.GetFeed(a.ID, 3, 5)
	if err != nil {
		t.Fatalf("page 3 failed: %v", err)
	}

	if len(page1) != 5 || len(page2) != 2 || len(page3) != 0 {
		t.Fatalf("pagination boundary wrong: %d/%d/%d", len(page1), len(page2), len(page3))
	}

	// no overlap between pages
	seen := make(map[string]bool)
	for _, p := range append(page1, page2...) {
		if seen[p.ID] {
			t.Fatalf("post %s appeared twice across pages", p.ID)
		}
		seen[p.ID] = true
	}
}

// a requested page size above the max is clamped, never rejected
func TestGetFeed_PageSizeClamped(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")

	base := time.Now()
	for i := 0; i < 7; i++ {
		createPostAt(t, s, b.ID, "p", base.Add(time.Duration(i)*time.Minute))
	}
	if _, err := s.ToggleFollow(a.ID, b.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	feed, err := s.GetFeed(a.ID, 1, 100)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(feed) != 5 {
		t.Fatalf("expected clamp to 5, got %d", len(feed))
	}
}

func TestGetFeed_LikeCountersDecorated(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")
	post := createPostAt(t, s, b.ID, "p", time.Now())

	if _, err := s.ToggleFollow(a.ID, b.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	if _, err := s.ToggleLike(a.ID, post.ID); err != nil {
		t.Fatalf("like failed: %v", err)
	}

	feed, err := s.GetFeed(a.ID, 1, 5)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(feed) != 1 || feed[0].Likes != 1 {
		t.Fatalf("expected like counter 1 on feed post, got %+v", feed)
	}
}

// full scenario: B follows A, sees A's post, unfollows, post disappears
func TestScenario_FollowFeedUnfollow(t *testing.T) {
	s, _ := newTestService()
	a := registerHelper(t, s, "a")
	b := registerHelper(t, s, "b")
	p1 := createPostAt(t, s, a.ID, "P1", time.Now())

	outcome, err := s.ToggleFollow(b.ID, a.ID)
	if err != nil || outcome != models.Followed {
		t.Fatalf("expected FOLLOWED, got %s err=%v", outcome, err)
	}

	feed, _ := s.GetFeed(b.ID, 1, 5)
	if len(feed) != 1 || feed[0].ID != p1.ID {
		t.Fatalf("expected P1 in B's feed, got %+v", feed)
	}

	outcome, err = s.ToggleFollow(b.ID, a.ID)
	if err != nil || outcome != models.Unfollowed {
		t.Fatalf("expected UNFOLLOWED, got %s err=%v", outcome, err)
	}

	feed, _ = s.GetFeed(b.ID, 1, 5)
	if len(feed) != 0 {
		t.Fatalf("expected empty feed after unfollow, got %+v", feed)
	}
}

//
// --- Storage failure propagation ---
//

func TestService_StoreFailurePropagates(t *testing.T) {
	s := New(&store.MockStoreFail{}, PageConfig{Default: 5, Max: 5})

	_, err := s.RegisterProfile("a")
	if err == nil {
		t.Fatalf("expected error from failing store")
	}
	// storage faults stay generic, never mapped to a domain error
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("storage failure mapped to a domain error: %v", err)
	}

	if _, err := s.GetFeed("a", 1, 5); err == nil {
		t.Fatalf("expected feed error from failing store")
	}
}
