package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, dir
}

func post(id string, platform Platform, status Status, at time.Time) *ScheduledPost {
	return &ScheduledPost{
		PostID:        id,
		ContentID:     "content-" + id,
		Platform:      platform,
		Content:       "hello from " + id,
		ScheduledTime: at,
		Status:        status,
		Metadata:      map[string]any{},
		CreatedAt:     time.Now().UTC(),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	now := time.Now().UTC()

	if err := s.Put(post("p1", PlatformTwitter, StatusScheduled, now)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Platform != PlatformTwitter || got.Status != StatusScheduled {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSortedByScheduledTime(t *testing.T) {
	s, _ := newTestStore(t)
	base := time.Now().UTC()

	_ = s.Put(post("later", PlatformTwitter, StatusScheduled, base.Add(2*time.Hour)))
	_ = s.Put(post("sooner", PlatformLinkedIn, StatusScheduled, base.Add(time.Hour)))
	_ = s.Put(post("now", PlatformSpotify, StatusScheduled, base))

	posts := s.List(Filter{})
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0].PostID != "now" || posts[1].PostID != "sooner" || posts[2].PostID != "later" {
		t.Fatalf("unexpected order: %s %s %s", posts[0].PostID, posts[1].PostID, posts[2].PostID)
	}
}

func TestListFilters(t *testing.T) {
	s, _ := newTestStore(t)
	now := time.Now().UTC()

	_ = s.Put(post("t1", PlatformTwitter, StatusScheduled, now))
	_ = s.Put(post("t2", PlatformTwitter, StatusPublished, now))
	_ = s.Put(post("l1", PlatformLinkedIn, StatusScheduled, now))

	if got := s.List(Filter{Platform: PlatformTwitter}); len(got) != 2 {
		t.Fatalf("platform filter: expected 2, got %d", len(got))
	}
	if got := s.List(Filter{Status: StatusScheduled}); len(got) != 2 {
		t.Fatalf("status filter: expected 2, got %d", len(got))
	}
	if got := s.List(Filter{Platform: PlatformTwitter, Status: StatusPublished}); len(got) != 1 || got[0].PostID != "t2" {
		t.Fatalf("combined filter: unexpected result %v", got)
	}
}

func TestReloadAcrossInstances(t *testing.T) {
	s, dir := newTestStore(t)
	now := time.Now().UTC()
	_ = s.Put(post("persisted", PlatformInstagram, StatusScheduled, now))

	reopened, err := New(dir, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get("persisted")
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.Platform != PlatformInstagram {
		t.Fatalf("unexpected platform after reload: %s", got.Platform)
	}
}

func TestCorruptFileSelfHeals(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scheduled_posts.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	s, err := New(dir, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("New must not fail on corrupt store: %v", err)
	}
	if s.Count() != 0 {
		t.Fatalf("expected empty store, got %d posts", s.Count())
	}

	// The store must still accept writes after healing.
	if err := s.Put(post("fresh", PlatformTwitter, StatusScheduled, time.Now().UTC())); err != nil {
		t.Fatalf("Put after heal: %v", err)
	}
}

func TestUpdateSkipsPersistWhenRejected(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.Put(post("p1", PlatformTwitter, StatusPublished, time.Now().UTC()))

	changed, err := s.Update("p1", func(p *ScheduledPost) bool { return false })
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if changed {
		t.Fatal("expected no change")
	}

	changed, err = s.Update("missing", func(p *ScheduledPost) bool { return true })
	if err != nil || changed {
		t.Fatalf("missing id must be a no-op, got changed=%v err=%v", changed, err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.Put(post("p1", PlatformTwitter, StatusScheduled, time.Now().UTC()))

	got, _ := s.Get("p1")
	got.Status = StatusCancelled
	got.Metadata["mutated"] = true

	again, _ := s.Get("p1")
	if again.Status != StatusScheduled {
		t.Fatal("mutating a returned record must not affect stored state")
	}
	if _, ok := again.Metadata["mutated"]; ok {
		t.Fatal("metadata must be copied")
	}
}
