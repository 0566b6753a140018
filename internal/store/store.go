// Package store persists scheduled posts as a single flat JSON file.
//
// The whole collection is loaded at startup and rewritten on every
// mutation. Post volume within one process is modest, so the simplicity
// wins over incremental persistence. There is NO cross-process locking on
// the store file: concurrent sweeps from two processes are an unguarded
// hazard, and the design assumes a single writer.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

// ErrNotFound is returned when no post exists for the requested id.
var ErrNotFound = errors.New("post not found")

// Status is the lifecycle state of a scheduled post.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusPublished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Platform identifies a publishing target.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformSpotify   Platform = "spotify"
)

// Platforms lists every supported publishing target.
var Platforms = []Platform{PlatformTwitter, PlatformInstagram, PlatformLinkedIn, PlatformSpotify}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitter, PlatformInstagram, PlatformLinkedIn, PlatformSpotify:
		return true
	}
	return false
}

// ScheduledPost is the unit of scheduling. The scheduler owns these
// records exclusively; Content is immutable after creation and only the
// status fields change afterwards.
type ScheduledPost struct {
	PostID        string         `json:"post_id"`
	ContentID     string         `json:"content_id"`
	Platform      Platform       `json:"platform"`
	Content       string         `json:"content"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	Status        Status         `json:"status"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// Clone returns a deep-enough copy so callers cannot mutate stored state
// through the returned record.
func (p *ScheduledPost) Clone() *ScheduledPost {
	cp := *p
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		cp.PublishedAt = &t
	}
	cp.Metadata = make(map[string]any, len(p.Metadata))
	for k, v := range p.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Platform Platform
	Status   Status
}

// Store is a durable map of post_id to ScheduledPost.
type Store struct {
	mu     sync.RWMutex
	posts  map[string]*ScheduledPost
	path   string
	logger logging.Logger
}

// New opens (or creates) the store file under dir. A corrupt or missing
// file yields an empty store: the subsystem must be self-healing on first
// run rather than crash on bad state.
func New(dir string, logger logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &Store{
		posts:  make(map[string]*ScheduledPost),
		path:   filepath.Join(dir, "scheduled_posts.json"),
		logger: logger,
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("Failed to read post store, starting empty")
		}
		return
	}

	var posts map[string]*ScheduledPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Corrupt post store file, starting empty")
		return
	}

	for id, post := range posts {
		if post.Metadata == nil {
			post.Metadata = make(map[string]any)
		}
		s.posts[id] = post
	}
	s.logger.WithField("count", len(s.posts)).Info("Loaded scheduled posts")
}

// persist rewrites the whole store file. Callers must hold the write lock.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.posts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode post store: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write post store: %w", err)
	}
	return nil
}

// Put inserts or replaces the whole record and persists the store.
func (s *Store) Put(post *ScheduledPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts[post.PostID] = post.Clone()
	return s.persist()
}

// Get returns a copy of the record or ErrNotFound.
func (s *Store) Get(postID string) (*ScheduledPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	return post.Clone(), nil
}

// List returns matching records sorted by scheduled time ascending.
// Ties break on post id so ordering stays deterministic.
func (s *Store) List(filter Filter) []*ScheduledPost {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ScheduledPost
	for _, post := range s.posts {
		if filter.Platform != "" && post.Platform != filter.Platform {
			continue
		}
		if filter.Status != "" && post.Status != filter.Status {
			continue
		}
		out = append(out, post.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		}
		return out[i].PostID < out[j].PostID
	})
	return out
}

// Update applies fn to the stored record under the write lock and persists
// the store. fn returning false skips the write entirely, keeping no-op
// transitions cheap and atomic.
func (s *Store) Update(postID string, fn func(*ScheduledPost) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return false, nil
	}
	if !fn(post) {
		return false, nil
	}
	if err := s.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the total number of stored posts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}
