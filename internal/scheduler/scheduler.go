package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/guard"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/publisher"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/store"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/monitoring"
)

// ErrInvalidPlatform is returned when a schedule request names an unknown
// publishing target.
var ErrInvalidPlatform = errors.New("invalid platform")

// ErrEmptyContent is returned when a schedule request carries no content.
var ErrEmptyContent = errors.New("content must not be empty")

// Publisher is the slice of the simulator the scheduler depends on.
type Publisher interface {
	Simulate(ctx context.Context, post *store.ScheduledPost) (*publisher.Result, error)
}

// Scheduler owns the post lifecycle: it creates records, sweeps due posts
// through the publisher and applies the resulting transitions.
type Scheduler struct {
	store      *store.Store
	publisher  Publisher
	killSwitch *guard.KillSwitch
	logger     logging.Logger
	now        func() time.Time

	attempts      *prometheus.CounterVec
	sweeps        prometheus.Counter
	sweepDuration prometheus.Observer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New wires a Scheduler. killSwitch may be nil, in which case sweeps are
// never gated. metrics may be nil to run without instrumentation.
func New(st *store.Store, pub Publisher, killSwitch *guard.KillSwitch, metrics *monitoring.MetricsCollector, logger logging.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:      st,
		publisher:  pub,
		killSwitch: killSwitch,
		logger:     logger,
		now:        time.Now,
	}
	if metrics != nil {
		s.attempts = metrics.NewCounter("publish_attempts_total",
			"Publish attempts by platform and outcome", []string{"platform", "status"})
		s.sweeps = metrics.NewCounter("scheduler_sweeps_total",
			"Scheduler sweep runs", nil).WithLabelValues()
		s.sweepDuration = metrics.NewHistogram("scheduler_sweep_duration_seconds",
			"Duration of scheduler sweeps", nil, nil).WithLabelValues()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleRequest carries the inputs for a new scheduled post.
type ScheduleRequest struct {
	ContentID     string         `json:"content_id"`
	Platform      string         `json:"platform"`
	Content       string         `json:"content"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	Metadata      map[string]any `json:"metadata"`
}

// SchedulePost validates the request, assigns a post id and persists the
// new record in the scheduled state. A zero ScheduledTime means publish at
// the next sweep.
func (s *Scheduler) SchedulePost(req ScheduleRequest) (*store.ScheduledPost, error) {
	platform := store.Platform(strings.ToLower(req.Platform))
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlatform, req.Platform)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyContent
	}

	scheduledTime := req.ScheduledTime
	if scheduledTime.IsZero() {
		scheduledTime = s.now().UTC()
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	post := &store.ScheduledPost{
		PostID:        uuid.New().String(),
		ContentID:     req.ContentID,
		Platform:      platform,
		Content:       req.Content,
		ScheduledTime: scheduledTime,
		Status:        store.StatusScheduled,
		Metadata:      metadata,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.Put(post); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"post_id":        post.PostID,
		"platform":       platform,
		"scheduled_time": scheduledTime.Format(time.RFC3339),
	}).Info("Post scheduled")
	return post.Clone(), nil
}

// GetPost returns a copy of the post with the given id.
func (s *Scheduler) GetPost(postID string) (*store.ScheduledPost, error) {
	return s.store.Get(postID)
}

// ListPosts returns posts matching the filter, soonest first.
func (s *Scheduler) ListPosts(filter store.Filter) []*store.ScheduledPost {
	return s.store.List(filter)
}

// SweepOutcome records what happened to one post during a sweep.
type SweepOutcome struct {
	PostID   string            `json:"post_id"`
	Platform store.Platform    `json:"platform"`
	Status   store.Status      `json:"status"`
	Result   *publisher.Result `json:"result"`
}

// ProcessScheduledPosts runs one sweep: every post that is still scheduled
// and due at or before now is pushed through the publisher and transitioned
// to published or failed. Posts that changed state since listing are
// skipped, so concurrent sweeps never double-publish. Per-post publish
// failures are absorbed into the post record; only storage errors abort
// the sweep. Returns one outcome per post that changed state.
func (s *Scheduler) ProcessScheduledPosts(ctx context.Context) ([]SweepOutcome, error) {
	if s.killSwitch != nil && s.killSwitch.Active() {
		s.logger.Warn("Sweep skipped, kill switch active")
		return nil, guard.ErrKillSwitchActive
	}
	if s.sweeps != nil {
		s.sweeps.Inc()
	}
	if s.sweepDuration != nil {
		start := time.Now()
		defer func() { s.sweepDuration.Observe(time.Since(start).Seconds()) }()
	}

	now := s.now().UTC()
	outcomes := []SweepOutcome{}
	for _, post := range s.store.List(store.Filter{Status: store.StatusScheduled}) {
		if post.ScheduledTime.After(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		result, err := s.publisher.Simulate(ctx, post)
		if err != nil {
			// Context cancellation during the simulated latency window.
			return outcomes, err
		}

		status, err := s.apply(post, result)
		if err != nil {
			return outcomes, err
		}
		if status != "" {
			outcomes = append(outcomes, SweepOutcome{
				PostID:   post.PostID,
				Platform: post.Platform,
				Status:   status,
				Result:   result,
			})
		}
	}
	return outcomes, nil
}

// apply transitions a post according to the publish result and merges the
// full result payload into the post's metadata, so the transmitted
// (formatted) text survives on the stored record. The update callback
// re-checks the status under the store lock so a post cancelled mid-flight
// stays cancelled; a skipped transition returns an empty status.
func (s *Scheduler) apply(post *store.ScheduledPost, result *publisher.Result) (store.Status, error) {
	status := store.StatusPublished
	if !result.Success {
		status = store.StatusFailed
	}

	changed, err := s.store.Update(post.PostID, func(p *store.ScheduledPost) bool {
		if p.Status != store.StatusScheduled {
			return false
		}
		if p.Metadata == nil {
			p.Metadata = map[string]any{}
		}
		if result.Success {
			p.Status = store.StatusPublished
			publishedAt := result.PublishedAt
			p.PublishedAt = &publishedAt
			p.ErrorMessage = ""
			p.Metadata["platform_post_id"] = result.PlatformPostID
			p.Metadata["platform_url"] = result.PlatformURL
			p.Metadata["formatted_payload"] = result.Payload
			p.Metadata["api_response"] = result.APIResponse
		} else {
			p.Status = store.StatusFailed
			p.ErrorMessage = result.Error
			if result.RetryAfter > 0 {
				p.Metadata["retry_after_seconds"] = result.RetryAfter.Seconds()
			}
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}
	if s.attempts != nil {
		s.attempts.WithLabelValues(string(post.Platform), string(status)).Inc()
	}
	return status, nil
}

// CancelScheduledPost marks a scheduled post cancelled. Returns false
// without touching the record when the post is absent or already past the
// scheduled state.
func (s *Scheduler) CancelScheduledPost(postID string) (bool, error) {
	changed, err := s.store.Update(postID, func(p *store.ScheduledPost) bool {
		if p.Status != store.StatusScheduled {
			return false
		}
		p.Status = store.StatusCancelled
		return true
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if changed {
		s.logger.WithField("post_id", postID).Info("Post cancelled")
	}
	return changed, nil
}

// ReschedulePost moves a scheduled post to a new time. Same no-op contract
// as cancellation: only posts still in the scheduled state move.
func (s *Scheduler) ReschedulePost(postID string, newTime time.Time) (bool, error) {
	changed, err := s.store.Update(postID, func(p *store.ScheduledPost) bool {
		if p.Status != store.StatusScheduled {
			return false
		}
		p.ScheduledTime = newTime
		return true
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if changed {
		s.logger.WithFields(logging.Fields{
			"post_id":        postID,
			"scheduled_time": newTime.Format(time.RFC3339),
		}).Info("Post rescheduled")
	}
	return changed, nil
}

// Stats summarizes the store for reporting.
type Stats struct {
	TotalPosts  int            `json:"total_posts"`
	ByStatus    map[string]int `json:"by_status"`
	ByPlatform  map[string]int `json:"by_platform"`
	SuccessRate float64        `json:"success_rate"`
}

// GetPublishingStats aggregates post counts. SuccessRate is published over
// published plus failed, or zero when nothing has been attempted.
func (s *Scheduler) GetPublishingStats() Stats {
	stats := Stats{
		ByStatus:   map[string]int{},
		ByPlatform: map[string]int{},
	}
	for _, post := range s.store.List(store.Filter{}) {
		stats.TotalPosts++
		stats.ByStatus[string(post.Status)]++
		stats.ByPlatform[string(post.Platform)]++
	}

	published := stats.ByStatus[string(store.StatusPublished)]
	failed := stats.ByStatus[string(store.StatusFailed)]
	if published+failed > 0 {
		stats.SuccessRate = float64(published) / float64(published+failed)
	}
	return stats
}
