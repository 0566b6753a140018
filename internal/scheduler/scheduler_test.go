package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/guard"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/publisher"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/store"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

func instantSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestScheduler(t *testing.T, outcome publisher.Outcome) (*Scheduler, *store.Store) {
	t.Helper()
	logger := logging.NewNopLogger()
	st, err := store.New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	pub := publisher.New(logger,
		publisher.WithStrategy(publisher.FixedStrategy{Outcome: outcome}),
		publisher.WithSleep(instantSleep),
	)
	return New(st, pub, nil, nil, logger), st
}

func schedule(t *testing.T, s *Scheduler, platform string, at time.Time) *store.ScheduledPost {
	t.Helper()
	post, err := s.SchedulePost(ScheduleRequest{
		ContentID:     "content-1",
		Platform:      platform,
		Content:       "Morning thoughts on discipline.",
		ScheduledTime: at,
	})
	if err != nil {
		t.Fatalf("SchedulePost: %v", err)
	}
	return post
}

func TestSchedulePostValidation(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{Success: true})

	if _, err := s.SchedulePost(ScheduleRequest{Platform: "myspace", Content: "x"}); !errors.Is(err, ErrInvalidPlatform) {
		t.Errorf("expected ErrInvalidPlatform, got %v", err)
	}
	if _, err := s.SchedulePost(ScheduleRequest{Platform: "twitter", Content: "   "}); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}

	// Platform names are case-insensitive.
	post, err := s.SchedulePost(ScheduleRequest{Platform: "Twitter", Content: "hello"})
	if err != nil {
		t.Fatalf("SchedulePost: %v", err)
	}
	if post.Platform != store.PlatformTwitter {
		t.Errorf("platform = %q", post.Platform)
	}
	if post.Status != store.StatusScheduled {
		t.Errorf("status = %q", post.Status)
	}
	if post.PostID == "" {
		t.Error("post id missing")
	}
}

func TestSweepPublishesDuePosts(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{Success: true})
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	due := schedule(t, s, "twitter", past)
	later := schedule(t, s, "linkedin", future)

	outcomes, err := s.ProcessScheduledPosts(context.Background())
	if err != nil {
		t.Fatalf("ProcessScheduledPosts: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("processed = %d, want 1", len(outcomes))
	}
	outcome := outcomes[0]
	if outcome.PostID != due.PostID || outcome.Platform != store.PlatformTwitter {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Status != store.StatusPublished || outcome.Result == nil || !outcome.Result.Success {
		t.Errorf("outcome not published: %+v", outcome)
	}

	got, err := s.GetPost(due.PostID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Status != store.StatusPublished {
		t.Errorf("due post status = %q, want published", got.Status)
	}
	if got.PublishedAt == nil {
		t.Error("published_at missing")
	}
	if got.Metadata["platform_post_id"] == "" {
		t.Error("platform_post_id missing from metadata")
	}

	got, err = s.GetPost(later.PostID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Status != store.StatusScheduled {
		t.Errorf("future post status = %q, want scheduled", got.Status)
	}
}

func TestSweepRecordsFailure(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{
		Success:    false,
		Error:      "rate limited",
		RetryAfter: 5 * time.Minute,
	})
	post := schedule(t, s, "instagram", time.Now().Add(-time.Minute))

	if _, err := s.ProcessScheduledPosts(context.Background()); err != nil {
		t.Fatalf("ProcessScheduledPosts: %v", err)
	}

	got, err := s.GetPost(post.PostID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Status != store.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage != "rate limited" {
		t.Errorf("error_message = %q", got.ErrorMessage)
	}
	if got.Metadata["retry_after_seconds"] != 300.0 {
		t.Errorf("retry_after_seconds = %v", got.Metadata["retry_after_seconds"])
	}
}

func TestSweepRecordsTransmittedPayload(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{Success: true})

	long := strings.Repeat("x", 300)
	post, err := s.SchedulePost(ScheduleRequest{
		ContentID:     "content-1",
		Platform:      "twitter",
		Content:       long,
		ScheduledTime: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("SchedulePost: %v", err)
	}

	if _, err := s.ProcessScheduledPosts(context.Background()); err != nil {
		t.Fatalf("ProcessScheduledPosts: %v", err)
	}

	got, err := s.GetPost(post.PostID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Status != store.StatusPublished {
		t.Fatalf("status = %q, want published", got.Status)
	}

	// The stored record carries the full publish result, so the text that
	// actually went over the wire is observable after the sweep.
	payload, ok := got.Metadata["formatted_payload"].(map[string]any)
	if !ok {
		t.Fatalf("formatted_payload missing from metadata: %v", got.Metadata)
	}
	text, ok := payload["text"].(string)
	if !ok {
		t.Fatalf("payload has no text field: %v", payload)
	}
	if n := len([]rune(text)); n != 280 {
		t.Errorf("transmitted text = %d runes, want 280", n)
	}
	if !strings.HasSuffix(text, "...") {
		t.Error("transmitted text missing ellipsis")
	}
	if got.Metadata["api_response"] == nil {
		t.Error("api_response missing from metadata")
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{Success: true})
	schedule(t, s, "twitter", time.Now().Add(-time.Minute))

	outcomes, err := s.ProcessScheduledPosts(context.Background())
	if err != nil || len(outcomes) != 1 {
		t.Fatalf("first sweep: n=%d err=%v", len(outcomes), err)
	}
	outcomes, err = s.ProcessScheduledPosts(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("second sweep processed %d, want 0", len(outcomes))
	}
}

func TestCancelContract(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{Success: true})
	post := schedule(t, s, "twitter", time.Now().Add(time.Hour))

	ok, err := s.CancelScheduledPost(post.PostID)
	if err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}

	// Cancelling again is a no-op, not an error.
	ok, err = s.CancelScheduledPost(post.PostID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if ok {
		t.Error("second cancel reported a change")
	}

	// Unknown ids report false rather than an error.
	ok, err = s.CancelScheduledPost("no-such-post")
	if err != nil || ok {
		t.Errorf("missing post cancel: ok=%v err=%v", ok, err)
	}

	// Cancelled posts never publish.
	if _, err := s.ProcessScheduledPosts(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	got, _ := s.GetPost(post.PostID)
	if got.Status != store.StatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
}

func TestRescheduleContract(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{Success: true})
	post := schedule(t, s, "spotify", time.Now().Add(-time.Minute))
	newTime := time.Now().Add(2 * time.Hour).UTC()

	ok, err := s.ReschedulePost(post.PostID, newTime)
	if err != nil || !ok {
		t.Fatalf("reschedule: ok=%v err=%v", ok, err)
	}
	got, _ := s.GetPost(post.PostID)
	if !got.ScheduledTime.Equal(newTime) {
		t.Errorf("scheduled_time = %v, want %v", got.ScheduledTime, newTime)
	}

	// The moved post is no longer due.
	outcomes, err := s.ProcessScheduledPosts(context.Background())
	if err != nil || len(outcomes) != 0 {
		t.Fatalf("sweep after reschedule: n=%d err=%v", len(outcomes), err)
	}

	// Published posts cannot be rescheduled.
	s2, _ := newTestScheduler(t, publisher.Outcome{Success: true})
	p2 := schedule(t, s2, "twitter", time.Now().Add(-time.Minute))
	if _, err := s2.ProcessScheduledPosts(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	ok, err = s2.ReschedulePost(p2.PostID, newTime)
	if err != nil {
		t.Fatalf("reschedule published: %v", err)
	}
	if ok {
		t.Error("reschedule of a published post reported a change")
	}
}

func TestKillSwitchGatesSweep(t *testing.T) {
	logger := logging.NewNopLogger()
	dir := t.TempDir()
	st, err := store.New(dir, logger)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	audit, err := guard.NewAuditLog(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("NewAuditLog: %v", err)
	}
	ks := guard.NewKillSwitch(filepath.Join(dir, "kill_switch.json"), audit, logger)
	pub := publisher.New(logger,
		publisher.WithStrategy(publisher.FixedStrategy{Outcome: publisher.Outcome{Success: true}}),
		publisher.WithSleep(instantSleep),
	)
	s := New(st, pub, ks, nil, logger)

	post := schedule(t, s, "twitter", time.Now().Add(-time.Minute))

	if err := ks.Activate("incident"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, err := s.ProcessScheduledPosts(context.Background()); !errors.Is(err, guard.ErrKillSwitchActive) {
		t.Fatalf("expected ErrKillSwitchActive, got %v", err)
	}
	got, _ := s.GetPost(post.PostID)
	if got.Status != store.StatusScheduled {
		t.Errorf("status = %q, want scheduled while blocked", got.Status)
	}

	if err := ks.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	outcomes, err := s.ProcessScheduledPosts(context.Background())
	if err != nil || len(outcomes) != 1 {
		t.Fatalf("sweep after deactivate: n=%d err=%v", len(outcomes), err)
	}
}

func TestPublishingStats(t *testing.T) {
	s, _ := newTestScheduler(t, publisher.Outcome{Success: true})

	// Nothing attempted yet: success rate is zero, not NaN.
	stats := s.GetPublishingStats()
	if stats.SuccessRate != 0 {
		t.Errorf("empty success_rate = %v, want 0", stats.SuccessRate)
	}

	schedule(t, s, "twitter", time.Now().Add(-time.Minute))
	schedule(t, s, "linkedin", time.Now().Add(-time.Minute))
	pending := schedule(t, s, "spotify", time.Now().Add(time.Hour))
	if _, err := s.ProcessScheduledPosts(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if _, err := s.CancelScheduledPost(pending.PostID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stats = s.GetPublishingStats()
	if stats.TotalPosts != 3 {
		t.Errorf("total_posts = %d, want 3", stats.TotalPosts)
	}
	if stats.ByStatus["published"] != 2 || stats.ByStatus["cancelled"] != 1 {
		t.Errorf("by_status = %v", stats.ByStatus)
	}
	if stats.ByPlatform["twitter"] != 1 {
		t.Errorf("by_platform = %v", stats.ByPlatform)
	}
	if stats.SuccessRate != 1.0 {
		t.Errorf("success_rate = %v, want 1.0", stats.SuccessRate)
	}
}
