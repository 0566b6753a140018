// Package publisher simulates publishing posts to social platforms.
//
// A publish attempt formats the post for its platform, waits a bounded
// random "network" delay, and succeeds or fails according to a pluggable
// outcome strategy. Expected failure is a value on the Result, never an
// error; only an unsupported platform is a hard error.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/store"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

// ErrUnsupportedPlatform is returned for platforms outside the supported
// set. It propagates to the caller rather than being recorded as a normal
// publish failure.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

const (
	minLatency = 100 * time.Millisecond
	maxLatency = 500 * time.Millisecond

	defaultSuccessRate = 0.9
	defaultRetryAfter  = 5 * time.Minute
)

// Result is the outcome of one publish attempt.
type Result struct {
	Success bool `json:"success"`

	// Populated on success.
	PlatformPostID string         `json:"platform_post_id,omitempty"`
	PublishedAt    time.Time      `json:"published_at,omitzero"`
	PlatformURL    string         `json:"platform_url,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
	APIResponse    map[string]any `json:"api_response,omitempty"`

	// Populated on failure.
	Error      string        `json:"error,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Outcome is what a Strategy decides for a single attempt.
type Outcome struct {
	Success    bool
	Error      string
	RetryAfter time.Duration
}

// Strategy decides whether a single publish attempt succeeds. The
// randomized default emulates an unreliable platform API; tests substitute
// a deterministic implementation.
type Strategy interface {
	AttemptPublish() Outcome
}

// RandomStrategy succeeds with the configured probability.
type RandomStrategy struct {
	SuccessRate float64
}

func (s RandomStrategy) AttemptPublish() Outcome {
	if rand.Float64() < s.SuccessRate {
		return Outcome{Success: true}
	}
	return Outcome{
		Success:    false,
		Error:      "platform API error (simulated)",
		RetryAfter: defaultRetryAfter,
	}
}

// FixedStrategy always returns the same outcome. Intended for tests.
type FixedStrategy struct {
	Outcome Outcome
}

func (s FixedStrategy) AttemptPublish() Outcome { return s.Outcome }

// SleepFunc suspends until the duration elapses or ctx is cancelled.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Simulator performs mocked publishes against the supported platforms.
type Simulator struct {
	endpoints map[store.Platform]string
	strategy  Strategy
	sleep     SleepFunc
	logger    logging.Logger
	now       func() time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithStrategy replaces the randomized outcome strategy.
func WithStrategy(s Strategy) Option {
	return func(sim *Simulator) { sim.strategy = s }
}

// WithSleep replaces the latency suspension. Tests pass a no-op.
func WithSleep(sleep SleepFunc) Option {
	return func(sim *Simulator) { sim.sleep = sleep }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(sim *Simulator) { sim.now = now }
}

// New creates a Simulator with the default ~90% success strategy.
func New(logger logging.Logger, opts ...Option) *Simulator {
	sim := &Simulator{
		endpoints: map[store.Platform]string{
			store.PlatformTwitter:   "https://api.twitter.com/2/tweets",
			store.PlatformInstagram: "https://graph.instagram.com/v12.0/me/media",
			store.PlatformLinkedIn:  "https://api.linkedin.com/v2/ugcPosts",
			store.PlatformSpotify:   "https://api.spotify.com/v1/episodes",
		},
		strategy: RandomStrategy{SuccessRate: defaultSuccessRate},
		sleep:    defaultSleep,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// Simulate performs a single publish attempt for the post.
func (sim *Simulator) Simulate(ctx context.Context, post *store.ScheduledPost) (*Result, error) {
	payload, err := FormatPayload(post)
	if err != nil {
		return nil, err
	}

	apiResponse, err := sim.mockAPICall(ctx, post.Platform, payload)
	if err != nil {
		return nil, err
	}

	outcome := sim.strategy.AttemptPublish()
	if !outcome.Success {
		sim.logger.WithFields(logging.Fields{
			"post_id":  post.PostID,
			"platform": post.Platform,
			"error":    outcome.Error,
		}).Warn("Simulated publish failed")
		return &Result{
			Success:    false,
			Error:      outcome.Error,
			RetryAfter: outcome.RetryAfter,
		}, nil
	}

	platformPostID := fmt.Sprintf("%s_%s", post.Platform, shortID())
	return &Result{
		Success:        true,
		PlatformPostID: platformPostID,
		PublishedAt:    sim.now().UTC(),
		PlatformURL:    fmt.Sprintf("https://%s.com/post/%s", post.Platform, shortID()),
		Payload:        payload,
		APIResponse:    apiResponse,
	}, nil
}

// mockAPICall emulates the network round trip: a context-aware random
// delay followed by a canned response. This is the only suspension point
// in the publishing pipeline.
func (sim *Simulator) mockAPICall(ctx context.Context, platform store.Platform, payload map[string]any) (map[string]any, error) {
	delay := minLatency + rand.N(maxLatency-minLatency)
	if err := sim.sleep(ctx, delay); err != nil {
		return nil, err
	}

	return map[string]any{
		"mock_endpoint":        sim.endpoints[platform],
		"response_code":        200,
		"response_time_ms":     delay.Milliseconds(),
		"rate_limit_remaining": 100 + rand.IntN(900),
	}, nil
}

func shortID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:4])
}
