// Package scheduler drives the periodic feed refreshes and the daily
// digest, publishing a fresh snapshot after every pipeline run.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pujaboard/internal/feed"
	"pujaboard/internal/model"
	"pujaboard/internal/pipeline"
)

// FeedUnavailable is the user-visible message published when the
// events feed cannot be loaded.
const FeedUnavailable = "could not load data"

// Publisher receives the snapshot produced by each pipeline run.
type Publisher interface {
	Publish(pipeline.Snapshot)
}

// Notifier sends the daily digest. May be nil when the bot is
// disabled.
type Notifier interface {
	SendDigest(ctx context.Context)
}

// Scheduler refreshes both feeds on independent cadences and re-runs
// the aggregation pipeline after each refresh.
type Scheduler struct {
	fetcher  *feed.Fetcher
	decoder  *feed.Decoder
	pipe     *pipeline.Pipeline
	pub      Publisher
	notifier Notifier
	log      *slog.Logger

	eventsURL   string
	presenceURL string

	mu        sync.Mutex
	events    []model.PujaEvent
	presences []model.PresenceInterval
	feedErr   string
}

// New creates a Scheduler. notifier may be nil.
func New(fetcher *feed.Fetcher, decoder *feed.Decoder, pipe *pipeline.Pipeline, pub Publisher, notifier Notifier, eventsURL, presenceURL string, log *slog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:     fetcher,
		decoder:     decoder,
		pipe:        pipe,
		pub:         pub,
		notifier:    notifier,
		log:         log,
		eventsURL:   eventsURL,
		presenceURL: presenceURL,
	}
}

// Run performs an immediate refresh of both feeds, then blocks running
// the cron loop until ctx is cancelled. digestSpec may be empty to
// disable the digest.
func (s *Scheduler) Run(ctx context.Context, eventsSpec, presenceSpec, digestSpec string) error {
	s.RefreshPresence(ctx)
	s.RefreshEvents(ctx)

	c := cron.New()
	if _, err := c.AddFunc(eventsSpec, func() { s.RefreshEvents(ctx) }); err != nil {
		return fmt.Errorf("events refresh schedule %q: %w", eventsSpec, err)
	}
	if _, err := c.AddFunc(presenceSpec, func() { s.RefreshPresence(ctx) }); err != nil {
		return fmt.Errorf("presence refresh schedule %q: %w", presenceSpec, err)
	}
	if digestSpec != "" && s.notifier != nil {
		if _, err := c.AddFunc(digestSpec, func() { s.notifier.SendDigest(ctx) }); err != nil {
			return fmt.Errorf("digest schedule %q: %w", digestSpec, err)
		}
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RefreshEvents re-fetches the puja events sheet and republishes. A
// fetch failure publishes the error state with empty buckets; stale
// events are never served.
func (s *Scheduler) RefreshEvents(ctx context.Context) {
	data, err := s.fetcher.Fetch(ctx, s.eventsURL)

	s.mu.Lock()
	if err != nil {
		s.log.Error("fetch events feed", "url", s.eventsURL, "error", err)
		s.events = nil
		s.feedErr = FeedUnavailable
	} else {
		s.events = s.decoder.DecodeEvents(data)
		s.feedErr = ""
		s.log.Info("events feed refreshed", "count", len(s.events))
	}
	s.mu.Unlock()

	s.rebuild(ctx)
}

// RefreshPresence re-fetches Gurudev's schedule and republishes. A
// fetch failure empties the presence list but leaves the events
// rendering; presence is secondary data.
func (s *Scheduler) RefreshPresence(ctx context.Context) {
	data, err := s.fetcher.Fetch(ctx, s.presenceURL)

	s.mu.Lock()
	if err != nil {
		s.log.Warn("fetch presence feed", "url", s.presenceURL, "error", err)
		s.presences = nil
	} else {
		s.presences = s.decoder.DecodePresence(data)
		s.log.Info("presence feed refreshed", "count", len(s.presences))
	}
	s.mu.Unlock()

	s.rebuild(ctx)
}

func (s *Scheduler) rebuild(ctx context.Context) {
	s.mu.Lock()
	events := s.events
	presences := s.presences
	feedErr := s.feedErr
	s.mu.Unlock()

	now := time.Now()
	if feedErr != "" {
		s.pub.Publish(pipeline.Snapshot{Err: feedErr, UpdatedAt: now})
		return
	}

	res := s.pipe.Run(ctx, events, presences, now)
	s.pub.Publish(pipeline.Snapshot{Result: res, UpdatedAt: now})
	s.log.Info("snapshot published",
		"tomorrow", len(res.Tomorrow),
		"this_week", len(res.ThisWeek),
		"later", len(res.Later),
		"all", len(res.All),
	)
}
