package scheduler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"pujaboard/internal/classify"
	"pujaboard/internal/feed"
	"pujaboard/internal/pipeline"
)

const (
	eventsURL   = "https://sheets.example/events.csv"
	presenceURL = "https://sheets.example/presence.csv"
)

const eventsCSV = "Date,Time,Seva,Venue,Activity,link,UniqueID,details\n" +
	"13/06/2125,17:30,Ganpati Homa,Main Hall,Homa-Ganpati,https://x/1,EV001,d1\n"

const presenceCSV = "Event Name,Location,Start Date,End Date\n" +
	"Tour,Bengaluru,2125-06-10,2125-06-16\n"

// routingTransport serves canned bodies per URL; URLs without an
// entry fail with a transport error.
type routingTransport struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (rt *routingTransport) Do(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	body, ok := rt.bodies[req.URL.String()]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}, nil
}

func (rt *routingTransport) set(url, body string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.bodies[url] = body
}

func (rt *routingTransport) remove(url string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.bodies, url)
}

type recordingPublisher struct {
	mu    sync.Mutex
	snaps []pipeline.Snapshot
}

func (p *recordingPublisher) Publish(snap pipeline.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, snap)
}

func (p *recordingPublisher) last() pipeline.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.snaps) == 0 {
		return pipeline.Snapshot{}
	}
	return p.snaps[len(p.snaps)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScheduler(transport *routingTransport, pub Publisher) *Scheduler {
	log := discardLogger()
	return New(
		feed.New(transport),
		feed.NewDecoder(log),
		pipeline.New(classify.New(), nil, log),
		pub,
		nil,
		eventsURL,
		presenceURL,
		log,
	)
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	transport := &routingTransport{bodies: map[string]string{
		eventsURL:   eventsCSV,
		presenceURL: presenceCSV,
	}}
	pub := &recordingPublisher{}
	s := newScheduler(transport, pub)

	ctx := context.Background()
	s.RefreshPresence(ctx)
	s.RefreshEvents(ctx)

	snap := pub.last()
	if snap.Err != "" {
		t.Fatalf("unexpected error state: %q", snap.Err)
	}
	if len(snap.Result.All) != 1 {
		t.Fatalf("expected 1 event, got %d", len(snap.Result.All))
	}
	ev := snap.Result.All[0]
	if ev.UniqueID != "EV001" {
		t.Errorf("event = %q", ev.UniqueID)
	}
	if !ev.IsPresenceOverlap {
		t.Error("expected presence overlap from the presence feed")
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt set")
	}
}

func TestEventsFetchFailurePublishesErrorState(t *testing.T) {
	transport := &routingTransport{bodies: map[string]string{
		presenceURL: presenceCSV,
	}}
	pub := &recordingPublisher{}
	s := newScheduler(transport, pub)

	ctx := context.Background()
	s.RefreshEvents(ctx)

	snap := pub.last()
	if snap.Err != FeedUnavailable {
		t.Errorf("err = %q, want %q", snap.Err, FeedUnavailable)
	}
	if len(snap.Result.All) != 0 {
		t.Errorf("expected empty result, got %d events", len(snap.Result.All))
	}

	// Recovery: the next successful refresh clears the error state.
	transport.set(eventsURL, eventsCSV)
	s.RefreshEvents(ctx)

	snap = pub.last()
	if snap.Err != "" {
		t.Errorf("err after recovery = %q", snap.Err)
	}
	if len(snap.Result.All) != 1 {
		t.Errorf("expected 1 event after recovery, got %d", len(snap.Result.All))
	}
}

func TestPresenceFetchFailureKeepsEventsRendering(t *testing.T) {
	transport := &routingTransport{bodies: map[string]string{
		eventsURL:   eventsCSV,
		presenceURL: presenceCSV,
	}}
	pub := &recordingPublisher{}
	s := newScheduler(transport, pub)

	ctx := context.Background()
	s.RefreshPresence(ctx)
	s.RefreshEvents(ctx)

	// Presence feed goes away: events must still be served, with no
	// presence overlap flags.
	transport.remove(presenceURL)
	s.RefreshPresence(ctx)

	snap := pub.last()
	if snap.Err != "" {
		t.Fatalf("unexpected error state: %q", snap.Err)
	}
	if len(snap.Result.All) != 1 {
		t.Fatalf("expected 1 event, got %d", len(snap.Result.All))
	}
	if snap.Result.All[0].IsPresenceOverlap {
		t.Error("expected no presence overlap after presence fetch failure")
	}
}
