// Package pipeline turns raw feed rows into enriched, classified,
// bucketed events. One Run is a single pass: no state survives it
// except the category cache.
package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pujaboard/internal/category"
	"pujaboard/internal/classify"
	"pujaboard/internal/dateparse"
	"pujaboard/internal/model"
)

// Everyday is the display token for long-running ranges.
const Everyday = "Everyday"

// Result groups one run's enriched events. Tomorrow, ThisWeek and
// Later are mutually exclusive and hold only upcoming events; All
// holds every processed event (including past and unparseable ones)
// for search.
type Result struct {
	Tomorrow []model.EnrichedEvent
	ThisWeek []model.EnrichedEvent
	Later    []model.EnrichedEvent
	All      []model.EnrichedEvent
}

// Snapshot is the published outcome of the latest refresh: either a
// Result or a user-visible error message with empty buckets, never
// partial data.
type Snapshot struct {
	Result    Result
	Err       string
	UpdatedAt time.Time
}

// Pipeline enriches and buckets puja events.
type Pipeline struct {
	classifier classify.Classifier
	categories *category.Client
	log        *slog.Logger
}

// New creates a Pipeline. categories may be nil, in which case every
// event gets the empty category.
func New(classifier classify.Classifier, categories *category.Client, log *slog.Logger) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		categories: categories,
		log:        log,
	}
}

// Run processes one batch of raw events against the presence schedule
// at the given reference instant. Per-event failures degrade to safe
// defaults; a bad row or a failed category lookup never drops an
// event or aborts the batch.
func (p *Pipeline) Run(ctx context.Context, rawEvents []model.PujaEvent, presences []model.PresenceInterval, now time.Time) Result {
	var all []model.EnrichedEvent
	for _, raw := range rawEvents {
		if strings.HasPrefix(strings.ToLower(raw.Activity), "donation-") {
			continue
		}
		all = append(all, p.enrich(ctx, raw, presences, now))
	}

	sortEvents(all)

	var res Result
	res.All = all

	today := startOfDay(now)
	for _, ev := range all {
		if !p.upcoming(ev, today) {
			continue
		}
		switch {
		case ev.IsTomorrow:
			res.Tomorrow = append(res.Tomorrow, ev)
		case ev.IsThisWeek:
			res.ThisWeek = append(res.ThisWeek, ev)
		default:
			res.Later = append(res.Later, ev)
		}
	}
	return res
}

// enrich runs one raw row through parsing, presence matching,
// classification, and category lookup.
func (p *Pipeline) enrich(ctx context.Context, raw model.PujaEvent, presences []model.PresenceInterval, now time.Time) model.EnrichedEvent {
	iv := dateparse.Parse(raw.Date, raw.Time)

	ev := model.EnrichedEvent{
		PujaEvent: raw,
		ID:        eventID(raw),
		Start:     iv.Start,
		End:       iv.End,
		Visuals:   model.VisualsFor(raw.Activity, raw.Seva),

		IsTomorrow:        p.classifier.IsTomorrow(iv, now),
		IsThisWeek:        p.classifier.IsThisWeek(iv, now),
		IsLongRunning:     p.classifier.IsLongRunning(iv),
		IsPresenceOverlap: p.classifier.OverlapsPresence(iv, presences),
	}

	cat, err := p.categories.Lookup(ctx, ev.ID, raw)
	if err != nil {
		p.log.Debug("category lookup failed", "event", ev.ID, "error", err)
		cat = model.Category{}
	}
	ev.Category = cat

	ev.FormattedDate = displayDate(raw, iv, ev.IsLongRunning)
	ev.FormattedTime = displayTime(raw, iv)
	return ev
}

// upcoming decides whether an event belongs in the dated buckets.
// Long-running events always qualify; otherwise the event's last day
// (or only day) must be on or after today. Unparseable events never
// qualify but stay in All.
func (p *Pipeline) upcoming(ev model.EnrichedEvent, today time.Time) bool {
	if !dateparse.IsValid(ev.Start) {
		return false
	}
	if ev.IsLongRunning {
		return true
	}
	if ev.End != nil && dateparse.IsValid(*ev.End) {
		return !startOfDay(*ev.End).Before(today)
	}
	return !startOfDay(ev.Start).Before(today)
}

// sortEvents orders ascending by start instant, stable for equal
// keys. Unparseable starts sort last, ordered by title among
// themselves.
func sortEvents(events []model.EnrichedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		av, bv := dateparse.IsValid(a.Start), dateparse.IsValid(b.Start)
		switch {
		case av && bv:
			return a.Start.Before(b.Start)
		case av:
			return true
		case bv:
			return false
		default:
			return a.Seva < b.Seva
		}
	})
}

// displayDate renders the date column: formatted single dates,
// verbatim source text for explicit ranges, and the Everyday token
// for long-running ranges.
func displayDate(raw model.PujaEvent, iv dateparse.Interval, longRunning bool) string {
	if longRunning {
		return Everyday
	}
	if strings.Contains(strings.ToLower(raw.Date), " to ") {
		return raw.Date
	}
	if dateparse.IsValid(iv.Start) {
		return dateparse.FormatDate(iv.Start)
	}
	return raw.Date
}

func displayTime(raw model.PujaEvent, iv dateparse.Interval) string {
	if dateparse.IsValid(iv.Start) {
		return dateparse.FormatTime(iv.Start)
	}
	return raw.Time
}

// eventID prefers the details key, then the sheet's unique ID, then a
// generated fallback so that an event without either still gets a
// stable-enough cache key for one run.
func eventID(raw model.PujaEvent) string {
	if raw.Details != "" {
		return raw.Details
	}
	if raw.UniqueID != "" {
		return raw.UniqueID
	}
	return raw.Seva + "-" + raw.Date + "-" + raw.Time + "-" + uuid.NewString()[:8]
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
