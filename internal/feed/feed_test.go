package feed

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pujaboard/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		want      string
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: "Date,Time\n", statusCode: 200},
			want:      "Date,Time\n",
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			body, err := f.Fetch(context.Background(), "https://example.com/export?format=csv")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeEvents(t *testing.T) {
	data := loadFixture(t, "../../testdata/events.csv")
	d := NewDecoder(discardLogger())

	events := d.DecodeEvents(data)

	// The fixture holds eleven data rows: one with an empty Time field
	// and one with an extra column, both of which must be dropped.
	if len(events) != 9 {
		t.Fatalf("expected 9 events, got %d", len(events))
	}

	want := model.PujaEvent{
		Date:     "13/06/2025",
		Time:     "17:30",
		Seva:     "Ganpati Homa",
		Venue:    "Main Hall",
		Activity: "Homa-Ganpati",
		Link:     "https://example.org/register/1",
		UniqueID: "EV001",
		Details:  "ganpati-homa-jun",
	}
	if diff := cmp.Diff(want, events[0]); diff != "" {
		t.Errorf("first event mismatch (-want +got):\n%s", diff)
	}

	// Relative order of surviving rows is preserved.
	wantIDs := []string{"EV001", "EV002", "EV003", "EV004", "EV005", "EV006", "EV007", "EV009", "EV011"}
	var gotIDs []string
	for _, ev := range events {
		gotIDs = append(gotIDs, ev.UniqueID)
	}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("surviving row order mismatch (-want +got):\n%s", diff)
	}

	// Quoted field with an embedded comma stays one field.
	if events[5].Seva != "Lalitha Sahasranama, Archana" {
		t.Errorf("quoted seva mismatch: %q", events[5].Seva)
	}
}

func TestDecodeEventsStripsBOM(t *testing.T) {
	csv := "\xEF\xBB\xBFDate,Time,Seva,Venue,Activity,link,UniqueID,details\n" +
		"13/06/2025,17:30,Homa,Hall,Homa-X,https://x,EV1,d1\n"
	d := NewDecoder(discardLogger())

	events := d.DecodeEvents([]byte(csv))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Date != "13/06/2025" {
		t.Errorf("BOM leaked into first header: date %q", events[0].Date)
	}
}

func TestDecodeEventsEmptyInput(t *testing.T) {
	d := NewDecoder(discardLogger())

	for _, input := range []string{"", "Date,Time,Seva,Venue,Activity,link,UniqueID,details\n"} {
		if got := d.DecodeEvents([]byte(input)); len(got) != 0 {
			t.Errorf("input %q: expected no events, got %d", input, len(got))
		}
	}
}

func TestDecodePresence(t *testing.T) {
	data := loadFixture(t, "../../testdata/presence.csv")
	d := NewDecoder(discardLogger())

	presences := d.DecodePresence(data)

	want := []model.PresenceInterval{
		{
			EventName: "Summer Tour",
			Location:  "Bengaluru Ashram",
			Start:     time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			EventName: "Retreat",
			Location:  "Rishikesh",
			Start:     time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.June, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			EventName: "European Tour",
			Location:  "Bad Antogast",
			Start:     time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2025, time.July, 20, 0, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, presences); diff != "" {
		t.Errorf("presence mismatch (-want +got):\n%s", diff)
	}
}
