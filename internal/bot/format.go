package bot

import (
	"fmt"
	"strings"

	"pujaboard/internal/model"
)

// FormatEvent formats a single event as a message block.
func FormatEvent(ev model.EnrichedEvent) string {
	var b strings.Builder
	b.WriteString(ev.Seva)
	fmt.Fprintf(&b, "\n%s at %s", ev.FormattedDate, ev.FormattedTime)
	fmt.Fprintf(&b, "\n%s", ev.Venue)
	if ev.IsPresenceOverlap {
		b.WriteString("\nIn Gurudev's presence")
	}
	if ev.Category.Category != "" {
		fmt.Fprintf(&b, "\nCategory: %s", ev.Category.Category)
	}
	if ev.Link != "" {
		fmt.Fprintf(&b, "\nRegister: %s", ev.Link)
	}
	return b.String()
}

// FormatEventList formats a titled list of events, separated by blank
// lines.
func FormatEventList(title string, events []model.EnrichedEvent) string {
	if len(events) == 0 {
		return fmt.Sprintf("%s\n\nNo events scheduled.", title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	for _, ev := range events {
		b.WriteString("\n")
		b.WriteString(FormatEvent(ev))
		b.WriteString("\n")
	}
	return b.String()
}
