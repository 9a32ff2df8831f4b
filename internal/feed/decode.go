package feed

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"

	"pujaboard/internal/dateparse"
	"pujaboard/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder converts raw CSV bytes into domain records. Malformed rows
// are dropped individually; one bad row never affects the others.
type Decoder struct {
	log *slog.Logger
}

// NewDecoder creates a Decoder that reports dropped rows to log.
func NewDecoder(log *slog.Logger) *Decoder {
	return &Decoder{log: log}
}

// DecodeEvents decodes the puja events sheet. Rows with a mismatched
// column count or a missing required field are skipped.
func (d *Decoder) DecodeEvents(data []byte) []model.PujaEvent {
	header, rows := readCSV(data)
	if header == nil {
		return nil
	}

	col := columnIndex(header)
	var events []model.PujaEvent

	for i, row := range rows {
		if len(row) != len(header) {
			d.log.Debug("skipping event row: column count mismatch",
				"row", i+2, "want", len(header), "got", len(row))
			continue
		}

		ev := model.PujaEvent{
			Date:     field(row, col, "Date"),
			Time:     field(row, col, "Time"),
			Seva:     field(row, col, "Seva"),
			Venue:    field(row, col, "Venue"),
			Activity: field(row, col, "Activity"),
			Link:     field(row, col, "link"),
			UniqueID: field(row, col, "UniqueID"),
			Details:  field(row, col, "details"),
		}
		if ev.Date == "" || ev.Time == "" || ev.Seva == "" || ev.Venue == "" ||
			ev.Activity == "" || ev.Link == "" || ev.UniqueID == "" || ev.Details == "" {
			d.log.Debug("skipping event row: missing required field", "row", i+2)
			continue
		}
		events = append(events, ev)
	}
	return events
}

// DecodePresence decodes Gurudev's travel schedule. Dates are ISO
// year-month-day; rows with a missing name/location or an invalid
// date on either side are skipped.
func (d *Decoder) DecodePresence(data []byte) []model.PresenceInterval {
	header, rows := readCSV(data)
	if header == nil {
		return nil
	}

	col := columnIndex(header)
	var presences []model.PresenceInterval

	for i, row := range rows {
		if len(row) != len(header) {
			d.log.Debug("skipping presence row: column count mismatch",
				"row", i+2, "want", len(header), "got", len(row))
			continue
		}

		p := model.PresenceInterval{
			EventName: field(row, col, "Event Name"),
			Location:  field(row, col, "Location"),
			Start:     dateparse.ParseISODate(field(row, col, "Start Date")),
			End:       dateparse.ParseISODate(field(row, col, "End Date")),
		}
		if p.EventName == "" || p.Location == "" ||
			!dateparse.IsValid(p.Start) || !dateparse.IsValid(p.End) {
			d.log.Debug("skipping presence row: missing or invalid field", "row", i+2)
			continue
		}
		presences = append(presences, p)
	}
	return presences
}

// readCSV strips a UTF-8 BOM, then reads the header row and all data
// rows. Column counts are validated by the caller, not the reader, so
// a short row cannot poison the rest of the document.
func readCSV(data []byte) (header []string, rows [][]string) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if header == nil {
			header = trimAll(record)
			continue
		}
		rows = append(rows, trimAll(record))
	}
	return header, rows
}

// columnIndex maps lower-cased header names to their positions.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(name)] = i
	}
	return idx
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func trimAll(record []string) []string {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record
}
