// Package shiftparse converts raw table-cell text extracted from the
// listing site into shift records.
package shiftparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/eug3n3js/ShiftBot/internal/model"
)

// The site renders dates as "15. 3. 2024" style cells with inconsistent
// whitespace around the dots, and time ranges in one of two shapes:
// same-day "08:00 - 16:00" or cross-day "23:00 - 16.3.01:30".
var (
	dateRe      = regexp.MustCompile(`(\d+)\.\s*(\d+)\.\s*(\d{4})`)
	crossDayRe  = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*-\s*(\d{1,2})\.\s*(\d+)\.\s*(\d{1,2}):(\d{2})`)
	sameDayRe   = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})`)
	occupancyRe = regexp.MustCompile(`(\d+)/(\d+)`)
)

// RowResult is the outcome of parsing one table row. Exactly one of
// Shift (when OK is true) or Skip (a short reason) is meaningful.
// A malformed row is a skip, never an error: scraping continues with
// the remaining rows and the caller decides whether to log.
type RowResult struct {
	Shift model.Shift
	OK    bool
	Skip  string
}

func skip(reason string) RowResult {
	return RowResult{Skip: reason}
}

// ParseRow parses the ordered cell texts of one shift row:
// name, date, time range, location, position, occupancy, then extras.
// The detail link is not part of the row; callers attach it separately
// (it lives in the following table row on the source site).
func ParseRow(cells []string) RowResult {
	if len(cells) < 7 {
		return skip("too few cells")
	}

	name := strings.TrimSpace(cells[0])
	dateStr := strings.TrimSpace(cells[1])
	timeStr := strings.TrimSpace(cells[2])
	location := strings.TrimSpace(cells[3])
	position := strings.TrimSpace(cells[4])
	occupancyStr := strings.TrimSpace(cells[5])

	start, end, reason := parseWindow(dateStr, timeStr)
	if reason != "" {
		return skip(reason)
	}

	occupied, maxOccupy, ok := parseOccupancy(occupancyStr)
	if !ok {
		return skip("bad occupancy: " + occupancyStr)
	}

	return RowResult{
		OK: true,
		Shift: model.Shift{
			Name:      name,
			Start:     start,
			End:       end,
			Location:  location,
			Position:  position,
			Occupied:  occupied,
			MaxOccupy: maxOccupy,
		},
	}
}

// ParseLink extracts the numeric shift identifier from the trailing path
// segment of a detail-page href.
func ParseLink(href string) (int64, bool) {
	parts := strings.Split(href, "/")
	last := parts[len(parts)-1]
	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseWindow(dateStr, timeStr string) (start, end time.Time, reason string) {
	dm := dateRe.FindStringSubmatch(dateStr)
	if dm == nil {
		return time.Time{}, time.Time{}, "bad date: " + dateStr
	}
	day := atoi(dm[1])
	month := atoi(dm[2])
	year := atoi(dm[3])

	if tm := crossDayRe.FindStringSubmatch(timeStr); tm != nil {
		start = time.Date(year, time.Month(month), day, atoi(tm[1]), atoi(tm[2]), 0, 0, time.UTC)
		end = time.Date(year, time.Month(atoi(tm[4])), atoi(tm[3]), atoi(tm[5]), atoi(tm[6]), 0, 0, time.UTC)
		return start, end, ""
	}

	tm := sameDayRe.FindStringSubmatch(timeStr)
	if tm == nil {
		return time.Time{}, time.Time{}, "bad time range: " + timeStr
	}
	start = time.Date(year, time.Month(month), day, atoi(tm[1]), atoi(tm[2]), 0, 0, time.UTC)
	end = time.Date(year, time.Month(month), day, atoi(tm[3]), atoi(tm[4]), 0, 0, time.UTC)
	if end.Before(start) {
		// Overnight shift: the end time belongs to the next day.
		end = end.AddDate(0, 0, 1)
	}
	return start, end, ""
}

func parseOccupancy(s string) (occupied, maxOccupy int, ok bool) {
	m := occupancyRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	return atoi(m[1]), atoi(m[2]), true
}

// atoi is only ever called on regexp-captured digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
