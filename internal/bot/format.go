package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/hako/durafmt"

	"github.com/eug3n3js/ShiftBot/internal/model"
)

const (
	dayLayout  = "02.01.2006"
	timeLayout = "15:04"
)

// FormatShift formats a shift as a Telegram notification message.
func FormatShift(shift model.Shift, baseURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", shift.Name)
	fmt.Fprintf(&b, "🕒 %s, %s\n", formatWindow(shift), durafmt.Parse(shift.Duration()).LimitFirstN(2))
	fmt.Fprintf(&b, "📍 %s\n", shift.Location)
	if shift.Company != "" {
		fmt.Fprintf(&b, "🏢 %s\n", shift.Company)
	}
	fmt.Fprintf(&b, "👷 %s\n", shift.Position)
	fmt.Fprintf(&b, "👥 %d/%d\n", shift.Occupied, shift.MaxOccupy)

	if len(shift.Connected) > 0 {
		b.WriteString("\nConnected shifts:\n")
		for _, c := range shift.Connected {
			fmt.Fprintf(&b, "  • %s, %d/%d\n", formatWindow(c), c.Occupied, c.MaxOccupy)
		}
	}

	fmt.Fprintf(&b, "\n%s/%d", strings.TrimSuffix(baseURL, "/"), shift.Link)
	return b.String()
}

func formatWindow(s model.Shift) string {
	if s.Start.Format(dayLayout) == s.End.Format(dayLayout) {
		return fmt.Sprintf("%s %s - %s",
			s.Start.Format(dayLayout), s.Start.Format(timeLayout), s.End.Format(timeLayout))
	}
	return fmt.Sprintf("%s %s - %s %s",
		s.Start.Format(dayLayout), s.Start.Format(timeLayout),
		s.End.Format(dayLayout), s.End.Format(timeLayout))
}

// FormatFilter formats one filter for the /filters view.
func FormatFilter(f model.Filter) string {
	logic := "OR"
	if f.IsAnd {
		logic = "AND"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s list (%s):\n", sideLabel(f.IsBlackList), logic)

	if f.IsEmpty() {
		b.WriteString("  no conditions, matches every shift")
		return b.String()
	}

	writeValues(&b, "Companies", f.Companies)
	writeValues(&b, "Locations", f.Locations)
	writeValues(&b, "Positions", f.Positions)
	if f.Longer != nil {
		fmt.Fprintf(&b, "  Longer than: %s\n", durafmt.Parse(*f.Longer).LimitFirstN(2))
	}
	if f.Shorter != nil {
		fmt.Fprintf(&b, "  Shorter than: %s\n", durafmt.Parse(*f.Shorter).LimitFirstN(2))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeValues(b *strings.Builder, label string, fields []model.ListField) {
	if len(fields) == 0 {
		return
	}
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = f.Value
	}
	fmt.Fprintf(b, "  %s: %s\n", label, strings.Join(values, ", "))
}

// FormatUserList formats all users for the admin /users view.
func FormatUserList(users []model.User) string {
	if len(users) == 0 {
		return "No registered users yet."
	}

	now := time.Now().UTC()
	var b strings.Builder
	fmt.Fprintf(&b, "Users (%d):\n", len(users))
	for _, u := range users {
		status := "inactive"
		if u.HasActiveAccess(now) {
			status = fmt.Sprintf("active until %s", u.AccessEnds.Format("2006-01-02 15:04"))
		}
		admin := ""
		if u.IsAdmin {
			admin = " [admin]"
		}
		fmt.Fprintf(&b, "\n%d%s — %s\n", u.TgID, admin, status)
	}
	return b.String()
}
