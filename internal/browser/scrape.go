package browser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/eug3n3js/ShiftBot/internal/model"
	"github.com/eug3n3js/ShiftBot/internal/shiftparse"
)

// Rows carrying both marker classes are genuine shift rows; everything
// else in the table body is spacing or detail markup.
const (
	rowRootClass  = "MuiTableRow-root"
	rowHoverClass = "MuiTableRow-hover"

	// liquidatingIconSel marks a row as a sub-shift bound to the
	// preceding top-level shift.
	liquidatingIconSel = "svg.jss42.jss44"
)

// maxListingPages bounds the pagination walk; the site wraps around to
// repeat earlier rows well before this.
const maxListingPages = 9

// rowEntry is one qualifying table row before shift parsing.
type rowEntry struct {
	cells       []string
	href        string
	liquidating bool
}

// scrapeShifts walks listing pages 1..maxListingPages, accumulating
// deduplicated top-level shifts, and stops early once a page adds no new
// shifts (pagination has wrapped). A liquidating row that opens a page
// belongs to the last top-level shift of the previous page, so grouping
// carries over the page boundary.
func scrapeShifts(sess Session, log *slog.Logger) ([]model.Shift, error) {
	var shifts []model.Shift

	for page := 1; page <= maxListingPages; page++ {
		html, err := sess.ListingPage(page)
		if err != nil {
			return nil, err
		}

		entries, err := extractRows(html)
		if err != nil {
			return nil, fmt.Errorf("extract rows from page %d: %w", page, err)
		}

		pageShifts, leading := groupPageShifts(entries, page, log)

		grew := false
		for _, sub := range leading {
			if len(shifts) == 0 {
				log.Debug("skipping listing row", "page", page, "reason", "liquidating row without parent")
				continue
			}
			parent := &shifts[len(shifts)-1]
			if containsShift(parent.Connected, sub) {
				continue
			}
			parent.Connected = append(parent.Connected, sub)
			grew = true
		}
		for _, shift := range pageShifts {
			if containsShift(shifts, shift) {
				continue
			}
			shifts = append(shifts, shift)
			grew = true
		}

		if !grew {
			break
		}
	}

	return shifts, nil
}

// groupPageShifts parses one page's rows into top-level shifts with
// their liquidating sub-shifts attached to the preceding top-level row.
// Liquidating rows seen before the page's first top-level row are
// returned separately so the caller can attach them to the last shift of
// the previous page.
func groupPageShifts(entries []rowEntry, page int, log *slog.Logger) (shifts, leading []model.Shift) {
	for _, entry := range entries {
		res := shiftparse.ParseRow(entry.cells)
		if !res.OK {
			log.Debug("skipping listing row", "page", page, "reason", res.Skip)
			continue
		}
		link, ok := shiftparse.ParseLink(entry.href)
		if !ok {
			log.Debug("skipping listing row", "page", page, "reason", "bad detail link "+entry.href)
			continue
		}
		shift := res.Shift
		shift.Link = link

		if entry.liquidating {
			if len(shifts) == 0 {
				leading = append(leading, shift)
				continue
			}
			parent := &shifts[len(shifts)-1]
			parent.Connected = append(parent.Connected, shift)
			continue
		}
		shifts = append(shifts, shift)
	}
	return shifts, leading
}

// extractRows pulls the qualifying shift rows out of a listing page.
func extractRows(html string) ([]rowEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rows := doc.Find("tbody tr")
	var entries []rowEntry

	rows.Each(func(i int, row *goquery.Selection) {
		if !isShiftRow(row) {
			return
		}
		cells := cellTexts(row)
		if len(cells) == 0 {
			return
		}
		entries = append(entries, rowEntry{
			cells:       cells,
			href:        detailLink(rows, i),
			liquidating: row.Find(liquidatingIconSel).Length() > 0,
		})
	})

	return entries, nil
}

func isShiftRow(row *goquery.Selection) bool {
	classes := strings.Fields(row.AttrOr("class", ""))
	var root, hover bool
	for _, c := range classes {
		switch c {
		case rowRootClass:
			root = true
		case rowHoverClass:
			hover = true
		}
	}
	return root && hover
}

func cellTexts(row *goquery.Selection) []string {
	var cells []string
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

// detailLink resolves the detail-page href for the data row at index i.
// Site quirk: the anchor lives in the row immediately below the data
// row, so this is the only place allowed to read a neighbouring row.
func detailLink(rows *goquery.Selection, i int) string {
	next := rows.Eq(i + 1)
	if next.Length() == 0 {
		return ""
	}
	return next.Find("a").First().AttrOr("href", "")
}

func containsShift(shifts []model.Shift, s model.Shift) bool {
	for _, existing := range shifts {
		if existing.Equal(s) {
			return true
		}
	}
	return false
}
