package shiftparse

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eug3n3js/ShiftBot/internal/model"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		want     model.Shift
		wantOK   bool
		wantSkip string
	}{
		{
			name:   "regular day shift",
			cells:  []string{"Festival buildup", "15.3.2024", "08:00 - 16:30", "Brno Výstaviště", "Stagehands - Pracovník", "3/12", ""},
			wantOK: true,
			want: model.Shift{
				Name:      "Festival buildup",
				Start:     time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
				End:       time.Date(2024, 3, 15, 16, 30, 0, 0, time.UTC),
				Location:  "Brno Výstaviště",
				Position:  "Stagehands - Pracovník",
				Occupied:  3,
				MaxOccupy: 12,
			},
		},
		{
			name:   "overnight shift rolls end to next day",
			cells:  []string{"Night teardown", "15.3.2024", "23:00 - 01:30", "Praha", "Stagehands - Crewboss", "0/4", ""},
			wantOK: true,
			want: model.Shift{
				Name:      "Night teardown",
				Start:     time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC),
				End:       time.Date(2024, 3, 16, 1, 30, 0, 0, time.UTC),
				Location:  "Praha",
				Position:  "Stagehands - Crewboss",
				MaxOccupy: 4,
			},
		},
		{
			name:   "cross-day range with explicit end date",
			cells:  []string{"Two day rig", "15.3.2024", "22:00 - 17.3.06:00", "Ostrava", "Stagehands - Záložník", "1/2", ""},
			wantOK: true,
			want: model.Shift{
				Name:      "Two day rig",
				Start:     time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC),
				End:       time.Date(2024, 3, 17, 6, 0, 0, 0, time.UTC),
				Location:  "Ostrava",
				Position:  "Stagehands - Záložník",
				Occupied:  1,
				MaxOccupy: 2,
			},
		},
		{
			name:   "whitespace around date separators",
			cells:  []string{"Loose cells", "5. 11. 2024", "10:00 - 18:00", "Plzeň", "Pracovník", "10/10", ""},
			wantOK: true,
			want: model.Shift{
				Name:      "Loose cells",
				Start:     time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC),
				End:       time.Date(2024, 11, 5, 18, 0, 0, 0, time.UTC),
				Location:  "Plzeň",
				Position:  "Pracovník",
				Occupied:  10,
				MaxOccupy: 10,
			},
		},
		{
			name:     "too few cells",
			cells:    []string{"Name", "15.3.2024", "08:00 - 16:00"},
			wantSkip: "too few cells",
		},
		{
			name:     "malformed date",
			cells:    []string{"Name", "soon", "08:00 - 16:00", "Praha", "Pracovník", "1/2", ""},
			wantSkip: "bad date: soon",
		},
		{
			name:     "malformed time range",
			cells:    []string{"Name", "15.3.2024", "all day", "Praha", "Pracovník", "1/2", ""},
			wantSkip: "bad time range: all day",
		},
		{
			name:     "malformed occupancy",
			cells:    []string{"Name", "15.3.2024", "08:00 - 16:00", "Praha", "Pracovník", "abc", ""},
			wantSkip: "bad occupancy: abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRow(tt.cells)
			if diff := cmp.Diff(tt.wantOK, got.OK); diff != "" {
				t.Fatalf("OK mismatch (-want +got):\n%s\nskip: %s", diff, got.Skip)
			}
			if !tt.wantOK {
				if diff := cmp.Diff(tt.wantSkip, got.Skip); diff != "" {
					t.Errorf("skip reason mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got.Shift); diff != "" {
				t.Errorf("shift mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLink(t *testing.T) {
	tests := []struct {
		name   string
		href   string
		want   int64
		wantOK bool
	}{
		{name: "absolute path", href: "/react/position/48213", want: 48213, wantOK: true},
		{name: "full url", href: "https://example.com/react/position/7", want: 7, wantOK: true},
		{name: "non-numeric tail", href: "/react/position/new", wantOK: false},
		{name: "empty", href: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLink(tt.href)
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Fatalf("ok mismatch (-want +got):\n%s", diff)
			}
			if ok {
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("link mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

// Round trip: formatting a parsed shift the way the site renders its
// cells and re-parsing must produce the same record.
func TestParseRowRoundTrip(t *testing.T) {
	cells := []string{"Arena load-in", "2.6.2024", "06:30 - 14:00", "Praha O2", "Crewboss", "4/8", ""}
	first := ParseRow(cells)
	if !first.OK {
		t.Fatalf("first parse skipped: %s", first.Skip)
	}

	s := first.Shift
	rebuilt := []string{
		s.Name,
		s.Start.Format("2.1.2006"),
		s.Start.Format("15:04") + " - " + s.End.Format("15:04"),
		s.Location,
		s.Position,
		"4/8",
		"",
	}
	second := ParseRow(rebuilt)
	if !second.OK {
		t.Fatalf("second parse skipped: %s", second.Skip)
	}
	if !first.Shift.Equal(second.Shift) {
		t.Errorf("round trip mismatch:\nfirst:  %+v\nsecond: %+v", first.Shift, second.Shift)
	}
}
