// Package filter implements the shift matching engine.
package filter

import (
	"github.com/eug3n3js/ShiftBot/internal/model"
)

// Matches checks a single shift against one filter.
// A condition is built for every active field on the filter; an empty
// filter always matches. Active conditions combine per IsAnd, and
// deny-list filters negate the combined result:
//
//	AND + allow: all conditions must hold.
//	AND + deny:  rejected only when every deny condition holds at once.
//	OR + allow:  any condition suffices.
//	OR + deny:   any single deny condition rejects.
func Matches(shift model.Shift, f model.Filter) bool {
	var conditions []bool

	if f.Longer != nil {
		conditions = append(conditions, shift.Duration() > *f.Longer)
	}
	if f.Shorter != nil {
		conditions = append(conditions, shift.Duration() < *f.Shorter)
	}
	if len(f.Companies) > 0 {
		conditions = append(conditions, shift.Company != "" && containsValue(f.Companies, shift.Company))
	}
	if len(f.Locations) > 0 {
		conditions = append(conditions, containsValue(f.Locations, shift.Location))
	}
	if len(f.Positions) > 0 {
		conditions = append(conditions, containsValue(f.Positions, shift.Position))
	}

	if len(conditions) == 0 {
		return true
	}

	var combined bool
	if f.IsAnd {
		combined = all(conditions)
	} else {
		combined = any(conditions)
	}
	if f.IsBlackList {
		return !combined
	}
	return combined
}

// Apply filters a shift list. A shift survives only if it matches the
// filter itself and every one of its connected sub-shifts independently
// passes the same filter; a group with any failing sub-shift is dropped
// whole.
func Apply(shifts []model.Shift, f model.Filter) []model.Shift {
	var out []model.Shift
	for _, shift := range shifts {
		if !Matches(shift, f) {
			continue
		}
		if len(Apply(shift.Connected, f)) != len(shift.Connected) {
			continue
		}
		out = append(out, shift)
	}
	return out
}

// ApplyUserFilters runs a shift list through a user's filter pair.
// Both filters are applied by type, allow-list first; since both are
// pure predicates over the same list, the surviving set does not depend
// on the order.
func ApplyUserFilters(shifts []model.Shift, filters []model.Filter) []model.Shift {
	for _, f := range filters {
		if !f.IsBlackList {
			shifts = Apply(shifts, f)
		}
	}
	for _, f := range filters {
		if f.IsBlackList {
			shifts = Apply(shifts, f)
		}
	}
	return shifts
}

func containsValue(fields []model.ListField, v string) bool {
	for _, f := range fields {
		if f.Value == v {
			return true
		}
	}
	return false
}

func all(conds []bool) bool {
	for _, c := range conds {
		if !c {
			return false
		}
	}
	return true
}

func any(conds []bool) bool {
	for _, c := range conds {
		if c {
			return true
		}
	}
	return false
}
