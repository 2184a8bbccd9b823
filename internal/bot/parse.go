package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eug3n3js/ShiftBot/internal/storage"
)

// FilterValueArgs holds the parsed arguments of /fadd and /frm.
type FilterValueArgs struct {
	Deny  bool
	List  storage.FilterList
	Value string
}

// ParseFilterValueArgs parses "<allow|deny> <company|location|position> <value...>".
func ParseFilterValueArgs(args string) (FilterValueArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 3 {
		return FilterValueArgs{}, fmt.Errorf("usage: <allow|deny> <company|location|position> <value>")
	}

	deny, err := parseFilterSide(parts[0])
	if err != nil {
		return FilterValueArgs{}, err
	}

	var list storage.FilterList
	switch parts[1] {
	case "company":
		list = storage.ListCompanies
	case "location":
		list = storage.ListLocations
	case "position":
		list = storage.ListPositions
	default:
		return FilterValueArgs{}, fmt.Errorf("invalid field %q, use: company, location, position", parts[1])
	}

	return FilterValueArgs{
		Deny:  deny,
		List:  list,
		Value: strings.Join(parts[2:], " "),
	}, nil
}

// ParseLogicArgs parses "<allow|deny> <and|or>" for /flogic.
func ParseLogicArgs(args string) (deny, isAnd bool, err error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return false, false, fmt.Errorf("usage: <allow|deny> <and|or>")
	}
	deny, err = parseFilterSide(parts[0])
	if err != nil {
		return false, false, err
	}
	switch parts[1] {
	case "and":
		isAnd = true
	case "or":
		isAnd = false
	default:
		return false, false, fmt.Errorf("invalid logic %q, use: and, or", parts[1])
	}
	return deny, isAnd, nil
}

// ParseBoundArgs parses "<allow|deny> <hours|off>" for /flonger and
// /fshorter. Hours accept fractions, e.g. "1.5". "off" clears the bound.
func ParseBoundArgs(args string) (deny bool, bound *time.Duration, err error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return false, nil, fmt.Errorf("usage: <allow|deny> <hours|off>")
	}
	deny, err = parseFilterSide(parts[0])
	if err != nil {
		return false, nil, err
	}
	if parts[1] == "off" {
		return deny, nil, nil
	}
	hours, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || hours <= 0 {
		return false, nil, fmt.Errorf("invalid hours %q, use a positive number or \"off\"", parts[1])
	}
	d := time.Duration(hours * float64(time.Hour))
	return deny, &d, nil
}

// ParseTgIDArg extracts a Telegram user ID from a command argument string.
func ParseTgIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("telegram user ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram user ID %q", s)
	}
	return id, nil
}

// ParseActivateArgs extracts a Telegram user ID and access duration in
// hours from /activate arguments.
func ParseActivateArgs(args string) (int64, int, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("usage: /activate <tg_id> <hours>")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid telegram user ID %q", parts[0])
	}
	hours, err := strconv.Atoi(parts[1])
	if err != nil || hours < 1 {
		return 0, 0, fmt.Errorf("hours must be a positive integer")
	}
	return id, hours, nil
}

func parseFilterSide(s string) (deny bool, err error) {
	switch s {
	case "allow":
		return false, nil
	case "deny":
		return true, nil
	default:
		return false, fmt.Errorf("invalid filter %q, use: allow, deny", s)
	}
}
