package bot

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eug3n3js/ShiftBot/internal/storage"
)

func TestParseFilterValueArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    FilterValueArgs
		wantErr bool
	}{
		{
			name: "allow company",
			args: "allow company ACME Events",
			want: FilterValueArgs{Deny: false, List: storage.ListCompanies, Value: "ACME Events"},
		},
		{
			name: "deny location",
			args: "deny location Brno",
			want: FilterValueArgs{Deny: true, List: storage.ListLocations, Value: "Brno"},
		},
		{
			name: "multi-word position",
			args: "allow position Stagehands - Pracovník",
			want: FilterValueArgs{Deny: false, List: storage.ListPositions, Value: "Stagehands - Pracovník"},
		},
		{name: "missing value", args: "allow company", wantErr: true},
		{name: "bad side", args: "maybe company ACME", wantErr: true},
		{name: "bad field", args: "allow color red", wantErr: true},
		{name: "empty", args: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilterValueArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLogicArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		wantDeny bool
		wantAnd  bool
		wantErr  bool
	}{
		{name: "allow and", args: "allow and", wantDeny: false, wantAnd: true},
		{name: "deny or", args: "deny or", wantDeny: true, wantAnd: false},
		{name: "bad logic", args: "allow xor", wantErr: true},
		{name: "bad side", args: "nope and", wantErr: true},
		{name: "too few args", args: "allow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deny, isAnd, err := ParseLogicArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if deny != tt.wantDeny || isAnd != tt.wantAnd {
				t.Errorf("got (%v, %v), want (%v, %v)", deny, isAnd, tt.wantDeny, tt.wantAnd)
			}
		})
	}
}

func TestParseBoundArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantDeny  bool
		wantBound *time.Duration
		wantErr   bool
	}{
		{name: "whole hours", args: "allow 4", wantBound: durPtr(4 * time.Hour)},
		{name: "fractional hours", args: "deny 1.5", wantDeny: true, wantBound: durPtr(90 * time.Minute)},
		{name: "off clears", args: "allow off", wantBound: nil},
		{name: "zero hours", args: "allow 0", wantErr: true},
		{name: "negative", args: "allow -2", wantErr: true},
		{name: "garbage", args: "allow soon", wantErr: true},
		{name: "too few args", args: "allow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deny, bound, err := ParseBoundArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if deny != tt.wantDeny {
				t.Errorf("deny = %v, want %v", deny, tt.wantDeny)
			}
			if diff := cmp.Diff(tt.wantBound, bound); diff != "" {
				t.Errorf("bound mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTgIDArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int64
		wantErr bool
	}{
		{name: "valid", args: "42", want: 42},
		{name: "with whitespace", args: "  7  ", want: 7},
		{name: "empty", args: "", wantErr: true},
		{name: "not a number", args: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTgIDArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseActivateArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantID    int64
		wantHours int
		wantErr   bool
	}{
		{name: "valid", args: "42 24", wantID: 42, wantHours: 24},
		{name: "missing hours", args: "42", wantErr: true},
		{name: "zero hours", args: "42 0", wantErr: true},
		{name: "bad id", args: "abc 24", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, hours, err := ParseActivateArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID || hours != tt.wantHours {
				t.Errorf("got (%d, %d), want (%d, %d)", id, hours, tt.wantID, tt.wantHours)
			}
		})
	}
}

func durPtr(d time.Duration) *time.Duration { return &d }
