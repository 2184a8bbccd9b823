// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"github.com/eug3n3js/ShiftBot/internal/model"
)

// FilterList names one of a filter's three value lists. Values map to
// fixed table names; they never come from user input.
type FilterList string

const (
	ListCompanies FilterList = "companies"
	ListLocations FilterList = "locations"
	ListPositions FilterList = "positions"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	// CreateUser inserts a user together with their allow and deny
	// filters and populates the user's ID and CreatedAt.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTgID(ctx context.Context, tgID int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListUsersWithActiveAccess(ctx context.Context) ([]model.User, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
	SetAccessEnds(ctx context.Context, userID int64, until *time.Time) error
	SetAdmin(ctx context.Context, userID int64, isAdmin bool) error

	// EnsureUserFilters creates whichever of the user's two filters is
	// missing. Existing filters are left untouched.
	EnsureUserFilters(ctx context.Context, userID int64) error
	GetUserFilters(ctx context.Context, userID int64) ([]model.Filter, error)
	GetBatchUserFilters(ctx context.Context, userIDs []int64) (map[int64][]model.Filter, error)
	AddFilterValue(ctx context.Context, filterID int64, list FilterList, value string) error
	RemoveFilterValue(ctx context.Context, filterID int64, list FilterList, value string) error
	SetFilterLogic(ctx context.Context, filterID int64, isAnd bool) error
	SetFilterLonger(ctx context.Context, filterID int64, bound *time.Duration) error
	SetFilterShorter(ctx context.Context, filterID int64, bound *time.Duration) error

	// CreateMute is idempotent: muting an already muted shift is a no-op.
	CreateMute(ctx context.Context, userID, shiftLink int64) error
	GetBatchUserMutes(ctx context.Context, userIDs []int64) (map[int64][]int64, error)
	DeleteMutesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
