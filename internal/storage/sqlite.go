package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/eug3n3js/ShiftBot/internal/model"
	"github.com/eug3n3js/ShiftBot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

var listTables = map[FilterList]string{
	ListCompanies: "filter_companies",
	ListLocations: "filter_locations",
	ListPositions: "filter_positions",
}

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user and their empty allow and deny filters
// in one transaction, and populates the user's ID and CreatedAt.
func (s *SQLite) CreateUser(ctx context.Context, user *model.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	var accessEnds *string
	if user.AccessEnds != nil {
		v := user.AccessEnds.UTC().Format(timeLayout)
		accessEnds = &v
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (tg_id, is_admin, access_ends, created_at) VALUES (?, ?, ?, ?)`,
		user.TgID, boolToInt(user.IsAdmin), accessEnds, now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for _, isBlacklist := range []int{0, 1} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO filters (user_id, is_blacklist, is_and) VALUES (?, ?, 0)`,
			id, isBlacklist,
		); err != nil {
			return fmt.Errorf("insert filter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	user.ID = id
	user.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetUserByTgID returns the user with the given Telegram ID, or
// sql.ErrNoRows wrapped if none exists.
func (s *SQLite) GetUserByTgID(ctx context.Context, tgID int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tg_id, is_admin, access_ends, created_at FROM users WHERE tg_id = ?`, tgID,
	)
	return scanUser(row)
}

// ListUsers returns all registered users.
func (s *SQLite) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, tg_id, is_admin, access_ends, created_at FROM users ORDER BY id`)
}

// ListUsersWithActiveAccess returns users whose subscription has not
// expired yet.
func (s *SQLite) ListUsersWithActiveAccess(ctx context.Context) ([]model.User, error) {
	now := time.Now().UTC().Format(timeLayout)
	return s.queryUsers(ctx,
		`SELECT id, tg_id, is_admin, access_ends, created_at FROM users
		 WHERE access_ends IS NOT NULL AND access_ends > ? ORDER BY id`, now)
}

// ListAdmins returns all users with the admin flag set.
func (s *SQLite) ListAdmins(ctx context.Context) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, tg_id, is_admin, access_ends, created_at FROM users WHERE is_admin = 1 ORDER BY id`)
}

// SetAccessEnds updates the user's subscription end. A nil value revokes
// access immediately.
func (s *SQLite) SetAccessEnds(ctx context.Context, userID int64, until *time.Time) error {
	var v *string
	if until != nil {
		f := until.UTC().Format(timeLayout)
		v = &f
	}
	_, err := s.db.ExecContext(ctx, `UPDATE users SET access_ends = ? WHERE id = ?`, v, userID)
	if err != nil {
		return fmt.Errorf("update access_ends: %w", err)
	}
	return nil
}

// SetAdmin grants or revokes the admin flag.
func (s *SQLite) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, boolToInt(isAdmin), userID)
	if err != nil {
		return fmt.Errorf("update is_admin: %w", err)
	}
	return nil
}

// EnsureUserFilters creates whichever of the user's allow and deny
// filters is missing. Safe to call on every user interaction.
func (s *SQLite) EnsureUserFilters(ctx context.Context, userID int64) error {
	for _, isBlacklist := range []int{0, 1} {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO filters (user_id, is_blacklist, is_and) VALUES (?, ?, 0)`,
			userID, isBlacklist,
		); err != nil {
			return fmt.Errorf("ensure filter: %w", err)
		}
	}
	return nil
}

// GetUserFilters returns the user's filters with all value lists loaded.
func (s *SQLite) GetUserFilters(ctx context.Context, userID int64) ([]model.Filter, error) {
	byUser, err := s.GetBatchUserFilters(ctx, []int64{userID})
	if err != nil {
		return nil, err
	}
	return byUser[userID], nil
}

// GetBatchUserFilters loads the filters of several users in one pass,
// keyed by user ID. Users without filters are absent from the map.
func (s *SQLite) GetBatchUserFilters(ctx context.Context, userIDs []int64) (map[int64][]model.Filter, error) {
	if len(userIDs) == 0 {
		return map[int64][]model.Filter{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, is_blacklist, is_and, longer_seconds, shorter_seconds
		 FROM filters WHERE user_id IN (`+placeholders(len(userIDs))+`) ORDER BY user_id, is_blacklist`,
		int64Args(userIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query filters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[int64]*model.Filter)
	var order []int64
	for rows.Next() {
		var f model.Filter
		var isBlacklist, isAnd int
		var longer, shorter sql.NullInt64
		if err := rows.Scan(&f.ID, &f.UserID, &isBlacklist, &isAnd, &longer, &shorter); err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		f.IsBlackList = isBlacklist == 1
		f.IsAnd = isAnd == 1
		if longer.Valid {
			d := time.Duration(longer.Int64) * time.Second
			f.Longer = &d
		}
		if shorter.Valid {
			d := time.Duration(shorter.Int64) * time.Second
			f.Shorter = &d
		}
		byID[f.ID] = &f
		order = append(order, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filters: %w", err)
	}

	if err := s.loadFilterLists(ctx, byID); err != nil {
		return nil, err
	}

	out := make(map[int64][]model.Filter)
	for _, id := range order {
		f := byID[id]
		out[f.UserID] = append(out[f.UserID], *f)
	}
	return out, nil
}

func (s *SQLite) loadFilterLists(ctx context.Context, byID map[int64]*model.Filter) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	for list, table := range listTables {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, filter_id, value FROM `+table+
				` WHERE filter_id IN (`+placeholders(len(ids))+`) ORDER BY id`,
			int64Args(ids)...,
		)
		if err != nil {
			return fmt.Errorf("query %s: %w", table, err)
		}
		for rows.Next() {
			var field model.ListField
			var filterID int64
			if err := rows.Scan(&field.ID, &filterID, &field.Value); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan %s: %w", table, err)
			}
			f := byID[filterID]
			switch list {
			case ListCompanies:
				f.Companies = append(f.Companies, field)
			case ListLocations:
				f.Locations = append(f.Locations, field)
			case ListPositions:
				f.Positions = append(f.Positions, field)
			}
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return fmt.Errorf("iterate %s: %w", table, err)
		}
		_ = rows.Close()
	}
	return nil
}

// AddFilterValue appends a value to one of the filter's lists. Duplicate
// values are ignored.
func (s *SQLite) AddFilterValue(ctx context.Context, filterID int64, list FilterList, value string) error {
	table, ok := listTables[list]
	if !ok {
		return fmt.Errorf("unknown filter list %q", list)
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE filter_id = ? AND value = ?`, filterID, value,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	if count > 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (filter_id, value) VALUES (?, ?)`, filterID, value,
	); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// RemoveFilterValue deletes a value from one of the filter's lists.
func (s *SQLite) RemoveFilterValue(ctx context.Context, filterID int64, list FilterList, value string) error {
	table, ok := listTables[list]
	if !ok {
		return fmt.Errorf("unknown filter list %q", list)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE filter_id = ? AND value = ?`, filterID, value,
	); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// SetFilterLogic switches the filter between AND and OR combination.
func (s *SQLite) SetFilterLogic(ctx context.Context, filterID int64, isAnd bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE filters SET is_and = ? WHERE id = ?`, boolToInt(isAnd), filterID)
	if err != nil {
		return fmt.Errorf("update is_and: %w", err)
	}
	return nil
}

// SetFilterLonger sets or clears the minimum-duration bound.
func (s *SQLite) SetFilterLonger(ctx context.Context, filterID int64, bound *time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE filters SET longer_seconds = ? WHERE id = ?`, durationSeconds(bound), filterID)
	if err != nil {
		return fmt.Errorf("update longer_seconds: %w", err)
	}
	return nil
}

// SetFilterShorter sets or clears the maximum-duration bound.
func (s *SQLite) SetFilterShorter(ctx context.Context, filterID int64, bound *time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE filters SET shorter_seconds = ? WHERE id = ?`, durationSeconds(bound), filterID)
	if err != nil {
		return fmt.Errorf("update shorter_seconds: %w", err)
	}
	return nil
}

// CreateMute records a mute of one shift link for one user. Muting the
// same shift again is a no-op.
func (s *SQLite) CreateMute(ctx context.Context, userID, shiftLink int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO mutes (user_id, shift_link, created_at) VALUES (?, ?, ?)`,
		userID, shiftLink, now,
	)
	if err != nil {
		return fmt.Errorf("insert mute: %w", err)
	}
	return nil
}

// GetBatchUserMutes returns the muted shift links of several users,
// keyed by user ID.
func (s *SQLite) GetBatchUserMutes(ctx context.Context, userIDs []int64) (map[int64][]int64, error) {
	if len(userIDs) == 0 {
		return map[int64][]int64{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, shift_link FROM mutes WHERE user_id IN (`+placeholders(len(userIDs))+`) ORDER BY id`,
		int64Args(userIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query mutes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64][]int64)
	for rows.Next() {
		var userID, link int64
		if err := rows.Scan(&userID, &link); err != nil {
			return nil, fmt.Errorf("scan mute: %w", err)
		}
		out[userID] = append(out[userID], link)
	}
	return out, rows.Err()
}

// DeleteMutesBefore removes mutes created before the cutoff and returns
// how many were removed.
func (s *SQLite) DeleteMutesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mutes WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("delete mutes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLite) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func durationSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	v := int64(d.Seconds())
	return &v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var isAdmin int
	var accessEnds, created sql.NullString
	err := row.Scan(&u.ID, &u.TgID, &isAdmin, &accessEnds, &created)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsAdmin = isAdmin == 1
	if accessEnds.Valid {
		t, _ := time.Parse(timeLayout, accessEnds.String)
		u.AccessEnds = &t
	}
	if created.Valid {
		u.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &u, nil
}
