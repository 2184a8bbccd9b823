// Package engine runs the discovery loops: keeping the browser session
// logged in, polling the listing for new shifts, fanning them out to
// subscribed users, and purging stale mutes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eug3n3js/ShiftBot/internal/browser"
	"github.com/eug3n3js/ShiftBot/internal/filter"
	"github.com/eug3n3js/ShiftBot/internal/model"
	"github.com/eug3n3js/ShiftBot/internal/storage"
)

const cleanupInterval = time.Hour

// Browser is the slice of the browser client the engine drives.
type Browser interface {
	Start(ctx context.Context) error
	ParseShifts(ctx context.Context) ([]model.Shift, error)
	CompanyName(ctx context.Context, link int64) (string, error)
	Close()
}

// Notifier delivers messages to Telegram users.
type Notifier interface {
	// NotifyShift sends one shift notification with a mute button.
	NotifyShift(tgID int64, shift model.Shift)
	NotifyText(tgID int64, text string)
}

// Config carries the engine's loop intervals. Zero values fall back to
// the defaults.
type Config struct {
	SearchInterval time.Duration
	LoginInterval  time.Duration
	MuteRetention  time.Duration
}

// Engine owns the known-shift set and coordinates exclusive access to
// the browser session between the login and search loops.
type Engine struct {
	store    storage.Storage
	browser  Browser
	notifier Notifier
	log      *slog.Logger

	searchInterval time.Duration
	loginInterval  time.Duration
	muteRetention  time.Duration

	// mu serializes browser use between the login and search loops.
	mu    sync.Mutex
	known map[int64]bool
}

// New creates an Engine.
func New(store storage.Storage, b Browser, n Notifier, cfg Config, log *slog.Logger) *Engine {
	if cfg.SearchInterval <= 0 {
		cfg.SearchInterval = 10 * time.Second
	}
	if cfg.LoginInterval <= 0 {
		cfg.LoginInterval = 30 * time.Minute
	}
	if cfg.MuteRetention <= 0 {
		cfg.MuteRetention = 24 * time.Hour
	}
	return &Engine{
		store:          store,
		browser:        b,
		notifier:       n,
		log:            log,
		searchInterval: cfg.SearchInterval,
		loginInterval:  cfg.LoginInterval,
		muteRetention:  cfg.MuteRetention,
		known:          make(map[int64]bool),
	}
}

// Run performs the initial login and then drives the three loops until
// ctx is cancelled. The browser session is closed on the way out.
func (e *Engine) Run(ctx context.Context) {
	e.Login(ctx)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.loop(ctx, e.loginInterval, e.Login)
	}()
	go func() {
		defer wg.Done()
		e.loop(ctx, e.searchInterval, e.Search)
	}()
	go func() {
		defer wg.Done()
		e.loop(ctx, cleanupInterval, e.CleanupMutes)
	}()
	wg.Wait()

	e.mu.Lock()
	e.browser.Close()
	e.mu.Unlock()
}

func (e *Engine) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// Login restarts the browser session. A fresh login picks up a new
// session cookie before the old one can expire.
func (e *Engine) Login(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.browser.Close()
	if err := e.browser.Start(ctx); err != nil {
		e.log.Error("browser login", "error", err)
		e.notifyAdmins(ctx, fmt.Errorf("browser login: %w", err))
		return
	}
	e.log.Info("browser session refreshed")
}

// FindNewShifts scrapes the listing and diffs it against the known set.
// While the known set is empty, a scrape only seeds it and reports
// nothing, so neither a restart nor an empty listing replays every
// listed shift as new.
func (e *Engine) FindNewShifts(ctx context.Context) []model.Shift {
	e.mu.Lock()
	defer e.mu.Unlock()

	shifts, err := e.browser.ParseShifts(ctx)
	if err != nil {
		if errors.Is(err, browser.ErrNotReady) {
			e.log.Debug("skipping search, browser not ready")
			return nil
		}
		e.log.Error("parse shifts", "error", err)
		e.notifyAdmins(ctx, fmt.Errorf("parse shifts: %w", err))
		return nil
	}

	current := make(map[int64]bool, len(shifts))
	for _, s := range shifts {
		current[s.Link] = true
	}

	if len(e.known) == 0 {
		e.known = current
		if len(current) > 0 {
			e.log.Info("seeded known shifts", "count", len(current))
		}
		return nil
	}

	var fresh []model.Shift
	for _, s := range shifts {
		if e.known[s.Link] {
			continue
		}
		company, err := e.browser.CompanyName(ctx, s.Link)
		if err != nil {
			e.log.Error("resolve company", "link", s.Link, "error", err)
		}
		s.Company = company
		for i := range s.Connected {
			s.Connected[i].Company = company
		}
		fresh = append(fresh, s)
	}

	e.known = current
	return fresh
}

// Search finds new shifts and delivers them to every user with active
// access, applying the user's filters and mutes.
func (e *Engine) Search(ctx context.Context) {
	fresh := e.FindNewShifts(ctx)
	if len(fresh) == 0 {
		return
	}
	e.log.Info("found new shifts", "count", len(fresh))

	users, err := e.store.ListUsersWithActiveAccess(ctx)
	if err != nil {
		e.log.Error("list users", "error", err)
		return
	}
	if len(users) == 0 {
		return
	}

	userIDs := make([]int64, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	filters, err := e.store.GetBatchUserFilters(ctx, userIDs)
	if err != nil {
		e.log.Error("batch filters", "error", err)
		return
	}
	mutes, err := e.store.GetBatchUserMutes(ctx, userIDs)
	if err != nil {
		e.log.Error("batch mutes", "error", err)
		return
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return
		}
		muted := make(map[int64]bool, len(mutes[user.ID]))
		for _, link := range mutes[user.ID] {
			muted[link] = true
		}

		passed := filter.ApplyUserFilters(model.CloneShifts(fresh), filters[user.ID])
		for _, shift := range passed {
			if muted[shift.Link] {
				continue
			}
			e.notifier.NotifyShift(user.TgID, shift)
		}
	}
}

// CleanupMutes purges mutes older than the retention window.
func (e *Engine) CleanupMutes(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-e.muteRetention)
	n, err := e.store.DeleteMutesBefore(ctx, cutoff)
	if err != nil {
		e.log.Error("cleanup mutes", "error", err)
		return
	}
	if n > 0 {
		e.log.Info("purged expired mutes", "count", n)
	}
}

func (e *Engine) notifyAdmins(ctx context.Context, cause error) {
	admins, err := e.store.ListAdmins(ctx)
	if err != nil {
		e.log.Error("list admins", "error", err)
		return
	}
	msg := fmt.Sprintf("⚠️ %s\n%v", time.Now().UTC().Format(time.RFC3339), cause)
	for _, admin := range admins {
		e.notifier.NotifyText(admin.TgID, msg)
	}
}
