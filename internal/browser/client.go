// Package browser drives one browser automation session against the
// shift-listing site through a dedicated worker goroutine, so that slow
// or wedged WebDriver calls never block the rest of the bot.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eug3n3js/ShiftBot/internal/model"
)

const (
	startupTimeout  = 120 * time.Second
	commandTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

type commandKind string

const (
	cmdParseShifts commandKind = "parse_shifts"
	cmdCompanyName commandKind = "parse_company_name"
	cmdShutdown    commandKind = "shutdown"
)

type command struct {
	kind   commandKind
	taskID uint64
	link   int64
}

type cmdResult struct {
	taskID  uint64
	shifts  []model.Shift
	company string
	err     error
}

// Client is the facade over the browser worker. It hides worker
// lifecycle and result correlation behind a blocking request/response
// API. The worker owns the only Session; commands are matched to results
// by task id.
type Client struct {
	newSession SessionFactory
	log        *slog.Logger

	startupTO  time.Duration
	commandTO  time.Duration
	shutdownTO time.Duration

	cmds    chan command
	results chan cmdResult
	done    chan struct{}
	ready   bool
	taskID  uint64
}

// NewClient creates a Client. The worker is not started until Start.
func NewClient(factory SessionFactory, log *slog.Logger) *Client {
	return &Client{
		newSession: factory,
		log:        log,
		startupTO:  startupTimeout,
		commandTO:  commandTimeout,
		shutdownTO: shutdownTimeout,
	}
}

// Start spawns the worker and blocks until it reports readiness (session
// created and logged in) or the startup timeout elapses. Calling Start
// while a worker is alive is a no-op.
func (c *Client) Start(ctx context.Context) error {
	if c.running() {
		return nil
	}

	c.cmds = make(chan command)
	c.results = make(chan cmdResult, 16)
	c.done = make(chan struct{})
	startup := make(chan error, 1)

	go c.worker(c.cmds, c.results, c.done, startup)

	timer := time.NewTimer(c.startupTO)
	defer timer.Stop()

	select {
	case err := <-startup:
		if err != nil {
			c.reset()
			return err
		}
		c.ready = true
		c.log.Info("browser worker ready")
		return nil
	case <-timer.C:
		c.abandon()
		return &TimeoutError{Op: "start_process", After: c.startupTO}
	case <-ctx.Done():
		c.abandon()
		return ctx.Err()
	}
}

// worker owns the session for its whole lifetime. Startup failure is
// fatal to the worker; a failed command is reported on the result
// channel and the loop keeps serving. The channels are passed in rather
// than read from the Client because an abandoning client nils its own
// fields while the worker is still alive.
func (c *Client) worker(cmds <-chan command, results chan<- cmdResult, done chan struct{}, startup chan<- error) {
	defer close(done)

	sess, err := c.newSession()
	if err != nil {
		startup <- err
		return
	}
	startup <- nil

	for cmd := range cmds {
		switch cmd.kind {
		case cmdShutdown:
			if err := sess.Close(); err != nil {
				c.log.Error("close browser session", "error", err)
			}
			return
		case cmdParseShifts:
			shifts, err := scrapeShifts(sess, c.log)
			results <- cmdResult{taskID: cmd.taskID, shifts: shifts, err: err}
		case cmdCompanyName:
			results <- cmdResult{taskID: cmd.taskID, company: sess.CompanyName(cmd.link)}
		}
	}

	// Command channel was closed by an abandoning client.
	if err := sess.Close(); err != nil {
		c.log.Error("close browser session", "error", err)
	}
}

// ParseShifts scrapes the full listing and returns the deduplicated
// top-level shifts.
func (c *Client) ParseShifts(ctx context.Context) ([]model.Shift, error) {
	res, err := c.do(ctx, command{kind: cmdParseShifts})
	if err != nil {
		return nil, err
	}
	return res.shifts, nil
}

// CompanyName resolves the company for a shift's detail page. An empty
// string means the site did not render the element in time.
func (c *Client) CompanyName(ctx context.Context, link int64) (string, error) {
	res, err := c.do(ctx, command{kind: cmdCompanyName, link: link})
	if err != nil {
		return "", err
	}
	return res.company, nil
}

// do enqueues one command and waits for the result carrying its task id.
// Results for other task ids (stale replies from a previously timed-out
// command) are discarded. Exceeding the command timeout abandons the
// wait only; it does not stop the in-flight browser operation.
func (c *Client) do(ctx context.Context, cmd command) (cmdResult, error) {
	if !c.ready {
		return cmdResult{}, ErrNotReady
	}

	c.taskID++
	cmd.taskID = c.taskID

	timer := time.NewTimer(c.commandTO)
	defer timer.Stop()

	select {
	case c.cmds <- cmd:
	case <-c.done:
		return cmdResult{}, &CommandError{Op: string(cmd.kind), Err: fmt.Errorf("worker exited")}
	case <-timer.C:
		return cmdResult{}, &TimeoutError{Op: string(cmd.kind), After: c.commandTO}
	case <-ctx.Done():
		return cmdResult{}, ctx.Err()
	}

	for {
		select {
		case res := <-c.results:
			if res.taskID != cmd.taskID {
				continue
			}
			if res.err != nil {
				return cmdResult{}, &CommandError{Op: string(cmd.kind), Err: res.err}
			}
			return res, nil
		case <-c.done:
			return cmdResult{}, &CommandError{Op: string(cmd.kind), Err: fmt.Errorf("worker exited")}
		case <-timer.C:
			return cmdResult{}, &TimeoutError{Op: string(cmd.kind), After: c.commandTO}
		case <-ctx.Done():
			return cmdResult{}, ctx.Err()
		}
	}
}

// Close asks the worker to shut down its session, waits up to the
// shutdown timeout, then resets all state so a later Start re-spawns
// cleanly. Safe to call when no worker is running.
func (c *Client) Close() {
	if !c.running() {
		c.reset()
		return
	}

	timer := time.NewTimer(c.shutdownTO)
	defer timer.Stop()

	select {
	case c.cmds <- command{kind: cmdShutdown}:
	case <-c.done:
	case <-timer.C:
		c.log.Warn("browser worker did not accept shutdown command")
	}

	select {
	case <-c.done:
	case <-timer.C:
		c.log.Warn("browser worker did not exit in time, abandoning it")
	}

	c.reset()
}

func (c *Client) running() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// abandon detaches from a worker that is stuck in startup. Closing the
// command channel makes the worker close its session and exit once the
// stuck call finally returns.
func (c *Client) abandon() {
	if c.cmds != nil {
		close(c.cmds)
	}
	c.reset()
}

func (c *Client) reset() {
	c.cmds = nil
	c.results = nil
	c.done = nil
	c.ready = false
	c.taskID = 0
}
