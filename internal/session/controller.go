// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the per-panel conversation state machine: the
// force-answer flag, the cooldown window with its mentor deflection, the
// display log, and the decision of whether a prompt goes to the remote
// model or to a local guidance template.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mentorward/mentor-tui/internal/editor"
	"github.com/mentorward/mentor-tui/internal/history"
	"github.com/mentorward/mentor-tui/internal/mentor"
	"github.com/mentorward/mentor-tui/internal/remote"
)

// DefaultCooldown is how long force mode locks the session after a
// forced exchange completes.
const DefaultCooldown = 120 * time.Second

// ErrBusy rejects a send while another one is still outstanding.
var ErrBusy = errors.New("a message is already being processed")

// CooldownError rejects a force toggle during cooldown, carrying the
// seconds left so the caller can tell the user.
type CooldownError struct {
	RemainingSeconds int
}

// Error implements the error interface.
func (e *CooldownError) Error() string {
	return fmt.Sprintf("force mode locked for another %ds", e.RemainingSeconds)
}

// =============================================================================
// COLLABORATOR SURFACES
// =============================================================================

// Sink is the display surface the controller renders into. Implementations
// are the TUI panel and the plain CLI printer.
type Sink interface {
	ShowTyping()
	HideTyping()
	RenderState(s Snapshot)
	Warn(text string)
}

// Completer abstracts the remote client. Send always returns displayable
// text, substituting templated failure wording on exhaustion.
type Completer interface {
	Send(ctx context.Context, prompt string, opts remote.Options, hist *history.Window, snap *editor.Snapshot) string
}

// Archiver persists completed exchanges. Optional; a nil archiver
// disables persistence.
type Archiver interface {
	SaveExchange(sessionID string, user, assistant history.Message, local bool) error
}

// Snapshot is the observable session state handed to the sink after every
// mutation. The display log slice is a defensive copy.
type Snapshot struct {
	DisplayLog     []history.Message
	CooldownActive bool
	ForceAnswer    bool
	MentorActive   bool
	CooldownEnd    time.Time // zero when no cooldown is running
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the per-panel session state machine. One controller, one
// history window, one display log; nothing here is process-global, so
// several independent sessions can coexist in one process.
type Controller struct {
	mu sync.Mutex

	sessionID string

	// Mode flags. Invariant: cooldownActive implies mentorActive.
	forceAnswer    bool
	cooldownActive bool
	mentorActive   bool
	cooldownEnd    time.Time

	displayLog []history.Message

	// inFlight guards against concurrent sends; a second send while one
	// is outstanding is rejected rather than queued.
	inFlight bool

	cooldown      time.Duration
	cooldownTimer *time.Timer

	hist     *history.Window
	client   Completer
	sink     Sink
	provider editor.Provider
	archive  Archiver
	baseOpts remote.Options

	now func() time.Time
}

// New creates a controller in the idle state.
func New(client Completer, hist *history.Window, sink Sink) *Controller {
	return &Controller{
		sessionID: "sess_" + uuid.New().String(),
		client:    client,
		hist:      hist,
		sink:      sink,
		provider:  editor.NoContext,
		cooldown:  DefaultCooldown,
		baseOpts:  remote.DefaultOptions(),
		now:       time.Now,
	}
}

// WithCooldown overrides the cooldown duration.
func (c *Controller) WithCooldown(d time.Duration) *Controller {
	c.cooldown = d
	return c
}

// WithProvider sets the active editing context provider.
func (c *Controller) WithProvider(p editor.Provider) *Controller {
	if p != nil {
		c.provider = p
	}
	return c
}

// WithArchiver enables transcript persistence.
func (c *Controller) WithArchiver(a Archiver) *Controller {
	c.archive = a
	return c
}

// WithOptions sets the base request options used for remote calls.
func (c *Controller) WithOptions(opts remote.Options) *Controller {
	c.baseOpts = opts
	return c
}

// SessionID returns the identifier used for transcript archiving.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Context returns the current editing snapshot, or nil when no context
// provider is active. UIs use it to summarize what the learner is editing.
func (c *Controller) Context() *editor.Snapshot {
	return c.provider.Snapshot()
}

// =============================================================================
// USER MESSAGE HANDLING
// =============================================================================

// HandleUserMessage runs one user prompt through the state machine.
//
// Blank input is a no-op. While mentor mode gates the session (cooldown
// active, force disabled) the reply comes from the local template and the
// shared history is left untouched; otherwise the prompt goes to the
// remote client, which appends the exchange to history on success. A
// forced exchange starts the cooldown if one is not already running.
//
// The call blocks until the reply is in the display log; callers drive it
// from their own goroutine or command. A second call while one is
// outstanding returns ErrBusy.
func (c *Controller) HandleUserMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.sink.Warn("Still thinking about your last message - give me a moment.")
		return ErrBusy
	}

	c.displayLog = append(c.displayLog, history.NewUserMessage(text))

	// Mentor deflection: local reply, display log only.
	if c.mentorActive && c.cooldownActive && !c.forceAnswer {
		remaining := mentor.RemainingSeconds(c.cooldownEnd, c.now())
		reply := history.NewAssistantMessage(mentor.Generate(text, remaining))
		c.displayLog = append(c.displayLog, reply)
		user := c.displayLog[len(c.displayLog)-2]
		c.mu.Unlock()

		c.render()
		c.saveExchange(user, reply, true)
		return nil
	}

	force := c.forceAnswer
	user := c.displayLog[len(c.displayLog)-1]
	c.inFlight = true
	c.mu.Unlock()

	c.render()
	c.sink.ShowTyping()

	opts := c.baseOpts
	opts.ForceMode = force
	replyText := c.client.Send(ctx, text, opts, c.hist, c.provider.Snapshot())

	c.sink.HideTyping()

	c.mu.Lock()
	c.inFlight = false
	reply := history.NewAssistantMessage(replyText)
	c.displayLog = append(c.displayLog, reply)
	if force && !c.cooldownActive {
		c.startCooldownLocked()
	}
	c.mu.Unlock()

	c.render()
	c.saveExchange(user, reply, false)
	return nil
}

// =============================================================================
// MODE TRANSITIONS
// =============================================================================

// ToggleForceAnswer flips the force-answer flag. While a cooldown is
// running the toggle is rejected with the remaining seconds; state is
// left unchanged.
func (c *Controller) ToggleForceAnswer() error {
	c.mu.Lock()
	if c.cooldownActive {
		remaining := mentor.RemainingSeconds(c.cooldownEnd, c.now())
		c.mu.Unlock()
		return &CooldownError{RemainingSeconds: remaining}
	}
	c.forceAnswer = !c.forceAnswer
	c.mu.Unlock()

	c.render()
	return nil
}

// startCooldownLocked arms the cooldown. Caller holds the lock and has
// verified no cooldown is active.
func (c *Controller) startCooldownLocked() {
	c.cooldownActive = true
	c.mentorActive = true
	c.cooldownEnd = c.now().Add(c.cooldown)
	c.cooldownTimer = time.AfterFunc(c.cooldown, c.expireCooldown)
}

// expireCooldown is the one-shot timer body: clear both flags and notify.
func (c *Controller) expireCooldown() {
	c.mu.Lock()
	c.cooldownActive = false
	c.mentorActive = false
	c.cooldownEnd = time.Time{}
	c.cooldownTimer = nil
	c.mu.Unlock()

	c.render()
}

// Clear resets the session to defaults: flags off, display log empty,
// shared history cleared, any running cooldown timer cancelled.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.cooldownTimer != nil {
		c.cooldownTimer.Stop()
		c.cooldownTimer = nil
	}
	c.forceAnswer = false
	c.cooldownActive = false
	c.mentorActive = false
	c.cooldownEnd = time.Time{}
	c.displayLog = nil
	c.mu.Unlock()

	c.hist.Clear()
	c.render()
}

// Close cancels the cooldown timer without rendering. For shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cooldownTimer != nil {
		c.cooldownTimer.Stop()
		c.cooldownTimer = nil
	}
}

// =============================================================================
// OBSERVATION
// =============================================================================

// State returns the current snapshot.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	log := make([]history.Message, len(c.displayLog))
	copy(log, c.displayLog)
	return Snapshot{
		DisplayLog:     log,
		CooldownActive: c.cooldownActive,
		ForceAnswer:    c.forceAnswer,
		MentorActive:   c.mentorActive,
		CooldownEnd:    c.cooldownEnd,
	}
}

// render pushes the current snapshot to the sink.
func (c *Controller) render() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.sink.RenderState(snap)
}

// saveExchange archives a completed exchange, if an archiver is wired.
// Archive failures are warnings, never session failures.
func (c *Controller) saveExchange(user, assistant history.Message, local bool) {
	if c.archive == nil {
		return
	}
	if err := c.archive.SaveExchange(c.sessionID, user, assistant, local); err != nil {
		c.sink.Warn("Could not save this exchange to the transcript archive.")
	}
}
