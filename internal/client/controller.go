package client

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sourcegraph/conc"

	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

const (
	StoppedNotice = "\n\n_Response stopped by user._"
	errorPrefix   = "\n\nError: "
	titleLength   = 40
)

var ErrStreaming = errors.New("a response is still streaming")

type State int

const (
	StateIdle State = iota
	StateStreaming
)

func (s State) String() string {
	if s == StateStreaming {
		return "streaming"
	}
	return "idle"
}

type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeStopped
	OutcomeFailed
)

// Turn describes one finished prompt.
type Turn struct {
	Prompt  model.QueuedPrompt
	Reply   string
	Outcome Outcome
	Err     error
	Files   []string // names written to the session files
}

type ChatStreamer interface {
	StreamChat(ctx context.Context, req model.ChatRequest) (*Stream, error)
}

type SessionSaver interface {
	SaveSession(ctx context.Context, session model.ChatSession) error
}

// Settings are the request fields that do not belong to a session.
type Settings struct {
	Model         string
	ModelProvider model.ModelProvider
	APIKey        string
	SystemPrompt  string
}

// Hooks are called from the stream goroutine. Any of them may be nil.
type Hooks struct {
	OnType  func(text string)
	OnTurn  func(turn Turn)
	OnError func(err error)
}

type ControllerDeps struct {
	Streamer    ChatStreamer
	Saver       SessionSaver
	Hooks       Hooks
	TypingDelay time.Duration
	Log         *logger.Logger
}

// Controller runs at most one chat stream at a time. Prompts submitted while
// streaming wait in a FIFO queue and are sent one by one as streams end.
type Controller struct {
	ControllerDeps

	mu       sync.Mutex
	state    State
	queue    []model.QueuedPrompt
	session  model.ChatSession
	settings Settings
	cancel   context.CancelFunc
	stopped  bool

	wg conc.WaitGroup
}

func NewController(deps ControllerDeps, session model.ChatSession, settings Settings) *Controller {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.Component("controller")
	if session.Files == nil {
		session.Files = make(map[string]string)
	}
	return &Controller{
		ControllerDeps: deps,
		session:        session,
		settings:       settings,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Queue() []model.QueuedPrompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.QueuedPrompt(nil), c.queue...)
}

func (c *Controller) Session() model.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// SetSession switches the current session. It is refused while streaming.
func (c *Controller) SetSession(session model.ChatSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStreaming {
		return ErrStreaming
	}
	c.session = session.Clone()
	return nil
}

func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *Controller) SetSettings(settings Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
}

// Submit sends the prompt, or queues it while a stream is running. Blank
// prompts are ignored and non-image attachments are rejected before anything
// is sent.
func (c *Controller) Submit(prompt model.QueuedPrompt) error {
	if strings.TrimSpace(prompt.Text) == "" {
		return nil
	}
	if err := (model.ChatRequest{Attachments: prompt.Attachments}).ValidateAttachments(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStreaming {
		c.queue = append(c.queue, prompt)
		c.Log.Debug().Int("queued", len(c.queue)).Msg("prompt queued")
		return nil
	}

	c.state = StateStreaming
	turn := c.beginLocked(prompt)
	c.wg.Go(
		func() {
			c.run(turn)
		},
	)
	return nil
}

// Stop aborts the running stream. It reports false when nothing was running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStreaming || c.cancel == nil || c.stopped {
		return false
	}
	c.stopped = true
	c.cancel()
	return true
}

// Wait blocks until the controller is idle with an empty queue.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// pendingTurn is a prompt that has been added to the session and is about to
// be streamed.
type pendingTurn struct {
	ctx      context.Context
	prompt   model.QueuedPrompt
	req      model.ChatRequest
	snapshot model.ChatSession
}

// run serves prompts until the queue is drained.
func (c *Controller) run(pending pendingTurn) {
	for {
		c.save(pending.snapshot)
		err := c.stream(pending.ctx, pending.req)
		turn, snapshot := c.complete(pending.prompt, err)
		c.report(turn, snapshot)

		var ok bool
		pending, ok = c.next()
		if !ok {
			return
		}
	}
}

func (c *Controller) beginLocked(prompt model.QueuedPrompt) pendingTurn {
	if len(c.session.Messages) == 0 && c.session.Title == model.DefaultSessionTitle {
		c.session.Title = sessionTitle(prompt.Text)
	}
	c.session.Messages = append(
		c.session.Messages,
		model.NewChatMessage(model.MessageRoleUser, prompt.Text),
		model.NewChatMessage(model.MessageRoleAssistant, ""),
	)
	c.session.UpdatedAt = time.Now()

	systemPrompt := c.settings.SystemPrompt
	if c.session.SystemPrompt != "" {
		systemPrompt = c.session.SystemPrompt
	}
	req := model.ChatRequest{
		Message:       prompt.Text,
		Model:         c.settings.Model,
		ModelProvider: c.settings.ModelProvider,
		APIKey:        c.settings.APIKey,
		SystemPrompt:  systemPrompt,
		Attachments:   prompt.Attachments,
		VFS:           c.session.Clone().Files,
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.stopped = false
	return pendingTurn{ctx: ctx, prompt: prompt, req: req, snapshot: c.session.Clone()}
}

func (c *Controller) next() (pendingTurn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		c.state = StateIdle
		return pendingTurn{}, false
	}
	prompt := c.queue[0]
	c.queue = c.queue[1:]
	return c.beginLocked(prompt), true
}

func (c *Controller) stream(ctx context.Context, req model.ChatRequest) error {
	stream, err := c.Streamer.StreamChat(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for delta, err := range stream.Deltas() {
		if err != nil {
			return err
		}
		for len(delta) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, size := utf8.DecodeRuneInString(delta)
			c.appendReply(delta[:size])
			delta = delta[size:]
			if err := c.yield(ctx); err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

func (c *Controller) appendReply(text string) {
	c.mu.Lock()
	last := len(c.session.Messages) - 1
	c.session.Messages[last].Content += text
	c.mu.Unlock()

	if c.Hooks.OnType != nil {
		c.Hooks.OnType(text)
	}
}

// yield gives the terminal a chance to repaint between two characters.
func (c *Controller) yield(ctx context.Context) error {
	if c.TypingDelay <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}
	timer := time.NewTimer(c.TypingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Controller) complete(prompt model.QueuedPrompt, err error) (Turn, model.ChatSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	turn := Turn{Prompt: prompt}
	last := &c.session.Messages[len(c.session.Messages)-1]
	// A stream that ran to its end is complete even if Stop raced with it.
	switch {
	case err == nil:
		turn.Files = ApplyFiles(c.session.Files, last.Content)
		turn.Outcome = OutcomeCompleted
	case c.stopped || errors.Is(err, context.Canceled):
		last.Content += StoppedNotice
		turn.Outcome = OutcomeStopped
	case err != nil:
		last.Content += errorPrefix + err.Error()
		turn.Outcome = OutcomeFailed
		turn.Err = err
	}
	turn.Reply = last.Content
	c.session.UpdatedAt = time.Now()

	c.cancel()
	c.cancel = nil
	c.stopped = false
	return turn, c.session.Clone()
}

func (c *Controller) report(turn Turn, snapshot model.ChatSession) {
	c.save(snapshot)
	if turn.Outcome == OutcomeFailed {
		c.Log.Warn().Err(turn.Err).Msg("chat stream failed")
		if c.Hooks.OnError != nil {
			c.Hooks.OnError(turn.Err)
		}
	}
	if c.Hooks.OnTurn != nil {
		c.Hooks.OnTurn(turn)
	}
}

func (c *Controller) save(snapshot model.ChatSession) {
	if c.Saver == nil {
		return
	}
	if err := c.Saver.SaveSession(context.Background(), snapshot); err != nil {
		c.Log.Error().Err(err).Str("session", snapshot.ID.String()).Msg("failed to save session")
	}
}

func sessionTitle(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(title) <= titleLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:titleLength]) + "..."
}
