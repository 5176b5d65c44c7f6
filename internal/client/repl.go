package client

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/iamvkosarev/ai-ide-gateway/config"
	"github.com/iamvkosarev/ai-ide-gateway/internal/archive"
	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/pkg/local"
)

type REPLDeps struct {
	API   *API
	State *AppState
	Out   io.Writer
	Log   *logger.Logger
}

// REPL is the terminal front-end: plain lines are prompts, lines starting
// with a slash are commands.
type REPL struct {
	REPLDeps

	controller *Controller
	connector  *CodexConnector
	printer    *local.Printer

	mu      sync.Mutex
	pending []model.Attachment

	background conc.WaitGroup
	cancel     context.CancelFunc
}

func NewREPL(deps REPLDeps, cfg config.Client, language local.Language) (*REPL, error) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	out := &lockedWriter{w: deps.Out}
	r := &REPL{
		REPLDeps:  deps,
		connector: NewCodexConnector(deps.API, cfg.PollInterval, cfg.PollTimeout),
		printer:   local.NewPrinter(out, language),
	}

	session, err := deps.State.ActiveSession(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	r.controller = NewController(
		ControllerDeps{
			Streamer:    deps.API,
			Saver:       deps.State,
			TypingDelay: cfg.TypingDelay,
			Log:         deps.Log,
			Hooks: Hooks{
				OnType: r.printer.Print,
				OnTurn: r.onTurn,
				OnError: func(err error) {
					r.printer.Println(textError, err)
				},
			},
		},
		session,
		deps.State.Preferences().Settings(),
	)
	return r, nil
}

// Run reads lines until EOF or /quit, then waits for queued prompts.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	ctx, r.cancel = context.WithCancel(ctx)
	defer r.cancel()

	session := r.controller.Session()
	r.printer.Println(textWelcome, session.Title, r.controller.Settings().Model)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if quit := r.Handle(ctx, scanner.Text()); quit {
			break
		}
	}
	r.controller.Wait()
	r.cancel()
	r.background.Wait()
	return scanner.Err()
}

// Handle runs one input line. It reports true when the user asked to quit.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		r.submit(line)
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		r.printer.Println(textHelp)
	case "/stop":
		if !r.controller.Stop() {
			r.printer.Println(textNothingToStop)
		}
	case "/queue":
		r.showQueue()
	case "/model", "/provider", "/key", "/system", "/theme":
		r.setPreference(ctx, command, arg)
	case "/models":
		r.showModels(ctx)
	case "/recommend":
		r.recommend(ctx, arg)
	case "/attach":
		r.attach(arg)
	case "/files":
		r.showFiles()
	case "/download":
		r.download(ctx, arg)
	case "/new", "/sessions", "/switch", "/delete":
		r.sessions(ctx, command, arg)
	case "/connect":
		r.connect(ctx)
	case "/status":
		r.codexStatus(ctx)
	case "/disconnect":
		r.disconnect(ctx)
	case "/lang":
		r.printer.SetLanguage(local.ParseLanguage(arg))
	default:
		r.printer.Println(textUnknownCommand, command)
	}
	return false
}

func (r *REPL) submit(text string) {
	if text == "" {
		return
	}
	r.mu.Lock()
	attachments := r.pending
	r.pending = nil
	r.mu.Unlock()

	streaming := r.controller.State() == StateStreaming
	if err := r.controller.Submit(model.QueuedPrompt{Text: text, Attachments: attachments}); err != nil {
		r.printer.Println(textError, err)
		return
	}
	if streaming {
		r.printer.Println(textQueued, len(r.controller.Queue()))
	}
}

func (r *REPL) onTurn(turn Turn) {
	r.printer.Print("\n")
	if len(turn.Files) > 0 {
		r.printer.Println(textFilesWritten, strings.Join(turn.Files, ", "))
	}
}

func (r *REPL) showQueue() {
	queue := r.controller.Queue()
	if len(queue) == 0 {
		r.printer.Println(textQueueEmpty)
		return
	}
	for i, prompt := range queue {
		r.printer.Println(textQueueItem, i+1, prompt.Text)
	}
}

func (r *REPL) setPreference(ctx context.Context, command, arg string) {
	if arg == "" {
		r.printer.Println(textUsage, command+" <value>")
		return
	}
	if arg == "-" {
		arg = ""
	}
	prefs := r.State.Preferences()
	switch command {
	case "/model":
		prefs.CustomModel = arg
	case "/provider":
		prefs.ModelProvider = model.ParseModelProvider(arg)
	case "/key":
		prefs.APIKey = arg
	case "/system":
		prefs.SystemPrompt = arg
	case "/theme":
		prefs.Theme = arg
	}
	if err := r.State.SetPreferences(ctx, prefs); err != nil {
		r.printer.Println(textError, err)
		return
	}
	r.controller.SetSettings(prefs.Settings())
	r.printer.Println(textSaved)
}

func (r *REPL) listModels(ctx context.Context) (model.ModelList, error) {
	prefs := r.State.Preferences()
	return r.API.Models(ctx, prefs.ModelProvider, prefs.APIKey)
}

func (r *REPL) showModels(ctx context.Context) {
	list, err := r.listModels(ctx)
	if err != nil {
		r.printer.Println(textError, err)
		return
	}
	source := list.Source
	if source == "" {
		source = string(r.State.Preferences().ModelProvider)
	}
	r.printer.Println(textModelsSource, len(list.Models), source)
	for _, info := range list.Models {
		r.printer.Println(textModelItem, info.ID)
	}
}

func (r *REPL) recommend(ctx context.Context, message string) {
	if message == "" {
		r.printer.Println(textUsage, "/recommend <message>")
		return
	}
	var candidates []string
	if list, err := r.listModels(ctx); err == nil {
		for _, info := range list.Models {
			candidates = append(candidates, info.ID)
		}
	}
	recommendation := Recommend(ctx, r.API, model.RecommendRequest{Message: message, Candidates: candidates})
	if recommendation.Recommended == nil {
		r.printer.Println(textNoRecommendation, recommendation.Reason)
		return
	}
	r.printer.Println(textRecommended, *recommendation.Recommended, recommendation.Reason)
}

func (r *REPL) attach(path string) {
	if path == "" {
		r.printer.Println(textUsage, "/attach <image path>")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.printer.Println(textError, err)
		return
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	attachment := model.Attachment{
		Name:       filepath.Base(path),
		MimeType:   mimeType,
		DataBase64: base64.StdEncoding.EncodeToString(data),
	}
	if !attachment.IsImage() {
		r.printer.Println(textError, &model.AttachmentError{Name: attachment.Name, MimeType: mimeType})
		return
	}
	r.mu.Lock()
	r.pending = append(r.pending, attachment)
	r.mu.Unlock()
	r.printer.Println(textAttached, attachment.Name, mimeType)
}

func (r *REPL) showFiles() {
	files := r.controller.Session().Files
	if len(files) == 0 {
		r.printer.Println(textNoFiles)
		return
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		r.printer.Println(textFileItem, name, len(files[name]))
	}
}

func (r *REPL) download(ctx context.Context, path string) {
	if path == "" {
		path = archive.Filename
	}
	f, err := os.Create(path)
	if err != nil {
		r.printer.Println(textError, err)
		return
	}
	err = r.API.Download(ctx, r.controller.Session().Files, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		r.printer.Println(textError, err)
		return
	}
	r.printer.Println(textDownloaded, path)
}

func (r *REPL) sessions(ctx context.Context, command, arg string) {
	if command == "/sessions" {
		r.listSessions(ctx)
		return
	}
	if r.controller.State() == StateStreaming {
		r.printer.Println(textBusy)
		return
	}

	var session model.ChatSession
	var err error
	switch command {
	case "/new":
		session, err = r.State.NewSession(ctx)
	case "/delete":
		session, err = r.State.DeleteSession(ctx, r.controller.Session().ID)
	case "/switch":
		session, err = r.switchSession(ctx, arg)
	}
	if err == nil {
		err = r.controller.SetSession(session)
	}
	if err != nil {
		if errors.Is(err, ErrStreaming) {
			r.printer.Println(textBusy)
			return
		}
		r.printer.Println(textError, err)
		return
	}
	r.printer.Println(textSessionActive, session.Title)
}

func (r *REPL) listSessions(ctx context.Context) {
	sessions, err := r.State.Sessions(ctx)
	if err != nil {
		r.printer.Println(textError, err)
		return
	}
	activeID := r.controller.Session().ID
	for i, session := range sessions {
		marker := " "
		if session.ID == activeID {
			marker = "*"
		}
		r.printer.Println(textSessionItem, marker, i+1, session.Title, len(session.Messages))
	}
}

func (r *REPL) switchSession(ctx context.Context, arg string) (model.ChatSession, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return model.ChatSession{}, fmt.Errorf("session number expected: %w", err)
	}
	sessions, err := r.State.Sessions(ctx)
	if err != nil {
		return model.ChatSession{}, err
	}
	if n < 1 || n > len(sessions) {
		return model.ChatSession{}, model.ErrSessionDoesNotExist
	}
	return r.State.SetActiveSession(ctx, sessions[n-1].ID)
}

func (r *REPL) connect(ctx context.Context) {
	result, err := r.connector.Start(ctx)
	if err != nil {
		r.printer.Println(textError, err)
		return
	}
	if result.Authenticated {
		r.printer.Println(textCodexConnected)
		return
	}
	if result.Output != "" {
		r.printer.Println(textCodexOutput, result.Output)
	}
	if result.Code == nil || result.RateLimited() {
		return
	}
	r.printer.Println(textCodexCode, result.VerificationURL, *result.Code)
	r.background.Go(
		func() {
			status, err := r.connector.WaitForAuth(ctx, nil)
			switch {
			case err == nil && status.Authenticated:
				r.printer.Println(textCodexConnected)
			case errors.Is(err, context.Canceled):
			case err != nil:
				r.printer.Println(textError, err)
			}
		},
	)
}

func (r *REPL) codexStatus(ctx context.Context) {
	status, err := r.API.CodexStatus(ctx)
	if err != nil {
		r.printer.Println(textError, err)
		return
	}
	if status.Authenticated {
		r.printer.Println(textCodexConnected)
		return
	}
	r.printer.Println(textCodexNotConnected, status.Message)
	if status.Code != "" {
		r.printer.Println(textCodexCode, status.VerificationURL, status.Code)
	}
}

func (r *REPL) disconnect(ctx context.Context) {
	result, err := r.connector.Disconnect(ctx)
	if err != nil {
		r.printer.Println(textError, err)
		return
	}
	r.printer.Println(textCodexOutput, result.Message)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
