package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/repositories"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services that need credentials or a database are created on first use, so commands such as
// classify work without a config file.
type Runner struct {
	config      *shared.Config
	configPath  string
	controller  services.PlaybackController
	spotify     *services.SpotifyService
	interpreter *interpreter.Interpreter
	db          *sql.DB
	ownsDB      bool
	history     *repositories.CommandRepository
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	logFile     *os.File
	reauthorize func(ctx context.Context, err error) (bool, error)

	mu sync.Mutex // guards config writes from the token refresh callback
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Controller  services.PlaybackController
	Interpreter *interpreter.Interpreter
	DB          *sql.DB
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		controller:  opts.Controller,
		interpreter: opts.Interpreter,
		db:          opts.DB,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
	}
	if opts.DB != nil {
		r.history = repositories.NewCommandRepository(opts.DB)
	}
	r.reauthorize = r.handleAuthError
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		classifyCommand, doCommand, listenCommand,
		playCommand, searchCommand, pauseCommand, resumeCommand, nextCommand, previousCommand,
		volumeCommand, devicesCommand, statusCommand,
		authCommand, setupCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Prepare loads the configuration named by --config and applies the logging settings.
//
// A missing config file is not an error; defaults are used.
func (r *Runner) Prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if path := r.config.Logging.File; path != "" {
		logger, f, err := shared.NewFileLogger(path)
		if err != nil {
			return ctx, err
		}
		r.logFile = f
		r.SetLogger(logger)
	}

	level, err := shared.ParseLogLevel(r.config.Logging.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// Close releases the database and log file opened by the runner. An injected database is left open.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	if r.db != nil && r.ownsDB {
		errs = append(errs, r.db.Close())
		r.db, r.history = nil, nil
	}
	if r.logFile != nil {
		errs = append(errs, r.logFile.Close())
		r.logFile = nil
	}
	return errors.Join(errs...)
}

// SetLogger replaces the logger used by the runner and any service it has created.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.spotify != nil {
		r.spotify.SetLogger(l)
	}
}

// clientContext carries the runner's HTTP client to the oauth2 package.
func (r *Runner) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
}

// spotifyService returns the Spotify client, creating it from the configured credentials.
func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	if isPlaceholder(creds.ClientID) || isPlaceholder(creds.ClientSecret) {
		path := r.configPathOrDefault()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: run 'spvc setup config' to create %s",
				shared.ErrMissingConfig, shared.ErrMissingCredentials, path)
		}
		return nil, fmt.Errorf("%w: set credentials.spotify client_id and client_secret in %s",
			shared.ErrMissingCredentials, path)
	}

	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	svc.SetLogger(r.logger)
	svc.SetResilience(r.config.HTTP)
	svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := r.saveTokens(t); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})

	r.spotify = svc
	return svc, nil
}

// playback returns the controller commands run against, authenticating with the stored token.
func (r *Runner) playback(ctx context.Context) (services.PlaybackController, error) {
	if r.controller != nil {
		return r.controller, nil
	}

	svc, err := r.spotifyService()
	if err != nil {
		return nil, err
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run 'spvc auth login' first", shared.ErrNotAuthenticated)
	}
	if err := svc.OAuthenticate(r.clientContext(ctx), token); err != nil {
		return nil, err
	}

	r.controller = svc
	return svc, nil
}

// classifier returns the interpreter selected by --lang and --lexicon, falling back to the configured lexicon.
func (r *Runner) classifier(cmd *cli.Command) (*interpreter.Interpreter, error) {
	lang, path := cmd.String("lang"), cmd.String("lexicon")
	override := lang != "" || path != ""

	if !override {
		if r.interpreter != nil {
			return r.interpreter, nil
		}
		lang, path = r.config.Interpreter.Language, r.config.Interpreter.LexiconPath
	}

	in, err := interpreter.Load(lang, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	r.logger.Debug("lexicon loaded", "language", in.Language(), "path", path)

	if !override {
		r.interpreter = in
	}
	return in, nil
}

// repository opens the command history database on first use.
func (r *Runner) repository() (*repositories.CommandRepository, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db, r.ownsDB = db, true
	r.history = repositories.NewCommandRepository(db)
	return r.history, nil
}

func (r *Runner) executor(controller services.PlaybackController) *tasks.Executor {
	p := r.config.Player
	return tasks.NewExecutor(controller, tasks.ExecutorOpts{
		DeviceID:    p.DeviceID,
		VolumeStep:  p.VolumeStep,
		SearchLimit: p.SearchLimit,
		Logger:      r.logger,
	})
}

// queue wires the interpreter, controller and history into a [tasks.Queue].
//
// History is best effort: when the database cannot be opened commands still run.
func (r *Runner) queue(ctx context.Context, cmd *cli.Command) (*tasks.Queue, services.PlaybackController, error) {
	in, err := r.classifier(cmd)
	if err != nil {
		return nil, nil, err
	}

	controller, err := r.playback(ctx)
	if err != nil {
		return nil, nil, err
	}

	p := r.config.Player
	opts := tasks.QueueOpts{
		Size:      p.QueueSize,
		RateLimit: p.RateLimit,
		Burst:     p.RateBurst,
		Logger:    r.logger,
	}
	if repo, err := r.repository(); err != nil {
		r.logger.Warn("command history disabled", "error", err)
	} else {
		opts.Recorder = repositories.NewHistoryRecorder(repo)
	}

	return tasks.NewQueue(in, r.executor(controller), opts), controller, nil
}

// saveTokens stores token in the config and writes it to the config file when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrInvalidConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		r.logger.Debug("no config path, token kept in memory")
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Debug("tokens saved", "path", r.configPath)
	return nil
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

// isPlaceholder reports whether v is unset or still the value shipped in the example config.
func isPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "your_")
}

// utterance joins the positional arguments into one command string.
func utterance(cmd *cli.Command) (string, error) {
	text := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("%w: command text", shared.ErrMissingArgument)
	}
	return text, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
