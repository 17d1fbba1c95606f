package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"github.com/zombor/expense-review/internal/compliance"
	"github.com/zombor/expense-review/internal/logging"
	"github.com/zombor/expense-review/internal/scanning"
	"github.com/zombor/expense-review/internal/server"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("expense-review")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		policyPath    = fs.StringLong("policy", "", "Travel policy document (.pdf, .txt or .md)")
		scannerType   = fs.StringLong("scanner", "gemini", "Receipt analyzer: 'gemini' or 'ollama'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		openaiKey     = fs.StringLong("openai-key", "", "OpenAI API key for compliance review (or set OPENAI_API_KEY env var)")
		openaiModel   = fs.StringLong("openai-model", "gpt-4o", "OpenAI model used for compliance review")
		openaiBaseURL = fs.StringLong("openai-base-url", "", "OpenAI compatible API base URL (optional)")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel      = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		logFormat     = fs.StringLong("log-format", "console", "Log format: console or json")
		sessionTTL    = fs.DurationLong("session-ttl", 2*time.Hour, "Idle time after which a report session is discarded (0 keeps sessions)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_REVIEW"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating logger: %v\n", err)
		os.Exit(1)
	}

	err = run(config{
		port:          *port,
		policyPath:    *policyPath,
		scannerType:   *scannerType,
		geminiKey:     *geminiKey,
		geminiModel:   *geminiModel,
		ollamaURL:     *ollamaURL,
		ollamaModel:   *ollamaModel,
		openaiKey:     *openaiKey,
		openaiModel:   *openaiModel,
		openaiBaseURL: *openaiBaseURL,
		auth:          server.BasicAuth{Username: *authUser, Password: *authPass},
		sessionTTL:    *sessionTTL,
	}, logger)
	if err != nil {
		logger.Error("Exiting", zap.Error(err))
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

type config struct {
	port          int
	policyPath    string
	scannerType   string
	geminiKey     string
	geminiModel   string
	ollamaURL     string
	ollamaModel   string
	openaiKey     string
	openaiModel   string
	openaiBaseURL string
	auth          server.BasicAuth
	sessionTTL    time.Duration
}

func newAnalyzer(cfg config, logger *zap.Logger) (scanning.Analyzer, error) {
	switch cfg.scannerType {
	case "gemini":
		apiKey := cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini api key is required: set --gemini-key flag or GEMINI_API_KEY environment variable")
		}
		logger.Info("Initializing Gemini analyzer...", zap.String("model", cfg.geminiModel))
		analyzer, err := scanning.NewGemini(apiKey, cfg.geminiModel, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
		return analyzer, nil
	case "ollama":
		logger.Info("Initializing Ollama analyzer...", zap.String("url", cfg.ollamaURL), zap.String("model", cfg.ollamaModel))
		analyzer, err := scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama: %w", err)
		}
		return analyzer, nil
	default:
		return nil, fmt.Errorf("invalid scanner type %q: valid types are gemini or ollama", cfg.scannerType)
	}
}

func run(cfg config, logger *zap.Logger) error {
	analyzer, err := newAnalyzer(cfg, logger)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	apiKey := cfg.openaiKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	reviewer, err := compliance.NewOpenAIReviewer(apiKey, cfg.openaiModel, cfg.openaiBaseURL, logger)
	if err != nil {
		return fmt.Errorf("initializing compliance reviewer (set --openai-key flag or OPENAI_API_KEY environment variable): %w", err)
	}

	// A missing policy does not stop the server; submissions fail until it is fixed
	policy := compliance.LoadPolicySource(cfg.policyPath)
	if err := policy.Err(); err != nil {
		logger.Warn("Policy document unavailable, report submission is disabled", zap.String("path", cfg.policyPath), zap.Error(err))
	} else {
		logger.Info("Policy document loaded", zap.String("path", cfg.policyPath))
	}

	sessions := server.NewSessions(cfg.sessionTTL)
	service := server.NewService(analyzer, reviewer, policy, logger)
	srv := server.NewServer(service, sessions, cfg.auth, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.sessionTTL > 0 {
		go sweepSessions(ctx, sessions, cfg.sessionTTL, logger)
	}

	addr := fmt.Sprintf(":%d", cfg.port)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start(addr)
	}()

	logger.Info("Server started", zap.String("address", fmt.Sprintf("http://localhost%s", addr)))
	if cfg.auth.Username != "" || cfg.auth.Password != "" {
		logger.Info("Basic auth enabled", zap.String("user", cfg.auth.Username))
	}

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-serveErr
}

func sweepSessions(ctx context.Context, sessions *server.Sessions, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Debug("Expired sessions dropped", zap.Int("count", n))
			}
		}
	}
}
