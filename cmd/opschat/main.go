package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"opschat/internal/brain"
	"opschat/internal/config"
	"opschat/internal/gateway"
	"opschat/internal/llm"
	"opschat/internal/retry"
	"opschat/internal/secrets"
	"opschat/internal/session"
	"opschat/internal/tokenizer"
	"opschat/internal/tooling"
)

// version is injectable via ldflags.
var version = "dev"

// buildMeta holds version and build metadata.
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta() buildMeta {
	return buildMeta{Version: version, GoOS: runtime.GOOS, GoArch: runtime.GOARCH}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("opschat %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	var cfgPath string
	var secretsPath string

	root := &cobra.Command{
		Use:   "opschat",
		Short: "Tool-calling ops assistant",
		Long:  "Opschat is a chat assistant that can call ops tools (weather, IP reputation, Slack, Telegram) before answering.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return runChat(cmd, cfgPath, secretsPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "opschat.json", "path to config file (.json, .yaml)")
	root.PersistentFlags().StringVar(&secretsPath, "secrets", "", "optional KEY=VALUE credentials file")
	root.Flags().BoolP("version", "V", false, "print version and build metadata")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket chat gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, cfgPath, secretsPath)
		},
	}
	root.AddCommand(serveCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if !fix {
					return fmt.Errorf("config %s does not exist (use --fix to create it)", cfgPath)
				}
				if err := config.WriteDefault(cfgPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", cfgPath)
			}
			if _, err := config.Load(cfgPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config OK")
			return nil
		},
	}
	checkCmd.Flags().Bool("fix", false, "write default config if missing")
	root.AddCommand(checkCmd)

	return root
}

// setupLogger configures the process-wide slog handler from config.
func setupLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// registerTools adds every tool whose credential is available. A missing key
// skips the tool with a warning rather than failing startup; a duplicate name
// is a configuration error and aborts.
func registerTools(reg *tooling.ToolRegistry, store *secrets.Store, logger *slog.Logger) error {
	if key, ok := store.Lookup(secrets.WeatherAPIKey); ok {
		if err := reg.Register(tooling.NewCurrentWeatherTool(key)); err != nil {
			return err
		}
		if err := reg.Register(tooling.NewForecastTool(key)); err != nil {
			return err
		}
	} else {
		logger.Warn("weather tools disabled", "missing", secrets.WeatherAPIKey)
	}

	if key, ok := store.Lookup(secrets.AbuseIPDBAPIKey); ok {
		if err := reg.Register(tooling.NewCheckIPTool(key)); err != nil {
			return err
		}
		if err := reg.Register(tooling.NewCheckBlockTool(key)); err != nil {
			return err
		}
	} else {
		logger.Warn("abuseipdb tools disabled", "missing", secrets.AbuseIPDBAPIKey)
	}

	if token, ok := store.Lookup(secrets.SlackAPIKey); ok {
		for _, t := range tooling.NewSlackTools(token) {
			if err := reg.Register(t); err != nil {
				return err
			}
		}
	} else {
		logger.Warn("slack tools disabled", "missing", secrets.SlackAPIKey)
	}

	if token, ok := store.Lookup(secrets.TelegramToken); ok {
		tool, err := tooling.NewSendTelegramMessageTool(token)
		if err != nil {
			logger.Warn("telegram tool disabled", "error", err)
		} else if err := reg.Register(tool); err != nil {
			return err
		}
	} else {
		logger.Warn("telegram tool disabled", "missing", secrets.TelegramToken)
	}

	return nil
}

// buildManager wires the whole turn loop from config: provider, retry
// decorator, composer, registry, dispatcher, engine, session manager.
func buildManager(cfgPath, secretsPath string) (*session.Manager, *slog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	logger := setupLogger(cfg.Infra.LogFormat, cfg.Infra.LogLevel)

	store := secrets.NewStore(secretsPath)
	reg := tooling.NewToolRegistry()
	if err := registerTools(reg, store, logger); err != nil {
		return nil, nil, err
	}
	if len(reg.List()) == 0 {
		logger.Warn("no tools registered; running as a plain chat assistant")
	}

	var provider = retry.NewRetryableProvider(
		llm.NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model),
		retry.FromDomain(cfg.Retry),
	)

	composerOpts := []brain.ComposerOption{brain.WithComposerLogger(logger)}
	if tok, err := tokenizer.NewTikToken("cl100k_base"); err == nil {
		composerOpts = append(composerOpts, brain.WithTokenizer(tok))
	} else {
		logger.Debug("tokenizer unavailable", "error", err)
	}

	engine := brain.NewEngine(
		provider,
		brain.NewComposer(composerOpts...),
		brain.NewDispatcher(reg, logger),
		brain.WithLogger(logger),
		brain.WithWindow(cfg.Chat.HistoryWindow),
		brain.WithTimeouts(
			time.Duration(cfg.Chat.SelectionTimeout)*time.Millisecond,
			time.Duration(cfg.Chat.ToolTimeout)*time.Millisecond,
			time.Duration(cfg.Chat.AnswerTimeout)*time.Millisecond,
		),
	)

	return session.NewManager(engine), logger, nil
}

// runChat starts an interactive stdin chat on a single channel.
func runChat(cmd *cobra.Command, cfgPath, secretsPath string) error {
	manager, _, err := buildManager(cfgPath, secretsPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "opschat — type a message, Ctrl-D to quit")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		reply, err := manager.Handle(cmd.Context(), "repl", text)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
	return scanner.Err()
}

// runServe starts the HTTP/WebSocket gateway and blocks until SIGINT/SIGTERM.
func runServe(cmd *cobra.Command, cfgPath, secretsPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	manager, logger, err := buildManager(cfgPath, secretsPath)
	if err != nil {
		return err
	}

	srv, err := gateway.NewServer(&cfg.Gateway, manager, logger)
	if err != nil {
		return err
	}

	shutdown := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		close(shutdown)
	}()

	logger.Info("gateway starting", "port", cfg.Gateway.Port)
	return srv.Run(shutdown)
}

func main() {
	if err := newRootCommand(newBuildMeta()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
