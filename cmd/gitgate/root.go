package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhubert/gitgate/config"
	"github.com/zhubert/gitgate/git"
	"github.com/zhubert/gitgate/logger"
	"github.com/zhubert/gitgate/mcp"
	"github.com/zhubert/gitgate/paths"
	"github.com/zhubert/gitgate/service"
)

// flags holds the startup settings given on the command line. Only flags
// the user actually set override the config file and environment.
type flags struct {
	configPath       string
	workingDirectory string
	name             string
	prefix           string
	remoteName       string
	localBranch      string
	remoteBranch     string
	pullSourceBranch string
	pushFlags        []string
	language         string
	logDir           string
	logFile          string
	debug            bool
}

var opts flags

var rootCmd = &cobra.Command{
	Use:   "gitgate",
	Short: "MCP git server with a review-before-push gate",
	Long: `gitgate serves a narrow set of git operations to an AI agent over
newline-delimited JSON-RPC on stdin and stdout.

Edits are recorded as pending changes, and a push is refused until the
agent has listed them. Every exchange is journaled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute runs the root command and exits nonzero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gitgate:", err)
		cancel()
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	f.StringVarP(&opts.workingDirectory, "working-directory", "C", "", "Repository working directory (single-repository mode)")
	f.StringVar(&opts.name, "name", "", "Repository name")
	f.StringVar(&opts.prefix, "prefix", "", "Tool name prefix")
	f.StringVar(&opts.remoteName, "remote", "", "Remote name (default origin)")
	f.StringVar(&opts.localBranch, "local-branch", "", "Local branch to push (default main)")
	f.StringVar(&opts.remoteBranch, "remote-branch", "", "Remote branch to push to (default: local branch)")
	f.StringVar(&opts.pullSourceBranch, "pull-source-branch", "", "Branch to pull from (default: remote branch)")
	f.StringSliceVar(&opts.pushFlags, "push-flag", nil, "Extra git push flag, repeatable (e.g. --push-flag=--force-with-lease)")
	f.StringVar(&opts.language, "language", "", "Guidance language (en or zh)")
	f.StringVar(&opts.logDir, "log-dir", "", "Journal directory; omit to keep the journal in memory")
	f.StringVar(&opts.logFile, "log-file", "", "Diagnostics log file, or \"default\" for the per-user log path (default stderr)")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCheckCmd())
}

// loadConfig layers the config file, the environment and the flags, then
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	str := func(name string, src string, dst *string) {
		if changed(name) {
			*dst = src
		}
	}
	str("working-directory", opts.workingDirectory, &cfg.WorkingDirectory)
	str("name", opts.name, &cfg.Name)
	str("prefix", opts.prefix, &cfg.Prefix)
	str("remote", opts.remoteName, &cfg.RemoteName)
	str("local-branch", opts.localBranch, &cfg.LocalBranch)
	str("remote-branch", opts.remoteBranch, &cfg.RemoteBranch)
	str("pull-source-branch", opts.pullSourceBranch, &cfg.PullSourceBranch)
	str("language", opts.language, &cfg.Language)
	str("log-dir", opts.logDir, &cfg.LogDir)
	str("log-file", opts.logFile, &cfg.LogFile)
	if changed("push-flag") {
		cfg.PushFlags = opts.pushFlags
	}
	if changed("debug") {
		cfg.Debug = opts.debug
	}
}

// defaultLogFile selects paths.DefaultLogPath for --log-file.
const defaultLogFile = "default"

// logFilePath resolves the diagnostics file, or "" for stderr.
func logFilePath(cfg *config.Config) (string, error) {
	if cfg.LogFile == defaultLogFile {
		return paths.DefaultLogPath()
	}
	return cfg.LogFile, nil
}

func initLogger(cfg *config.Config) error {
	path, err := logFilePath(cfg)
	if err != nil {
		return err
	}
	if path != "" {
		if err := logger.Init(path); err != nil {
			return err
		}
	} else {
		logger.InitWriter(os.Stderr)
	}
	logger.SetDebug(cfg.Debug)
	return nil
}

// newService builds the repository router and service described by cfg.
func newService(cfg *config.Config) (*service.Service, error) {
	router, err := cfg.Router()
	if err != nil {
		return nil, err
	}
	logDir, err := cfg.ResolvedLogDir()
	if err != nil {
		return nil, err
	}
	return service.New(service.Options{
		Router: router,
		Git:    git.NewService(),
		Prefix: cfg.Prefix,
		LogDir: logDir,
	})
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Close()
	if p := logger.Path(); p != "" {
		fmt.Fprintln(os.Stderr, "gitgate: diagnostics written to", p)
	}

	log := logger.WithComponent("main")
	if cfg.FilePath() != "" {
		log.Info("config loaded", "path", cfg.FilePath())
	}

	svc, err := newService(cfg)
	if err != nil {
		log.Error("startup failed", "error", err)
		return err
	}

	srv, err := mcp.NewServer(os.Stdin, os.Stdout, svc, mcp.WithVersion(version))
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context())
}
