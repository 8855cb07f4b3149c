package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/hylla/csrpulse/internal/adapters/server/common"
	"github.com/hylla/csrpulse/internal/adapters/storage/s3archive"
	"github.com/hylla/csrpulse/internal/adapters/storage/sqlite"
	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/config"
	"github.com/hylla/csrpulse/internal/platform"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// skipRuntimeAnnotation marks commands that never open the database.
const skipRuntimeAnnotation = "csrpulse/skip-runtime"

// main handles main.
func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes it with the provided streams.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	c := &cli{stdout: stdout, stderr: stderr, now: time.Now}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := fang.Execute(ctx, root, fang.WithVersion(version), fang.WithNotifySignal(os.Interrupt))
	if closeErr := c.close(); closeErr != nil {
		_, _ = fmt.Fprintf(stderr, "warning: %v\n", closeErr)
	}
	return err
}

// globalFlags holds flags shared by every subcommand.
type globalFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	jsonOutput bool
}

// cli carries the resolved runtime for one invocation.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	flags      globalFlags
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
	api        *common.AppServiceAdapter
}

// rootCommand assembles the full command tree.
func (c *cli) rootCommand() *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("CSRPULSE_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	appName := "csrpulse"
	if envApp := strings.TrimSpace(os.Getenv("CSRPULSE_APP_NAME")); envApp != "" {
		appName = envApp
	}

	root := &cobra.Command{
		Use:   "csrpulse",
		Short: "CSR reporting and metrics aggregation",
		Long: `csrpulse aggregates CSR programs, activities, budgets and stakeholders
into period metrics, comparisons, trends and versioned reports.

Period tokens:
  Jan-2024   one calendar month
  Q1-2024    one calendar quarter
  2024       one calendar year`,
		Example: `  csrpulse seed --in dataset.yaml
  csrpulse metrics --period Q1-2024
  csrpulse compare Q1-2024 Q2-2024
  csrpulse report create --title "Q1 review" --type quarterly --period Q1-2024
  csrpulse serve --bind 127.0.0.1:8080`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipRuntimeAnnotation] == "true" {
				return c.resolvePaths()
			}
			return c.open(cmd.Context(), cmd.CommandPath())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "path to config TOML")
	pf.StringVar(&c.flags.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&c.flags.appName, "app", appName, "application name for config/data path resolution")
	pf.BoolVar(&c.flags.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	pf.BoolVar(&c.flags.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		c.pathsCommand(),
		c.serveCommand(),
		c.periodCommand(),
		c.metricsCommand(),
		c.compareCommand(),
		c.trendCommand(),
		c.analyticsCommand(),
		c.reportCommand(),
		c.seedCommand(),
		c.dumpCommand(),
	)
	return root
}

// resolvePaths resolves config and data paths without touching storage.
func (c *cli) resolvePaths() error {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: c.flags.appName,
		DevMode: c.flags.devMode,
	})
	if err != nil {
		return err
	}
	c.paths = paths

	c.configPath = strings.TrimSpace(c.flags.configPath)
	if c.configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("CSRPULSE_CONFIG")); envPath != "" {
			c.configPath = envPath
		} else {
			c.configPath = paths.ConfigPath
		}
	}
	return nil
}

// open loads config, starts logging and opens the repository and service.
func (c *cli) open(ctx context.Context, command string) error {
	if err := c.resolvePaths(); err != nil {
		return err
	}

	dbPath := strings.TrimSpace(c.flags.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("CSRPULSE_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = c.paths.DBPath
		}
	}

	cfg, err := config.Load(c.configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", c.configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	c.cfg = cfg

	logger, err := newRuntimeLogger(c.stderr, c.flags.appName, c.flags.devMode, cfg.Logging, c.now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	c.logger = logger
	logger.Debug("runtime paths resolved", "config_path", c.configPath, "data_dir", c.paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	if err := config.EnsureConfigDir(cfg.Database.Path); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	c.repo = repo

	svcCfg := app.ServiceConfig{
		TrendConcurrency: cfg.Reports.TrendConcurrency,
		Logger:           logger.Component("app"),
	}
	if cfg.Archive.Enabled {
		archive, err := s3archive.New(ctx, s3archive.Config{
			Bucket:  cfg.Archive.Bucket,
			Region:  cfg.Archive.Region,
			Profile: cfg.Archive.Profile,
		})
		if err != nil {
			return fmt.Errorf("configure export archive: %w", err)
		}
		svcCfg.Archiver = archive
		svcCfg.ArchivePrefix = cfg.Archive.Prefix
		logger.Debug("export archive enabled", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}
	c.svc = app.NewService(app.RepositoriesFromStore(repo), uuid.NewString, c.now, svcCfg)
	c.api = common.NewAppServiceAdapter(c.svc, c.now)
	logger.Debug("command flow start", "command", command)
	return nil
}

// close releases the repository and the log file sink. It is safe to call more than once.
func (c *cli) close() error {
	var firstErr error
	if c.repo != nil {
		if err := c.repo.Close(); err != nil {
			firstErr = fmt.Errorf("close sqlite repository: %w", err)
		}
		c.repo = nil
	}
	if c.logger != nil {
		if err := c.logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close runtime log sink: %w", err)
		}
		c.logger = nil
	}
	return firstErr
}

// pathsCommand prints resolved runtime paths.
func (c *cli) pathsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "paths",
		Short:       "Print resolved config and data paths",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipRuntimeAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", c.flags.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", c.flags.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", c.configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", c.paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", c.paths.DBPath)
			return nil
		},
	}
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
