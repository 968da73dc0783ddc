package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/dyadt/internal/logging"
	"github.com/ppiankov/dyadt/internal/model"
	"github.com/ppiankov/dyadt/internal/pipeline"
	"github.com/ppiankov/dyadt/internal/verify"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// registry holds Custom evidence checkers for every command in this process
var registry = verify.NewRegistry()

// Registry returns the checker registry consulted for Custom evidence.
// Programs embedding the CLI register their checkers here before calling Execute.
func Registry() *verify.Registry {
	return registry
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dyadt",
	Short: "Did You Actually Do That? - verify claimed actions against reality",
	Long: `dyadt checks claims that some action was performed against observable
evidence: files, directories, digests, file contents, command exit codes and
custom checks.

It never modifies what it inspects. Each claim gets a verdict:
confirmed, refuted, inconclusive or error.

Exit codes:
  0  confirmed
  1  refuted
  2  inconclusive or unverifiable
  3  error (invalid input, unreadable files, usage errors)`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of dyadt.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dyadt %s\n", Version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.dyadt/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return ExitConfirmed
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitFailure
}

// resetFlags restores every flag to its default so repeated executions in one
// process do not inherit each other's arguments
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// loadConfig merges defaults, the config file, DYADT_* env vars and flags
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	v := viper.New()

	if cfgFile != "" {
		// Use config file from the flag
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		// Search for config in home directory
		v.AddConfigPath(filepath.Join(home, ".dyadt"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	// Read in environment variables that match DYADT_*, e.g. DYADT_LOG_LEVEL
	v.SetEnvPrefix("DYADT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, model.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Bind flags to viper; only flags set on the command line override
	for key, name := range map[string]string{
		"output.format":  "format",
		"output.verbose": "verbose",
		"log.level":      "log-level",
		"log.format":     "log-format",
	} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if verbose && v.ConfigFileUsed() != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", v.ConfigFileUsed())
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("evaluation.max_read_bytes", d.Evaluation.MaxReadBytes)
	v.SetDefault("evaluation.digest_cache", d.Evaluation.DigestCache)
	v.SetDefault("evaluation.digest_cache_ttl", d.Evaluation.DigestCacheTTL)
	v.SetDefault("exec.spawn_rate", d.Exec.SpawnRate)
	v.SetDefault("exec.spawn_burst", d.Exec.SpawnBurst)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.verbose", d.Output.Verbose)
}

// newPipeline loads configuration and builds a pipeline logging to stderr
func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewPipeline(cfg, registry, logger), logger, nil
}

// commandContext is cancelled on interrupt, which also kills a running CommandSucceeds process
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}
