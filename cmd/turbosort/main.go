package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/turbosort/turbosort/internal/config"
	"github.com/turbosort/turbosort/internal/sorter"
	"github.com/turbosort/turbosort/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "turbosort",
	Short:   "Directory watcher and file sorter",
	Long:    "TurboSort watches a source location for .turbosort marker files and copies their sibling files into a destination tree, exactly once per unchanged file.",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		s, err := sorter.New(cfg)
		if err != nil {
			return err
		}

		slog.Info("turbosort start", "version", version.Short())
		defer slog.Info("turbosort stop")
		return s.Run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file")
	rootCmd.PersistentFlags().StringP("source", "s", "", "source directory to watch")
	rootCmd.PersistentFlags().StringP("dest", "d", "", "destination root directory")
	rootCmd.PersistentFlags().String("history", "", "history file location")
	rootCmd.PersistentFlags().Bool("year-prefix", false, "shard destinations under the year found in the marker path")
	rootCmd.PersistentFlags().Bool("drive-suffix", false, "append the drive suffix segment to every destination")
	rootCmd.PersistentFlags().String("suffix", config.DefaultDriveSuffix, "drive suffix segment")
	rootCmd.PersistentFlags().Bool("force", false, "re-copy files even when their identity is unchanged")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd, historyCmd, clearCmd)
}

func main() {
	// a .env beside the binary is a convenience for container deployments
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	setupLogging(cmd)

	if cmd.Flags().Changed("config") {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)

		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("source_dir", cmd.Flags().Lookup("source"))
	viper.BindPFlag("dest_dir", cmd.Flags().Lookup("dest"))
	viper.BindPFlag("history_path", cmd.Flags().Lookup("history"))
	viper.BindPFlag("year_prefix", cmd.Flags().Lookup("year-prefix"))
	viper.BindPFlag("drive_suffix", cmd.Flags().Lookup("drive-suffix"))
	viper.BindPFlag("drive_suffix_name", cmd.Flags().Lookup("suffix"))
	viper.BindPFlag("force_recopy", cmd.Flags().Lookup("force"))

	viper.SetEnvPrefix("TURBOSORT")
	viper.AutomaticEnv()

	return nil
}

func buildConfig() (*config.Config, error) {
	cfg := &config.Config{
		SourceKind:  config.SourceKind(viper.GetString("source_kind")),
		SourceDir:   viper.GetString("source_dir"),
		DestDir:     viper.GetString("dest_dir"),
		HistoryPath: viper.GetString("history_path"),
		S3: config.S3Config{
			Bucket:    viper.GetString("s3_bucket"),
			Prefix:    viper.GetString("s3_prefix"),
			Region:    viper.GetString("s3_region"),
			Endpoint:  viper.GetString("s3_endpoint"),
			AccessKey: viper.GetString("s3_access_key"),
			SecretKey: viper.GetString("s3_secret_key"),
		},
		YearPrefix:      viper.GetBool("year_prefix"),
		DriveSuffix:     viper.GetBool("drive_suffix"),
		DriveSuffixName: viper.GetString("drive_suffix_name"),
		ForceRecopy:     viper.GetBool("force_recopy"),
		RescanInterval:  viper.GetDuration("rescan_interval"),
		PollInterval:    viper.GetDuration("poll_interval"),
		StatsInterval:   viper.GetDuration("stats_interval"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}
