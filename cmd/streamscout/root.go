package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"streamscout/config"
	"streamscout/internal/logging"
	"streamscout/services/metadata"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configFile string
	cfg        config.Config
	logCloser  io.Closer
)

var rootCmd = &cobra.Command{
	Use:           config.AppName,
	Short:         "Aggregate movie, TV and anime metadata from TMDB and AniList",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		closer, err := logging.Setup(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			File:   cfg.LogFile,
		})
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default: ./streamscout.{toml,yaml,json})")
}

// newService builds the aggregation service from the loaded configuration.
// Commands that talk to upstream call it after validating the config.
func newService() (*metadata.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return metadata.NewService(metadata.Config{
		TMDBAPIKey:  cfg.TMDBAPIKey,
		TMDBBaseURL: cfg.TMDBBaseURL,
		AniListURL:  cfg.AniListURL,
		HTTPClient:  &http.Client{Timeout: cfg.HTTPTimeout},
	}), nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})

	if err := rootCmd.Execute(); err != nil {
		logrus.WithField("component", "cli").WithError(err).Debug("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
