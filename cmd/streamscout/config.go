package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"streamscout/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show every setting, its environment variable and effective value",
	RunE: func(cmd *cobra.Command, args []string) error {
		effective := configValues(cfg.Redacted())
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tENV\tVALUE\tDESCRIPTION")
		for _, field := range config.Fields {
			fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", field.Key, field.Env, effective[field.Key], field.Description)
		}
		return tw.Flush()
	},
}

func configValues(c config.Config) map[string]any {
	return map[string]any{
		config.KeyTMDBAPIKey:      c.TMDBAPIKey,
		config.KeyTMDBBaseURL:     c.TMDBBaseURL,
		config.KeyAniListURL:      c.AniListURL,
		config.KeyHTTPTimeout:     c.HTTPTimeout,
		config.KeyPort:            c.Port,
		config.KeyFrontendURL:     c.FrontendURL,
		config.KeyEnvironment:     c.Environment,
		config.KeyRateLimitWindow: c.RateLimitWindow,
		config.KeyRateLimitMax:    c.RateLimitMax,
		config.KeySearchLimitMax:  c.SearchLimitMax,
		config.KeyLogLevel:        c.LogLevel,
		config.KeyLogFormat:       c.LogFormat,
		config.KeyLogFile:         c.LogFile,
	}
}
