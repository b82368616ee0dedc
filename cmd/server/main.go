package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raveai/server/internal/app"
	"github.com/raveai/server/pkg/ytvideodata"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "raveai-server",
		Short:         "Rave.AI studio server",
		Long:          `Serves Rave.AI studio sessions: two YouTube decks, simulated playback telemetry, a live waveform and mock mashups.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appConfig, err := loadAppConfig(v, configFile)
			if err != nil {
				return err
			}

			jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
			fmt.Fprintf(cmd.ErrOrStderr(), "starting app with config: %s\n", jsonConfig)

			return app.Run(cmd.Context(), appConfig)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML config file")
	cobra.CheckErr(bindConfig(rootCmd.Flags(), v))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "resolve [url...]",
		Short: "Print the YouTube video id found in each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				videoID, ok := ytvideodata.ExtractID(arg)
				if !ok {
					videoID = "-"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", videoID, arg)
			}

			return nil
		},
	})

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
