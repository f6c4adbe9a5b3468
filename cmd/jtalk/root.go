package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/example/go-jtalk/internal/config"
	"github.com/example/go-jtalk/internal/server"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "jtalk",
		Short:         "Japanese text-to-speech front-end and synthesizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(
		newLabelCmd(),
		newSynthCmd(),
		newVoicesCmd(),
		newServeCmd(),
		newHealthCmd(),
		newDoctorCmd(),
		newBenchCmd(),
	)

	return cmd
}

// setupLogger installs a JSON logger on stderr. Unknown levels log at info.
func setupLogger(level string) {
	lvl, err := server.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Engine.Backend == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}
