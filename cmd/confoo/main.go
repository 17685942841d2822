// Command confoo syncs the ConFoo schedule into a local store and browses it.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/confoo-planner/confoo/internal/config"
	"github.com/confoo-planner/confoo/internal/logging"
	"github.com/confoo-planner/confoo/internal/ui"
)

// app holds state resolved before any subcommand runs.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	logger   *slog.Logger
	closeLog io.Closer
}

var state = &app{v: config.New()}

var rootCmd = &cobra.Command{
	Use:   "confoo",
	Short: "ConFoo schedule planner",
	Long: `Sync the ConFoo conference schedule into a local SQLite store and browse it.

Data is read from the store when it holds sessions, otherwise from the JSON
snapshot exported after every sync.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.BindFlags(state.v, cmd.Flags()); err != nil {
			return err
		}
		configFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(state.v, configFile)
		if err != nil {
			return err
		}
		logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		noColor, _ := cmd.Flags().GetBool("no-color")
		ui.SetColor(!noColor)
		ui.SetWeek(cfg.Week())

		state.cfg = cfg
		state.logger = logger
		state.closeLog = closer
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if state.closeLog != nil {
			return state.closeLog.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "browse", Title: "Browse Commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced Commands:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default $XDG_CONFIG_HOME/confoo/config.{toml,yaml})")
	pf.String("data-dir", "", "directory holding the store, snapshot and ratings")
	pf.String("db-path", "", "SQLite store path")
	pf.String("snapshot-path", "", "JSON snapshot path")
	pf.String("ratings-path", "", "speaker ratings file (json, toml or yaml)")
	pf.Int("year", 0, "conference year")
	pf.String("base-url", "", "conference site")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-file", "", "also write JSON logs to this rotated file")
	pf.Bool("no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
		if state.closeLog != nil {
			_ = state.closeLog.Close()
		}
		os.Exit(1)
	}
}
