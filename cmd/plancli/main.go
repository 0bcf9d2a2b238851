// plancli - консольный доступ к движкам без HTTP-сервера.
//
//	plancli --driver memory --seed seed.yaml generate --user u1 --goal hypertrophy --level intermediate --days 4 --minutes 60
//	plancli --driver sqlite warmup --user u1 --exercise bench --weight 100
//	plancli --driver sqlite recalibrate --all --dry-run
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gymcoach/internal/app"
	"gymcoach/internal/config"
	"gymcoach/internal/logging"
)

// cli - состояние одного запуска
type cli struct {
	driver     string
	seedFile   string
	sqlitePath string
	verbose    bool

	app *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "plancli",
		Short:         "Training plan tools: templates, warmups, substitutions, recalibration",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.PersistentFlags().StringVar(&c.driver, "driver", "", "store driver: postgres, sqlite or memory (default from STORE_DRIVER)")
	root.PersistentFlags().StringVar(&c.seedFile, "seed", "", "YAML snapshot to load into a memory or empty sqlite store")
	root.PersistentFlags().StringVar(&c.sqlitePath, "sqlite", "", "sqlite file path (default from SQLITE_PATH)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		c.generateCmd(),
		c.warmupCmd(),
		c.feedbackCmd(),
		c.substitutesCmd(),
		c.preferCmd(),
		c.recalibrateCmd(),
		c.dumpCmd(),
	)
	return root
}

// open читает конфигурацию, применяет флаги и собирает движки
func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.StoreDriver = strings.ToLower(c.driver)
	}
	if c.seedFile != "" {
		cfg.SeedFile = c.seedFile
	}
	if c.sqlitePath != "" {
		cfg.SQLitePath = c.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel
	if c.verbose {
		level = zerolog.LevelDebugValue
	} else if level == "info" {
		level = zerolog.LevelWarnValue
	}
	logger := logging.New(cmd.ErrOrStderr(), level, "console")

	c.app, err = app.New(cmd.Context(), cfg, logger)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
