// Command bilancioctl inspects and maintains the bilancio data from a
// terminal. It reads the same environment configuration as the server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// app is the state shared by every subcommand. finance is opened lazily
// before the first command runs.
type app struct {
	finance *services.FinanceService
	close   func() error
}

func (a *app) open(ctx context.Context, stderr io.Writer, verbose bool) error {
	if a.finance != nil {
		return nil
	}
	cli.LoadEnvFile()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	store, closeStore, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	a.finance = services.NewFinanceService(store, services.WithLogger(logger))
	a.close = closeStore
	return nil
}

func (a *app) shutdown() error {
	if a.close == nil {
		return nil
	}
	err := a.close()
	a.close = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "bilancioctl",
		Short:         "Inspect and maintain bilancio data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr(), verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newBalanceCmd(a),
		newStatsCmd(a),
		newTrendCmd(a),
		newChartCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{}

	err := newRootCmd(a).ExecuteContext(ctx)
	if cerr := a.shutdown(); cerr != nil && err == nil {
		err = cerr
	}
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
