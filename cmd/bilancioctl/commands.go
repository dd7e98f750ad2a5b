package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bilancio/internal/analytics"
	"bilancio/internal/export/files"
)

const defaultTrendMonths = 6

// monthFlags holds --month and --year. Zero means the current one.
type monthFlags struct {
	month int
	year  int
}

func (f *monthFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.month, "month", 0, "Month 1-12 (default current month)")
	cmd.Flags().IntVar(&f.year, "year", 0, "Year (default current year)")
}

func (f monthFlags) resolve(now time.Time) (time.Month, int, error) {
	month, year := now.Month(), now.Year()
	if f.month != 0 {
		if f.month < 1 || f.month > 12 {
			return 0, 0, fmt.Errorf("invalid month %d: must be between 1 and 12", f.month)
		}
		month = time.Month(f.month)
	}
	if f.year != 0 {
		if f.year < 1 || f.year > 9999 {
			return 0, 0, fmt.Errorf("invalid year %d", f.year)
		}
		year = f.year
	}
	return month, year, nil
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the balance of every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.finance.Snapshot()
			writeBalances(cmd.OutOrStdout(),
				analytics.AccountBalances(snap.Accounts, snap.Transactions),
				analytics.TotalBalance(snap.Accounts, snap.Transactions))
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var mf monthFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the totals and top categories of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			month, year, err := mf.resolve(a.finance.Now())
			if err != nil {
				return err
			}
			writeAnalysis(cmd.OutOrStdout(), a.finance.Analysis(month, year))
			return nil
		},
	}
	mf.register(cmd)
	return cmd
}

func newTrendCmd(a *app) *cobra.Command {
	var (
		mf     monthFlags
		months int
	)
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show the monthly trend ending with a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if months < 1 {
				return fmt.Errorf("invalid --months %d: must be positive", months)
			}
			month, year, err := mf.resolve(a.finance.Now())
			if err != nil {
				return err
			}
			writeTrend(cmd.OutOrStdout(), a.finance.TrendReport(months, month, year))
			return nil
		},
	}
	cmd.Flags().IntVar(&months, "months", defaultTrendMonths, "Number of months")
	mf.register(cmd)
	return cmd
}

func newChartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chart <id>",
		Short: "Print the series of a saved chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid chart id %q", args[0])
			}
			data, err := a.finance.ChartSeries(cmd.Context(), id)
			if err != nil {
				return err
			}
			writeChart(cmd.OutOrStdout(), data)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every transaction as JSON, YAML or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportFormat(format, out)
			if err != nil {
				return err
			}
			txns := a.finance.Transactions(0, 0)
			return withOutput(cmd, out, func(w io.Writer) error {
				return files.ExportTransactions(w, f, txns)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json, yaml or csv (default from --out, else json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

// exportFormat prefers an explicit --format, then the extension of --out.
func exportFormat(format, out string) (files.Format, error) {
	if format != "" {
		return files.ParseFormat(format)
	}
	if out != "" {
		if f, err := files.FormatOf(out); err == nil {
			return f, nil
		}
	}
	return files.FormatJSON, nil
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from a JSON, YAML or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var (
				f   files.Format
				err error
			)
			if format != "" {
				f, err = files.ParseFormat(format)
			} else {
				f, err = files.FormatOf(path)
			}
			if err != nil {
				return err
			}

			in, err := os.Open(path)
			if err != nil {
				return err
			}
			defer in.Close()

			txns, err := files.ImportTransactions(in, f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			n, err := a.finance.ImportTransactions(cmd.Context(), txns)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions from %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (default from the file extension)")
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write every collection to a JSON backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.finance.Snapshot()
			return withOutput(cmd, out, func(w io.Writer) error {
				return files.WriteBackup(w, snap)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace every collection with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			snap, err := files.ReadBackup(in)
			if err != nil {
				return err
			}
			if err := a.finance.Restore(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d accounts, %d transactions and %d charts\n",
				len(snap.Accounts), len(snap.Transactions), len(snap.Charts))
			return nil
		},
	}
}

// withOutput runs write against the file at path, or stdout when path is
// empty. A failed write removes the partial file.
func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
