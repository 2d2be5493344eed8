package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"coindash/internal/finance"
	"coindash/internal/report"
)

var (
	ierDays       int
	ierInvestment float64
	corrDays      int
	simStrategy   string
	outputFormat  string
)

var ierCmd = &cobra.Command{
	Use:   "ier COIN",
	Short: "Investment efficiency ratio of a buy-and-hold position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		rep := a.fin.IER(cmd.Context(), args[0], ierDays, ierInvestment)
		if outputFormat == "json" {
			return printJSON(rep.Result.Diagnostic, map[string]any{
				"coin": rep.Coin, "days": rep.Days, "final_value": rep.Result.FinalValue,
				"max_drawdown": rep.Result.MaxDrawdown, "ratio": report.Ratio(rep.Result.Ratio),
				"stats": rep.Stats, "diagnostic": rep.Result.Diagnostic,
			})
		}
		return printText(rep.Result.Diagnostic, finance.KindNoDrawdown, report.IER(rep))
	},
}

var correlateCmd = &cobra.Command{
	Use:   "correlate COIN",
	Short: "Daily-return correlation against the top coins by market cap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		res := a.fin.Correlate(cmd.Context(), args[0], corrDays)
		if outputFormat == "json" {
			return printJSON(res.Diagnostic, res)
		}
		return printText(res.Diagnostic, "", report.Correlation(finance.ResolveSymbol(args[0]), res))
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate COIN YYYY-MM-DD AMOUNT",
	Short: "Replay a lump-sum or monthly DCA purchase up to the configured end date",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := finance.ParseSimulationArgs(strings.Join(append(args, simStrategy), " "))
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		res := a.fin.Simulate(cmd.Context(), req)
		if outputFormat == "json" {
			return printJSON(res.Diagnostic, res)
		}
		return printText(res.Diagnostic, "", report.Simulation(req, a.fin.Simulator.EndDate(), res))
	},
}

func init() {
	ierCmd.Flags().IntVar(&ierDays, "days", finance.DefaultIERWindow, "Lookback window in days")
	ierCmd.Flags().Float64Var(&ierInvestment, "investment", finance.DefaultInvestment, "Hypothetical stake in USD")
	correlateCmd.Flags().IntVar(&corrDays, "days", finance.DefaultCorrelationWindow, "Lookback window in days")
	simulateCmd.Flags().StringVar(&simStrategy, "strategy", "lump", "lump|dca")
	for _, c := range []*cobra.Command{ierCmd, correlateCmd, simulateCmd} {
		c.Flags().StringVar(&outputFormat, "format", "text", "Output format (text|json)")
		rootCmd.AddCommand(c)
	}
}

func printJSON(d *finance.Diagnostic, v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return diagnosticErr(d, finance.KindNoDrawdown)
}

func printText(d *finance.Diagnostic, benign finance.DiagnosticKind, text string) error {
	fmt.Println(text)
	return diagnosticErr(d, benign)
}

// diagnosticErr turns a blocking diagnostic into a non-zero exit.
func diagnosticErr(d *finance.Diagnostic, benign finance.DiagnosticKind) error {
	if d == nil || d.Kind == benign {
		return nil
	}
	return fmt.Errorf("%s: %s", d.Kind, strconv.Quote(d.Message))
}
