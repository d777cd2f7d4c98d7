package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/screenbreak/internal/config"
	"github.com/spf13/cobra"
)

var evaluateJSON bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one evaluation cycle",
	Long:  `Query Screenpipe once, merge new usage into the log, evaluate the threshold and notify if due.`,
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), config.ParseDuration(a.cfg.Usage.CycleTimeout, 30*time.Second))
	defer cancel()

	summary := a.engine.RunCycle(ctx)

	if evaluateJSON {
		out := map[string]interface{}{
			"todayUsageMinutes": summary.TodayUsageMinutes,
			"entries":           summary.Entries,
			"notified":          summary.Notified,
		}
		if summary.Err != nil {
			out["error"] = summary.Err.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return summary.Err
	}

	if summary.Err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Evaluation failed: %v\n", summary.Err)
		return summary.Err
	}

	usageColor := color.New(color.FgGreen)
	if summary.Decision.ShouldNotify {
		usageColor = color.New(color.FgRed, color.Bold)
	}

	fmt.Fprintf(os.Stdout, "Today's usage: ")
	_, _ = usageColor.Fprintf(os.Stdout, "%.1f minutes\n", summary.TodayUsageMinutes)
	fmt.Fprintf(os.Stdout, "Entries this cycle: %d\n", len(summary.Entries))

	switch {
	case summary.Notified:
		fmt.Fprintln(os.Stdout, "Notification sent")
	case summary.Decision.Suppressed:
		fmt.Fprintln(os.Stdout, "Notification due but suppressed")
	}

	return nil
}
