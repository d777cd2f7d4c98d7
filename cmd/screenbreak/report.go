package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/screenbreak/internal/platform"
	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/spf13/cobra"
)

var (
	sessionsDate string
	trendDays    int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List usage sessions for a day",
	Example: `  screenbreak sessions
  screenbreak sessions --date 2026-10-15`,
	RunE: runSessions,
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show daily usage totals",
	RunE:  runTrend,
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsDate, "date", "", "Day to report (YYYY-MM-DD, default today)")
	trendCmd.Flags().IntVar(&trendDays, "days", 7, "Number of days ending today")
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(trendCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	loc := a.clock.Location()
	date := sessionsDate
	if date == "" {
		date = usage.Today(a.clock)
	} else if _, err := time.ParseInLocation(usage.DateLayout, date, loc); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	doc, err := a.logStore.GetLog(cmd.Context())
	if err != nil {
		return err
	}

	sessions := usage.SessionsForDate(doc.Entries, date, loc, a.sessionGap())

	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Fprintf(os.Stdout, "Sessions on %s\n", date)

	if len(sessions) == 0 {
		fmt.Fprintln(os.Stdout, "  no tracked usage")
		return nil
	}

	for _, s := range sessions {
		fmt.Fprintf(os.Stdout, "  %s - %s  %6.1f min  %s\n",
			s.StartTime.In(loc).Format("15:04:05"),
			s.EndTime.In(loc).Format("15:04:05"),
			s.TotalDurationMinutes,
			formatBreakdown(s.PlatformBreakdown),
		)
	}

	fmt.Fprintf(os.Stdout, "Total: %.1f minutes\n", usage.DailyTotalMinutes(doc.Entries, date, loc))
	return nil
}

func runTrend(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.logStore.GetLog(cmd.Context())
	if err != nil {
		return err
	}

	trend := usage.WeeklyTrend(doc.Entries, usage.Today(a.clock), a.clock.Location(), trendDays)

	over := color.New(color.FgRed)
	under := color.New(color.FgGreen)

	for _, day := range trend {
		c := under
		if usage.GoalStatus(day.Minutes, doc.DailyGoalMinutes) == usage.StatusOverGoal {
			c = over
		}
		fmt.Fprintf(os.Stdout, "%s  ", day.Date)
		_, _ = c.Fprintf(os.Stdout, "%6.1f min\n", day.Minutes)
	}

	fmt.Fprintf(os.Stdout, "Daily goal: %.0f minutes\n", doc.DailyGoalMinutes)
	return nil
}

// formatBreakdown renders per-platform minutes in a stable order.
func formatBreakdown(breakdown map[platform.Platform]float64) string {
	labels := make([]string, 0, len(breakdown))
	for p := range breakdown {
		labels = append(labels, string(p))
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s %.1f", label, breakdown[platform.Platform(label)]))
	}
	return strings.Join(parts, ", ")
}
