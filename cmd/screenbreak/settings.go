package main

import (
	"fmt"
	"os"

	"github.com/goodtune/screenbreak/internal/usage"
	"github.com/spf13/cobra"
)

var (
	settingsDailyGoal     float64
	settingsThreshold     float64
	settingsNotifications bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change goals and notification settings",
	Example: `  screenbreak settings
  screenbreak settings --daily-goal 45 --threshold 20
  screenbreak settings --notifications=false`,
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().Float64Var(&settingsDailyGoal, "daily-goal", 0, "Daily goal in minutes")
	settingsCmd.Flags().Float64Var(&settingsThreshold, "threshold", 0, "Intervention threshold in minutes")
	settingsCmd.Flags().BoolVar(&settingsNotifications, "notifications", true, "Enable intervention notifications")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var patch usage.SettingsPatch
	flags := cmd.Flags()
	if flags.Changed("daily-goal") {
		patch.DailyGoalMinutes = &settingsDailyGoal
	}
	if flags.Changed("threshold") {
		patch.InterventionThresholdMinutes = &settingsThreshold
	}
	if flags.Changed("notifications") {
		patch.NotificationsEnabled = &settingsNotifications
	}

	var settings usage.Settings
	if patch == (usage.SettingsPatch{}) {
		doc, err := a.logStore.GetLog(cmd.Context())
		if err != nil {
			return err
		}
		settings = doc.Settings
	} else {
		settings, err = a.logStore.UpdateSettings(cmd.Context(), patch)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "Daily goal:             %.0f minutes\n", settings.DailyGoalMinutes)
	fmt.Fprintf(os.Stdout, "Intervention threshold: %.0f minutes\n", settings.InterventionThresholdMinutes)
	fmt.Fprintf(os.Stdout, "Notifications enabled:  %t\n", settings.NotificationsEnabled)
	return nil
}
