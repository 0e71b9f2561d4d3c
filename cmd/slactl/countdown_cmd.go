package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/slatrack/modules/recruitment/presentation/viewmodels"
)

func newCountdownCmd() *cobra.Command {
	var stepKey string
	var plannedMinutes int
	var startAt string
	var deadlineAt string
	var at string

	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Evaluate one SLA countdown against the server clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")

			q := url.Values{}
			if stepKey != "" {
				q.Set("stepKey", stepKey)
			}
			if plannedMinutes > 0 {
				q.Set("plannedMinutes", fmt.Sprint(plannedMinutes))
			}
			if startAt != "" {
				q.Set("startAt", startAt)
			}
			if deadlineAt != "" {
				q.Set("deadlineAt", deadlineAt)
			}
			if at != "" {
				q.Set("now", at)
			}

			client := &http.Client{Timeout: 15 * time.Second}
			resp, err := client.Get(server + "/recruitment/api/sla/countdown?" + q.Encode())
			if err != nil {
				return errors.Wrap(err, "fetch countdown")
			}
			defer func() { _ = resp.Body.Close() }()

			switch resp.StatusCode {
			case http.StatusNoContent:
				fmt.Println("no SLA context for this step")
				return nil
			case http.StatusOK:
			default:
				return errors.Errorf("server returned %s", resp.Status)
			}

			var cd viewmodels.Countdown
			if err := json.NewDecoder(resp.Body).Decode(&cd); err != nil {
				return errors.Wrap(err, "decode countdown")
			}
			printCountdown(cd)
			return nil
		},
	}

	cmd.Flags().StringVar(&stepKey, "step", "", "Stage step key, e.g. TECH_INTERVIEW")
	cmd.Flags().IntVar(&plannedMinutes, "planned", 0, "Planned SLA minutes")
	cmd.Flags().StringVar(&startAt, "start", "", "Stage start instant (ISO-8601)")
	cmd.Flags().StringVar(&deadlineAt, "deadline", "", "Explicit deadline overriding start+planned")
	cmd.Flags().StringVar(&at, "at", "", "Evaluate at this instant instead of the server clock")
	return cmd
}

func printCountdown(cd viewmodels.Countdown) {
	fmt.Printf("%s: %s\n", cd.StepName, cd.BadgeText)
	if cd.DeadlineText != "" {
		fmt.Printf("  deadline: %s\n", cd.DeadlineText)
	}
	if cd.PlannedText != "" {
		fmt.Printf("  planned:  %s\n", cd.PlannedText)
	}
	if cd.RemainingMs != nil {
		fmt.Printf("  remaining: %s\n", time.Duration(*cd.RemainingMs)*time.Millisecond)
	}
}
