package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/slatrack/modules/recruitment/presentation/viewmodels"
)

func newBoardCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the pipeline SLA board",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			board, err := fetchBoard(server)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(board)
			}
			printBoard(board)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON payload")
	return cmd
}

func fetchBoard(server string) (*viewmodels.Board, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(server + "/recruitment/api/sla/board")
	if err != nil {
		return nil, errors.Wrap(err, "fetch board")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("server returned %s", resp.Status)
	}
	var board viewmodels.Board
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, errors.Wrap(err, "decode board")
	}
	return &board, nil
}

func printBoard(board *viewmodels.Board) {
	fmt.Printf("Generated at %s", board.GeneratedAt)
	if board.Partial {
		fmt.Print(" (partial: some sources failed)")
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tACTIVE\tOVERDUE\tOLDEST\tCOUNTDOWN")
	for _, row := range board.Stages {
		oldest := "—"
		if row.OldestAt != nil {
			oldest = *row.OldestAt
		}
		countdown := "—"
		if row.Countdown != nil && row.Countdown.BadgeText != "" {
			countdown = row.Countdown.BadgeText
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.Stage, row.Active, row.Overdue, oldest, countdown)
	}
	_ = w.Flush()

	for source, msg := range board.Errors {
		fmt.Fprintf(os.Stderr, "source %s: %s\n", source, msg)
	}
}
