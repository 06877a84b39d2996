package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lyricreel/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No renders recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "Status", "Title", "Frames", "Exit", "Elapsed", "Output"},
					historyRows(runs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of renders to show")
	return cmd
}

func historyRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		exit := "-"
		if run.EncoderExit != nil {
			exit = strconv.Itoa(*run.EncoderExit)
		}
		frames := fmt.Sprintf("%d/%d", run.FramesWritten, run.TotalFrames)
		if run.EarlyStop {
			frames += " (early)"
		}
		elapsed := "-"
		if d := run.Elapsed(); d > 0 {
			elapsed = d.Round(time.Second).String()
		}
		title := run.Title
		if title == "" {
			title = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			string(run.Status),
			title,
			frames,
			exit,
			elapsed,
			run.OutputPath,
		})
	}
	return rows
}
