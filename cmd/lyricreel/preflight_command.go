package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lyricreel/internal/preflight"
	"lyricreel/internal/services"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, the entry page, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkStatus(r), yesNo(!r.Optional), r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Required", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if err := preflight.Err(results); err != nil {
				return services.Wrap(services.ErrConfiguration, "preflight", "run checks", "", err)
			}
			return nil
		},
	}
}

func checkStatus(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Optional:
		return "missing"
	default:
		return "FAILED"
	}
}
