package main

import (
	"fmt"
	"text/tabwriter"

	"Recurra/internal/pkg"

	"github.com/spf13/cobra"
)

var nextDays int

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Lista as próximas ocorrências previstas",
	RunE:  runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)

	nextCmd.Flags().IntVar(&nextDays, "days", 30, "Janela em dias a partir de hoje")
}

func runNext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	occurrences, err := a.service.Upcoming(ctx, nextDays)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATA\tNOME\tCATEGORIA\tVALOR\tID")
	for _, o := range occurrences {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			pkg.FormatDate(o.Date), o.Name, o.Category, o.Amount.StringFixed(2), o.RecurringExpenseId)
	}
	return w.Flush()
}
