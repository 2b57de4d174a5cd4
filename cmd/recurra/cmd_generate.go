package main

import (
	"fmt"

	"Recurra/internal/pkg"

	"github.com/spf13/cobra"
)

var (
	generateIncludeOverdue bool
	generateDate           string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Gera as transações das despesas recorrentes devidas",
	Long: `Executa um lote de geração para hoje (no fuso configurado) ou para a data
informada. Sem --include-overdue apenas definições com vencimento exatamente
na data são processadas.

Exemplos:
  recurra generate
  recurra generate --include-overdue
  recurra generate --date 2026-04-15`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&generateIncludeOverdue, "include-overdue", false, "Inclui definições com vencimento anterior a data")
	generateCmd.Flags().StringVar(&generateDate, "date", "", "Data de referência no formato YYYY-MM-DD (padrão: hoje)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	today := a.generator.Today()
	if generateDate != "" {
		date, err := pkg.ParseDate(generateDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", generateDate, err)
		}
		if date.After(today) {
			return fmt.Errorf("--date %s is in the future", generateDate)
		}
		today = date
	}

	result, err := a.generator.Run(ctx, today, generateIncludeOverdue)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d geradas, %d falhas, %d puladas\n",
		pkg.FormatDate(result.Date), result.Generated, result.Failed, result.Skipped)
	return nil
}
