package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd é o comando base da CLI de operação
var rootCmd = &cobra.Command{
	Use:   "recurra",
	Short: "Operação manual das despesas recorrentes",
	Long: `recurra executa a geração de despesas recorrentes fora do servidor HTTP
e mostra as próximas ocorrências previstas. Usa a mesma configuração da API
(variáveis de ambiente, .env e RECURRA_CONFIG_FILE).`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro: %v\n", err)
		os.Exit(1)
	}
}
