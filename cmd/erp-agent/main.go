// Command erp-agent operates the ERP API from the terminal: natural
// language commands, a model-backed chat and direct inventory commands.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/xenking/erp-inventory/internal/agent"
	"github.com/xenking/erp-inventory/internal/client"
)

var (
	serverURL string
	apiKey    string
	asJSON    bool
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "erp-agent",
	Short: "Manage orders and inventory from the terminal",
	Long: `erp-agent talks to the ERP API server.

Commands can be typed in English or Chinese:

  erp-agent run "create an order for Alice: 2 laptops and 1 mouse"
  erp-agent run "库存预警"

The chat command hands the conversation to a local Ollama model that
calls the same operations as tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("ERP_SERVER", "http://localhost:8080"), "ERP API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("ERP_API_KEY"), "API key for write operations")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithAPIKey(apiKey))
}

func newExecutor() *agent.Executor {
	return agent.NewExecutor(newClient())
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
