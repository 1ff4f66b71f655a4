package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <command>",
	Short: "Run a natural language command",
	Example: `  erp-agent run "show low stock products"
  erp-agent run "把订单 3 标记为已完成"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := newExecutor().Handle(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !asJSON {
			printSuccess(out, res.Message)
		}
		return render(out, res.Data, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
