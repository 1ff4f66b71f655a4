package main

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
)

var lowStockOnly bool

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		ps, err := newClient().ListProducts(ctx, lowStockOnly)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), ps, asJSON)
	},
}

var orderStatus string

var ordersCmd = &cobra.Command{
	Use:   "orders [id]",
	Short: "List orders or show one order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		c := newClient()
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			o, err := c.GetOrder(ctx, id)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o, asJSON)
		}
		list, err := c.ListOrders(ctx, orderStatus)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), list, asJSON)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <order-id> <status>",
	Short: "Change the status of an order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		o, err := newClient().SetOrderStatus(ctx, id, args[1])
		if err != nil {
			return err
		}
		if !asJSON {
			printSuccess(cmd.OutOrStdout(), "Order "+o.OrderNumber+" is "+o.Status)
		}
		return render(cmd.OutOrStdout(), o, asJSON)
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List products below their minimum stock level",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		as, err := newClient().StockAlerts(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), as, asJSON)
	},
}

var restockCmd = &cobra.Command{
	Use:   "restock <product-id> <quantity>",
	Short: "Add stock to a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil || qty <= 0 {
			return errors.Errorf("invalid quantity %q", args[1])
		}
		p, err := newClient().Restock(ctx, id, qty)
		if err != nil {
			return err
		}
		if !asJSON {
			printSuccess(cmd.OutOrStdout(), p.Name+" now has "+strconv.Itoa(p.StockQuantity)+" in stock")
		}
		return render(cmd.OutOrStdout(), p, asJSON)
	},
}

var reportCmd = &cobra.Command{
	Use:       "report <sales|inventory>",
	Short:     "Show a sales or inventory report",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"sales", "inventory"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		c := newClient()
		var (
			v   any
			err error
		)
		if args[0] == "sales" {
			v, err = c.SalesReport(ctx)
		} else {
			v, err = c.InventoryReport(ctx)
		}
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), v, asJSON)
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	productsCmd.Flags().BoolVar(&lowStockOnly, "low", false, "only products below their minimum stock level")
	ordersCmd.Flags().StringVar(&orderStatus, "status", "", "filter by status")
	rootCmd.AddCommand(productsCmd, ordersCmd, statusCmd, alertsCmd, restockCmd, reportCmd)
}
