package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/xenking/erp-inventory/internal/api"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	titleStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return successStyle
	case "cancelled":
		return errorStyle
	case "processing":
		return warningStyle
	default:
		return mutedStyle
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// render prints v, one of the api types, as a table or as JSON.
func render(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	var out string
	switch v := v.(type) {
	case nil:
		return nil
	case []api.Product:
		t := newTable("ID", "SKU", "Name", "Category", "Price", "Stock", "Min")
		for _, p := range v {
			stock := strconv.Itoa(p.StockQuantity)
			if p.IsLowStock {
				stock = warningStyle.Render(stock)
			}
			t.Row(id(p.ID), p.SKU, p.Name, p.Category, p.Price.String(), stock, strconv.Itoa(p.MinStockLevel))
		}
		out = t.String()
	case *api.Product:
		return render(w, []api.Product{*v}, false)
	case []api.Order:
		t := newTable("ID", "Number", "Customer", "Status", "Total", "Items", "Date")
		for _, o := range v {
			t.Row(id(o.ID), o.OrderNumber, o.CustomerName, statusStyle(o.Status).Render(o.Status),
				o.TotalAmount.String(), strconv.Itoa(len(o.Items)), o.OrderDate.Format("2006-01-02 15:04"))
		}
		out = t.String()
	case *api.Order:
		t := newTable("Product", "Qty", "Unit price", "Discount", "Subtotal")
		for _, it := range v.Items {
			t.Row(it.ProductName, strconv.Itoa(it.Quantity), it.UnitPrice.String(),
				it.Discount.Decimal().String(), it.Subtotal.String())
		}
		out = fmt.Sprintf("%s %s  %s\n%s\n%s",
			titleStyle.Render(v.OrderNumber), v.CustomerName, statusStyle(v.Status).Render(v.Status),
			t.String(),
			"Total: "+titleStyle.Render(v.TotalAmount.String()))
	case []api.StockAlert:
		if len(v) == 0 {
			out = successStyle.Render("All products are above their minimum stock level")
			break
		}
		t := newTable("ID", "Product", "Stock", "Min", "Shortage")
		for _, a := range v {
			t.Row(id(a.ProductID), a.ProductName, strconv.Itoa(a.CurrentStock),
				strconv.Itoa(a.MinStockLevel), warningStyle.Render(strconv.Itoa(a.Shortage)))
		}
		out = t.String()
	case *api.SalesReport:
		summary := newTable("Orders", "Completed", "Pending", "Processing", "Cancelled", "Revenue").
			Row(strconv.Itoa(v.TotalOrders), strconv.Itoa(v.CompletedOrders), strconv.Itoa(v.PendingOrders),
				strconv.Itoa(v.ProcessingOrders), strconv.Itoa(v.CancelledOrders), v.TotalRevenue.String())
		top := newTable("Product", "Quantity", "Revenue")
		for _, p := range v.TopProducts {
			top.Row(p.ProductName, strconv.Itoa(p.Quantity), p.Revenue.String())
		}
		out = titleStyle.Render("Sales") + "\n" + summary.String() + "\n" +
			titleStyle.Render("Top products") + "\n" + top.String()
	case *api.InventoryReport:
		summary := newTable("Products", "Stock value", "Out of stock").
			Row(strconv.Itoa(v.TotalProducts), v.TotalStockValue.String(), strconv.Itoa(v.OutOfStockCount))
		out = titleStyle.Render("Inventory") + "\n" + summary.String()
		if len(v.LowStockProducts) > 0 {
			var sb strings.Builder
			_ = render(&sb, v.LowStockProducts, false)
			out += "\n" + titleStyle.Render("Low stock") + "\n" + strings.TrimRight(sb.String(), "\n")
		}
	default:
		return render(w, v, true)
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

func printSuccess(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, successStyle.Render("✓ ")+msg)
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, errorStyle.Render("✗ ")+err.Error())
}
