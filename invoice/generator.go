// Package invoice renders confirmed orders into PDF documents, one per order
// id, stored under a server-local directory.
package invoice

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/almaty-bakery/bakery-api/models"
)

// Core PDF fonts only cover cp1252; DejaVu keeps Cyrillic cafe names,
// product names and comments intact.
var (
	//go:embed fonts/DejaVuSans.ttf
	dejaVuSans []byte
	//go:embed fonts/DejaVuSans-Bold.ttf
	dejaVuSansBold []byte
)

type OrderSource interface {
	GetForInvoice(ctx context.Context, orderID uint) (*models.Order, error)
}

// Generator writes invoices to disk. Construct once at startup; rendering
// itself is stateless and safe for concurrent use on distinct orders.
type Generator struct {
	orders OrderSource
	dir    string
}

func NewGenerator(orders OrderSource, dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("invoice dir: %w", err)
	}
	return &Generator{
		orders: orders,
		dir:    dir,
	}, nil
}

// Path is the deterministic location of an order's invoice document.
func (g *Generator) Path(orderID uint) string {
	return filepath.Join(g.dir, fmt.Sprintf("order_%d.pdf", orderID))
}

// Generate renders the invoice from current order state, overwriting any
// previous document. Re-running on an unchanged order produces equivalent
// totals and line items.
func (g *Generator) Generate(ctx context.Context, orderID uint) (string, error) {
	order, err := g.orders.GetForInvoice(ctx, orderID)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// gofpdf subsets the font bytes in place, so each document gets a copy
	pdf.AddUTF8FontFromBytes("DejaVu", "", append([]byte(nil), dejaVuSans...))
	pdf.AddUTF8FontFromBytes("DejaVu", "B", append([]byte(nil), dejaVuSansBold...))
	pdf.AddPage()

	pdf.SetFont("DejaVu", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Invoice #%d", order.ID))
	pdf.Ln(12)

	pdf.SetFont("DejaVu", "", 10)
	pdf.Cell(0, 6, "Date: "+time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(6)
	if order.Cafe.Name != "" {
		pdf.Cell(0, 6, "Cafe: "+order.Cafe.Name)
	} else {
		pdf.Cell(0, 6, fmt.Sprintf("Cafe ID: %d", order.CafeID))
	}
	pdf.Ln(6)
	pdf.Cell(0, 6, "Status: "+string(order.Status))
	pdf.Ln(10)

	if order.Comment != "" {
		pdf.SetFont("DejaVu", "B", 10)
		pdf.Cell(30, 6, "Comment:")
		pdf.SetFont("DejaVu", "", 10)
		pdf.Cell(0, 6, truncate(order.Comment, 90))
		pdf.Ln(10)
	}

	pdf.SetFont("DejaVu", "B", 11)
	pdf.CellFormat(80, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("DejaVu", "", 10)
	for _, it := range order.Items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))
		pdf.CellFormat(80, 6, truncate(it.Product.Name, 50), "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", it.Qty), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, it.Price.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, line.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("DejaVu", "B", 12)
	pdf.CellFormat(175, 8, "TOTAL: "+order.Total().StringFixed(2), "T", 1, "R", false, 0, "")

	path := g.Path(order.ID)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write invoice: %w", err)
	}
	return path, nil
}

// Fetch returns the invoice document, rendering it first if missing. A render
// lost to a worker failure heals here on the next download.
func (g *Generator) Fetch(ctx context.Context, orderID uint) (string, error) {
	path := g.Path(orderID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return g.Generate(ctx, orderID)
}

// truncate cuts to at most max characters, never splitting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
