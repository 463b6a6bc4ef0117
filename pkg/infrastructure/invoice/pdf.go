package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"ecommerce/pkg/domain/model"
)

const (
	pageMargin = 15.0
	rowHeight  = 7.0
	fontFamily = "Helvetica"
)

// Item table columns in mm; they span the A4 width between the margins.
var (
	columnWidths = []float64{95, 20, 35, 30}
	columnTitles = []string{"Item", "Qty", "Price", "Amount"}
	columnAlign  = []string{"L", "R", "R", "R"}
)

type PDFConfig struct {
	StoreName    string
	StoreAddress string
}

// PDFRenderer lays an invoice out on A4 pages with the core PDF fonts. The
// item table header repeats on every page it spills onto.
type PDFRenderer struct {
	config   PDFConfig
	compress bool
}

var _ model.InvoiceRenderer = (*PDFRenderer)(nil)

func NewPDFRenderer(config PDFConfig) *PDFRenderer {
	if config.StoreName == "" {
		config.StoreName = "Store"
	}
	return &PDFRenderer{config: config, compress: true}
}

func (r *PDFRenderer) Render(order *model.Order) ([]byte, error) {
	if order == nil {
		return nil, errors.New("render invoice: nil order")
	}
	var buf bytes.Buffer
	if err := r.document(order).Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render invoice")
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) document(order *model.Order) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(order.CreatedAt)
	pdf.SetModificationDate(order.CreatedAt)
	pdf.SetTitle("Invoice "+order.ID.String(), true)
	pdf.SetCreator(r.config.StoreName, true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin+5)
	pdf.AliasNbPages("")

	// cp1252 is the encoding of the core fonts.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	inTable := false
	pdf.SetHeaderFunc(func() {
		if inTable {
			tableHeader(pdf)
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 10, tr(r.config.StoreName), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	if r.config.StoreAddress != "" {
		pdf.CellFormat(0, 5, tr(r.config.StoreAddress), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 8, "INVOICE", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	for _, text := range []string{
		"Order: " + order.ID.String(),
		"Date: " + order.CreatedAt.Format("2006-01-02"),
		fmt.Sprintf("Payment: %s (%s)", order.PaymentMethod, order.PaymentStatus),
	} {
		pdf.CellFormat(0, 5, tr(text), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	address := order.ShippingAddress
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(0, 5, "Ship to", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	for _, text := range []string{
		address.FullName,
		address.Address,
		fmt.Sprintf("%s %s, %s", address.City, address.PostalCode, address.Country),
	} {
		pdf.CellFormat(0, 5, tr(text), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	tableHeader(pdf)
	inTable = true
	pdf.SetFont(fontFamily, "", 10)
	for _, item := range order.Items {
		amount := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		cells := []string{
			tr(item.Name),
			fmt.Sprintf("%d", item.Quantity),
			item.Price.StringFixed(2),
			amount.StringFixed(2),
		}
		for i, text := range cells {
			pdf.CellFormat(columnWidths[i], rowHeight, text, "B", 0, columnAlign[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
	inTable = false
	pdf.Ln(4)

	totals := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Items", order.ItemsPrice},
		{"Tax", order.TaxPrice},
		{"Extra charges", order.ExtraCharges},
		{"Shipping", order.ShippingPrice},
		{"Total", order.TotalAmount},
	}
	labelWidth := columnWidths[0] + columnWidths[1] + columnWidths[2]
	for i, line := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont(fontFamily, style, 10)
		pdf.CellFormat(labelWidth, rowHeight, line.label+":", "", 0, "R", false, 0, "")
		pdf.CellFormat(columnWidths[3], rowHeight, line.amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	return pdf
}

func tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range columnTitles {
		pdf.CellFormat(columnWidths[i], rowHeight, title, "1", 0, columnAlign[i], true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(fontFamily, "", 10)
}
