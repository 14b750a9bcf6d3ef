package payroll

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// PayslipPDF renders a stored payslip as an itemised A4 document.
func (s *Service) PayslipPDF(ctx context.Context, payslipID string) ([]byte, error) {
	payslip, err := s.store.GetPayslip(ctx, payslipID)
	if err != nil {
		return nil, err
	}
	return RenderPayslipPDF(payslip)
}

func RenderPayslipPDF(p Payslip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := [][2]string{
		{"Employee", fmt.Sprintf("%s (%s)", p.EmployeeName, p.EmployeeCode)},
		{"Department", p.Department},
		{"Position", p.Position},
		{"Tax ID", p.TaxID},
		{"Pay period", p.PayPeriod},
	}
	if p.PaymentDate != nil {
		header = append(header, [2]string{"Payment date", p.PaymentDate.Format("2006-01-02")})
	}
	for _, line := range header {
		pdf.CellFormat(40, 7, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, line[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Earnings")
	amountRow(pdf, "Base salary", p.BaseSalary)
	if !p.OvertimePay.IsZero() {
		amountRow(pdf, fmt.Sprintf("Overtime (%s h x %s)", p.OvertimeHours, p.OvertimeRate.StringFixed(2)), p.OvertimePay)
	}
	for _, item := range p.Allowances {
		amountRow(pdf, item.Name, item.Amount)
	}
	totalRow(pdf, "Gross pay", p.GrossPay)

	section(pdf, "Deductions")
	amountRow(pdf, "Income tax", p.TaxDeduction)
	amountRow(pdf, "Social security", p.SocialSecurityDeduction)
	amountRow(pdf, "Provident fund", p.ProvidentFundDeduction)
	for _, item := range p.OtherDeductions {
		amountRow(pdf, item.Name, item.Amount)
	}
	totalRow(pdf, "Total deductions", p.TotalDeductions)

	pdf.Ln(4)
	totalRow(pdf, "Net pay", p.NetPay)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func amountRow(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.CellFormat(130, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, amount.StringFixed(2), "", 1, "R", false, 0, "")
}

func totalRow(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.SetFont("Helvetica", "B", 11)
	amountRow(pdf, label, amount)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(2)
}
