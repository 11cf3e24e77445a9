package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

const sheetName = "Evidências"

// Exporter writes an assembled evidence set as a spreadsheet: the question on
// top, then one row per expense in fused order.
type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

var headers = []string{
	"Posição", "Deputado", "Partido", "Fornecedor", "CNPJ",
	"Descrição", "Valor (R$)", "Data", "Transações", "Total Pago (R$)",
}

func (x *Exporter) Export(w io.Writer, question string, items []domain.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", "Pergunta:"); err != nil {
		return fmt.Errorf("write question label: %w", err)
	}
	if err := f.SetCellValue(sheetName, "B1", question); err != nil {
		return fmt.Errorf("write question: %w", err)
	}

	const headerRow = 3
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header %q: %w", header, err)
		}
	}

	for i, e := range items {
		row := headerRow + 1 + i
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.Format("2006-01-02")
		}
		values := []any{
			i + 1, e.DeputyName, e.DeputyParty, e.SupplierName, e.SupplierCNPJ,
			e.Description, e.Amount, date, e.TxCount, e.TotalPaid,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
