package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

func TestExportWritesQuestionAndRowsInOrder(t *testing.T) {
	items := []domain.Expense{
		{
			DeputyName:   "João Silva",
			DeputyParty:  "PT",
			SupplierName: "LUX CARS LTDA",
			SupplierCNPJ: "12345678000190",
			Description:  "locação de veículos",
			Amount:       65000,
			Date:         time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			DeputyName:   "Maria Souza",
			SupplierCNPJ: "99999999000111",
			TxCount:      12,
			TotalPaid:    340000,
		},
	}

	var buf bytes.Buffer
	if err := New().Export(&buf, "gastos com aluguel de carros de luxo", items); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	question, err := f.GetCellValue(sheetName, "B1")
	if err != nil || question != "gastos com aluguel de carros de luxo" {
		t.Fatalf("expected question in B1, got %q (err=%v)", question, err)
	}

	firstDeputy, _ := f.GetCellValue(sheetName, "B4")
	if firstDeputy != "João Silva" {
		t.Fatalf("expected first fused row first, got %q", firstDeputy)
	}
	secondDeputy, _ := f.GetCellValue(sheetName, "B5")
	if secondDeputy != "Maria Souza" {
		t.Fatalf("expected second fused row second, got %q", secondDeputy)
	}

	date, _ := f.GetCellValue(sheetName, "H4")
	if date != "2025-03-10" {
		t.Fatalf("expected formatted date, got %q", date)
	}
	emptyDate, _ := f.GetCellValue(sheetName, "H5")
	if emptyDate != "" {
		t.Fatalf("expected empty date for aggregate row, got %q", emptyDate)
	}
}

func TestExportEmptyEvidenceStillProducesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Export(&buf, "pergunta sem resultados", nil); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue(sheetName, "A3")
	if header != "Posição" {
		t.Fatalf("expected header row present, got %q", header)
	}
}
