package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"printcalc/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Замовлення"

var headers = []interface{}{
	"№", "Час", "Користувач", "Продукт", "Матеріал",
	"Тираж", "Тираж у розрахунку", "Послуги", "Ціна, грн", "Термін, дн.",
}

// Exporter writes a day's orders into an xlsx workbook.
type Exporter struct {
	dir    string
	loc    *time.Location
	logger *zerolog.Logger
}

func NewExporter(dir string, loc *time.Location, logger *zerolog.Logger) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{dir: dir, loc: loc, logger: logger}
}

// ExportOrders saves the workbook and returns its path.
func (e *Exporter) ExportOrders(day time.Time, orders []models.Order) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	day = day.In(e.loc)
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Замовлення за %s", day.Format(models.DateLayout)))
	_ = f.MergeCell(sheetName, "A1", "J1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	if err := f.SetSheetRow(sheetName, "A2", &headers); err != nil {
		return "", fmt.Errorf("error writing header: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	_ = f.SetCellStyle(sheetName, "A2", "J2", headerStyle)

	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	row := 3
	for _, o := range orders {
		services := strings.Join(o.ModifierNames, ", ")
		if services == "" {
			services = "—"
		}
		values := []interface{}{
			o.ID,
			o.CreatedAt.In(e.loc).Format("15:04"),
			o.UserID,
			displayName(o.ProductName, o.ProductCode),
			displayName(o.MaterialName, o.MaterialCode),
			o.Quantity,
			o.QuantityUsed,
			services,
			o.Price.InexactFloat64(),
			o.DeadlineDays,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return "", fmt.Errorf("error writing order %d: %w", o.ID, err)
		}
		priceCell, _ := excelize.CoordinatesToCellName(9, row)
		_ = f.SetCellStyle(sheetName, priceCell, priceCell, moneyStyle)
		row++
	}

	if len(orders) > 0 {
		labelCell, _ := excelize.CoordinatesToCellName(8, row)
		totalCell, _ := excelize.CoordinatesToCellName(9, row)
		_ = f.SetCellValue(sheetName, labelCell, "Разом")
		_ = f.SetCellFormula(sheetName, totalCell, fmt.Sprintf("SUM(I3:I%d)", row-1))
		boldMoney, _ := f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}})
		_ = f.SetCellStyle(sheetName, labelCell, totalCell, boldMoney)
	}

	_ = f.SetColWidth(sheetName, "A", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "E", 24)
	_ = f.SetColWidth(sheetName, "F", "G", 12)
	_ = f.SetColWidth(sheetName, "H", "H", 30)
	_ = f.SetColWidth(sheetName, "I", "J", 14)

	path := filepath.Join(e.dir, fmt.Sprintf("orders_%s.xlsx", day.Format("2006-01-02")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", path).Int("orders", len(orders)).Msg("Excel file created")
	return path, nil
}

func displayName(name, code string) string {
	if name != "" {
		return name
	}
	return code
}
