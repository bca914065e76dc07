package importer

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

var sampleRows = [][]interface{}{
	{"Emma", "Martin", "parent.martin@email.com", "CP-A"},
	{"Louis", "Dubois", "parent.dubois@email.com", "CP-A"},
	{"Chloé", "Bernard", "parent.bernard@email.com", "CE1-B"},
}

// TemplateFilename is the suggested name of the sample workbook.
const TemplateFilename = "modele_eleves.xlsx"

// WriteTemplate writes a sample .xlsx workbook showing the expected columns.
func WriteTemplate(w io.Writer) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	header := []interface{}{ColFirstName, ColLastName, ColParentEmail, ColClass}
	if err := file.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, row := range sampleRows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = file.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.Wrap(err, "writing sample row")
		}
	}
	for col, width := range map[string]float64{"A": 15, "B": 15, "C": 30, "D": 10} {
		if err := file.SetColWidth(SheetName, col, col, width); err != nil {
			return errors.Wrap(err, "sizing columns")
		}
	}
	if _, err := file.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}
