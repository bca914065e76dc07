// Package importer reads student rosters from spreadsheets.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/absences/core"
	"github.com/trezcool/absences/core/student"
	"github.com/trezcool/absences/core/tracker"
)

// Columns
const (
	ColFirstName   = "Prénom"
	ColLastName    = "Nom"
	ColParentEmail = "Email Parent"
	ColClass       = "Classe"

	SheetName = "Élèves"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx, .xls or .csv")
	ErrEmptySheet        = errors.New("worksheet is empty")
	ErrMissingColumns    = errors.New("missing columns")

	// normalized header -> field
	headerAliases = map[string]string{
		"prénom":       ColFirstName,
		"prenom":       ColFirstName,
		"first_name":   ColFirstName,
		"first name":   ColFirstName,
		"nom":          ColLastName,
		"last_name":    ColLastName,
		"last name":    ColLastName,
		"email parent": ColParentEmail,
		"parent_email": ColParentEmail,
		"parent email": ColParentEmail,
		"classe":       ColClass,
		"class":        ColClass,
	}
	requiredColumns = []string{ColFirstName, ColLastName, ColParentEmail, ColClass}
)

// RowError reports a spreadsheet row that could not be imported. Row is the spreadsheet line number, the header being 1.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ReadRows reads every row of the first sheet of an .xlsx, .xls or .csv file.
func ReadRows(r io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no worksheet found")
	}
	return file.GetRows(sheetName)
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("no worksheet found")
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// readCSV accepts comma and semicolon separated files, the latter being what french spreadsheets export.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")) // BOM
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))

	rdr := csv.NewReader(bytes.NewReader(data))
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		rdr.Comma = ';'
	}
	return rdr.ReadAll()
}

// Result is the outcome of parsing rows; valid students and invalid rows are kept apart.
type Result struct {
	Students []student.NewStudent `json:"students"`
	Rows     []int                `json:"-"` // spreadsheet line of each student
	Errors   []RowError           `json:"errors"`
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Parse maps the header row by column name, then validates every other row.
// Blank rows are skipped.
func Parse(rows [][]string) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrEmptySheet
	}

	cols := make(map[string]int, len(requiredColumns))
	for idx, header := range rows[0] {
		if field, ok := headerAliases[normalizeHeader(header)]; ok {
			if _, seen := cols[field]; !seen {
				cols[field] = idx
			}
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Result{}, errors.Wrap(ErrMissingColumns, strings.Join(missing, ", "))
	}

	var res Result
	for i, row := range rows[1:] {
		rowNumber := i + 2 // 1-based, after the header

		ns := student.NewStudent{
			FirstName:   cellValue(row, cols[ColFirstName]),
			LastName:    cellValue(row, cols[ColLastName]),
			ParentEmail: strings.ToLower(cellValue(row, cols[ColParentEmail])),
			Class:       cellValue(row, cols[ColClass]),
		}
		if ns == (student.NewStudent{}) {
			continue
		}
		if ns.FirstName == "" || ns.LastName == "" || ns.ParentEmail == "" || ns.Class == "" {
			res.Errors = append(res.Errors, RowError{
				Row:    rowNumber,
				Reason: fmt.Sprintf("missing fields (%s required)", strings.Join(requiredColumns, ", ")),
			})
			continue
		}
		if !core.IsContact(ns.ParentEmail) {
			res.Errors = append(res.Errors, RowError{
				Row:    rowNumber,
				Reason: fmt.Sprintf("invalid email (%s)", ns.ParentEmail),
			})
			continue
		}
		res.Students = append(res.Students, ns)
		res.Rows = append(res.Rows, rowNumber)
	}
	return res, nil
}

// Report tells what an import did.
type Report struct {
	Added    []student.Student `json:"added"`
	Skipped  []student.Student `json:"skipped"`
	Errors   []RowError        `json:"errors"`
	Warnings []Warning         `json:"warnings"`
}

// Import reads the file, then adds its valid rows to the roster.
// Students whose parent contact is already known are skipped.
func Import(ctx context.Context, trk *tracker.Tracker, r io.Reader, filename string) (Report, error) {
	rows, err := ReadRows(r, filename)
	if err != nil {
		return Report{}, err
	}
	parsed, err := Parse(rows)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Errors: parsed.Errors, Warnings: SimilarNames(parsed, trk.Students())}
	if len(parsed.Students) > 0 {
		res, err := trk.AddStudents(ctx, parsed.Students)
		if err != nil {
			return Report{}, err
		}
		rep.Added, rep.Skipped = res.Added, res.Skipped
	}
	return rep, nil
}
