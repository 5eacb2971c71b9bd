package rules

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads a ruleset from an Excel workbook sheet. The sheet must
// carry the Simp Chinese, Trad Chinese, Good Translation, and Bad
// Translation columns; extra columns are ignored. Rules come back
// prioritized and numbered.
func LoadXLSX(path, sheet string) ([]Rule, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening ruleset %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, path, err)
	}
	return rulesFromRows(rows, path)
}

// LoadCSV reads a ruleset from a CSV file with the same header columns as
// the Excel form. A UTF-8 BOM on the first cell is tolerated.
func LoadCSV(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ruleset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing ruleset %s: %w", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rulesFromRows(rows, path)
}
