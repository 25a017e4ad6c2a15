package catalog

import "strings"

// Spreadsheet import accepts the first sheet of an XLSX file with one record
// per row. Products: code | name | category | notes. Production steps:
// code | name | sequence tag | group | notes.

// isHeaderRow sniffs whether the first row is a label row rather than data.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToUpper(strings.TrimSpace(row[0]))
	for _, label := range []string{"CODE", "PRODUCT", "STEP", "NO."} {
		if strings.Contains(first, label) {
			return true
		}
	}
	return false
}

// cleanImportRows trims every cell, drops fully blank rows and the header row
// when one is detected. Returns the data rows and how many blank rows were
// dropped.
func cleanImportRows(rows [][]string) (data [][]string, blankDropped int) {
	start := 0
	if len(rows) > 0 && isHeaderRow(rows[0]) {
		start = 1
	}

	for i := start; i < len(rows); i++ {
		row := make([]string, len(rows[i]))
		empty := true
		for j, c := range rows[i] {
			row[j] = strings.TrimSpace(c)
			if row[j] != "" {
				empty = false
			}
		}
		if empty {
			blankDropped++
			continue
		}
		data = append(data, row)
	}
	return data, blankDropped
}

// cell returns column i of a ragged row, or "" when the row is short.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
