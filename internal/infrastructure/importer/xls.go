package importer

import (
	"bytes"
	"errors"
	"io"
	"strings"

	xls "github.com/extrame/xls"
)

// xlsMaxCols bounds the column probe; listings only need three columns
const xlsMaxCols = 64

// readXLS reads the first sheet of a legacy workbook
func readXLS(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	wb, err := xls.OpenReader(bytes.NewReader(b), "windows-1252")
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errors.New("xls: failed to open workbook")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		cols := make([]string, xlsMaxCols)
		if row != nil {
			for j := 0; j < xlsMaxCols; j++ {
				cols[j] = strings.TrimSpace(row.Col(j))
			}
		}
		rows = append(rows, cols)
	}
	return rows, nil
}
