package importer

import (
	"bytes"
	"io"

	excelize "github.com/xuri/excelize/v2"
)

// readXLSX reads every row of the first sheet
func readXLSX(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetRows(f.GetSheetName(0))
}
