package tariff

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/millworks/tariffmill/internal/models"
)

// LoadXLSX reads rules from the first sheet of a workbook. The sheet uses
// the same column layout as the delimited sources.
func LoadXLSX(path string) ([]models.TariffRule, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &DataSourceError{Source: path, Err: fmt.Errorf("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}

	rules, err := ParseRows(rows)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}
	return rules, nil
}
