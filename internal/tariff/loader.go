package tariff

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/millworks/tariffmill/internal/models"
)

// Column headers of tariff action sources. These match the exchange format
// used by customs brokers for Section 232-style action tables.
const (
	colTariffNo    = "Tariff No"
	colAction      = "Action"
	colDescription = "Tariff Description"
	colAdvalorem   = "Advalorem Rate"
	colEffective   = "Effective Date"
	colExpiration  = "Expiration Date"
	colSpecific    = "Specific Rate"
	colDeclaration = "Additional Declaration Required"
	colNote        = "Note"
	colLink        = "Link"
)

var requiredColumns = []string{colTariffNo, colAction}

var dateFormats = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
}

// LoadFile reads a rule source by extension: .csv comma-delimited, .txt
// tab-delimited, .xlsx via the spreadsheet loader. The load is all-or-nothing;
// any failure yields a DataSourceError and no table.
func LoadFile(path string) ([]models.TariffRule, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadXLSX(path)
	case ".txt":
		return loadDelimited(path, '\t')
	default:
		return loadDelimited(path, ',')
	}
}

func loadDelimited(path string, sep rune) ([]models.TariffRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = sep
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataSourceError{Source: path, Err: err}
		}
		rows = append(rows, record)
	}

	rules, err := ParseRows(rows)
	if err != nil {
		return nil, &DataSourceError{Source: path, Err: err}
	}
	return rules, nil
}

// ParseRows converts a header row plus data rows into rules. Schema
// violations are reported, never coerced: a missing required column or an
// unparsable rate/date fails the whole load. Rows with neither tariff number
// nor action are skipped, matching the exchange format's blank separators.
func ParseRows(rows [][]string) ([]models.TariffRule, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("source is empty")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rules []models.TariffRule
	for n, row := range rows[1:] {
		tariffNo := cell(row, colTariffNo)
		action := cell(row, colAction)
		if tariffNo == "" && action == "" {
			continue
		}
		if tariffNo == "" || action == "" {
			return nil, fmt.Errorf("row %d: tariff number and action are both required", n+2)
		}

		code := NormalizeCode(tariffNo)
		rule := models.TariffRule{
			RuleID:             fmt.Sprintf("%s#%d", code, n+2),
			ClassificationCode: code,
			Action:             action,
			Description:        cell(row, colDescription),
			Note:               cell(row, colNote),
			Link:               cell(row, colLink),
		}

		var err error
		if rule.AdvaloremRate, err = parseRate(cell(row, colAdvalorem), true); err != nil {
			return nil, fmt.Errorf("row %d: advalorem rate: %w", n+2, err)
		}
		if rule.SpecificRate, err = parseRate(cell(row, colSpecific), false); err != nil {
			return nil, fmt.Errorf("row %d: specific rate: %w", n+2, err)
		}
		if rule.EffectiveDate, err = parseDate(cell(row, colEffective)); err != nil {
			return nil, fmt.Errorf("row %d: effective date: %w", n+2, err)
		}
		if rule.ExpirationDate, err = parseDate(cell(row, colExpiration)); err != nil {
			return nil, fmt.Errorf("row %d: expiration date: %w", n+2, err)
		}
		rule.AdditionalDeclaration = parseFlag(cell(row, colDeclaration))

		rules = append(rules, rule)
	}
	return rules, nil
}

// parseRate reads an optional rate cell. Ad-valorem rates may be written as
// percentages ("25%") or fractions ("0.25"); percent form is converted.
func parseRate(s string, percentForm bool) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	pct := false
	if percentForm && strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		pct = true
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q", s)
	}
	if pct {
		d = d.Shift(-2)
	}
	return &d, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

func parseFlag(s string) bool {
	switch strings.ToUpper(s) {
	case "Y", "YES", "TRUE", "1":
		return true
	}
	return false
}
