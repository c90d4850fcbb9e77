package tariff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Tariff No,Action,Tariff Description,Advalorem Rate,Effective Date,Expiration Date,Specific Rate,Additional Declaration Required,Note,Link
8544.42.90.90,TARIFF_INCREASE,Insulated conductors,25%,2024-03-01,2025-02-28,,Y,Sec 232,https://example.com/a
7326.90.35,TARIFF_INCREASE,Iron articles,0.10,2024-01-15,,,,,
,,,,,,,,,
9903.88.01,EXCLUSION,Granted exclusion,,2024-06-01,2024-12-31,0.50,,,
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileCSV(t *testing.T) {
	rules, err := LoadFile(writeTemp(t, "actions.csv", sampleCSV))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	r := rules[0]
	assert.Equal(t, "8544429090", r.ClassificationCode)
	assert.Equal(t, "TARIFF_INCREASE", r.Action)
	assert.Equal(t, "Insulated conductors", r.Description)
	require.NotNil(t, r.AdvaloremRate)
	assert.True(t, r.AdvaloremRate.Equal(dec(t, "0.25")), "25%% parses to fraction, got %s", r.AdvaloremRate)
	require.NotNil(t, r.EffectiveDate)
	assert.Equal(t, date(t, "2024-03-01"), *r.EffectiveDate)
	require.NotNil(t, r.ExpirationDate)
	assert.True(t, r.AdditionalDeclaration)
	assert.Equal(t, "Sec 232", r.Note)

	r = rules[1]
	require.NotNil(t, r.AdvaloremRate)
	assert.True(t, r.AdvaloremRate.Equal(dec(t, "0.10")))
	assert.Nil(t, r.ExpirationDate)
	assert.False(t, r.AdditionalDeclaration)

	r = rules[2]
	assert.Nil(t, r.AdvaloremRate)
	require.NotNil(t, r.SpecificRate)
	assert.True(t, r.SpecificRate.Equal(dec(t, "0.50")))
}

func TestLoadFileTabDelimited(t *testing.T) {
	tsv := "Tariff No\tAction\tAdvalorem Rate\n8544.42.90.90\tTARIFF_INCREASE\t25%\n"
	rules, err := LoadFile(writeTemp(t, "actions.txt", tsv))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "8544429090", rules[0].ClassificationCode)
}

func TestLoadFileMissingRequiredColumn(t *testing.T) {
	_, err := LoadFile(writeTemp(t, "bad.csv", "Tariff No,Note\n8544429090,x\n"))
	require.Error(t, err)

	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.ErrorContains(t, err, "Action")
}

func TestLoadFileAllOrNothing(t *testing.T) {
	// Row 3 has a malformed date; nothing loads.
	csv := "Tariff No,Action,Effective Date\n" +
		"8544429090,TARIFF_INCREASE,2024-01-01\n" +
		"73269035,TARIFF_INCREASE,not-a-date\n"
	rules, err := LoadFile(writeTemp(t, "partial.csv", csv))
	assert.Error(t, err)
	assert.Nil(t, rules)
}

func TestLoadFileHalfBlankRowRejected(t *testing.T) {
	csv := "Tariff No,Action\n8544429090,\n"
	_, err := LoadFile(writeTemp(t, "half.csv", csv))
	assert.ErrorContains(t, err, "required")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.csv"))
	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)
}

func TestParseDateFormats(t *testing.T) {
	for _, s := range []string{"2024-03-01", "3/1/2024", "03/01/2024", "2024/03/01"} {
		d, err := parseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, date(t, "2024-03-01"), *d, s)
	}
	d, err := parseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)
}
