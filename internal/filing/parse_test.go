package filing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInfoTable = `<?xml version="1.0" encoding="UTF-8"?>
<informationTable xmlns="http://www.sec.gov/edgar/document/thirteenf/informationtable">
  <infoTable>
    <nameOfIssuer>APPLE INC</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>037833100</cusip>
    <value>1500</value>
    <shrsOrPrnAmt>
      <sshPrnamt>6000</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
  <infoTable>
    <nameOfIssuer>SHORT CUSIP CO</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>1234</cusip>
    <value>10</value>
    <shrsOrPrnAmt>
      <sshPrnamt>100</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
  <infoTable>
    <nameOfIssuer>MICROSOFT CORP</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip> 594918104X </cusip>
    <value>2500</value>
    <shrsOrPrnAmt>
      <sshPrnamt>5500</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
</informationTable>`

func sampleMetadata() Metadata {
	return Metadata{
		CIK:       "1067983",
		Name:      "Sample Advisors",
		Accession: "0001067983-25-000001",
		PeriodEnd: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		FiledAt:   time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestParse13F(t *testing.T) {
	f, err := Parse13F(context.Background(), strings.NewReader(sampleInfoTable), sampleMetadata())
	require.NoError(t, err)

	assert.Equal(t, "1067983", f.CIK)
	assert.Equal(t, "Sample Advisors", f.Name)

	// The short CUSIP entry is dropped.
	require.Len(t, f.Holdings, 2)

	apple := f.Holdings[0]
	assert.Equal(t, "037833100", apple.CUSIP)
	assert.Equal(t, "APPLE INC", apple.IssuerName)
	assert.Equal(t, "COM", apple.ClassTitle)
	assert.Equal(t, int64(1_500_000), apple.Value) // reported in thousands
	assert.Equal(t, int64(6000), apple.Shares)
	assert.Empty(t, apple.Ticker)
	assert.Empty(t, apple.Sector)

	// Long CUSIPs truncate to the 9-character identifier.
	assert.Equal(t, "594918104", f.Holdings[1].CUSIP)
}

func TestParse13F_MalformedXML(t *testing.T) {
	_, err := Parse13F(context.Background(), strings.NewReader("<informationTable><infoTable><value>nope"), sampleMetadata())
	assert.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	doc := `{
		"cik": "123",
		"name": "Test Capital",
		"period_end": "2025-03-31T00:00:00Z",
		"filed_at": "2025-05-10T00:00:00Z",
		"accession": "acc-1",
		"holdings": [
			{"cusip": "037833100", "issuer_name": "APPLE INC", "class_title": "COM", "value": 1500000, "shares": 6000, "ticker": "AAPL", "sector": "Technology"}
		]
	}`

	f, err := ParseJSON(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "123", f.CIK)
	require.Len(t, f.Holdings, 1)
	assert.Equal(t, "AAPL", f.Holdings[0].Ticker)
	assert.Equal(t, "Technology", f.Holdings[0].Sector)
}

func TestParseJSON_Malformed(t *testing.T) {
	_, err := ParseJSON(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestLoadJSONPath_Dir(t *testing.T) {
	dir := t.TempDir()
	doc := `{"cik":"123","name":"A","period_end":"2025-03-31T00:00:00Z","holdings":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("x"), 0o644))

	filings, err := LoadJSONPath(dir)
	require.NoError(t, err)
	assert.Len(t, filings, 2)
}

func TestLoadJSONPath_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cik":"123","holdings":[]}`), 0o644))

	filings, err := LoadJSONPath(path)
	require.NoError(t, err)
	require.Len(t, filings, 1)
	assert.Equal(t, "123", filings[0].CIK)
}

func TestLoadJSONPath_Missing(t *testing.T) {
	_, err := LoadJSONPath("/nonexistent/path.json")
	assert.Error(t, err)
}
