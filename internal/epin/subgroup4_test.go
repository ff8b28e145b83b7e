package epin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openclearing/epinflow/internal/epin/field"
)

func TestParseSubGroup4(t *testing.T) {
	rec, err := ParseSubGroup4(uuid.New(), string(subGroup4Line("120")), 1, field.Options{})
	require.NoError(t, err)
	require.True(t, rec.IsValid)

	require.Equal(t, "123456", rec.DestinationID)
	require.Equal(t, "840", rec.SettlementCurrencyCode)
	require.Equal(t, "840", rec.ClearingCurrencyCode)
	require.Equal(t, "1", rec.BusinessMode)
	require.Equal(t, "V", rec.ReportGroup)
	require.Equal(t, "4", rec.ReportSubgroup)
	require.Equal(t, "120", rec.ReportIDNumber)
	require.Equal(t, "123", rec.BusinessTransactionType)
	require.Equal(t, "1", rec.BusinessTransactionCycle)
	require.Equal(t, "00", rec.JurisdictionCode)
	require.Equal(t, "840", rec.SourceCountryCode)
	require.Equal(t, "978", rec.DestinationCountryCode)
	require.Equal(t, "US", rec.SourceRegionCode)
	require.Equal(t, "EU", rec.DestinationRegionCode)
	require.Equal(t, "120", rec.Family())
}

func TestSubGroup4Families(t *testing.T) {
	testcases := []struct {
		reportID string
		family   string
	}{
		{reportID: "120", family: "120"},
		{reportID: "130", family: "130"},
		{reportID: "131", family: "130"},
		{reportID: "135", family: "130"},
		{reportID: "136", family: "130"},
		{reportID: "140", family: "140"},
		{reportID: "210", family: ""},
		{reportID: "215", family: ""},
		{reportID: "230", family: ""},
		{reportID: "640", family: ""},
	}

	for _, tc := range testcases {
		t.Run(tc.reportID, func(t *testing.T) {
			rec, err := ParseSubGroup4(uuid.New(), string(subGroup4Line(tc.reportID)), 1, field.Options{})
			require.NoError(t, err)
			require.True(t, rec.IsValid)
			require.Equal(t, tc.reportID, rec.ReportIDNumber)
			require.Equal(t, tc.family, rec.Family())
		})
	}
}

func TestParseSubGroup4UnknownReportID(t *testing.T) {
	rec, err := ParseSubGroup4(uuid.New(), string(subGroup4Line("999")), 1, field.Options{})
	require.Error(t, err)
	require.False(t, rec.IsValid)
	require.Equal(t, "999", rec.ReportIDNumber)
}

func TestParseSubGroup4BadCycle(t *testing.T) {
	b := subGroup4Line("120")
	put(b, 100, "9") // cycles run 0-8
	rec, err := ParseSubGroup4(uuid.New(), string(b), 1, field.Options{})
	require.Error(t, err)
	require.False(t, rec.IsValid)
}

func TestParseSubGroup4BlankCurrencies(t *testing.T) {
	b := subGroup4Line("130")
	put(b, 50, "   ")
	put(b, 53, "   ")
	rec, err := ParseSubGroup4(uuid.New(), string(b), 1, field.Options{})
	require.NoError(t, err)
	// Settlement currency defaults, clearing currency stays blank
	require.Equal(t, "978", rec.SettlementCurrencyCode)
	require.Equal(t, "   ", rec.ClearingCurrencyCode)
}

func TestParseSubGroup4ShortLine(t *testing.T) {
	rec, err := ParseSubGroup4(uuid.New(), "4600", 5, field.Options{})
	require.Error(t, err)
	require.False(t, rec.IsValid)
	require.Equal(t, 5, rec.LineNumber)
}
