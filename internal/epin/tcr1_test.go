package epin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openclearing/epinflow/internal/epin/field"
)

func TestParseTcr1(t *testing.T) {
	rec, err := ParseTcr1(uuid.New(), string(tcr1Line()), 2, field.Options{})
	require.NoError(t, err)
	require.True(t, rec.IsValid)

	require.Equal(t, "46", rec.TransactionCode)
	require.Equal(t, "1", rec.ComponentSeq)
	require.Equal(t, "00001", rec.RateTableID)
	require.Equal(t, int64(10), rec.FirstCount)
	require.Equal(t, int64(0), rec.SecondCount)
	require.Equal(t, "250.00", rec.FirstAmount.StringFixed(2))
	require.Equal(t, field.SignCredit, rec.FirstAmountSign)
	require.Equal(t, "300.00", rec.SecondAmount.StringFixed(2))
	require.Equal(t, field.SignCredit, rec.SecondAmountSign)
	require.Equal(t, "50.00", rec.ThirdAmount.StringFixed(2))
	require.Equal(t, field.SignDebit, rec.ThirdAmountSign)
	require.Equal(t, "0.00", rec.FourthAmount.StringFixed(2))
	require.Equal(t, field.SignNone, rec.FourthAmountSign)
}

func TestParseTcr1OrphanDefaults(t *testing.T) {
	rec, err := ParseTcr1(uuid.New(), string(tcr1Line()), 1, field.Options{})
	require.NoError(t, err)
	// Until linked, a TCR1 carries the orphan placeholders
	require.Nil(t, rec.ParentID)
	require.Equal(t, OrphanDestinationID, rec.DestinationID)
	require.Equal(t, OrphanReportNumber, rec.ParentReportNumber)
}

func TestTcr1LinkParent(t *testing.T) {
	parent, err := ParseSubGroup4(uuid.New(), string(subGroup4Line("140")), 1, field.Options{})
	require.NoError(t, err)

	rec, err := ParseTcr1(uuid.New(), string(tcr1Line()), 2, field.Options{})
	require.NoError(t, err)

	rec.LinkParent(parent)
	require.NotNil(t, rec.ParentID)
	require.Equal(t, parent.ID, *rec.ParentID)
	require.Equal(t, parent.DestinationID, rec.DestinationID)
	require.Equal(t, "140", rec.ParentReportNumber)
}

func TestTcr1LinkParentNonFamilyKeepsDefault(t *testing.T) {
	// A 640 parent has no report family; the fallback report number stays
	parent, err := ParseSubGroup4(uuid.New(), string(subGroup4Line("640")), 1, field.Options{})
	require.NoError(t, err)

	rec, err := ParseTcr1(uuid.New(), string(tcr1Line()), 2, field.Options{})
	require.NoError(t, err)

	rec.LinkParent(parent)
	require.Equal(t, parent.DestinationID, rec.DestinationID)
	require.Equal(t, OrphanReportNumber, rec.ParentReportNumber)
}

func TestParseTcr1BadAmount(t *testing.T) {
	b := tcr1Line()
	put(b, 42, "0000000000XX000")
	rec, err := ParseTcr1(uuid.New(), string(b), 1, field.Options{})
	require.Error(t, err)
	require.False(t, rec.IsValid)
	// The malformed amount coerces to zero, the rest of the line still parses
	require.Equal(t, "0.00", rec.FirstAmount.StringFixed(2))
	require.Equal(t, "300.00", rec.SecondAmount.StringFixed(2))
}

func TestParseTcr1ShortLine(t *testing.T) {
	rec, err := ParseTcr1(uuid.New(), "4601", 1, field.Options{})
	require.Error(t, err)
	require.False(t, rec.IsValid)
}
