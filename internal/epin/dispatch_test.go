package epin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	testcases := []struct {
		name     string
		line     string
		expected RecordType
	}{
		{name: "vss110 tcr0", line: string(vss110Line()), expected: RecordV2110},
		{name: "vss120 tcr0", line: string(subGroup4Line("120")), expected: RecordV4120},
		{name: "vss130 tcr0", line: string(subGroup4Line("130")), expected: RecordV4130},
		{name: "vss130 family 131", line: string(subGroup4Line("131")), expected: RecordV4130},
		{name: "vss130 family 135", line: string(subGroup4Line("135")), expected: RecordV4130},
		{name: "vss130 family 136", line: string(subGroup4Line("136")), expected: RecordV4130},
		{name: "vss140 tcr0", line: string(subGroup4Line("140")), expected: RecordV4140},
		{name: "tcr1", line: string(tcr1Line()), expected: RecordTcr1},
		{name: "header", line: headerLine, expected: RecordHeader},
		{name: "empty", line: "", expected: RecordUnknown},
		{name: "garbage", line: "not a record at all", expected: RecordUnknown},
		{name: "short 460 prefix", line: "460", expected: RecordUnknown},
		{name: "tcr0 without report id", line: "4600" + string(blankLine()[4:]), expected: RecordUnknown},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Classify(tc.line))
		})
	}
}

func TestClassifyNonFamilyReportID(t *testing.T) {
	// Report ids outside the three families still parse through the
	// subgroup-4 path.
	require.Equal(t, RecordV4120, Classify(string(subGroup4Line("210"))))
	require.Equal(t, RecordV4120, Classify(string(subGroup4Line("640"))))
}

func TestMergeFormat(t *testing.T) {
	f := MergeFormat(FormatUnknown, RecordV2110)
	require.Equal(t, FormatVss110, f)

	// Same family keeps the format
	f = MergeFormat(f, RecordV2110)
	require.Equal(t, FormatVss110, f)

	// A second family upgrades to MIXED and stays there
	f = MergeFormat(f, RecordV4120)
	require.Equal(t, FormatMixed, f)
	f = MergeFormat(f, RecordV4120)
	require.Equal(t, FormatMixed, f)

	// Headers and TCR1s never change the detected format
	require.Equal(t, FormatVss130, MergeFormat(FormatVss130, RecordTcr1))
	require.Equal(t, FormatVss130, MergeFormat(FormatVss130, RecordHeader))
}
