package epin

import "bytes"

// Test lines are built positionally: put writes a value at a 1-based
// position, matching how the record layouts are specified.
func put(b []byte, start int, s string) {
	copy(b[start-1:], s)
}

func blankLine() []byte {
	return bytes.Repeat([]byte{' '}, 168)
}

// vss110Line is a valid settlement summary TCR0: 100 transactions,
// 500.00 credit, zero debit, net 500.00 CR.
func vss110Line() []byte {
	b := blankLine()
	put(b, 1, "4600")
	put(b, 5, "123456")
	put(b, 11, "654321")
	put(b, 17, "1000000001")
	put(b, 47, "001")
	put(b, 50, "840")
	put(b, 59, "V2110")
	put(b, 66, "2026031")
	put(b, 73, "2026031")
	put(b, 80, "2026031")
	put(b, 87, "2026031")
	put(b, 94, "T")
	put(b, 95, "9")
	put(b, 96, "000000000000100")
	put(b, 111, "000000000050000")
	put(b, 126, "000000000000000")
	put(b, 141, "000000000050000")
	put(b, 156, "CR")
	put(b, 158, "026031")
	return b
}

// subGroup4Line is a valid subgroup-4 TCR0 for the given report id.
func subGroup4Line(reportID string) []byte {
	b := blankLine()
	put(b, 1, "4600")
	put(b, 5, "123456")
	put(b, 11, "654321")
	put(b, 17, "1000000001")
	put(b, 47, "001")
	put(b, 50, "840")
	put(b, 53, "840")
	put(b, 56, "1")
	put(b, 59, "V4")
	put(b, 61, reportID)
	put(b, 66, "2026031")
	put(b, 73, "2026031")
	put(b, 80, "2026031")
	put(b, 87, "2026031")
	put(b, 97, "123")
	put(b, 100, "1")
	put(b, 103, "00")
	put(b, 106, "840")
	put(b, 109, "978")
	put(b, 112, "US")
	put(b, 114, "EU")
	return b
}

// tcr1Line is a valid TCR1 amount row: count 10, clearing 250.00 CR,
// credits 300.00, debits 50.00.
func tcr1Line() []byte {
	b := blankLine()
	put(b, 1, "4601")
	put(b, 5, "00001")
	put(b, 12, "000000000000010")
	put(b, 27, "000000000000000")
	put(b, 42, "000000000025000")
	put(b, 57, "CR")
	put(b, 59, "000000000030000")
	put(b, 74, "CR")
	put(b, 76, "000000000005000")
	put(b, 91, "DB")
	return b
}

const headerLine = "0123456789012 2026-01-31-12.00.00 000001 CLIENT01 001"
