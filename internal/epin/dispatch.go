package epin

import "strings"

// Classify assigns a record type to an input line by inspecting the
// transaction-code prefix and the embedded report identifier. UNKNOWN is
// not fatal; the pipeline counts such lines as skipped-invalid.
func Classify(line string) RecordType {
	switch {
	case strings.Contains(line, "V2110"):
		return RecordV2110
	case strings.Contains(line, "V4120"):
		return RecordV4120
	case strings.Contains(line, "V4130"):
		return RecordV4130
	case strings.Contains(line, "V4140"):
		return RecordV4140
	}

	if len(line) >= 4 && strings.HasPrefix(line, "460") {
		switch line[3] {
		case '1':
			return RecordTcr1
		case '0':
			return classifyTcr0(line)
		}
	}

	if IsHeaderLine(line) {
		return RecordHeader
	}
	return RecordUnknown
}

// classifyTcr0 refines a "460...0" context row by the report group and
// subgroup at positions 59-60 and the report id at 61-63.
func classifyTcr0(line string) RecordType {
	if len(line) < 63 {
		return RecordUnknown
	}
	group := line[58:60]
	id := line[60:63]

	switch group {
	case "V2":
		if id == "110" || id == "111" {
			return RecordV2110
		}
	case "V4":
		// Family ids 131/135/136 roll up to VSS-130; any other valid
		// subgroup-4 id is routed through the same parser (the record keeps
		// its literal report id).
		switch subGroup4Families[id] {
		case "120":
			return RecordV4120
		case "130":
			return RecordV4130
		case "140":
			return RecordV4140
		}
		if _, ok := subGroup4Families[id]; ok {
			return RecordV4120
		}
	}
	return RecordUnknown
}
