package epin

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openclearing/epinflow/internal/epin/field"
)

// Fallbacks applied when a TCR1 arrives with no recoverable parent TCR0.
const (
	OrphanDestinationID = "000000"
	OrphanReportNumber  = "120"
)

// Tcr1Record is the amount-carrying companion row to a subgroup-4 TCR0.
// It holds no destination id of its own; that and the parent report number
// are inherited from the preceding TCR0 at pipeline time.
type Tcr1Record struct {
	Envelope

	TransactionCode string `json:"transaction_code"`
	Qualifier       string `json:"qualifier"`
	ComponentSeq    string `json:"component_seq"`
	RateTableID     string `json:"rate_table_id"`

	FirstCount  int64 `json:"first_count"`
	SecondCount int64 `json:"second_count"`

	FirstAmount      decimal.Decimal `json:"first_amount"`
	FirstAmountSign  field.Sign      `json:"first_amount_sign"`
	SecondAmount     decimal.Decimal `json:"second_amount"`
	SecondAmountSign field.Sign      `json:"second_amount_sign"`
	ThirdAmount      decimal.Decimal `json:"third_amount"`
	ThirdAmountSign  field.Sign      `json:"third_amount_sign"`
	FourthAmount     decimal.Decimal `json:"fourth_amount"`
	FourthAmountSign field.Sign      `json:"fourth_amount_sign"`
	FifthAmount      decimal.Decimal `json:"fifth_amount"`
	FifthAmountSign  field.Sign      `json:"fifth_amount_sign"`
	SixthAmount      decimal.Decimal `json:"sixth_amount"`
	SixthAmountSign  field.Sign      `json:"sixth_amount_sign"`

	// Inherited from the parent TCR0.
	DestinationID      string     `json:"destination_id"`
	ParentID           *uuid.UUID `json:"parent_id,omitempty"`
	ParentReportNumber string     `json:"parent_report_number"`
}

// ParseTcr1 decodes a TCR1 amount row. Parent linkage is left to the
// caller; a fresh record carries the orphan defaults until linked.
func ParseTcr1(jobID uuid.UUID, line string, lineNo int, opts field.Options) (*Tcr1Record, error) {
	rec := &Tcr1Record{
		Envelope:           NewEnvelope(jobID, line, lineNo),
		DestinationID:      OrphanDestinationID,
		ParentReportNumber: OrphanReportNumber,
	}
	p := &lineParser{line: line, lineNo: lineNo, format: field.FormatTcr1, opts: opts, env: &rec.Envelope}

	if len(line) < minTcr1Length {
		err := field.NewMissing(field.FormatTcr1, lineNo, "record", minTcr1Length)
		rec.Invalidate(err.Error())
		return rec, err
	}

	rec.TransactionCode = p.match(p.raw(1, 2, "transactionCode"), "transactionCode", reTwoDigitCode, `"46"`)
	rec.Qualifier = p.oneOf(p.raw(3, 3, "transactionCodeQualifier"), "transactionCodeQualifier", `"0"`, "0")
	rec.ComponentSeq = p.oneOf(p.raw(4, 4, "componentSequence"), "componentSequence", `"1"`, "1")
	rec.RateTableID = p.raw(5, 9, "rateTableId")

	rec.FirstCount = p.count(12, 26, "firstCount")
	rec.SecondCount = p.count(27, 41, "secondCount")

	rec.FirstAmount = p.amount(42, 56, "firstAmount")
	rec.FirstAmountSign = p.sign(57, 58, "firstAmountSign")
	rec.SecondAmount = p.amount(59, 73, "secondAmount")
	rec.SecondAmountSign = p.sign(74, 75, "secondAmountSign")
	rec.ThirdAmount = p.amount(76, 90, "thirdAmount")
	rec.ThirdAmountSign = p.sign(91, 92, "thirdAmountSign")
	rec.FourthAmount = p.amount(93, 107, "fourthAmount")
	rec.FourthAmountSign = p.sign(108, 109, "fourthAmountSign")
	rec.FifthAmount = p.amount(110, 124, "fifthAmount")
	rec.FifthAmountSign = p.sign(125, 126, "fifthAmountSign")
	rec.SixthAmount = p.amount(127, 141, "sixthAmount")
	rec.SixthAmountSign = p.sign(142, 143, "sixthAmountSign")

	if !rec.IsValid {
		return rec, field.NewMalformed(field.FormatTcr1, lineNo, "record", "valid TCR1 record", rec.firstError())
	}
	return rec, nil
}

// LinkParent attaches the record to its TCR0 parent, inheriting the
// destination id and report family.
func (r *Tcr1Record) LinkParent(parent *SubGroup4Record) {
	id := parent.ID
	r.ParentID = &id
	r.DestinationID = parent.DestinationID
	if fam := parent.Family(); fam != "" {
		r.ParentReportNumber = fam
	}
}
