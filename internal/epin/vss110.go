package epin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openclearing/epinflow/internal/epin/field"
)

// Minimum tolerated line lengths. Shorter lines are a format error.
const (
	minTcr0Length = 155
	minTcr1Length = 143
)

// Vss110Record is one VSS-110/111 settlement summary line (report group V,
// subgroup 2).
type Vss110Record struct {
	Envelope

	TransactionCode    string `json:"transaction_code"`
	Qualifier          string `json:"qualifier"`
	ComponentSeq       string `json:"component_seq"`
	DestinationID      string `json:"destination_id"`
	SourceID           string `json:"source_id"`
	ReportingSreID     string `json:"reporting_sre_id"`
	RollupSreID        string `json:"rollup_sre_id"`
	FundsTransferSreID string `json:"funds_transfer_sre_id"`
	SettlementService  string `json:"settlement_service"`
	CurrencyCode       string `json:"currency_code"`
	NoDataIndicator    string `json:"no_data_indicator"`
	ReportGroup        string `json:"report_group"`
	ReportSubgroup     string `json:"report_subgroup"`
	ReportIDNumber     string `json:"report_id_number"`
	ReportIDSuffix     string `json:"report_id_suffix"`

	SettlementDate        *time.Time `json:"settlement_date,omitempty"`
	SettlementDateRaw     string     `json:"settlement_date_raw"`
	ReportDate            *time.Time `json:"report_date,omitempty"`
	ReportDateRaw         string     `json:"report_date_raw"`
	FromDate              *time.Time `json:"from_date,omitempty"`
	FromDateRaw           string     `json:"from_date_raw"`
	ToDate                *time.Time `json:"to_date,omitempty"`
	ToDateRaw             string     `json:"to_date_raw"`
	FundsTransferDate     *time.Time `json:"funds_transfer_date,omitempty"`
	FundsTransferDateRaw  string     `json:"funds_transfer_date_raw"`
	ReimbursementAttr     string     `json:"reimbursement_attr"`

	AmountType   string `json:"amount_type"`
	BusinessMode string `json:"business_mode"`

	TransactionCount int64           `json:"transaction_count"`
	CreditAmount     decimal.Decimal `json:"credit_amount"`
	DebitAmount      decimal.Decimal `json:"debit_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	AmountSign       field.Sign      `json:"amount_sign"`
}

// ParseVss110 decodes a VSS-110 TCR0 line. The returned record always
// carries the raw line; when err is non-nil the record is marked invalid but
// remains persistable for audit.
func ParseVss110(jobID uuid.UUID, line string, lineNo int, opts field.Options) (*Vss110Record, error) {
	rec := &Vss110Record{Envelope: NewEnvelope(jobID, line, lineNo)}
	p := &lineParser{line: line, lineNo: lineNo, format: field.FormatVss110, opts: opts, env: &rec.Envelope}

	if len(line) < minTcr0Length {
		err := field.NewMissing(field.FormatVss110, lineNo, "record", minTcr0Length)
		rec.Invalidate(err.Error())
		return rec, err
	}

	rec.TransactionCode = p.match(p.raw(1, 2, "transactionCode"), "transactionCode", reTwoDigitCode, `"46"`)
	rec.Qualifier = p.oneOf(p.raw(3, 3, "transactionCodeQualifier"), "transactionCodeQualifier", `"0"`, "0")
	rec.ComponentSeq = p.oneOf(p.raw(4, 4, "componentSequence"), "componentSequence", `"0"`, "0")
	rec.DestinationID = p.match(p.raw(5, 10, "destinationId"), "destinationId", reSixDigits, "6 digits")
	rec.SourceID = p.match(p.raw(11, 16, "sourceId"), "sourceId", reSixDigits, "6 digits")
	rec.ReportingSreID = p.raw(17, 26, "reportingSreId")
	rec.RollupSreID = p.raw(27, 36, "rollupSreId")
	rec.FundsTransferSreID = p.raw(37, 46, "fundsTransferSreId")
	rec.SettlementService = p.raw(47, 49, "settlementService")

	rec.CurrencyCode = p.raw(50, 52, "settlementCurrencyCode")
	if field.Blank(rec.CurrencyCode) {
		rec.CurrencyCode = "978"
	} else {
		p.match(rec.CurrencyCode, "settlementCurrencyCode", reThreeDigits, "3 digits (ISO-4217 numeric)")
	}

	rec.NoDataIndicator = p.oneOf(p.raw(53, 53, "noDataIndicator"), "noDataIndicator", `"V", "Y" or blank`, "V", "Y", " ")
	rec.ReportGroup = p.oneOf(p.raw(59, 59, "reportGroup"), "reportGroup", `"V"`, "V")
	rec.ReportSubgroup = p.oneOf(p.raw(60, 60, "reportSubgroup"), "reportSubgroup", `"2"`, "2")
	rec.ReportIDNumber = p.oneOf(p.raw(61, 63, "reportIdNumber"), "reportIdNumber", `"110" or "111"`, "110", "111")
	rec.ReportIDSuffix = p.oneOf(p.raw(64, 65, "reportIdSuffix"), "reportIdSuffix", `blank or "M"`, "  ", "M ", " M")

	rec.SettlementDate, rec.SettlementDateRaw = p.date7(66, 72, "settlementDate")
	rec.ReportDate, rec.ReportDateRaw = p.date7(73, 79, "reportDate")
	rec.FromDate, rec.FromDateRaw = p.date7(80, 86, "fromDate")
	rec.ToDate, rec.ToDateRaw = p.date7(87, 93, "toDate")

	rec.AmountType = p.oneOf(p.raw(94, 94, "amountType"), "amountType", `"I", "F", "C", "T" or blank`, "I", "F", "C", "T", " ")
	rec.BusinessMode = p.oneOf(p.raw(95, 95, "businessMode"), "businessMode", `"1", "2", "3", "9" or blank`, "1", "2", "3", "9", " ")

	rec.TransactionCount = p.count(96, 110, "transactionCount")
	rec.CreditAmount = p.amount(111, 125, "creditAmount")
	rec.DebitAmount = p.amount(126, 140, "debitAmount")
	rec.NetAmount = p.amount(141, 155, "netAmount")
	rec.AmountSign = p.sign(156, 157, "netAmountSign")

	// The funds-transfer slot is 7 wide; the 6-digit CCYDDD value may sit
	// anywhere in it, so the decoder trims before parsing.
	rec.FundsTransferDate, rec.FundsTransferDateRaw = p.date6(158, 164, "fundsTransferDate")
	rec.ReimbursementAttr = p.optional(168, 168)

	rec.checkNetConsistency(lineNo)

	if !rec.IsValid {
		return rec, field.NewMalformed(field.FormatVss110, lineNo, "record", "valid VSS-110 record", rec.firstError())
	}
	return rec, nil
}

// checkNetConsistency enforces the §net-amount invariant: when all three
// amounts carry values and the calculated net is non-zero, |credit-debit|
// must equal net and the CR/DB indicator must match the calculated sign.
// A zero calculated net accepts any indicator.
func (r *Vss110Record) checkNetConsistency(lineNo int) {
	calc := r.CreditAmount.Sub(r.DebitAmount)
	if calc.IsZero() {
		return
	}
	if !calc.Abs().Equal(r.NetAmount) {
		r.Invalidate(field.NewInvariant(field.FormatVss110, lineNo, "netAmount",
			"net amount does not equal |credit - debit|", r.NetAmount.String()).Error())
		return
	}
	if r.AmountSign != field.SignOf(calc) {
		r.Invalidate(field.NewInvariant(field.FormatVss110, lineNo, "netAmountSign",
			"sign indicator does not match credit - debit", string(r.AmountSign)).Error())
	}
}

// SignedNet is the net amount with the CR/DB indicator applied.
func (r *Vss110Record) SignedNet() decimal.Decimal {
	return r.AmountSign.Apply(r.NetAmount)
}

func (e *Envelope) firstError() string {
	if len(e.ValidationErrors) == 0 {
		return ""
	}
	return e.ValidationErrors[0]
}
