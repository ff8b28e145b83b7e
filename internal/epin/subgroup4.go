package epin

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/openclearing/epinflow/internal/epin/field"
)

// Report id numbers accepted on subgroup-4 TCR0 lines, and the report
// family each one rolls up to. Ids outside the three families (210, 215,
// 230, 640) are persisted but excluded from the 120/130/140 reports.
var subGroup4Families = map[string]string{
	"120": "120",
	"130": "130",
	"131": "130",
	"135": "130",
	"136": "130",
	"140": "140",
	"210": "",
	"215": "",
	"230": "",
	"640": "",
}

var (
	reJurisdiction = regexp.MustCompile(`^(\d{2}|  )$`)
	reCycle        = regexp.MustCompile(`^[0-8 ]$`)
)

// SubGroup4Record is a TCR0 context row of report group V subgroup 4
// (VSS-120/130/140 and related report ids).
type SubGroup4Record struct {
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

	SettlementCurrencyCode string `json:"settlement_currency_code"`
	ClearingCurrencyCode   string `json:"clearing_currency_code"`
	BusinessMode           string `json:"business_mode"`
	NoDataIndicator        string `json:"no_data_indicator"`
	ReportGroup            string `json:"report_group"`
	ReportSubgroup         string `json:"report_subgroup"`
	ReportIDNumber         string `json:"report_id_number"`
	ReportIDSuffix         string `json:"report_id_suffix"`

	SettlementDate    *time.Time `json:"settlement_date,omitempty"`
	SettlementDateRaw string     `json:"settlement_date_raw"`
	ReportDate        *time.Time `json:"report_date,omitempty"`
	ReportDateRaw     string     `json:"report_date_raw"`
	FromDate          *time.Time `json:"from_date,omitempty"`
	FromDateRaw       string     `json:"from_date_raw"`
	ToDate            *time.Time `json:"to_date,omitempty"`
	ToDateRaw         string     `json:"to_date_raw"`

	ChargeTypeCode           string `json:"charge_type_code"`
	BusinessTransactionType  string `json:"business_transaction_type"`
	BusinessTransactionCycle string `json:"business_transaction_cycle"`
	ReversalIndicator        string `json:"reversal_indicator"`
	ReturnIndicator          string `json:"return_indicator"`
	JurisdictionCode         string `json:"jurisdiction_code"`
	InterRegionalRouting     string `json:"inter_regional_routing"`
	SourceCountryCode        string `json:"source_country_code"`
	DestinationCountryCode   string `json:"destination_country_code"`
	SourceRegionCode         string `json:"source_region_code"`
	DestinationRegionCode    string `json:"destination_region_code"`
	FeeLevelDescriptor       string `json:"fee_level_descriptor"`
	CrDbNetIndicator         string `json:"cr_db_net_indicator"`
	SummaryLevel             string `json:"summary_level"`
	ReimbursementAttr        string `json:"reimbursement_attr"`
}

// Family returns "120", "130" or "140" for records that belong to one of
// the three reportable families, or "" otherwise.
func (r *SubGroup4Record) Family() string {
	return subGroup4Families[r.ReportIDNumber]
}

// ParseSubGroup4 decodes a subgroup-4 TCR0 line. Best-effort like the other
// parsers: the record is returned even when err is non-nil.
func ParseSubGroup4(jobID uuid.UUID, line string, lineNo int, opts field.Options) (*SubGroup4Record, error) {
	rec := &SubGroup4Record{Envelope: NewEnvelope(jobID, line, lineNo)}
	p := &lineParser{line: line, lineNo: lineNo, format: field.FormatSubGroup4, opts: opts, env: &rec.Envelope}

	if len(line) < minTcr0Length {
		err := field.NewMissing(field.FormatSubGroup4, lineNo, "record", minTcr0Length)
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

	rec.SettlementCurrencyCode = p.raw(50, 52, "settlementCurrencyCode")
	if field.Blank(rec.SettlementCurrencyCode) {
		rec.SettlementCurrencyCode = "978"
	} else {
		p.match(rec.SettlementCurrencyCode, "settlementCurrencyCode", reThreeDigits, "3 digits (ISO-4217 numeric)")
	}
	rec.ClearingCurrencyCode = p.raw(53, 55, "clearingCurrencyCode")
	if !field.Blank(rec.ClearingCurrencyCode) {
		p.match(rec.ClearingCurrencyCode, "clearingCurrencyCode", reThreeDigits, "3 digits (ISO-4217 numeric)")
	}

	rec.BusinessMode = p.oneOf(p.raw(56, 56, "businessMode"), "businessMode", `"1", "2", "3", "9" or blank`, "1", "2", "3", "9", " ")
	rec.NoDataIndicator = p.oneOf(p.raw(57, 57, "noDataIndicator"), "noDataIndicator", `"V", "Y" or blank`, "V", "Y", " ")
	rec.ReportGroup = p.oneOf(p.raw(59, 59, "reportGroup"), "reportGroup", `"V"`, "V")
	rec.ReportSubgroup = p.oneOf(p.raw(60, 60, "reportSubgroup"), "reportSubgroup", `"4"`, "4")

	rec.ReportIDNumber = p.raw(61, 63, "reportIdNumber")
	if _, ok := subGroup4Families[rec.ReportIDNumber]; !ok {
		rec.Invalidate(field.NewMalformed(field.FormatSubGroup4, lineNo, "reportIdNumber",
			"one of 120, 130, 131, 135, 136, 140, 210, 215, 230, 640", rec.ReportIDNumber).Error())
	}
	rec.ReportIDSuffix = p.raw(64, 65, "reportIdSuffix")

	rec.SettlementDate, rec.SettlementDateRaw = p.date7(66, 72, "settlementDate")
	rec.ReportDate, rec.ReportDateRaw = p.date7(73, 79, "reportDate")
	rec.FromDate, rec.FromDateRaw = p.date7(80, 86, "fromDate")
	rec.ToDate, rec.ToDateRaw = p.date7(87, 93, "toDate")

	rec.ChargeTypeCode = p.raw(94, 96, "chargeTypeCode")
	rec.BusinessTransactionType = p.raw(97, 99, "businessTransactionType")
	rec.BusinessTransactionCycle = p.match(p.raw(100, 100, "businessTransactionCycle"), "businessTransactionCycle", reCycle, "cycle 0-8 or blank")
	rec.ReversalIndicator = p.raw(101, 101, "reversalIndicator")
	rec.ReturnIndicator = p.raw(102, 102, "returnIndicator")
	rec.JurisdictionCode = p.match(p.raw(103, 104, "jurisdictionCode"), "jurisdictionCode", reJurisdiction, "2 digits or blank")
	rec.InterRegionalRouting = p.raw(105, 105, "interRegionalRouting")
	rec.SourceCountryCode = p.raw(106, 108, "sourceCountryCode")
	rec.DestinationCountryCode = p.raw(109, 111, "destinationCountryCode")
	rec.SourceRegionCode = p.raw(112, 113, "sourceRegionCode")
	rec.DestinationRegionCode = p.raw(114, 115, "destinationRegionCode")
	rec.FeeLevelDescriptor = p.raw(116, 131, "feeLevelDescriptor")
	rec.CrDbNetIndicator = p.raw(132, 132, "crDbNetIndicator")
	rec.SummaryLevel = p.raw(133, 134, "summaryLevel")
	rec.ReimbursementAttr = p.optional(168, 168)

	if !rec.IsValid {
		return rec, field.NewMalformed(field.FormatSubGroup4, lineNo, "record", "valid subgroup-4 TCR0 record", rec.firstError())
	}
	return rec, nil
}
