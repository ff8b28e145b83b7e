package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/epin/field"
)

// Vss110Stats is the two-level stats tree over VSS-110 settlement rows:
// amount type buckets, each split by business mode.
type Vss110Stats struct {
	AmountTypes []*Vss110AmountType `json:"amount_types"`
}

type Vss110AmountType struct {
	Code  string        `json:"code"`
	Label string        `json:"label"`
	Modes []*Vss110Mode `json:"modes"`
}

type Vss110Mode struct {
	Code  string `json:"code"`
	Label string `json:"label"`

	CreditCount  int64           `json:"credit_count"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`

	// total keeps the signed sum; the emitted amount and sign derive from it.
	total decimal.Decimal
}

// TotalAmount is the emitted absolute total.
func (m *Vss110Mode) TotalAmount() decimal.Decimal {
	return m.total.Abs()
}

// TotalSign is CR for a positive total, DB for negative, empty for zero.
func (m *Vss110Mode) TotalSign() field.Sign {
	switch m.total.Sign() {
	case 1:
		return field.SignCredit
	case -1:
		return field.SignDebit
	}
	return field.SignNone
}

// Ordering for the fixed code sets; unknown codes sort after, alphabetically.
var (
	amountTypeOrder   = map[string]int{"I": 0, "F": 1, "C": 2, "T": 3}
	businessModeOrder = map[string]int{"1": 0, "2": 1, "3": 2, "9": 3}
)

func orderedCodes(codes []string, fixed map[string]int) []string {
	sort.SliceStable(codes, func(i, j int) bool {
		ri, iKnown := fixed[codes[i]]
		rj, jKnown := fixed[codes[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		}
		return codes[i] < codes[j]
	})
	return codes
}

// BuildVss110Stats folds VSS-110 rows into the stats tree. Flatten first,
// then fold: each row contributes one leaf delta, so the tree over a
// partition of rows equals the tree over their union.
func BuildVss110Stats(records []*epin.Vss110Record) *Vss110Stats {
	type leaf struct {
		count          int64
		credit, debit  decimal.Decimal
		total          decimal.Decimal
	}
	leaves := make(map[string]map[string]*leaf)

	for _, rec := range records {
		amountType := strings.TrimSpace(rec.AmountType)
		mode := strings.TrimSpace(rec.BusinessMode)

		byMode, ok := leaves[amountType]
		if !ok {
			byMode = make(map[string]*leaf)
			leaves[amountType] = byMode
		}
		l, ok := byMode[mode]
		if !ok {
			z := decimal.New(0, -2)
			l = &leaf{credit: z, debit: z, total: z}
			byMode[mode] = l
		}

		l.count += rec.TransactionCount
		l.credit = l.credit.Add(rec.CreditAmount)
		l.debit = l.debit.Add(rec.DebitAmount)
		l.total = l.total.Add(rec.SignedNet())
	}

	stats := &Vss110Stats{}
	typeCodes := make([]string, 0, len(leaves))
	for code := range leaves {
		typeCodes = append(typeCodes, code)
	}
	for _, typeCode := range orderedCodes(typeCodes, amountTypeOrder) {
		byMode := leaves[typeCode]
		bucket := &Vss110AmountType{Code: typeCode, Label: AmountTypeLabel(typeCode)}

		modeCodes := make([]string, 0, len(byMode))
		for code := range byMode {
			modeCodes = append(modeCodes, code)
		}
		for _, modeCode := range orderedCodes(modeCodes, businessModeOrder) {
			l := byMode[modeCode]
			bucket.Modes = append(bucket.Modes, &Vss110Mode{
				Code:         modeCode,
				Label:        BusinessModeLabel(modeCode),
				CreditCount:  l.count,
				CreditAmount: l.credit,
				DebitAmount:  l.debit,
				total:        l.total,
			})
		}
		stats.AmountTypes = append(stats.AmountTypes, bucket)
	}
	return stats
}
