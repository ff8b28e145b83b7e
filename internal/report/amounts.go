// Package report implements the settlement report aggregators: the VSS-110
// stats tree and the VSS-120/130/140 nested reports. Builders are pure
// functions over store query results; amounts stay signed while folding and
// are emitted as absolute value plus CR/DB sign.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/openclearing/epinflow/internal/epin"
	"github.com/openclearing/epinflow/internal/epin/field"
)

// Amounts is the numeric aggregate carried by every report tree level.
// All four amounts are signed; the emitted net is reconstructed from Net.
type Amounts struct {
	Count    int64           `json:"count"`
	Clearing decimal.Decimal `json:"clearing_amount"`
	Credits  decimal.Decimal `json:"credits_amount"`
	Debits   decimal.Decimal `json:"debits_amount"`
	Net      decimal.Decimal `json:"-"`
}

func zeroAmounts() Amounts {
	z := decimal.New(0, -2)
	return Amounts{Clearing: z, Credits: z, Debits: z, Net: z}
}

// Add folds another aggregate into this one. Addition of signed amounts is
// what makes the report trees associative over input partitions.
func (a *Amounts) Add(b Amounts) {
	a.Count += b.Count
	a.Clearing = a.Clearing.Add(b.Clearing)
	a.Credits = a.Credits.Add(b.Credits)
	a.Debits = a.Debits.Add(b.Debits)
	a.Net = a.Net.Add(b.Net)
}

// AbsNet is the emitted net amount.
func (a Amounts) AbsNet() decimal.Decimal {
	return a.Net.Abs()
}

// NetSign is the emitted net indicator: CR for a non-negative net, DB for a
// negative one.
func (a Amounts) NetSign() field.Sign {
	if a.Net.Sign() < 0 {
		return field.SignDebit
	}
	return field.SignCredit
}

// tcr1Amounts derives the leaf aggregate from one TCR1 amount row:
// the clearing amount keeps its own sign, credits default to CR, debits
// default to DB, and net is credits minus debits.
func tcr1Amounts(rec *epin.Tcr1Record) Amounts {
	a := Amounts{Count: rec.FirstCount}
	a.Clearing = rec.FirstAmountSign.Apply(rec.FirstAmount)

	if rec.SecondAmountSign == field.SignDebit {
		a.Credits = rec.SecondAmount.Neg()
	} else {
		a.Credits = rec.SecondAmount
	}

	if rec.ThirdAmountSign == field.SignCredit {
		a.Debits = rec.ThirdAmount.Neg()
	} else {
		a.Debits = rec.ThirdAmount
	}

	a.Net = a.Credits.Sub(a.Debits)
	return a
}
