package report

import (
	"strings"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Vss130Report groups reimbursement fee totals by business mode and
// transaction type, with a cycle/jurisdiction/routing/fee-level leaf.
type Vss130Report struct {
	Modes  []*Vss130Mode `json:"modes"`
	Totals Amounts       `json:"totals"`
}

type Vss130Mode struct {
	Code   string        `json:"code"`
	Label  string        `json:"label"`
	Types  []*Vss130Type `json:"transaction_types"`
	Totals Amounts       `json:"totals"`
}

type Vss130Type struct {
	Code   string        `json:"code"`
	Leaves []*Vss130Leaf `json:"leaves"`
	Totals Amounts       `json:"totals"`
}

type Vss130Leaf struct {
	CycleCode          string  `json:"cycle_code"`
	CycleLabel         string  `json:"cycle_label"`
	JurisdictionCode   string  `json:"jurisdiction_code"`
	JurisdictionLabel  string  `json:"jurisdiction_label"`
	Routing            string  `json:"routing"`
	FeeLevelDescriptor string  `json:"fee_level_descriptor"`
	Totals             Amounts `json:"totals"`
}

// BuildVss130Report folds joined TCR0/TCR1 pairs into the VSS-130 tree.
func BuildVss130Report(joined []recorddb.JoinedSubGroup4) *Vss130Report {
	r := &Vss130Report{Totals: zeroAmounts()}
	modes := make(map[string]*Vss130Mode)

	for _, j := range joined {
		rec := j.Record
		mode := strings.TrimSpace(rec.BusinessMode)
		txType := strings.TrimSpace(rec.BusinessTransactionType)
		cycle := strings.TrimSpace(rec.BusinessTransactionCycle)
		jurisdiction := strings.TrimSpace(rec.JurisdictionCode)
		fee := strings.TrimSpace(rec.FeeLevelDescriptor)
		routing := RoutingLabel(
			strings.TrimSpace(rec.SourceRegionCode), strings.TrimSpace(rec.DestinationRegionCode),
			strings.TrimSpace(rec.SourceCountryCode), strings.TrimSpace(rec.DestinationCountryCode))

		for _, child := range j.Children {
			amounts := tcr1Amounts(child)

			m, ok := modes[mode]
			if !ok {
				m = &Vss130Mode{Code: mode, Label: BusinessModeLabel(mode), Totals: zeroAmounts()}
				modes[mode] = m
				r.Modes = append(r.Modes, m)
			}

			var t *Vss130Type
			for _, existing := range m.Types {
				if existing.Code == txType {
					t = existing
					break
				}
			}
			if t == nil {
				t = &Vss130Type{Code: txType, Totals: zeroAmounts()}
				m.Types = append(m.Types, t)
			}

			var l *Vss130Leaf
			for _, existing := range t.Leaves {
				if existing.CycleCode == cycle && existing.JurisdictionCode == jurisdiction &&
					existing.Routing == routing && existing.FeeLevelDescriptor == fee {
					l = existing
					break
				}
			}
			if l == nil {
				l = &Vss130Leaf{
					CycleCode:          cycle,
					CycleLabel:         CycleLabel(cycle),
					JurisdictionCode:   jurisdiction,
					JurisdictionLabel:  JurisdictionLabel(jurisdiction),
					Routing:            routing,
					FeeLevelDescriptor: fee,
					Totals:             zeroAmounts(),
				}
				t.Leaves = append(t.Leaves, l)
			}

			l.Totals.Add(amounts)
			t.Totals.Add(amounts)
			m.Totals.Add(amounts)
			r.Totals.Add(amounts)
		}
	}
	return r
}
