package report

import (
	"strings"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Vss120Report groups interchange value totals by business mode, business
// transaction type and cycle/rate-table leaf.
type Vss120Report struct {
	Modes  []*Vss120Mode `json:"modes"`
	Totals Amounts       `json:"totals"`
}

type Vss120Mode struct {
	Code   string        `json:"code"`
	Label  string        `json:"label"`
	Types  []*Vss120Type `json:"transaction_types"`
	Totals Amounts       `json:"totals"`
}

type Vss120Type struct {
	Code   string         `json:"code"`
	Cycles []*Vss120Cycle `json:"cycles"`
	Totals Amounts        `json:"totals"`
}

type Vss120Cycle struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	RateTableID string  `json:"rate_table_id"`
	Totals      Amounts `json:"totals"`
}

// BuildVss120Report folds joined TCR0/TCR1 pairs into the VSS-120 tree.
// Parents arrive ordered by (mode, type, cycle); grouping preserves that
// order by first appearance.
func BuildVss120Report(joined []recorddb.JoinedSubGroup4) *Vss120Report {
	r := &Vss120Report{Totals: zeroAmounts()}
	modes := make(map[string]*Vss120Mode)

	for _, j := range joined {
		mode := strings.TrimSpace(j.Record.BusinessMode)
		txType := strings.TrimSpace(j.Record.BusinessTransactionType)
		cycle := strings.TrimSpace(j.Record.BusinessTransactionCycle)

		for _, child := range j.Children {
			amounts := tcr1Amounts(child)
			rateTable := strings.TrimSpace(child.RateTableID)

			m, ok := modes[mode]
			if !ok {
				m = &Vss120Mode{Code: mode, Label: BusinessModeLabel(mode), Totals: zeroAmounts()}
				modes[mode] = m
				r.Modes = append(r.Modes, m)
			}

			var t *Vss120Type
			for _, existing := range m.Types {
				if existing.Code == txType {
					t = existing
					break
				}
			}
			if t == nil {
				t = &Vss120Type{Code: txType, Totals: zeroAmounts()}
				m.Types = append(m.Types, t)
			}

			var c *Vss120Cycle
			for _, existing := range t.Cycles {
				if existing.Code == cycle && existing.RateTableID == rateTable {
					c = existing
					break
				}
			}
			if c == nil {
				c = &Vss120Cycle{Code: cycle, Label: CycleLabel(cycle), RateTableID: rateTable, Totals: zeroAmounts()}
				t.Cycles = append(t.Cycles, c)
			}

			c.Totals.Add(amounts)
			t.Totals.Add(amounts)
			m.Totals.Add(amounts)
			r.Totals.Add(amounts)
		}
	}
	return r
}
