package report

import (
	"strings"

	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Vss140Report groups charge totals five levels deep: business mode, charge
// type, transaction type, cycle, then jurisdiction with routing leaves.
type Vss140Report struct {
	Modes  []*Vss140Mode `json:"modes"`
	Totals Amounts       `json:"totals"`
}

type Vss140Mode struct {
	Code        string              `json:"code"`
	Label       string              `json:"label"`
	ChargeTypes []*Vss140ChargeType `json:"charge_types"`
	Totals      Amounts             `json:"totals"`
}

type Vss140ChargeType struct {
	Code   string        `json:"code"`
	Types  []*Vss140Type `json:"transaction_types"`
	Totals Amounts       `json:"totals"`
}

type Vss140Type struct {
	Code   string         `json:"code"`
	Cycles []*Vss140Cycle `json:"cycles"`
	Totals Amounts        `json:"totals"`
}

type Vss140Cycle struct {
	Code          string                `json:"code"`
	Label         string                `json:"label"`
	Jurisdictions []*Vss140Jurisdiction `json:"jurisdictions"`
	Totals        Amounts               `json:"totals"`
}

type Vss140Jurisdiction struct {
	Code     string           `json:"code"`
	Label    string           `json:"label"`
	Routings []*Vss140Routing `json:"routings"`
	Totals   Amounts          `json:"totals"`
}

type Vss140Routing struct {
	Label  string  `json:"label"`
	Totals Amounts `json:"totals"`
}

// BuildVss140Report folds joined TCR0/TCR1 pairs into the VSS-140 tree.
func BuildVss140Report(joined []recorddb.JoinedSubGroup4) *Vss140Report {
	r := &Vss140Report{Totals: zeroAmounts()}
	modes := make(map[string]*Vss140Mode)

	for _, j := range joined {
		rec := j.Record
		mode := strings.TrimSpace(rec.BusinessMode)
		chargeType := strings.TrimSpace(rec.ChargeTypeCode)
		txType := strings.TrimSpace(rec.BusinessTransactionType)
		cycle := strings.TrimSpace(rec.BusinessTransactionCycle)
		jurisdiction := strings.TrimSpace(rec.JurisdictionCode)
		routing := RoutingLabel(
			strings.TrimSpace(rec.SourceRegionCode), strings.TrimSpace(rec.DestinationRegionCode),
			strings.TrimSpace(rec.SourceCountryCode), strings.TrimSpace(rec.DestinationCountryCode))

		for _, child := range j.Children {
			amounts := tcr1Amounts(child)

			m, ok := modes[mode]
			if !ok {
				m = &Vss140Mode{Code: mode, Label: BusinessModeLabel(mode), Totals: zeroAmounts()}
				modes[mode] = m
				r.Modes = append(r.Modes, m)
			}

			var ct *Vss140ChargeType
			for _, existing := range m.ChargeTypes {
				if existing.Code == chargeType {
					ct = existing
					break
				}
			}
			if ct == nil {
				ct = &Vss140ChargeType{Code: chargeType, Totals: zeroAmounts()}
				m.ChargeTypes = append(m.ChargeTypes, ct)
			}

			var t *Vss140Type
			for _, existing := range ct.Types {
				if existing.Code == txType {
					t = existing
					break
				}
			}
			if t == nil {
				t = &Vss140Type{Code: txType, Totals: zeroAmounts()}
				ct.Types = append(ct.Types, t)
			}

			var c *Vss140Cycle
			for _, existing := range t.Cycles {
				if existing.Code == cycle {
					c = existing
					break
				}
			}
			if c == nil {
				c = &Vss140Cycle{Code: cycle, Label: CycleLabel(cycle), Totals: zeroAmounts()}
				t.Cycles = append(t.Cycles, c)
			}

			var jur *Vss140Jurisdiction
			for _, existing := range c.Jurisdictions {
				if existing.Code == jurisdiction {
					jur = existing
					break
				}
			}
			if jur == nil {
				jur = &Vss140Jurisdiction{Code: jurisdiction, Label: JurisdictionLabel(jurisdiction), Totals: zeroAmounts()}
				c.Jurisdictions = append(c.Jurisdictions, jur)
			}

			var route *Vss140Routing
			for _, existing := range jur.Routings {
				if existing.Label == routing {
					route = existing
					break
				}
			}
			if route == nil {
				route = &Vss140Routing{Label: routing, Totals: zeroAmounts()}
				jur.Routings = append(jur.Routings, route)
			}

			route.Totals.Add(amounts)
			jur.Totals.Add(amounts)
			c.Totals.Add(amounts)
			t.Totals.Add(amounts)
			ct.Totals.Add(amounts)
			m.Totals.Add(amounts)
			r.Totals.Add(amounts)
		}
	}
	return r
}
