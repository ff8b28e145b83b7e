package report

// Code-to-label tables for report presentation. Unknown codes pass through
// as their raw value.

var businessModeLabels = map[string]string{
	"1": "Acquirer",
	"2": "Issuer",
	"3": "Other",
	"9": "Total",
}

var amountTypeLabels = map[string]string{
	"I": "Interchange",
	"F": "Reimbursement Fees",
	"C": "Visa Charges",
	"T": "Total",
}

var cycleLabels = map[string]string{
	"0": "Total",
	"1": "Originals",
	"2": "Chargebacks",
	"3": "Representments",
	"4": "Chargeback Reversals",
	"5": "Adjustments",
	"6": "Reversals",
	"7": "Disputes",
	"8": "Other",
}

var jurisdictionLabels = map[string]string{
	"00": "International",
	"01": "US Domestic",
	"02": "Canada Domestic",
	"03": "Europe Domestic",
	"04": "Asia-Pacific Domestic",
	"05": "Latin America Domestic",
	"06": "CEMEA Domestic",
	"07": "Intraregional US",
	"08": "Intraregional Canada",
	"09": "Intraregional Europe",
	"10": "Intraregional Asia-Pacific",
	"11": "Intraregional Latin America",
}

var regionLabels = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"EU": "Europe",
	"AP": "Asia-Pacific",
	"LA": "Latin America",
	"ME": "Middle East/Africa",
}

var countryLabels = map[string]string{
	"USA": "United States",
	"CAN": "Canada",
	"GBR": "United Kingdom",
	"FRA": "France",
	"DEU": "Germany",
	"ESP": "Spain",
	"ITA": "Italy",
	"NLD": "Netherlands",
	"BEL": "Belgium",
	"PRT": "Portugal",
	"IRL": "Ireland",
	"AUT": "Austria",
	"CHE": "Switzerland",
	"POL": "Poland",
	"SWE": "Sweden",
	"NOR": "Norway",
	"DNK": "Denmark",
	"FIN": "Finland",
	"GRC": "Greece",
	"TUR": "Turkey",
	"RUS": "Russia",
	"AUS": "Australia",
	"NZL": "New Zealand",
	"JPN": "Japan",
	"CHN": "China",
	"HKG": "Hong Kong",
	"SGP": "Singapore",
	"KOR": "South Korea",
	"IND": "India",
	"BRA": "Brazil",
	"ARG": "Argentina",
	"MEX": "Mexico",
	"CHL": "Chile",
	"COL": "Colombia",
	"ZAF": "South Africa",
	"ARE": "United Arab Emirates",
	"SAU": "Saudi Arabia",
	"ISR": "Israel",
	"EGY": "Egypt",
}

func labelOr(table map[string]string, code string) string {
	if label, ok := table[code]; ok {
		return label
	}
	return code
}

// AmountTypeLabel resolves a VSS-110 amount type code.
func AmountTypeLabel(code string) string { return labelOr(amountTypeLabels, code) }

// BusinessModeLabel resolves a business mode code.
func BusinessModeLabel(code string) string { return labelOr(businessModeLabels, code) }

// CycleLabel resolves a business transaction cycle code.
func CycleLabel(code string) string { return labelOr(cycleLabels, code) }

// JurisdictionLabel resolves a jurisdiction code.
func JurisdictionLabel(code string) string { return labelOr(jurisdictionLabels, code) }

// RegionLabel resolves a region code.
func RegionLabel(code string) string { return labelOr(regionLabels, code) }

// CountryLabel resolves a country code.
func CountryLabel(code string) string { return labelOr(countryLabels, code) }

// RoutingLabel builds the source-to-destination routing label. Region codes
// win when both sides carry one; otherwise the country codes are used.
func RoutingLabel(sourceRegion, destRegion, sourceCountry, destCountry string) string {
	if sourceRegion != "" && destRegion != "" {
		return RegionLabel(sourceRegion) + " - " + RegionLabel(destRegion)
	}
	return CountryLabel(sourceCountry) + " - " + CountryLabel(destCountry)
}
