package domain

import "strings"

// Merge combines a base process with the customization matching countryCode,
// producing the view entity every display surface renders from. With no
// country or no match it returns the base process with no active
// customization marker. The function is pure: the input is never mutated and
// identical arguments always yield deep-equal results.
func Merge(p Process, countryCode string) Process {
	out := p.Clone()
	out.ActiveCustomization = nil
	if countryCode == "" {
		return out
	}
	// Codes are matched case-insensitively ("co" vs "CO" both occur upstream).
	for _, c := range out.Customizations {
		if strings.EqualFold(c.CountryCode, countryCode) {
			cc := c.Clone()
			out.Inputs = CloneItems(cc.Inputs)
			out.Tools = CloneItems(cc.Tools)
			out.Outputs = CloneItems(cc.Outputs)
			out.ActiveCustomization = &cc
			return out
		}
	}
	return out
}
