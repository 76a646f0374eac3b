package domain

import (
	"sort"
	"strings"
)

// Country catalog: the Spanish-speaking countries plus the United States.
// Static reference data, loaded once, never mutated.
var countryCatalog = []Country{
	{Code: "co", Name: "Colombia"},
	{Code: "ar", Name: "Argentina"},
	{Code: "bo", Name: "Bolivia"},
	{Code: "cl", Name: "Chile"},
	{Code: "cr", Name: "Costa Rica"},
	{Code: "cu", Name: "Cuba"},
	{Code: "do", Name: "República Dominicana"},
	{Code: "ec", Name: "Ecuador"},
	{Code: "sv", Name: "El Salvador"},
	{Code: "es", Name: "España"},
	{Code: "us", Name: "United States"},
	{Code: "gt", Name: "Guatemala"},
	{Code: "gq", Name: "Guinea Ecuatorial"},
	{Code: "hn", Name: "Honduras"},
	{Code: "mx", Name: "México"},
	{Code: "ni", Name: "Nicaragua"},
	{Code: "pa", Name: "Panamá"},
	{Code: "py", Name: "Paraguay"},
	{Code: "pe", Name: "Perú"},
	{Code: "pr", Name: "Puerto Rico"},
	{Code: "uy", Name: "Uruguay"},
	{Code: "ve", Name: "Venezuela"},
}

// Countries returns the catalog deduplicated by code and sorted by name.
func Countries() []Country {
	seen := make(map[string]bool, len(countryCatalog))
	out := make([]Country, 0, len(countryCatalog))
	for _, c := range countryCatalog {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CountryByCode looks up a country in the built-in catalog. The second return
// is false for unknown codes.
func CountryByCode(code string) (Country, bool) {
	return CountryIn(countryCatalog, code)
}

// CountryIn looks up a country case-insensitively in an arbitrary catalog,
// such as a configured override of the built-in one.
func CountryIn(catalog []Country, code string) (Country, bool) {
	for _, c := range catalog {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}
