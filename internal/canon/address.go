// Package canon normalizes postal addresses into stable cache keys.
package canon

import (
	"regexp"
	"strings"
)

var rePunct = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// Address is a normalized US street address.
type Address struct {
	Line1 string
	City  string
	State string
	Zip   string
}

// Normalize upper-cases, strips punctuation and unit designators, applies
// USPS suffix abbreviations and trims ZIP+4 down to five digits.
func Normalize(line1, city, state, zip string) Address {
	n1 := strings.ToUpper(strings.TrimSpace(line1))
	n1 = stripUnit(n1)
	n1 = rePunct.ReplaceAllString(n1, " ")
	n1 = abbreviateSuffix(collapseSpaces(n1))

	st := strings.ToUpper(strings.TrimSpace(state))
	if len(st) > 2 {
		st = stateAbbrev(collapseSpaces(st))
	}
	return Address{
		Line1: n1,
		City:  collapseSpaces(rePunct.ReplaceAllString(strings.ToUpper(city), " ")),
		State: st,
		Zip:   trimZIP(zip),
	}
}

// Key identifies the parcel; units share their building's key.
func (a Address) Key() string {
	return strings.ToLower(a.Line1 + "|" + a.City + "|" + a.State + "|" + a.Zip)
}

// Empty reports whether there is nothing to geocode.
func (a Address) Empty() bool { return a.Line1 == "" && a.City == "" && a.Zip == "" }

// String renders a single-line address suitable for a geocoder.
func (a Address) String() string {
	parts := make([]string, 0, 3)
	if a.Line1 != "" {
		parts = append(parts, a.Line1)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	tail := strings.TrimSpace(a.State + " " + a.Zip)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimZIP(z string) string {
	z = strings.TrimSpace(z)
	if len(z) >= 5 {
		return z[:5]
	}
	return z
}

func stripUnit(s string) string {
	up := " " + s + " "
	for _, t := range []string{" APT ", " UNIT ", " STE ", " SUITE ", " #"} {
		if i := strings.Index(up, t); i >= 0 {
			return strings.TrimSpace(up[:i])
		}
	}
	return strings.TrimSpace(s)
}

var suffixes = map[string]string{
	"STREET":    "ST",
	"ROAD":      "RD",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"LANE":      "LN",
	"COURT":     "CT",
	"CIRCLE":    "CIR",
	"TERRACE":   "TER",
	"PLACE":     "PL",
	"PARKWAY":   "PKWY",
	"HIGHWAY":   "HWY",
	"TRAIL":     "TRL",
	"COVE":      "CV",
}

// abbreviateSuffix works per token so "STREETER" is left alone.
func abbreviateSuffix(s string) string {
	toks := strings.Fields(s)
	for i, t := range toks {
		if i == 0 {
			continue
		}
		if v, ok := suffixes[t]; ok {
			toks[i] = v
		}
	}
	return strings.Join(toks, " ")
}

var states = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR", "CALIFORNIA": "CA",
	"COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE", "FLORIDA": "FL", "GEORGIA": "GA",
	"HAWAII": "HI", "IDAHO": "ID", "ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA",
	"KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME", "MARYLAND": "MD",
	"MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN", "MISSISSIPPI": "MS", "MISSOURI": "MO",
	"MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV", "NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ",
	"NEW MEXICO": "NM", "NEW YORK": "NY", "NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH",
	"OKLAHOMA": "OK", "OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC",
	"SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT", "VERMONT": "VT",
	"VIRGINIA": "VA", "WASHINGTON": "WA", "WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
	"DISTRICT OF COLUMBIA": "DC",
}

func stateAbbrev(s string) string {
	if v, ok := states[s]; ok {
		return v
	}
	return s
}
