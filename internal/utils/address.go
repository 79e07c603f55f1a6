package utils

import (
	"regexp"
	"strings"
)

var (
	// "和平東路100號5樓" -> "和平東路100號"
	floorSuffixRe = regexp.MustCompile(`\d+樓.*`)
	// "和平東路100號" -> "和平東路"
	houseNumberRe = regexp.MustCompile(`\d+號.*`)
)

// StripFloorSuffix removes a trailing floor designation (e.g. "5樓之2") from a
// street string.
func StripFloorSuffix(street string) string {
	return strings.TrimSpace(floorSuffixRe.ReplaceAllString(street, ""))
}

// StripHouseNumber removes the house number and everything after it, leaving
// only the road name and section.
func StripHouseNumber(street string) string {
	return strings.TrimSpace(houseNumberRe.ReplaceAllString(street, ""))
}

// NormalizeCityName folds the two equivalent spellings of administrative city
// names (臺北市 / 台北市) onto one form so they compare equal.
func NormalizeCityName(name string) string {
	return strings.ReplaceAll(name, "臺", "台")
}

// ContainsCity reports whether a geocoder display name mentions the requested
// city, tolerating the 臺/台 spelling difference.
func ContainsCity(displayName, city string) bool {
	if city == "" {
		return false
	}
	return strings.Contains(NormalizeCityName(displayName), NormalizeCityName(city))
}
