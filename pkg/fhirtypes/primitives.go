package fhirtypes

import (
	"regexp"
	"strings"
)

var (
	instantRegex  = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[012])-(0[1-9]|[12]\d|3[01])T([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?(Z|[+-]((0\d|1[0-3]):[0-5]\d|14:00))$`)
	dateRegex     = regexp.MustCompile(`^(\d{4})(-(0[1-9]|1[012])(-(0[1-9]|[12]\d|3[01]))?)?$`)
	dateTimeRegex = regexp.MustCompile(`^(\d{4})(-(0[1-9]|1[012])(-(0[1-9]|[12]\d|3[01])(T([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?(Z|[+-]((0\d|1[0-3]):[0-5]\d|14:00))?)?)?)?$`)
	timeRegex     = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?$`)
)

// IsTemporalType reports whether code is one of the date and time primitives.
func IsTemporalType(code string) bool {
	switch code {
	case "date", "dateTime", "instant", "time":
		return true
	}
	return false
}

// ValidTemporal checks s against the grammar of the temporal primitive code.
// Non-temporal codes always validate.
func ValidTemporal(code, s string) bool {
	switch code {
	case "date":
		return dateRegex.MatchString(s)
	case "dateTime":
		return dateTimeRegex.MatchString(s)
	case "instant":
		return instantRegex.MatchString(s)
	case "time":
		return timeRegex.MatchString(s)
	}
	return true
}

// IsUTCDateTime reports whether s is a dateTime with a time component
// expressed in UTC ("Z" or "+00:00").
func IsUTCDateTime(s string) bool {
	if !dateTimeRegex.MatchString(s) || !strings.Contains(s, "T") {
		return false
	}
	return strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "+00:00")
}
