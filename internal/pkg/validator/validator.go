package validator

import (
	"regexp"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// UUIDv7 regex: version 7 (the 15th character must be '7'), all lowercase hex digits.
var uuidv7Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// UUIDv7 validation
func IsValidUUID(uuid string) bool {
	return uuidv7Regex.MatchString(strings.ToLower(uuid))
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// Month validation, YYYY-MM
func IsValidMonth(monthStr string) (time.Time, bool) {
	month, err := time.Parse("2006-01", monthStr)
	return month, err == nil
}

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)

// Wall-clock validation, HH:MM or HH:MM:SS
func IsValidClock(clock string) bool {
	return clockRegex.MatchString(clock)
}

// DateRange validates a start/end pair and returns the parsed dates.
func DateRange(startStr, endStr string, maxDays int) (time.Time, time.Time, error) {
	var errs ValidationErrors
	start, okStart := IsValidDate(startStr)
	if !okStart {
		errs = append(errs, ValidationError{Field: "start", Message: "start must be YYYY-MM-DD"})
	}
	end, okEnd := IsValidDate(endStr)
	if !okEnd {
		errs = append(errs, ValidationError{Field: "end", Message: "end must be YYYY-MM-DD"})
	}
	if okStart && okEnd {
		if end.Before(start) {
			errs = append(errs, ValidationError{Field: "end", Message: "end must not precede start"})
		} else if maxDays > 0 && int(end.Sub(start).Hours()/24)+1 > maxDays {
			errs = append(errs, ValidationError{Field: "end", Message: "range is too long"})
		}
	}
	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return start, end, nil
}
