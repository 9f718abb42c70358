package domain

import "strings"

var frequencies = map[string]Frequency{
	"daily":   FrequencyDaily,
	"weekly":  FrequencyWeekly,
	"monthly": FrequencyMonthly,
}

// ParseFrequency returns the frequency for a given label (case-insensitive).
func ParseFrequency(label string) (Frequency, error) {
	if f, ok := frequencies[strings.ToLower(strings.TrimSpace(label))]; ok {
		return f, nil
	}

	return "", &InvalidFrequencyError{Value: label}
}

// ExportName is the workbook name used when a forecast of this frequency is exported.
func (f Frequency) ExportName() string {
	return "forecasting_" + strings.ToLower(string(f)) + ".xlsx"
}
