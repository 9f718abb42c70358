package domain

import (
	"fmt"
	"strings"
)

// MissingFieldsError is returned when required canonical columns cannot be resolved.
type MissingFieldsError struct {
	Fields    []string
	Available []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// InvalidQuantityError lists rows whose Qty is not a non-negative whole number.
type InvalidQuantityError struct {
	Rows   []int
	Values []string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity column contains non-numeric values at rows %v: %q", e.Rows, e.Values)
}

// InvalidDateError lists rows whose Sale Date matched none of the accepted layouts.
type InvalidDateError struct {
	Rows   []int
	Values []string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid sale date values at rows %v: %q", e.Rows, e.Values)
}

// InvalidValueError lists rows where a required text field is blank.
type InvalidValueError struct {
	Field string
	Rows  []int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("empty %s values at rows %v", e.Field, e.Rows)
}

// EmptyDatasetError is returned when there is no data to train or forecast from.
type EmptyDatasetError struct{}

func (e *EmptyDatasetError) Error() string {
	return "no data available: dataset is empty"
}

// NotFoundError is returned when a company cannot be resolved.
type NotFoundError struct {
	Company string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("company %q not found", e.Company)
}

// InvalidFrequencyError is returned for frequencies other than Daily, Weekly or Monthly.
type InvalidFrequencyError struct {
	Value string
}

func (e *InvalidFrequencyError) Error() string {
	return fmt.Sprintf("invalid frequency %q, must be Daily, Weekly, or Monthly", e.Value)
}

// ModelNotTrainedError is returned when a forecast is requested before any successful training.
type ModelNotTrainedError struct{}

func (e *ModelNotTrainedError) Error() string {
	return "model not trained, upload data first"
}

// HorizonTooLongError is returned when a forecast range exceeds the configured cap.
type HorizonTooLongError struct {
	Days int
	Max  int
}

func (e *HorizonTooLongError) Error() string {
	return fmt.Sprintf("forecast range of %d days exceeds the maximum of %d", e.Days, e.Max)
}

// InvalidArgumentError is returned when a request parameter is missing or malformed.
type InvalidArgumentError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Name, e.Value, e.Reason)
}
