package models

import "fmt"

// StageResult is the structured outcome of one pipeline stage. Stages that
// partially fail still report how much of their work succeeded; only
// unexpected conditions propagate as errors
type StageResult struct {
	Stage     string `json:"stage"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// NewStageResult creates a successful stage result with a formatted message
func NewStageResult(stage, format string, args ...interface{}) StageResult {
	return StageResult{
		Stage:   stage,
		Success: true,
		Message: fmt.Sprintf(format, args...),
	}
}

// Check status constants
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// ValidationCheck is a single graph validation check outcome
type ValidationCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // pass, warn or fail
	Count  int    `json:"count"`
	Detail string `json:"detail"`
}

// ValidationReport is the full set of validation check outcomes for a built
// graph. The validator never aborts the pipeline; callers inspect the report
type ValidationReport struct {
	Checks []ValidationCheck `json:"checks"`
}

// Add appends a check outcome to the report
func (r *ValidationReport) Add(name, status string, count int, format string, args ...interface{}) {
	r.Checks = append(r.Checks, ValidationCheck{
		Name:   name,
		Status: status,
		Count:  count,
		Detail: fmt.Sprintf(format, args...),
	})
}

// HasFailures reports whether any check failed outright
func (r *ValidationReport) HasFailures() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// WarnCount returns the number of checks that produced warnings
func (r *ValidationReport) WarnCount() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == StatusWarn {
			n++
		}
	}
	return n
}
