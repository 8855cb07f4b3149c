package domain

import (
	"strings"
	"time"
)

// Scope optionally restricts a computation to one program or one department.
// ProgramID takes precedence when both are set.
type Scope struct {
	ProgramID    string `json:"programId,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
}

// Normalize trims identifiers.
func (s Scope) Normalize() Scope {
	return Scope{
		ProgramID:    strings.TrimSpace(s.ProgramID),
		DepartmentID: strings.TrimSpace(s.DepartmentID),
	}
}

// IsProgram reports whether the scope selects a single program.
func (s Scope) IsProgram() bool {
	return strings.TrimSpace(s.ProgramID) != ""
}

// IsDepartment reports whether the scope selects one department (and no program).
func (s Scope) IsDepartment() bool {
	return !s.IsProgram() && strings.TrimSpace(s.DepartmentID) != ""
}

// TimeWindow is a half-open creation-time window [From, Until). Nil bounds are open.
type TimeWindow struct {
	From  *time.Time
	Until *time.Time
}

// NewTimeWindow builds a closed-bound window from two instants.
func NewTimeWindow(from, until time.Time) TimeWindow {
	f := from.UTC()
	u := until.UTC()
	return TimeWindow{From: &f, Until: &u}
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.Until != nil && !t.Before(*w.Until) {
		return false
	}
	return true
}

// Valid reports whether the window bounds are ordered.
func (w TimeWindow) Valid() bool {
	if w.From == nil || w.Until == nil {
		return true
	}
	return !w.Until.Before(*w.From)
}

// RecordFilter selects operational records by scope and creation window.
type RecordFilter struct {
	Scope  Scope
	Window TimeWindow
}
