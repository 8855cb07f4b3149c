package domain

import (
	"strings"
	"time"
)

// ProgramStatus is the lifecycle state of a CSR program.
type ProgramStatus string

// ProgramStatusDraft and related constants enumerate program states.
const (
	ProgramStatusDraft     ProgramStatus = "draft"
	ProgramStatusApproved  ProgramStatus = "approved"
	ProgramStatusActive    ProgramStatus = "active"
	ProgramStatusCompleted ProgramStatus = "completed"
	ProgramStatusCancelled ProgramStatus = "cancelled"
)

var validProgramStatuses = []ProgramStatus{
	ProgramStatusDraft,
	ProgramStatusApproved,
	ProgramStatusActive,
	ProgramStatusCompleted,
	ProgramStatusCancelled,
}

// IsValidProgramStatus reports whether status is a known program state.
func IsValidProgramStatus(status ProgramStatus) bool {
	for _, s := range validProgramStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Program is a top-level CSR program owned by a department.
type Program struct {
	ID                  string
	Name                string
	Description         string
	Status              ProgramStatus
	DepartmentID        string
	DepartmentName      string
	CategoryID          string
	CategoryName        string
	TargetBeneficiaries int
	StartDate           *time.Time
	EndDate             *time.Time
	StakeholderIDs      []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProgramInput holds constructor values for NewProgram.
type ProgramInput struct {
	ID                  string
	Name                string
	Description         string
	Status              ProgramStatus
	DepartmentID        string
	CategoryID          string
	TargetBeneficiaries int
	StartDate           *time.Time
	EndDate             *time.Time
	StakeholderIDs      []string
}

// NewProgram constructs a validated program.
func NewProgram(in ProgramInput, now time.Time) (Program, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	if in.ID == "" {
		return Program{}, ErrInvalidID
	}
	if in.Name == "" {
		return Program{}, ErrInvalidName
	}
	if in.DepartmentID == "" {
		return Program{}, ErrInvalidReference
	}
	if in.Status == "" {
		in.Status = ProgramStatusDraft
	}
	in.Status = ProgramStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	if !IsValidProgramStatus(in.Status) {
		return Program{}, ErrInvalidStatus
	}
	if in.TargetBeneficiaries < 0 {
		return Program{}, ErrInvalidAmount
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return Program{}, err
	}
	return Program{
		ID:                  in.ID,
		Name:                in.Name,
		Description:         strings.TrimSpace(in.Description),
		Status:              in.Status,
		DepartmentID:        in.DepartmentID,
		CategoryID:          strings.TrimSpace(in.CategoryID),
		TargetBeneficiaries: in.TargetBeneficiaries,
		StartDate:           utcPtr(in.StartDate),
		EndDate:             utcPtr(in.EndDate),
		StakeholderIDs:      normalizeIDs(in.StakeholderIDs),
		CreatedAt:           now.UTC(),
		UpdatedAt:           now.UTC(),
	}, nil
}
