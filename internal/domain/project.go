package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Project is a sub-program that groups activities and budgets under one program.
type Project struct {
	ID         string
	ProgramID  string
	Name       string
	Status     ProgramStatus
	Progress   float64
	Budget     decimal.Decimal
	ActualCost decimal.Decimal
	StartDate  *time.Time
	EndDate    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectInput holds constructor values for NewProject.
type ProjectInput struct {
	ID         string
	ProgramID  string
	Name       string
	Status     ProgramStatus
	Progress   float64
	Budget     decimal.Decimal
	ActualCost decimal.Decimal
	StartDate  *time.Time
	EndDate    *time.Time
}

// NewProject constructs a validated sub-program.
func NewProject(in ProjectInput, now time.Time) (Project, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProgramID = strings.TrimSpace(in.ProgramID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" {
		return Project{}, ErrInvalidID
	}
	if in.ProgramID == "" {
		return Project{}, ErrInvalidReference
	}
	if in.Name == "" {
		return Project{}, ErrInvalidName
	}
	if in.Status == "" {
		in.Status = ProgramStatusDraft
	}
	if !IsValidProgramStatus(in.Status) {
		return Project{}, ErrInvalidStatus
	}
	if in.Progress < 0 || in.Progress > 100 {
		return Project{}, ErrInvalidProgress
	}
	if in.Budget.IsNegative() || in.ActualCost.IsNegative() {
		return Project{}, ErrInvalidAmount
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return Project{}, err
	}
	return Project{
		ID:         in.ID,
		ProgramID:  in.ProgramID,
		Name:       in.Name,
		Status:     in.Status,
		Progress:   in.Progress,
		Budget:     in.Budget,
		ActualCost: in.ActualCost,
		StartDate:  utcPtr(in.StartDate),
		EndDate:    utcPtr(in.EndDate),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}
