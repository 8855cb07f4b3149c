package domain

import (
	"strings"
	"time"
)

// Stakeholder is a party affected by or influencing CSR programs.
type Stakeholder struct {
	ID           string
	Name         string
	Type         string
	CategoryID   string
	CategoryName string
	Importance   string
	Influence    string
	Relationship string
	ProgramIDs   []string
	ActivityIDs  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StakeholderInput holds constructor values for NewStakeholder.
type StakeholderInput struct {
	ID           string
	Name         string
	Type         string
	CategoryID   string
	Importance   string
	Influence    string
	Relationship string
	ProgramIDs   []string
	ActivityIDs  []string
}

// NewStakeholder constructs a validated stakeholder.
func NewStakeholder(in StakeholderInput, now time.Time) (Stakeholder, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" {
		return Stakeholder{}, ErrInvalidID
	}
	if in.Name == "" {
		return Stakeholder{}, ErrInvalidName
	}
	return Stakeholder{
		ID:           in.ID,
		Name:         in.Name,
		Type:         strings.TrimSpace(in.Type),
		CategoryID:   strings.TrimSpace(in.CategoryID),
		Importance:   strings.ToLower(strings.TrimSpace(in.Importance)),
		Influence:    strings.ToLower(strings.TrimSpace(in.Influence)),
		Relationship: strings.ToLower(strings.TrimSpace(in.Relationship)),
		ProgramIDs:   normalizeIDs(in.ProgramIDs),
		ActivityIDs:  normalizeIDs(in.ActivityIDs),
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}
