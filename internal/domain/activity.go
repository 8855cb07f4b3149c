package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityStatus is the execution state of an activity.
type ActivityStatus string

// ActivityStatusPlanned and related constants enumerate activity states.
const (
	ActivityStatusPlanned   ActivityStatus = "planned"
	ActivityStatusOngoing   ActivityStatus = "ongoing"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

// ActivityStatuses lists activity states in display order.
func ActivityStatuses() []ActivityStatus {
	return []ActivityStatus{
		ActivityStatusPlanned,
		ActivityStatusOngoing,
		ActivityStatusCompleted,
		ActivityStatusCancelled,
	}
}

// IsValidActivityStatus reports whether status is a known activity state.
func IsValidActivityStatus(status ActivityStatus) bool {
	for _, s := range ActivityStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Activity is one executed or planned action under a project.
// ProjectName, ProgramID and ProgramName are read-side joins filled by repositories.
type Activity struct {
	ID           string
	ProjectID    string
	ProjectName  string
	ProgramID    string
	ProgramName  string
	Name         string
	Type         string
	Status       ActivityStatus
	Participants int
	Progress     float64
	Budget       decimal.Decimal
	ActualCost   decimal.Decimal
	Location     string
	StartDate    *time.Time
	EndDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActivityInput holds constructor values for NewActivity.
type ActivityInput struct {
	ID           string
	ProjectID    string
	Name         string
	Type         string
	Status       ActivityStatus
	Participants int
	Progress     float64
	Budget       decimal.Decimal
	ActualCost   decimal.Decimal
	Location     string
	StartDate    *time.Time
	EndDate      *time.Time
}

// NewActivity constructs a validated activity.
func NewActivity(in ActivityInput, now time.Time) (Activity, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" {
		return Activity{}, ErrInvalidID
	}
	if in.ProjectID == "" {
		return Activity{}, ErrInvalidReference
	}
	if in.Name == "" {
		return Activity{}, ErrInvalidName
	}
	if in.Status == "" {
		in.Status = ActivityStatusPlanned
	}
	in.Status = ActivityStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	if !IsValidActivityStatus(in.Status) {
		return Activity{}, ErrInvalidStatus
	}
	if in.Participants < 0 {
		return Activity{}, ErrInvalidAmount
	}
	if in.Progress < 0 || in.Progress > 100 {
		return Activity{}, ErrInvalidProgress
	}
	if in.Budget.IsNegative() || in.ActualCost.IsNegative() {
		return Activity{}, ErrInvalidAmount
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return Activity{}, err
	}
	return Activity{
		ID:           in.ID,
		ProjectID:    in.ProjectID,
		Name:         in.Name,
		Type:         strings.TrimSpace(in.Type),
		Status:       in.Status,
		Participants: in.Participants,
		Progress:     in.Progress,
		Budget:       in.Budget,
		ActualCost:   in.ActualCost,
		Location:     strings.TrimSpace(in.Location),
		StartDate:    utcPtr(in.StartDate),
		EndDate:      utcPtr(in.EndDate),
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}
