package domain

import (
	"strings"
	"time"
)

// Department is an organizational unit that owns programs and budgets.
type Department struct {
	ID        string
	Name      string
	Code      string
	CreatedAt time.Time
}

// Category classifies programs.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// StakeholderCategory classifies stakeholders.
type StakeholderCategory struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// NewDepartment constructs a validated department.
func NewDepartment(id, name, code string, now time.Time) (Department, error) {
	id, name, err := validateReference(id, name)
	if err != nil {
		return Department{}, err
	}
	return Department{ID: id, Name: name, Code: strings.TrimSpace(code), CreatedAt: now.UTC()}, nil
}

// NewCategory constructs a validated program category.
func NewCategory(id, name string, now time.Time) (Category, error) {
	id, name, err := validateReference(id, name)
	if err != nil {
		return Category{}, err
	}
	return Category{ID: id, Name: name, CreatedAt: now.UTC()}, nil
}

// NewStakeholderCategory constructs a validated stakeholder category.
func NewStakeholderCategory(id, name string, now time.Time) (StakeholderCategory, error) {
	id, name, err := validateReference(id, name)
	if err != nil {
		return StakeholderCategory{}, err
	}
	return StakeholderCategory{ID: id, Name: name, CreatedAt: now.UTC()}, nil
}

func validateReference(id, name string) (string, string, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return "", "", ErrInvalidID
	}
	if name == "" {
		return "", "", ErrInvalidName
	}
	return id, name, nil
}

// validateDates rejects inverted optional date pairs.
func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}

// utcPtr normalizes one optional timestamp to UTC.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// normalizeIDs trims, drops empties, and de-duplicates id lists preserving order.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
