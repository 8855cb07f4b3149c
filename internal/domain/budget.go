package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the approval state of a budget line.
type BudgetStatus string

// BudgetStatusDraft and related constants enumerate budget states.
const (
	BudgetStatusDraft    BudgetStatus = "draft"
	BudgetStatusApproved BudgetStatus = "approved"
	BudgetStatusActive   BudgetStatus = "active"
	BudgetStatusClosed   BudgetStatus = "closed"
)

// DefaultCurrency applies when a budget omits its currency.
const DefaultCurrency = "IDR"

// Budget is one planned/realized money line scoped to a department and optionally a program or project.
type Budget struct {
	ID             string
	DepartmentID   string
	DepartmentName string
	ProgramID      string
	ProjectID      string
	Description    string
	Category       string
	Amount         decimal.Decimal
	SpentAmount    decimal.Decimal
	Status         BudgetStatus
	Period         string
	Currency       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BudgetInput holds constructor values for NewBudget.
type BudgetInput struct {
	ID           string
	DepartmentID string
	ProgramID    string
	ProjectID    string
	Description  string
	Category     string
	Amount       decimal.Decimal
	SpentAmount  decimal.Decimal
	Status       BudgetStatus
	Period       string
	Currency     string
}

// NewBudget constructs a validated budget line.
func NewBudget(in BudgetInput, now time.Time) (Budget, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	if in.ID == "" {
		return Budget{}, ErrInvalidID
	}
	if in.DepartmentID == "" {
		return Budget{}, ErrInvalidReference
	}
	if in.Amount.IsNegative() || in.SpentAmount.IsNegative() {
		return Budget{}, ErrInvalidAmount
	}
	if in.Status == "" {
		in.Status = BudgetStatusDraft
	}
	switch in.Status {
	case BudgetStatusDraft, BudgetStatusApproved, BudgetStatusActive, BudgetStatusClosed:
	default:
		return Budget{}, ErrInvalidStatus
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return Budget{
		ID:           in.ID,
		DepartmentID: in.DepartmentID,
		ProgramID:    strings.TrimSpace(in.ProgramID),
		ProjectID:    strings.TrimSpace(in.ProjectID),
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		Amount:       in.Amount,
		SpentAmount:  in.SpentAmount,
		Status:       in.Status,
		Period:       strings.TrimSpace(in.Period),
		Currency:     currency,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}
