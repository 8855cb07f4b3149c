package app

import (
	"context"
	"fmt"

	"github.com/hylla/csrpulse/internal/domain"
	"golang.org/x/sync/errgroup"
)

// recordSet is one consistent read of the operational records behind a computation.
type recordSet struct {
	programs     []domain.Program
	activities   []domain.Activity
	budgets      []domain.Budget
	stakeholders []domain.Stakeholder
}

// loadRecords issues the four reads concurrently. The first failure cancels the rest.
func (s *Service) loadRecords(ctx context.Context, filter domain.RecordFilter) (recordSet, error) {
	if !filter.Window.Valid() {
		return recordSet{}, fmt.Errorf("%w: end precedes start", ErrInvalidRange)
	}
	filter.Scope = filter.Scope.Normalize()

	var set recordSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		programs, err := s.repos.Programs.ListPrograms(gctx, filter)
		if err != nil {
			return fmt.Errorf("list programs: %w", err)
		}
		set.programs = programs
		return nil
	})
	g.Go(func() error {
		activities, err := s.repos.Activities.ListActivities(gctx, filter)
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		set.activities = activities
		return nil
	})
	g.Go(func() error {
		budgets, err := s.repos.Budgets.ListBudgets(gctx, filter)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		set.budgets = budgets
		return nil
	})
	g.Go(func() error {
		stakeholders, err := s.repos.Stakeholders.ListStakeholders(gctx, filter)
		if err != nil {
			return fmt.Errorf("list stakeholders: %w", err)
		}
		set.stakeholders = stakeholders
		return nil
	})
	if err := g.Wait(); err != nil {
		return recordSet{}, err
	}
	return set, nil
}
