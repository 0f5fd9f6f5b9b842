package services

import (
	"context"
	"fmt"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/ports"
)

type GoalService struct {
	goals ports.GoalStore
}

func NewGoalService(goals ports.GoalStore) *GoalService {
	return &GoalService{goals: goals}
}

func (s *GoalService) Create(ctx context.Context, ownerID int64, g core.Goal) (core.Goal, error) {
	g.ID = 0
	g.OwnerID = ownerID
	g, err := prepareGoal(g)
	if err != nil {
		return core.Goal{}, err
	}
	saved, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return saved, nil
}

func (s *GoalService) Update(ctx context.Context, ownerID, id int64, g core.Goal) (core.Goal, error) {
	g.ID = id
	g.OwnerID = ownerID
	g, err := prepareGoal(g)
	if err != nil {
		return core.Goal{}, err
	}
	saved, err := s.goals.UpdateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", id, err)
	}
	return saved, nil
}

func (s *GoalService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.goals.DeleteGoal(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

func (s *GoalService) Get(ctx context.Context, ownerID, id int64) (core.Goal, error) {
	g, err := s.goals.FindGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal %d: %w", id, err)
	}
	return g, nil
}

func (s *GoalService) List(ctx context.Context, ownerID int64) ([]core.Goal, error) {
	goals, err := s.goals.FindGoalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	return goals, nil
}

func prepareGoal(g core.Goal) (core.Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	g.Category = strings.TrimSpace(g.Category)
	return g, g.Validate()
}
