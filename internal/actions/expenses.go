// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package actions

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tomtom215/tripsync/internal/logging"
	"github.com/tomtom215/tripsync/internal/models"
	"github.com/tomtom215/tripsync/internal/store"
	"github.com/tomtom215/tripsync/internal/validation"
	"github.com/tomtom215/tripsync/internal/websocket"
)

// ExpenseInput is the body of an expense creation. A group expense must name
// its group.
type ExpenseInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Amount      float64   `json:"amount" validate:"gt=0"`
	Category    string    `json:"category" validate:"required,expense_category"`
	Description string    `json:"description" validate:"max=2000"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type" validate:"required,oneof=personal group"`
	GroupID     string    `json:"groupId" validate:"required_if=Type group"`
	TripID      string    `json:"tripId"`
}

// ExpenseStatusInput is the body of an expense status change.
type ExpenseStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending paid cancelled"`
}

// ShareInput is one user's part in a split request.
type ShareInput struct {
	UserID string  `json:"userId" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

// SplitInput is the body of an expense split.
type SplitInput struct {
	SharedWith []ShareInput `json:"sharedWith" validate:"required,min=1,max=100,dive"`
}

// TripInput is the body of a trip creation.
type TripInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=2000"`
	Destination string    `json:"destination" validate:"required,max=200"`
	Location    string    `json:"location" validate:"max=200"`
	Coordinates []float64 `json:"coordinates" validate:"omitempty,lnglat"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	Budget      float64   `json:"budget" validate:"gte=0"`
	Activities  []string  `json:"activities" validate:"max=50,dive,max=200"`
	GroupID     string    `json:"groupId" validate:"required"`
}

// CreateExpense records an expense. A group expense requires membership,
// adds to the group's running total, is announced in the group chat and
// notifies the other members. A personal expense notifies its creator.
func (s *Service) CreateExpense(ctx context.Context, userID string, in *ExpenseInput) (*models.Expense, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	var group *models.Group
	groupID := ""
	if in.Type == models.ExpenseTypeGroup {
		g, err := s.memberGroup(ctx, in.GroupID, userID)
		if err != nil {
			return nil, err
		}
		group = g
		groupID = g.ID
	}

	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	expense := &models.Expense{
		ID:          s.newID(),
		Title:       in.Title,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        date.UTC(),
		GroupID:     groupID,
		TripID:      in.TripID,
		CreatedBy:   userID,
		Type:        in.Type,
		Status:      models.ExpenseStatusPending,
		CreatedAt:   now,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	var err error
	if group != nil {
		s.announceExpense(ctx, expense)
		_, err = s.notifier.GroupExpenseCreated(ctx, group, expense, userID)
	} else {
		_, err = s.notifier.PersonalExpenseCreated(ctx, expense, userID)
	}
	logNotifyFailure(ctx, "create_expense", err)

	return expense, nil
}

// announceExpense posts an expense message to the group chat and pushes it
// to the group's room. The expense is already stored, so a failure is logged.
func (s *Service) announceExpense(ctx context.Context, expense *models.Expense) {
	now := s.now().UTC()
	text := fmt.Sprintf("New expense added: %s - $%s",
		expense.Title, strconv.FormatFloat(expense.Amount, 'f', -1, 64))
	msg := &models.Message{
		ID:       s.newID(),
		SenderID: expense.CreatedBy,
		GroupID:  expense.GroupID,
		Text:     text,
		Type:     models.MessageTypeExpense,
		Metadata: map[string]interface{}{
			"expenseId": expense.ID,
			"amount":    expense.Amount,
			"category":  expense.Category,
		},
		Reactions: []models.Reaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("component", "actions").
			Str("expense_id", expense.ID).
			Msg("expense recorded but chat message was not created")
		return
	}
	s.dispatcher.Dispatch(websocket.EventNewGroupMessage, msg, websocket.RoomScope(expense.GroupID))
}

// UpdateExpenseStatus moves an expense to pending, paid or cancelled. Only
// its creator may change it.
func (s *Service) UpdateExpenseStatus(ctx context.Context, userID, expenseID string, in *ExpenseStatusInput) (*models.Expense, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.CreatedBy != userID {
		return nil, ErrNotOwner
	}

	updated, err := s.store.UpdateExpenseStatus(ctx, expenseID, in.Status)
	if err != nil {
		return nil, fmt.Errorf("update expense status: %w", err)
	}
	return updated, nil
}

// SplitExpense records how an expense is shared. A personal expense can be
// split by its creator, a group expense by any member and only among
// members. Each user appears once and the shares may not exceed the amount.
func (s *Service) SplitExpense(ctx context.Context, userID, expenseID string, in *SplitInput) (*models.Expense, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	var group *models.Group
	if expense.GroupID != "" {
		if group, err = s.memberGroup(ctx, expense.GroupID, userID); err != nil {
			return nil, err
		}
	} else if expense.CreatedBy != userID {
		return nil, ErrNotOwner
	}

	shares := make([]models.ExpenseShare, 0, len(in.SharedWith))
	seen := make(map[string]struct{}, len(in.SharedWith))
	var cents int64
	for _, sh := range in.SharedWith {
		if _, dup := seen[sh.UserID]; dup {
			return nil, fmt.Errorf("%w: %s appears more than once", ErrInvalidSplit, sh.UserID)
		}
		seen[sh.UserID] = struct{}{}
		if group != nil && !group.HasMember(sh.UserID) {
			return nil, fmt.Errorf("%w: %s is not a member of the group", ErrInvalidSplit, sh.UserID)
		}
		cents += toCents(sh.Amount)
		shares = append(shares, models.ExpenseShare{UserID: sh.UserID, Amount: sh.Amount})
	}
	if cents > toCents(expense.Amount) {
		return nil, fmt.Errorf("%w: shares exceed the expense amount", ErrInvalidSplit)
	}

	updated, err := s.store.SetExpenseShares(ctx, expenseID, shares)
	if err != nil {
		return nil, fmt.Errorf("split expense: %w", err)
	}
	return updated, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ListExpenses returns userID's own expenses, or a group's expenses when
// groupID is set and userID is a member.
func (s *Service) ListExpenses(ctx context.Context, userID, groupID string) ([]models.Expense, error) {
	if groupID != "" {
		if _, err := s.memberGroup(ctx, groupID, userID); err != nil {
			return nil, err
		}
		return s.store.ListExpenses(ctx, store.ExpenseFilter{GroupID: groupID})
	}
	return s.store.ListExpenses(ctx, store.ExpenseFilter{CreatedBy: userID})
}

// CreateTrip records a trip in a group the caller belongs to and notifies
// the other members.
func (s *Service) CreateTrip(ctx context.Context, userID string, in *TripInput) (*models.Trip, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	group, err := s.memberGroup(ctx, in.GroupID, userID)
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Destination: in.Destination,
		Location:    in.Location,
		Coordinates: in.Coordinates,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Budget:      in.Budget,
		Activities:  in.Activities,
		Status:      models.TripStatusPlanning,
		GroupID:     group.ID,
		CreatedBy:   userID,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	_, err = s.notifier.TripCreated(ctx, group, trip, userID)
	logNotifyFailure(ctx, "create_trip", err)

	return trip, nil
}

// ListTrips returns the trips userID created plus the trips of every group
// userID belongs to.
func (s *Service) ListTrips(ctx context.Context, userID string) ([]models.Trip, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(groups))
	for i := range groups {
		ids = append(ids, groups[i].ID)
	}
	return s.store.ListTrips(ctx, store.TripFilter{CreatedBy: userID, GroupIDs: ids})
}
