// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/tomtom215/tripsync/internal/models"
)

// A messageRow represents a message in the database. Reactions are kept
// inline as jsonb since they are always read and replaced as a whole.
type messageRow struct {
	bun.BaseModel `bun:"table:messages"`

	ID         string                 `bun:",pk"`
	SenderID   string                 `bun:",notnull"`
	ReceiverID string                 `bun:",nullzero"`
	GroupID    string                 `bun:",nullzero"`
	Text       string                 `bun:",nullzero"`
	Image      string                 `bun:",nullzero"`
	Type       string                 `bun:",notnull"`
	Metadata   map[string]interface{} `bun:"type:jsonb"`
	Reactions  []models.Reaction      `bun:"type:jsonb"`
	CreatedAt  time.Time              `bun:",notnull"`
	UpdatedAt  time.Time              `bun:",notnull"`
}

type groupRow struct {
	bun.BaseModel `bun:"table:trip_groups"`

	ID            string    `bun:",pk"`
	Name          string    `bun:",notnull"`
	Members       []string  `bun:",array"`
	TripID        string    `bun:",nullzero"`
	TotalExpenses float64   `bun:",notnull,default:0"`
	LastActivity  time.Time `bun:",notnull"`
	CreatedAt     time.Time `bun:",notnull"`
	UpdatedAt     time.Time `bun:",notnull"`
}

type expenseRow struct {
	bun.BaseModel `bun:"table:expenses"`

	ID          string                `bun:",pk"`
	Title       string                `bun:",notnull"`
	Amount      float64               `bun:",notnull"`
	Category    string                `bun:",notnull"`
	Description string                `bun:",nullzero"`
	Date        time.Time             `bun:",notnull"`
	GroupID     string                `bun:",nullzero"`
	TripID      string                `bun:",nullzero"`
	CreatedBy   string                `bun:",notnull"`
	Type        string                `bun:",notnull"`
	Status      string                `bun:",notnull"`
	SharedWith  []models.ExpenseShare `bun:"type:jsonb"`
	CreatedAt   time.Time             `bun:",notnull"`
}

type tripRow struct {
	bun.BaseModel `bun:"table:trips"`

	ID          string    `bun:",pk"`
	Title       string    `bun:",notnull"`
	Description string    `bun:",nullzero"`
	Destination string    `bun:",nullzero"`
	Location    string    `bun:",nullzero"`
	Coordinates []float64 `bun:",array"`
	StartDate   time.Time `bun:",notnull"`
	EndDate     time.Time `bun:",notnull"`
	Budget      float64   `bun:",notnull,default:0"`
	Activities  []string  `bun:",array"`
	Status      string    `bun:",notnull"`
	GroupID     string    `bun:",nullzero"`
	CreatedBy   string    `bun:",notnull"`
	CreatedAt   time.Time `bun:",notnull"`
}

type notificationRow struct {
	bun.BaseModel `bun:"table:notifications"`

	ID        string    `bun:",pk"`
	UserID    string    `bun:",notnull"`
	Type      string    `bun:",notnull"`
	Title     string    `bun:",notnull"`
	Message   string    `bun:",notnull"`
	Read      bool      `bun:",notnull,default:false"`
	CreatedAt time.Time `bun:",notnull"`
}

func toMessageRow(m *models.Message) *messageRow {
	return &messageRow{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		GroupID:    m.GroupID,
		Text:       m.Text,
		Image:      m.Image,
		Type:       m.Type,
		Metadata:   m.Metadata,
		Reactions:  m.Reactions,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r messageRow) model() models.Message {
	reactions := r.Reactions
	if reactions == nil {
		reactions = []models.Reaction{}
	}
	return models.Message{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		GroupID:    r.GroupID,
		Text:       r.Text,
		Image:      r.Image,
		Type:       r.Type,
		Metadata:   r.Metadata,
		Reactions:  reactions,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toGroupRow(g *models.Group) *groupRow {
	return &groupRow{
		ID:            g.ID,
		Name:          g.Name,
		Members:       g.Members,
		TripID:        g.TripID,
		TotalExpenses: g.TotalExpenses,
		LastActivity:  g.LastActivity,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func (r groupRow) model() models.Group {
	return models.Group{
		ID:            r.ID,
		Name:          r.Name,
		Members:       r.Members,
		TripID:        r.TripID,
		TotalExpenses: r.TotalExpenses,
		LastActivity:  r.LastActivity,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toExpenseRow(e *models.Expense) *expenseRow {
	return &expenseRow{
		ID:          e.ID,
		Title:       e.Title,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
		GroupID:     e.GroupID,
		TripID:      e.TripID,
		CreatedBy:   e.CreatedBy,
		Type:        e.Type,
		Status:      e.Status,
		SharedWith:  e.SharedWith,
		CreatedAt:   e.CreatedAt,
	}
}

func (r expenseRow) model() models.Expense {
	return models.Expense{
		ID:          r.ID,
		Title:       r.Title,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date,
		GroupID:     r.GroupID,
		TripID:      r.TripID,
		CreatedBy:   r.CreatedBy,
		Type:        r.Type,
		Status:      r.Status,
		SharedWith:  r.SharedWith,
		CreatedAt:   r.CreatedAt,
	}
}

func toTripRow(t *models.Trip) *tripRow {
	return &tripRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Destination: t.Destination,
		Location:    t.Location,
		Coordinates: t.Coordinates,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Budget:      t.Budget,
		Activities:  t.Activities,
		Status:      t.Status,
		GroupID:     t.GroupID,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
	}
}

func (r tripRow) model() models.Trip {
	return models.Trip{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Destination: r.Destination,
		Location:    r.Location,
		Coordinates: r.Coordinates,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Budget:      r.Budget,
		Activities:  r.Activities,
		Status:      r.Status,
		GroupID:     r.GroupID,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func toNotificationRow(n *models.Notification) notificationRow {
	return notificationRow{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (r notificationRow) model() models.Notification {
	return models.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		Title:     r.Title,
		Message:   r.Message,
		Read:      r.Read,
		CreatedAt: r.CreatedAt,
	}
}
