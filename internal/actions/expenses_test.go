// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/tripsync/internal/models"
	"github.com/tomtom215/tripsync/internal/store"
	"github.com/tomtom215/tripsync/internal/validation"
)

func TestUpdateExpenseStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "u1", "u2")

	exp, err := f.svc.CreateExpense(ctx, "u1", &ExpenseInput{
		Title: "Tram", Amount: 6, Category: "Transportation", Type: models.ExpenseTypeGroup, GroupID: g.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.UpdateExpenseStatus(ctx, "u1", exp.ID, &ExpenseStatusInput{Status: models.ExpenseStatusPaid})
	if err != nil {
		t.Fatalf("UpdateExpenseStatus() error = %v", err)
	}
	if got.Status != models.ExpenseStatusPaid {
		t.Errorf("status = %q", got.Status)
	}

	tests := []struct {
		name      string
		user      string
		id        string
		status    string
		wantErr   error
		wantValid bool
	}{
		{name: "member but not creator", user: "u2", id: exp.ID, status: models.ExpenseStatusCancelled, wantErr: ErrNotOwner},
		{name: "outsider", user: "u9", id: exp.ID, status: models.ExpenseStatusCancelled, wantErr: ErrNotOwner},
		{name: "missing expense", user: "u1", id: "nope", status: models.ExpenseStatusPaid, wantErr: store.ErrNotFound},
		{name: "unknown status", user: "u1", id: exp.ID, status: "refunded", wantValid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateExpenseStatus(ctx, tt.user, tt.id, &ExpenseStatusInput{Status: tt.status})
			if tt.wantValid {
				var verr *validation.RequestValidationError
				if !errors.As(err, &verr) {
					t.Errorf("error = %v, want validation error", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	stored, err := f.store.GetExpense(ctx, exp.ID)
	if err != nil || stored.Status != models.ExpenseStatusPaid {
		t.Errorf("stored = %+v, %v", stored, err)
	}
}

func TestSplitExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "u1", "u2", "u3")

	exp, err := f.svc.CreateExpense(ctx, "u1", &ExpenseInput{
		Title: "Hostel", Amount: 90, Category: "Accommodation", Type: models.ExpenseTypeGroup, GroupID: g.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	in := &SplitInput{SharedWith: []ShareInput{{"u1", 30}, {"u2", 30}, {"u3", 30}}}
	got, err := f.svc.SplitExpense(ctx, "u2", exp.ID, in)
	if err != nil {
		t.Fatalf("SplitExpense() error = %v", err)
	}
	want := []models.ExpenseShare{{UserID: "u1", Amount: 30}, {UserID: "u2", Amount: 30}, {UserID: "u3", Amount: 30}}
	if diff := cmp.Diff(want, got.SharedWith); diff != "" {
		t.Errorf("shares mismatch (-want +got):\n%s", diff)
	}

	stored, err := f.store.GetExpense(ctx, exp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, stored.SharedWith); diff != "" {
		t.Errorf("stored shares mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name    string
		user    string
		shares  []ShareInput
		wantErr error
	}{
		{"outsider", "u9", []ShareInput{{"u1", 10}}, ErrNotMember},
		{"duplicate user", "u1", []ShareInput{{"u1", 10}, {"u1", 10}}, ErrInvalidSplit},
		{"share for non member", "u1", []ShareInput{{"u9", 10}}, ErrInvalidSplit},
		{"shares above amount", "u1", []ShareInput{{"u1", 45}, {"u2", 45.01}}, ErrInvalidSplit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SplitExpense(ctx, tt.user, exp.ID, &SplitInput{SharedWith: tt.shares})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	var verr *validation.RequestValidationError
	if _, err := f.svc.SplitExpense(ctx, "u1", exp.ID, &SplitInput{}); !errors.As(err, &verr) {
		t.Errorf("empty split error = %v, want validation error", err)
	}
}

func TestSplitExpense_Personal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exp, err := f.svc.CreateExpense(ctx, "u1", &ExpenseInput{Title: "Taxi", Amount: 20, Category: "Transportation", Type: models.ExpenseTypePersonal})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.SplitExpense(ctx, "u2", exp.ID, &SplitInput{SharedWith: []ShareInput{{"u2", 10}}}); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner split error = %v", err)
	}
	got, err := f.svc.SplitExpense(ctx, "u1", exp.ID, &SplitInput{SharedWith: []ShareInput{{"u1", 10}, {"friend", 10}}})
	if err != nil {
		t.Fatalf("SplitExpense() error = %v", err)
	}
	if len(got.SharedWith) != 2 {
		t.Errorf("shares = %+v", got.SharedWith)
	}
}
