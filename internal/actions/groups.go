// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package actions

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tomtom215/tripsync/internal/models"
	"github.com/tomtom215/tripsync/internal/validation"
)

// GroupInput is the body of a group creation.
type GroupInput struct {
	Name      string   `json:"name" validate:"required,max=100"`
	MemberIDs []string `json:"memberIds" validate:"max=100,dive,required"`
	TripID    string   `json:"tripId"`
}

// MemberInput is the body of an add-member request.
type MemberInput struct {
	UserID string `json:"userId" validate:"required"`
}

// RenameInput is the body of a group rename.
type RenameInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateGroup creates a group whose members are the creator followed by the
// requested members, then notifies every member.
func (s *Service) CreateGroup(ctx context.Context, creatorID string, in *GroupInput) (*models.Group, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	members := []string{creatorID}
	for _, id := range in.MemberIDs {
		if !slices.Contains(members, id) {
			members = append(members, id)
		}
	}

	now := s.now().UTC()
	group := &models.Group{
		ID:           s.newID(),
		Name:         in.Name,
		Members:      members,
		TripID:       in.TripID,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	_, err := s.notifier.GroupCreated(ctx, group)
	logNotifyFailure(ctx, "create_group", err)

	return group, nil
}

// ListGroups returns the groups userID belongs to, most recently active first.
func (s *Service) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	return s.store.ListGroupsForUser(ctx, userID)
}

// AddMember adds a user to a group the caller belongs to and notifies the
// new member. Adding an existing member returns ErrAlreadyMember.
func (s *Service) AddMember(ctx context.Context, callerID, groupID string, in *MemberInput) (*models.Group, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	group, err := s.memberGroup(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if group.HasMember(in.UserID) {
		return nil, ErrAlreadyMember
	}

	updated, err := s.store.AddGroupMember(ctx, groupID, in.UserID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("add group member: %w", err)
	}

	_, err = s.notifier.MemberAdded(ctx, updated, in.UserID)
	logNotifyFailure(ctx, "add_member", err)

	return updated, nil
}

// RenameGroup changes the name of a group the caller belongs to.
func (s *Service) RenameGroup(ctx context.Context, callerID, groupID string, in *RenameInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	if _, err := s.memberGroup(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	updated, err := s.store.RenameGroup(ctx, groupID, in.Name, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("rename group: %w", err)
	}
	return updated, nil
}

// RemoveMember takes memberID out of a group. Members may remove themselves;
// only the admin (the first member) may remove others. When the last member
// leaves the group is deleted and deleted is true.
func (s *Service) RemoveMember(ctx context.Context, callerID, groupID, memberID string) (group *models.Group, deleted bool, err error) {
	group, err = s.memberGroup(ctx, groupID, callerID)
	if err != nil {
		return nil, false, err
	}
	if !group.HasMember(memberID) {
		return nil, false, ErrMemberNotFound
	}
	if callerID != memberID && callerID != group.Members[0] {
		return nil, false, ErrNotGroupAdmin
	}

	if len(group.Members) == 1 {
		if err := s.store.DeleteGroup(ctx, groupID); err != nil {
			return nil, false, fmt.Errorf("delete group: %w", err)
		}
		s.leaveRoom(groupID, memberID)
		return nil, true, nil
	}

	updated, err := s.store.RemoveGroupMember(ctx, groupID, memberID, s.now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("remove group member: %w", err)
	}
	s.leaveRoom(groupID, memberID)
	return updated, false, nil
}

// DeleteGroup deletes a group the caller belongs to and drops every member's
// live connection from its room.
func (s *Service) DeleteGroup(ctx context.Context, callerID, groupID string) error {
	group, err := s.memberGroup(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.leaveRoom(groupID, group.Members...)
	return nil
}
