// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package actions

import (
	"context"
	"fmt"

	"github.com/tomtom215/tripsync/internal/models"
	"github.com/tomtom215/tripsync/internal/validation"
	"github.com/tomtom215/tripsync/internal/websocket"
)

// MessageInput is the body of a direct or group message.
type MessageInput struct {
	Text     string                 `json:"text" validate:"required_without=Image,max=5000"`
	Image    string                 `json:"image" validate:"max=2048"`
	Type     string                 `json:"type" validate:"omitempty,oneof=text image expense trip_update"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ReactionInput is the body of a reaction toggle.
type ReactionInput struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

func (s *Service) newMessage(senderID string, in *MessageInput) *models.Message {
	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
		if in.Image != "" && in.Text == "" {
			msgType = models.MessageTypeImage
		}
	}

	now := s.now().UTC()
	return &models.Message{
		ID:        s.newID(),
		SenderID:  senderID,
		Text:      in.Text,
		Image:     in.Image,
		Type:      msgType,
		Metadata:  in.Metadata,
		Reactions: []models.Reaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SendDirect stores a direct message and pushes newMessage to the receiver's
// live connection, if any.
func (s *Service) SendDirect(ctx context.Context, senderID, receiverID string, in *MessageInput) (*models.Message, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	msg := s.newMessage(senderID, in)
	msg.ReceiverID = receiverID

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create direct message: %w", err)
	}

	s.dispatcher.Dispatch(websocket.EventNewMessage, msg, websocket.UserScope(receiverID))
	return msg, nil
}

// DirectHistory returns the conversation between userID and peerID, oldest first.
func (s *Service) DirectHistory(ctx context.Context, userID, peerID string) ([]models.Message, error) {
	return s.store.ListDirectMessages(ctx, userID, peerID)
}

// SendGroupMessage stores a group message from a member, pushes
// newGroupMessage to the group's room and notifies the other members.
func (s *Service) SendGroupMessage(ctx context.Context, senderID, groupID string, in *MessageInput) (*models.Message, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	group, err := s.memberGroup(ctx, groupID, senderID)
	if err != nil {
		return nil, err
	}

	msg := s.newMessage(senderID, in)
	msg.GroupID = groupID

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create group message: %w", err)
	}

	s.dispatcher.Dispatch(websocket.EventNewGroupMessage, msg, websocket.RoomScope(groupID))

	_, err = s.notifier.GroupMessagePosted(ctx, group, senderID)
	logNotifyFailure(ctx, "send_group_message", err)

	return msg, nil
}

// GroupHistory returns a group's messages, oldest first. Only members may read it.
func (s *Service) GroupHistory(ctx context.Context, userID, groupID string) ([]models.Message, error) {
	if _, err := s.memberGroup(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.store.ListGroupMessages(ctx, groupID)
}

// ToggleReaction adds or removes userID's emoji on a message. Group messages
// accept reactions from members only, direct messages from their sender and
// receiver only.
func (s *Service) ToggleReaction(ctx context.Context, userID, messageID string, in *ReactionInput) (*models.Message, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("load message %s: %w", messageID, err)
	}
	if msg.IsGroupMessage() {
		if _, err := s.memberGroup(ctx, msg.GroupID, userID); err != nil {
			return nil, err
		}
	} else if userID != msg.SenderID && userID != msg.ReceiverID {
		return nil, ErrNotParticipant
	}

	return s.reactions.Toggle(ctx, messageID, in.Emoji, userID)
}
