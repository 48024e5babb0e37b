package chat

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPermissionDenied means the sender is not allowed to message the
	// group (not a member, or the group is admin-only).
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound covers unknown groups, messages and profiles.
	ErrNotFound = errors.New("not found")
)

// Message is the canonical stored form of a group message, as persisted by
// the chat application service and re-broadcast to the room.
type Message struct {
	ID          string            `bson:"_id,omitempty" json:"id"`
	GroupID     string            `bson:"group_id" json:"group_id"`
	SenderID    string            `bson:"sender_id" json:"sender_id"`
	Content     string            `bson:"content" json:"content"`
	MessageType string            `bson:"message_type" json:"message_type"`
	ReplyToID   string            `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`
	Metadata    map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Mentions    []string          `bson:"mentions,omitempty" json:"mentions,omitempty"`
	Sender      *Profile          `bson:"-" json:"sender,omitempty"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
}

// Profile is the public slice of a user record.
type Profile struct {
	DisplayName string `bson:"full_name" json:"display_name"`
	AvatarURL   string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
}

type SendMessageInput struct {
	GroupID     string
	SenderID    string
	Content     string
	MessageType string
	ReplyToID   string
	Metadata    map[string]string
}

// Service is the chat application collaborator the realtime core calls out
// to. Implementations persist membership, messages and read receipts; the
// core only ever sees this interface.
type Service interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	SendMessage(ctx context.Context, in SendMessageInput) (*Message, error)
	MarkRead(ctx context.Context, groupID, userID, messageID string) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}
