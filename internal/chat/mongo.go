package chat

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the persistent Service backed by the shared chat database.
// Collections mirror the group-chat schema: groups, group_members,
// group_messages, group_message_reads, profiles.
type Mongo struct {
	groups   *mongo.Collection
	members  *mongo.Collection
	messages *mongo.Collection
	reads    *mongo.Collection
	profiles *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		groups:   db.Collection("groups"),
		members:  db.Collection("group_members"),
		messages: db.Collection("group_messages"),
		reads:    db.Collection("group_message_reads"),
		profiles: db.Collection("profiles"),
	}
}

type memberDoc struct {
	GroupID string `bson:"group_id"`
	UserID  string `bson:"user_id"`
	Role    string `bson:"role"`
}

type groupDoc struct {
	OnlyAdminsCanMessage bool `bson:"only_admins_can_message"`
}

func (s *Mongo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	err := s.members.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Mongo) SendMessage(ctx context.Context, in SendMessageInput) (*Message, error) {
	var member memberDoc
	err := s.members.FindOne(ctx, bson.M{"group_id": in.GroupID, "user_id": in.SenderID}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, err
	}

	var group groupDoc
	err = s.groups.FindOne(ctx, bson.M{"_id": in.GroupID}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if group.OnlyAdminsCanMessage && member.Role != "admin" {
		return nil, ErrPermissionDenied
	}

	msgType := in.MessageType
	if msgType == "" {
		msgType = "text"
	}
	msg := &Message{
		GroupID:     in.GroupID,
		SenderID:    in.SenderID,
		Content:     in.Content,
		MessageType: msgType,
		ReplyToID:   in.ReplyToID,
		Metadata:    in.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
	res, err := s.messages.InsertOne(ctx, msg)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}

	// Touch the group's activity timestamp; failure here does not void the
	// stored message.
	_, _ = s.groups.UpdateOne(ctx,
		bson.M{"_id": in.GroupID},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}})

	if p, err := s.GetProfile(ctx, in.SenderID); err == nil {
		msg.Sender = p
	}
	return msg, nil
}

func (s *Mongo) MarkRead(ctx context.Context, groupID, userID, messageID string) error {
	upsert := options.Update().SetUpsert(true)
	_, err := s.reads.UpdateOne(ctx,
		bson.M{"message_id": messageID, "user_id": userID},
		bson.M{"$set": bson.M{"read_at": time.Now().UTC()}},
		upsert)
	if err != nil {
		return err
	}
	_, err = s.members.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"last_read_at": time.Now().UTC()}})
	return err
}

func (s *Mongo) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
