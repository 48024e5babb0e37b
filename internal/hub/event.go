package hub

import "time"

// Outbound event kinds.
const (
	EventNewMessage      = "new_message"
	EventMessageEdited   = "message_edited"
	EventMessageDeleted  = "message_deleted"
	EventTypingStart     = "typing_start"
	EventTypingStop      = "typing_stop"
	EventUserOnline      = "user_online"
	EventUserOffline     = "user_offline"
	EventMemberJoined    = "member_joined"
	EventMemberLeft      = "member_left"
	EventReactionUpdate  = "reaction_update"
	EventMessagePinned   = "message_pinned"
	EventMessageUnpinned = "message_unpinned"
	EventPollCreated     = "poll_created"
	EventPollClosed      = "poll_closed"
	EventPollVote        = "poll_vote"
	EventMessageRead     = "message_read"
	EventMention         = "mention"
	EventPong            = "pong"
)

// Event is one outbound frame. Every kind except pong carries a
// server-generated timestamp in milliseconds since epoch.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp,omitempty"`
}

func newEvent(kind string, data map[string]any) Event {
	return Event{Type: kind, Data: data, Timestamp: time.Now().UnixMilli()}
}

func UserOnline(userID string) Event {
	return newEvent(EventUserOnline, map[string]any{"user_id": userID})
}

func UserOffline(userID string) Event {
	return newEvent(EventUserOffline, map[string]any{"user_id": userID})
}

func TypingStart(userID, userName string) Event {
	return newEvent(EventTypingStart, map[string]any{"user_id": userID, "user_name": userName})
}

func TypingStop(userID string) Event {
	return newEvent(EventTypingStop, map[string]any{"user_id": userID})
}

func NewMessage(message any) Event {
	return newEvent(EventNewMessage, map[string]any{"message": message})
}

func MessageEdited(messageID, content string) Event {
	return newEvent(EventMessageEdited, map[string]any{"message_id": messageID, "content": content})
}

func MessageDeleted(messageID string) Event {
	return newEvent(EventMessageDeleted, map[string]any{"message_id": messageID})
}

func MemberJoined(user map[string]any) Event {
	return newEvent(EventMemberJoined, map[string]any{"user": user})
}

func MemberLeft(userID string) Event {
	return newEvent(EventMemberLeft, map[string]any{"user_id": userID})
}

func ReactionUpdate(messageID, emoji, userID, action string) Event {
	return newEvent(EventReactionUpdate, map[string]any{
		"message_id": messageID,
		"emoji":      emoji,
		"user_id":    userID,
		"action":     action,
	})
}

func MessagePin(messageID, pinnedBy string, pinned bool) Event {
	kind := EventMessagePinned
	if !pinned {
		kind = EventMessageUnpinned
	}
	return newEvent(kind, map[string]any{"message_id": messageID, "pinned_by": pinnedBy})
}

func PollCreated(poll map[string]any) Event {
	return newEvent(EventPollCreated, map[string]any{"poll": poll})
}

func PollClosed(poll map[string]any) Event {
	return newEvent(EventPollClosed, map[string]any{"poll": poll})
}

func PollVote(pollID, userID string) Event {
	return newEvent(EventPollVote, map[string]any{"poll_id": pollID, "user_id": userID})
}

func MessageRead(messageID, userID string) Event {
	return newEvent(EventMessageRead, map[string]any{"message_id": messageID, "user_id": userID})
}

func Mention(messageID string) Event {
	return newEvent(EventMention, map[string]any{"message_id": messageID})
}

func Pong() Event {
	return Event{Type: EventPong}
}
