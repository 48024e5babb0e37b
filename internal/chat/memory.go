package chat

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

var mentionRe = regexp.MustCompile(`@([\w-]+)`)

type memGroup struct {
	name       string
	adminsOnly bool
	members    map[string]string // userID -> role
	lastRead   map[string]time.Time
	reads      map[string]map[string]struct{} // messageID -> readers
}

// Memory is an in-process Service for development and tests. It applies the
// same rules as the persistent implementation: membership checks, the
// admin-only-messaging policy and @mention extraction.
type Memory struct {
	mu       sync.Mutex
	groups   map[string]*memGroup
	messages map[string][]*Message // groupID -> messages
	profiles map[string]Profile
}

func NewMemory() *Memory {
	return &Memory{
		groups:   make(map[string]*memGroup),
		messages: make(map[string][]*Message),
		profiles: make(map[string]Profile),
	}
}

// AddGroup creates a group; adminsOnly restricts messaging to admins.
func (m *Memory) AddGroup(groupID, name string, adminsOnly bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[groupID] = &memGroup{
		name:       name,
		adminsOnly: adminsOnly,
		members:    make(map[string]string),
		lastRead:   make(map[string]time.Time),
		reads:      make(map[string]map[string]struct{}),
	}
}

// AddMember enrolls a user with the given role ("member" or "admin").
func (m *Memory) AddMember(groupID, userID, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[groupID]; ok {
		g.members[userID] = role
	}
}

// SetProfile stores a user's public profile.
func (m *Memory) SetProfile(userID string, p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p
}

func (m *Memory) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok {
		return false, nil
	}
	_, ok = g.members[userID]
	return ok, nil
}

func (m *Memory) SendMessage(_ context.Context, in SendMessageInput) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[in.GroupID]
	if !ok {
		return nil, ErrNotFound
	}
	role, member := g.members[in.SenderID]
	if !member {
		return nil, ErrPermissionDenied
	}
	if g.adminsOnly && role != "admin" {
		return nil, ErrPermissionDenied
	}

	msgType := in.MessageType
	if msgType == "" {
		msgType = "text"
	}
	msg := &Message{
		ID:          uuid.New().String(),
		GroupID:     in.GroupID,
		SenderID:    in.SenderID,
		Content:     in.Content,
		MessageType: msgType,
		ReplyToID:   in.ReplyToID,
		Metadata:    in.Metadata,
		Mentions:    m.extractMentions(g, in.Content),
		CreatedAt:   time.Now().UTC(),
	}
	if p, ok := m.profiles[in.SenderID]; ok {
		msg.Sender = &p
	}
	m.messages[in.GroupID] = append(m.messages[in.GroupID], msg)
	return msg, nil
}

// extractMentions resolves @tokens against the group's member list.
// Caller holds the lock.
func (m *Memory) extractMentions(g *memGroup, content string) []string {
	var out []string
	for _, match := range mentionRe.FindAllStringSubmatch(content, -1) {
		if _, ok := g.members[match[1]]; ok {
			out = append(out, match[1])
		}
	}
	return out
}

func (m *Memory) MarkRead(_ context.Context, groupID, userID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := g.members[userID]; !ok {
		return ErrPermissionDenied
	}
	if g.reads[messageID] == nil {
		g.reads[messageID] = make(map[string]struct{})
	}
	g.reads[messageID][userID] = struct{}{}
	g.lastRead[userID] = time.Now().UTC()
	return nil
}

func (m *Memory) GetProfile(_ context.Context, userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}
