package types

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks a conversation that is not a JSON array of valid messages.
var ErrMalformedInput = errors.New("malformed input")

// Role tags a message with who produced it.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Message represents a single message in the conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateMessages checks every message role. Content is not inspected; size
// limits are left to the upstream service.
func ValidateMessages(messages []Message) error {
	for i, msg := range messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrMalformedInput, i, msg.Role)
		}
	}
	return nil
}
