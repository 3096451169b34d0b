package redis

import "fmt"

// Key patterns, before the environment prefix
const (
	KeySession    = "session:%s"     // session:{tokenHash}
	KeyDraft      = "draft:%s"       // draft:{draftID}
	KeyUserDrafts = "user:%s:drafts" // set of draft ids owned by a user
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // staging or prod
}

// NewKeyBuilder picks the prefix for environment. Anything that is not
// development or staging shares the prod namespace.
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeySession(tokenHash string) string {
	return kb.BuildKey(fmt.Sprintf(KeySession, tokenHash))
}

func (kb *KeyBuilder) KeyDraft(draftID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyDraft, draftID))
}

func (kb *KeyBuilder) KeyUserDrafts(userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyUserDrafts, userID))
}
