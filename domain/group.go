package domain

// GroupKey derives the conversation key for a pair of usernames.
// The ordinal comparison makes the key symmetric: GroupKey(a, b) == GroupKey(b, a),
// so either participant may open the conversation first.
func GroupKey(a, b string) string {
	if a < b {
		return a + "-" + b
	}
	return b + "-" + a
}

// ConversationGroup is an immutable snapshot of a conversation and the
// usernames of its currently connected members. Registries hand out snapshots
// only; live membership never leaves the registry lock.
type ConversationGroup struct {
	Key     string   `json:"key"`
	Members []string `json:"members"`
}
