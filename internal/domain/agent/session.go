package agent

// SessionIDFor maps a conversation id to the agent session id holding its messages.
// The mapping is the identity on the textual id, so it is stable and no two conversations share a session.
func SessionIDFor(conversationID string) string {
	return conversationID
}
