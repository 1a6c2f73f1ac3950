package prompt

// Role tags a message with its conversational origin.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

// Message is a single role-tagged entry in a request payload. A resolved
// prompt is an ordered slice of these; by convention a system message, if
// present, comes first.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System is shorthand for a system-role message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Human is shorthand for a human-role message.
func Human(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// AI is shorthand for a prior assistant turn.
func AI(content string) Message {
	return Message{Role: RoleAI, Content: content}
}
