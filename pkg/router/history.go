package router

import "strings"

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FlattenHistory renders turns as "role: content" lines. A missing role is
// treated as the user.
func FlattenHistory(history []Message) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = "user"
		}
		lines = append(lines, role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
