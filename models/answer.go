package models

// Chat message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message sent to a completion provider
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnswerResult is the complete response of the synchronous grounded answer
type AnswerResult struct {
	Answer     string   `json:"answer"`
	UsedNodes  []string `json:"used_nodes"`
	RiskLevel  string   `json:"risk_level"`
	CTA        []string `json:"cta"`
	Disclaimer string   `json:"disclaimer"`
}

// StreamMeta is the payload of the terminal meta event of a streamed answer
type StreamMeta struct {
	UsedNodes []string `json:"used_nodes"`
}
