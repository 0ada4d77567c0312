package almond

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged chat message sent to a backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Usage contains token usage statistics for one generation call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// NewUsage builds a Usage, deriving the total when the backend omits it.
func NewUsage(prompt, completion, total int) Usage {
	if prompt < 0 {
		prompt = 0
	}
	if completion < 0 {
		completion = 0
	}
	if total < prompt+completion {
		total = prompt + completion
	}
	return Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}

// Response is the result of one text-generation call.
type Response struct {
	// Content is the model output. For structured calls it is the JSON body
	// with any code fences removed.
	Content string `json:"content"`

	// Model identifies the model that produced the response.
	Model string `json:"model"`

	Usage Usage `json:"usage"`

	// CostTimeMs is the elapsed time of the successful attempt.
	CostTimeMs int64 `json:"costTimeMs"`

	// Raw holds the backend's native response for diagnostics only.
	Raw any `json:"-"`
}
