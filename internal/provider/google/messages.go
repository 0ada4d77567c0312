package google

import (
	"strings"

	ai "github.com/spetersoncode/almond"
	"google.golang.org/genai"
)

// convertMessages maps the conversation onto Gemini contents. System
// messages are merged into a single system instruction.
func convertMessages(messages []ai.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system []string

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, msg.Content)
		case ai.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	if len(system) == 0 {
		return contents, nil
	}
	return contents, genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
}
