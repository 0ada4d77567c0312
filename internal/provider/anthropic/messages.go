package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/almond"
)

// convertMessages splits system messages out of the conversation, since the
// Messages API carries them in a dedicated field.
func convertMessages(messages []ai.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case ai.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result, system
}
