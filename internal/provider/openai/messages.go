package openai

import (
	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/almond"
)

func convertMessages(messages []ai.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case ai.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case ai.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
