package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/almond/workflow"
)

// Role constants matching AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FromLog converts a workflow audit log to AG-UI messages.
func FromLog(entries []workflow.LogEntry) []events.Message {
	result := make([]events.Message, 0, len(entries))
	for _, e := range entries {
		result = append(result, FromLogEntry(e))
	}
	return result
}

// FromLogEntry converts a single log line to an AG-UI message.
func FromLogEntry(e workflow.LogEntry) events.Message {
	text := e.Text
	return events.Message{
		ID:      events.GenerateMessageID(),
		Role:    fromLogRole(e.Role),
		Content: &text,
	}
}

// fromLogRole maps human lines to user messages and everything else to
// assistant messages.
func fromLogRole(role workflow.LogRole) string {
	if role == workflow.LogHuman {
		return RoleUser
	}
	return RoleAssistant
}
