package prompt

import (
	"fmt"
	"strings"
)

const none = "(none)"

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}

// lines joins prompt lines with newlines.
type lines []string

func (l *lines) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func (l *lines) blank() { *l = append(*l, "") }

func (l lines) String() string { return strings.Join(l, "\n") }

// QuickClassification builds the first-pass prompt used by the understand step.
func QuickClassification(title, content string) string {
	var l lines
	l.add("Quickly judge the type:")
	l.blank()
	l.add("Title: %s", title)
	l.add("Content: %s", orNone(content))
	l.blank()
	l.add("Return JSON:")
	l.add(`{"classification": "type", "confidence": 0.8, "reasoning": "one sentence"}`)
	return l.String()
}

// Classification builds the full classification prompt. Context is optional.
func Classification(title, content, context string) string {
	var l lines
	l.add("Analyze this almond the user just dropped:")
	l.blank()
	l.add("[Title] %s", title)
	l.add("[Content] %s", orNone(content))
	if strings.TrimSpace(context) != "" {
		l.blank()
		l.add("[Context] %s", context)
	}
	l.blank()
	l.add("Decide which type this almond fits best and explain why.")
	l.add("Example response:")
	l.add(`{
  "classification": "action",
  "confidence": 0.85,
  "reasoning": "A concrete errand with a clear deadline: the user mentions 'tomorrow' and 'go to the supermarket'.",
  "recommendedStatus": "action",
  "timeSensitivity": "high",
  "actionClarity": "clear",
  "complexity": "simple",
  "suggestions": ["Add a specific time", "Link it to your calendar"]
}`)
	return l.String()
}

// EvolutionInput carries the signals considered by an evolution analysis.
type EvolutionInput struct {
	Title           string
	Content         string
	CurrentType     string
	CurrentState    string
	UserBehavior    string
	BehaviorCount   int
	CreatedAt       string
	CompletionTimes int

	// DeferHintAt is the defer count that adds the long-term goal hint.
	// Zero means DefaultDeferHintAt.
	DeferHintAt int
}

// DefaultDeferHintAt is the default repeated-defer threshold.
const DefaultDeferHintAt = 3

// Evolution builds the evolution analysis prompt.
func Evolution(in EvolutionInput) string {
	deferAt := in.DeferHintAt
	if deferAt <= 0 {
		deferAt = DefaultDeferHintAt
	}

	var l lines
	l.add("Analyze whether this almond needs to evolve:")
	l.blank()
	l.add("## Almond")
	l.add("[Title] %s", in.Title)
	l.add("[Content] %s", orNone(in.Content))
	l.add("[Current type] %s", orNone(in.CurrentType))
	l.add("[Current state] %s", orNone(in.CurrentState))
	l.blank()
	l.add("## User behavior")
	l.add("[Latest behavior] %s", orNone(in.UserBehavior))
	l.add("[Times] %d", in.BehaviorCount)
	if in.CreatedAt != "" {
		l.add("[Created at] %s", in.CreatedAt)
	}
	if in.CompletionTimes > 0 {
		l.add("[Times completed] %d", in.CompletionTimes)
	}

	switch {
	case in.UserBehavior == "defer" && in.BehaviorCount >= deferAt:
		l.blank()
		l.add("Note: the user has deferred this %d times. This may mean:", in.BehaviorCount)
		l.add("- it is not something that can be finished quickly")
		l.add("- its priority or complexity was underestimated")
		l.add("- it may need to become a long-term goal and be broken down")
	case in.UserBehavior == "edit" && in.BehaviorCount >= 5:
		l.blank()
		l.add("Note: the user has edited this %d times. This may mean:", in.BehaviorCount)
		l.add("- the content keeps growing and changing")
		l.add("- the user's understanding of it is deepening")
		l.add("- its type should be reassessed")
	case in.UserBehavior == "split":
		l.blank()
		l.add("Note: the user tried to split this almond. This may mean:")
		l.add("- it is a complex goal rather than a simple action")
		l.add("- it should become a goal with a set of subtasks")
	}

	l.blank()
	l.add("Decide whether this almond should evolve and give detailed suggestions.")
	l.blank()
	l.add("Example response:")
	l.add(`{
  "shouldEvolve": true,
  "classification": "goal",
  "confidence": 0.82,
  "reasoning": "Deferred three times in a row, so this is not a quick action.",
  "evolutionReason": "The complexity was underestimated. Turn it into a long-term goal and split it into stages.",
  "fromType": "action",
  "toType": "goal",
  "recommendedStatus": "goal",
  "splitSuggestions": [
    {"title": "Stage one: ...", "content": "...", "type": "action"},
    {"title": "Stage two: ...", "content": "...", "type": "action"}
  ],
  "suggestions": ["Set milestones", "Review progress regularly"]
}`)
	return l.String()
}

// RetrospectInput carries the facts reviewed by a retrospective.
type RetrospectInput struct {
	Title          string
	Content        string
	CreatedAt      string
	CompletedAt    string
	CompletionData string
}

// Retrospect builds the retrospective prompt for a completed almond.
func Retrospect(in RetrospectInput) string {
	var l lines
	l.add("Help the user review this completed almond:")
	l.blank()
	l.add("## Almond")
	l.add("[Title] %s", in.Title)
	l.add("[Content] %s", orNone(in.Content))
	l.add("[Created at] %s", orNone(in.CreatedAt))
	l.add("[Completed at] %s", orNone(in.CompletedAt))
	if strings.TrimSpace(in.CompletionData) != "" {
		l.blank()
		l.add("[Completion data] %s", in.CompletionData)
	}
	l.blank()
	l.add("## What to cover")
	l.add("1. Achievements: what was done, what went right?")
	l.add("2. Learnings: what was learned, what can be reused?")
	l.add("3. Improvements: what would you adjust if starting over?")
	l.add("4. Patterns: what working habits showed up?")
	l.add("5. New ideas: what new thoughts did this spark?")
	l.blank()
	l.add("Keep the tone warm, specific and forward-looking.")
	l.blank()
	l.add("Example response:")
	l.add(`{
  "classification": "completed",
  "confidence": 0.95,
  "reasoning": "Finished on time and well. Working in stages paid off.",
  "recommendedStatus": "archived",
  "achievements": ["Delivered complete technical documentation on time"],
  "learnings": ["Outlining first makes writing much faster"],
  "improvements": ["Start earlier to leave a buffer"],
  "patterns": {"workStyle": "incremental", "peakTime": "morning", "completionAccuracy": 0.9},
  "spawnAlmonds": [
    {"title": "Refresh docs quarterly", "content": "Review project docs every quarter to keep them in sync with code", "type": "action"}
  ],
  "suggestions": ["Share this experience with the team"]
}`)
	return l.String()
}

// Enrichment builds the prompt that derives a title and content from freeform text.
func Enrichment(text string) string {
	var l lines
	l.add("Turn the following user input into a title and content:")
	l.blank()
	l.add("[User input] %s", text)
	l.blank()
	l.add("Example response:")
	l.add(`{"title": "Learn Python decorators", "content": "I want to understand how Python decorators work and be able to write my own."}`)
	return l.String()
}

// Understanding builds the clarify-and-tag prompt for raw input.
func Understanding(text string) string {
	var l lines
	l.add("[Input]")
	l.add("%s", text)
	l.blank()
	l.add("Example 1")
	l.add("Input: remember to buy groceries tomorrow")
	l.add(`Output: {"clarified_text": "A reminder to go buy food tomorrow.", "title": "Groceries tomorrow", "tags": ["reminder", "groceries", "tomorrow"], "confidence": 0.92}`)
	l.blank()
	l.add("Example 2")
	l.add("Input: that thing")
	l.add(`Output: {"clarified_text": "An unspecified matter mentioned without context.", "title": "Item to clarify", "tags": ["unclear", "vague"], "confidence": 0.35}`)
	l.blank()
	l.add("Now analyze the input and output only JSON.")
	return l.String()
}
