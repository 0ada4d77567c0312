package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/spetersoncode/almond"
)

var behaviors = []string{
	string(almond.BehaviorView),
	string(almond.BehaviorEdit),
	string(almond.BehaviorComplete),
	string(almond.BehaviorDefer),
	string(almond.BehaviorSplit),
	string(almond.BehaviorMerge),
	string(almond.BehaviorLink),
	string(almond.BehaviorReview),
	string(almond.BehaviorComment),
}

// generation adds the per-request model overrides shared by every tool.
func generation() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("model", mcp.Description("Model override for this request")),
		mcp.WithNumber("temperature", mcp.Description("Sampling temperature override"), mcp.Min(0), mcp.Max(2)),
		mcp.WithNumber("maxTokens", mcp.Description("Maximum completion tokens override"), mcp.Min(1)),
	}
}

func freeformInput() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("title", mcp.Description("Short title of the note")),
		mcp.WithString("content", mcp.Description("Body of the note")),
		mcp.WithString("text", mcp.Description("Raw freeform input; title and content are derived from it when missing")),
	}
}

func classifyTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Classify a note as memory, action, goal or unclear. " +
			"Provide at least one of title, content or text."),
	}
	opts = append(opts, freeformInput()...)
	opts = append(opts,
		mcp.WithString("context", mcp.Description("Extra context shown to the classifier")),
		mcp.WithNumber("taskId", mcp.Description("Caller's task identifier")),
		mcp.WithNumber("userId", mcp.Description("Caller's user identifier")),
	)
	opts = append(opts, generation()...)
	return mcp.NewTool("classify_almond", opts...)
}

func evolveTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Decide whether a classified note should change type after a user interaction."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Body of the note")),
		mcp.WithString("currentType", mcp.Required(), mcp.Description("Current classification")),
		mcp.WithString("currentState", mcp.Required(), mcp.Description("Current lifecycle status")),
		mcp.WithString("userBehavior", mcp.Required(), mcp.Enum(behaviors...), mcp.Description("Latest user interaction")),
		mcp.WithNumber("behaviorCount", mcp.Min(0), mcp.Description("How many times the interaction happened")),
		mcp.WithString("createdAt", mcp.Description("Creation timestamp")),
		mcp.WithNumber("completionTimes", mcp.Min(0), mcp.Description("How many times the note was completed")),
	}
	opts = append(opts, generation()...)
	return mcp.NewTool("evolve_almond", opts...)
}

func retrospectTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Summarize achievements, learnings and follow-ups of a completed note."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Body of the note")),
		mcp.WithString("createdAt", mcp.Required(), mcp.Description("Creation timestamp")),
		mcp.WithString("completedAt", mcp.Required(), mcp.Description("Completion timestamp")),
		mcp.WithString("completionData", mcp.Description("Notes recorded at completion")),
	}
	opts = append(opts, generation()...)
	return mcp.NewTool("retrospect_almond", opts...)
}

func understandTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Clarify raw input: restate the intent, suggest a title and tags, and extract entity, action and context."),
	}
	opts = append(opts, freeformInput()...)
	opts = append(opts, generation()...)
	return mcp.NewTool("understand_almond", opts...)
}
