package almond

import (
	"fmt"
	"strings"
)

// Classification is the semantic category assigned to an almond.
type Classification string

const (
	ClassificationMemory  Classification = "memory"
	ClassificationAction  Classification = "action"
	ClassificationGoal    Classification = "goal"
	ClassificationUnclear Classification = "unclear"

	// ClassificationCompleted is assigned by retrospection only.
	ClassificationCompleted Classification = "completed"
)

// ParseClassification normalizes a label reported by a backend.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ClassificationMemory, ClassificationAction, ClassificationGoal,
		ClassificationUnclear, ClassificationCompleted:
		return c, nil
	default:
		return "", fmt.Errorf("unknown classification %q", s)
	}
}

// UserBehavior is the interaction that triggered an evolution analysis.
type UserBehavior string

const (
	BehaviorView     UserBehavior = "view"
	BehaviorEdit     UserBehavior = "edit"
	BehaviorComplete UserBehavior = "complete"
	BehaviorDefer    UserBehavior = "defer"
	BehaviorSplit    UserBehavior = "split"
	BehaviorMerge    UserBehavior = "merge"
	BehaviorLink     UserBehavior = "link"
	BehaviorReview   UserBehavior = "review"
	BehaviorComment  UserBehavior = "comment"
)

// ParseUserBehavior validates a behavior name.
func ParseUserBehavior(s string) (UserBehavior, error) {
	b := UserBehavior(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BehaviorView, BehaviorEdit, BehaviorComplete, BehaviorDefer, BehaviorSplit,
		BehaviorMerge, BehaviorLink, BehaviorReview, BehaviorComment:
		return b, nil
	default:
		return "", fmt.Errorf("unknown user behavior %q", s)
	}
}

// Status is an almond lifecycle state.
type Status string

const (
	StatusNew           Status = "new"
	StatusUnderstanding Status = "understanding"
	StatusUnderstood    Status = "understood"
	StatusEvolving      Status = "evolving"
	StatusMemory        Status = "memory"
	StatusAction        Status = "action"
	StatusGoal          Status = "goal"
	StatusReviewing     Status = "reviewing"
	StatusActing        Status = "acting"
	StatusCompleted     Status = "completed"
	StatusProgressing   Status = "progressing"
	StatusRetrospecting Status = "retrospecting"
	StatusArchived      Status = "archived"
	StatusUnclear       Status = "unclear"
)

// SpawnItem is a follow-up almond proposed by evolution or retrospection.
type SpawnItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// ClampConfidence forces a backend-reported confidence into [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
