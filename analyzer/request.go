package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spetersoncode/almond"
)

// validate is shared by every request type.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("behavior", func(fl validator.FieldLevel) bool {
		_, err := almond.ParseUserBehavior(fl.Field().String())
		return err == nil
	})
}

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_without_all":
		return "one of title, content or text is required"
	case "behavior":
		return fmt.Sprintf("%s %q is not a known behavior", fe.Field(), fe.Value())
	case "max":
		return fmt.Sprintf("%s exceeds %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// Generation carries optional per-request overrides.
type Generation struct {
	Model       string   `json:"model,omitempty" validate:"max=128"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"maxTokens,omitempty" validate:"omitempty,gt=0,lte=32768"`
}

func (g Generation) options() []almond.Option {
	var opts []almond.Option
	if g.Temperature != nil {
		opts = append(opts, almond.WithTemperature(*g.Temperature))
	}
	if g.MaxTokens != nil {
		opts = append(opts, almond.WithMaxTokens(*g.MaxTokens))
	}
	return opts
}

// ClassifyRequest asks for a classification. At least one of Title,
// Content and Text is required; missing fields are synthesized from Text.
type ClassifyRequest struct {
	Title   string `json:"title,omitempty" validate:"required_without_all=Content Text,max=32768"`
	Content string `json:"content,omitempty" validate:"max=32768"`
	Text    string `json:"text,omitempty" validate:"max=32768"`
	TaskID  *int64 `json:"taskId,omitempty"`
	UserID  *int64 `json:"userId,omitempty"`
	Context string `json:"context,omitempty" validate:"max=32768"`

	Generation
}

// Validate checks the request.
func (r *ClassifyRequest) Validate() error { return check(r) }

// UnderstandRequest asks for a clarify-and-tag analysis.
type UnderstandRequest ClassifyRequest

// Validate checks the request.
func (r *UnderstandRequest) Validate() error { return check(r) }

// EvolutionRequest asks whether an almond should change type after a
// user interaction.
type EvolutionRequest struct {
	Title   string `json:"title" validate:"required,max=32768"`
	Content string `json:"content" validate:"required,max=32768"`
	TaskID  *int64 `json:"taskId,omitempty"`
	UserID  *int64 `json:"userId,omitempty"`

	CurrentState string `json:"currentState" validate:"required,max=64"`
	CurrentType  string `json:"currentType" validate:"required,max=64"`
	UserBehavior string `json:"userBehavior" validate:"required,behavior"`

	// BehaviorCount defaults to 1 when zero.
	BehaviorCount   int    `json:"behaviorCount,omitempty" validate:"gte=0"`
	CreatedAt       string `json:"createdAt,omitempty" validate:"max=64"`
	CompletionTimes int    `json:"completionTimes,omitempty" validate:"gte=0"`

	Generation
}

// Validate checks the request.
func (r *EvolutionRequest) Validate() error { return check(r) }

// RetrospectRequest asks for a retrospective of a completed almond.
type RetrospectRequest struct {
	Title   string `json:"title" validate:"required,max=32768"`
	Content string `json:"content" validate:"required,max=32768"`
	TaskID  *int64 `json:"taskId,omitempty"`
	UserID  *int64 `json:"userId,omitempty"`

	CreatedAt      string `json:"createdAt" validate:"required,max=64"`
	CompletedAt    string `json:"completedAt" validate:"required,max=64"`
	CompletionData string `json:"completionData,omitempty" validate:"max=32768"`

	Generation
}

// Validate checks the request.
func (r *RetrospectRequest) Validate() error { return check(r) }
