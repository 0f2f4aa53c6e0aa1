package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Free-text length caps, counted in characters.
const (
	MaxPurposeLength      = 200
	MaxBackgroundLength   = 500
	MaxInstructionsLength = 300
)

// Attachment is an uploaded file as received at the input boundary.
type Attachment struct {
	Filename string `json:"filename" yaml:"filename"`
	Data     []byte `json:"data" yaml:"-"`
	// Size is the declared size reported by the uploader.
	Size int64 `json:"size" yaml:"size"`
}

// GenerationRequest is the user's configuration for one generation.
type GenerationRequest struct {
	Tone     Tone     `json:"tone" yaml:"tone" validate:"required,oneof=Professional Friendly Casual Persuasive Sympathetic"`
	Length   Length   `json:"length" yaml:"length" validate:"required,oneof=Short Medium Detailed"`
	Style    Style    `json:"writing_style" yaml:"writing_style" validate:"required,oneof=Direct Descriptive Storytelling Technical"`
	Language Language `json:"language" yaml:"language" validate:"required,oneof=English Spanish French German Chinese"`

	SenderName    string `json:"sender_name" yaml:"sender_name"`
	SenderRole    string `json:"sender_role" yaml:"sender_role"`
	RecipientName string `json:"recipient_name" yaml:"recipient_name"`
	RecipientRole string `json:"recipient_role" yaml:"recipient_role"`

	Purpose             string `json:"purpose" yaml:"purpose" validate:"max=200"`
	Background          string `json:"background" yaml:"background" validate:"max=500"`
	SpecialInstructions string `json:"special_instructions" yaml:"special_instructions" validate:"max=300"`

	// PresetName and BodyTemplate are filled when a preset was applied.
	PresetName   string `json:"preset_name,omitempty" yaml:"preset_name"`
	BodyTemplate string `json:"body_template,omitempty" yaml:"body_template"`

	Model       string       `json:"model" yaml:"model"`
	Attachments []Attachment `json:"attachments,omitempty" yaml:"-"`
}

// ValidationError describes one or more invalid request fields.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// WithDefaults returns a copy with empty enumerated fields set to the first
// option of each set.
func (r GenerationRequest) WithDefaults() GenerationRequest {
	if r.Tone == "" {
		r.Tone = ToneProfessional
	}
	if r.Length == "" {
		r.Length = LengthShort
	}
	if r.Style == "" {
		r.Style = StyleDirect
	}
	if r.Language == "" {
		r.Language = LanguageEnglish
	}
	return r
}

// Validate checks enumerated fields and free-text length caps.
func (r *GenerationRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			problems = append(problems, field+" is required")
		case "max":
			problems = append(problems, field+" must be at most "+fe.Param()+" characters")
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of [%s], got %q", field, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value()))
		default:
			problems = append(problems, field+" is invalid")
		}
	}
	return &ValidationError{Problems: problems}
}
