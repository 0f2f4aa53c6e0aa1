// Package prompt renders a generation request into the instruction sent to
// the completion endpoint.
package prompt

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/email-composer/internal/extract"
	"github.com/capitalize-ai/email-composer/internal/model"
)

const (
	// DefaultAttachmentBudget is the character budget for combined attachment text.
	DefaultAttachmentBudget = 3000

	// TruncatedMarker is appended when attachment text exceeds the budget.
	TruncatedMarker = "[Content truncated]"

	// NoAttachmentMarker stands in for the attachment block when there is none.
	NoAttachmentMarker = "No attachment content provided."
)

// Builder renders prompts. The zero value uses DefaultAttachmentBudget.
type Builder struct {
	AttachmentBudget int
}

// NewBuilder creates a builder with the given attachment character budget.
func NewBuilder(budget int) *Builder {
	return &Builder{AttachmentBudget: budget}
}

func (b *Builder) budget() int {
	if b == nil || b.AttachmentBudget <= 0 {
		return DefaultAttachmentBudget
	}
	return b.AttachmentBudget
}

// CombineAttachments joins extracted texts in order, each preceded by a
// delimiter line naming its source file.
func CombineAttachments(results []extract.Result) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Content from %s ---\n", r.Filename)
		b.WriteString(r.Text)
	}
	return b.String()
}

// Truncate cuts text to budget characters and appends TruncatedMarker. Text
// within the budget is returned unchanged.
func Truncate(text string, budget int) (string, bool) {
	runes := []rune(text)
	if len(runes) <= budget {
		return text, false
	}
	return string(runes[:budget]) + TruncatedMarker, true
}

// AttachmentBlock returns the possibly truncated attachment section, or
// NoAttachmentMarker when there is no attachment text.
func (b *Builder) AttachmentBlock(results []extract.Result) string {
	if len(results) == 0 {
		return NoAttachmentMarker
	}
	text, _ := Truncate(CombineAttachments(results), b.budget())
	return text
}

// Build renders the instruction for req. Identical inputs always produce an
// identical string.
func (b *Builder) Build(req *model.GenerationRequest, attachments []extract.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Compose a %s email in %s with the following specifications:\n",
		strings.ToLower(string(req.Tone)), req.Language)
	fmt.Fprintf(&sb, "- Tone: %s\n", req.Tone)
	fmt.Fprintf(&sb, "- Language: %s\n", req.Language)
	fmt.Fprintf(&sb, "- Length: %s\n", req.Length)
	fmt.Fprintf(&sb, "- Writing style: %s\n", req.Style)
	fmt.Fprintf(&sb, "- Sender: %s\n", identity(req.SenderName, req.SenderRole))
	fmt.Fprintf(&sb, "- Recipient: %s\n", identity(req.RecipientName, req.RecipientRole))
	fmt.Fprintf(&sb, "- Purpose: %s\n", orNone(req.Purpose))
	fmt.Fprintf(&sb, "- Background: %s\n", orNone(req.Background))
	fmt.Fprintf(&sb, "- Special instructions: %s\n", orNone(req.SpecialInstructions))

	if req.BodyTemplate != "" {
		sb.WriteString("\nUse the following outline as a starting point")
		if req.PresetName != "" {
			fmt.Fprintf(&sb, " (%s template)", req.PresetName)
		}
		sb.WriteString(":\n")
		sb.WriteString(req.BodyTemplate)
		sb.WriteString("\n")
	}

	sb.WriteString("\nAttachment content:\n")
	sb.WriteString(b.AttachmentBlock(attachments))
	sb.WriteString("\n")

	sb.WriteString("\nStructure requirements:\n")
	sb.WriteString("1. Start with a subject line in the form \"Subject: ...\".\n")
	sb.WriteString("2. Follow with an appropriate greeting such as \"Dear ...,\".\n")
	sb.WriteString("3. Write a clear body that covers the purpose and background.\n")
	sb.WriteString("4. End with a closing such as \"Best regards,\" followed by the sender's name.\n")
	if len(attachments) > 0 {
		sb.WriteString("5. Mention the attached documents naturally in the body.\n")
	} else {
		sb.WriteString("5. Do not refer to any attachments.\n")
	}

	sb.WriteString("\nStyle guidance:\n")
	fmt.Fprintf(&sb, "- %s\n", styleDirective(req.Style))
	fmt.Fprintf(&sb, "- %s\n", lengthDirective(req.Length))
	sb.WriteString("- Use appropriate placeholders for personal information that was not provided.\n")

	return sb.String()
}

func identity(name, role string) string {
	switch {
	case name == "" && role == "":
		return "not specified"
	case role == "":
		return name
	case name == "":
		return role
	default:
		return fmt.Sprintf("%s (%s)", name, role)
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none provided"
	}
	return s
}

func styleDirective(s model.Style) string {
	switch s {
	case model.StyleDirect:
		return "Be direct: state the main point early and keep sentences short."
	case model.StyleDescriptive:
		return "Be descriptive: use vivid, specific detail to paint a clear picture."
	case model.StyleStorytelling:
		return "Use storytelling: frame the message as a brief narrative with a clear arc."
	case model.StyleTechnical:
		return "Be technical: use precise terminology and concrete facts."
	default:
		return "Write clearly."
	}
}

func lengthDirective(l model.Length) string {
	switch l {
	case model.LengthShort:
		return "Keep the email short, roughly 50 to 100 words."
	case model.LengthMedium:
		return "Aim for a medium length, roughly 100 to 200 words."
	case model.LengthDetailed:
		return "Write a detailed email, roughly 200 to 350 words."
	default:
		return "Use a reasonable length."
	}
}
