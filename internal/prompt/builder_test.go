package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/email-composer/internal/extract"
	"github.com/capitalize-ai/email-composer/internal/model"
)

func scenarioRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		Tone:     model.ToneProfessional,
		Length:   model.LengthShort,
		Style:    model.StyleDirect,
		Language: model.LanguageEnglish,
		Purpose:  "Schedule a meeting",
	}
}

func TestBuild_ScenarioWithoutAttachments(t *testing.T) {
	out := NewBuilder(DefaultAttachmentBudget).Build(scenarioRequest(), nil)

	for _, want := range []string{"Professional", "English", "Schedule a meeting", NoAttachmentMarker} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "Subject:")
	assert.Contains(t, out, "Do not refer to any attachments.")
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder(DefaultAttachmentBudget)
	req := scenarioRequest()
	req.SenderName = "Alex"
	req.RecipientName = "Dr. Smith"
	req.RecipientRole = "Department Chair"
	results := []extract.Result{{Filename: "agenda.txt", Text: "1. Budget\n2. Hiring"}}

	first := b.Build(req, results)
	second := b.Build(req, results)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Dr. Smith (Department Chair)")
	assert.Contains(t, first, "--- Content from agenda.txt ---\n1. Budget")
	assert.Contains(t, first, "Mention the attached documents")
}

func TestBuild_IncludesPresetTemplate(t *testing.T) {
	p, err := model.LookupPreset("Job Application")
	require.NoError(t, err)

	req := scenarioRequest()
	req.PresetName = p.Name
	req.BodyTemplate = p.BodyTemplate

	out := NewBuilder(0).Build(req, nil)
	assert.Contains(t, out, "(Job Application template)")
	assert.Contains(t, out, p.BodyTemplate)
}

func TestBuild_MissingIdentity(t *testing.T) {
	out := NewBuilder(0).Build(scenarioRequest(), nil)
	assert.Contains(t, out, "- Sender: not specified")
	assert.Contains(t, out, "- Background: none provided")
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 3500)

	got, truncated := Truncate(long, DefaultAttachmentBudget)
	require.True(t, truncated)
	assert.Equal(t, strings.Repeat("a", 3000)+TruncatedMarker, got)

	short := strings.Repeat("b", 3000)
	got, truncated = Truncate(short, DefaultAttachmentBudget)
	assert.False(t, truncated)
	assert.Equal(t, short, got)
}

func TestTruncate_CountsCharacters(t *testing.T) {
	got, truncated := Truncate(strings.Repeat("ü", 10), 4)
	require.True(t, truncated)
	assert.Equal(t, "üüüü"+TruncatedMarker, got)
	assert.True(t, utf8.ValidString(got))
}

func TestAttachmentBlock_TruncatesCombinedText(t *testing.T) {
	b := NewBuilder(50)
	block := b.AttachmentBlock([]extract.Result{
		{Filename: "a.txt", Text: strings.Repeat("x", 40)},
		{Filename: "b.txt", Text: strings.Repeat("y", 40)},
	})

	assert.True(t, strings.HasSuffix(block, TruncatedMarker))
	assert.Equal(t, 50, utf8.RuneCountInString(strings.TrimSuffix(block, TruncatedMarker)))
	assert.NotContains(t, block, "b.txt")
}

func TestCombineAttachments(t *testing.T) {
	got := CombineAttachments([]extract.Result{
		{Filename: "one.txt", Text: "1"},
		{Filename: "two.txt", Text: "2"},
	})
	assert.Equal(t, "--- Content from one.txt ---\n1\n\n--- Content from two.txt ---\n2", got)
}
