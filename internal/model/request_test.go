package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() GenerationRequest {
	return GenerationRequest{
		Tone:     ToneProfessional,
		Length:   LengthShort,
		Style:    StyleDirect,
		Language: LanguageEnglish,
		Purpose:  "Schedule a meeting",
	}
}

func TestValidate_Valid(t *testing.T) {
	req := validRequest()
	assert.NoError(t, req.Validate())
}

func TestValidate_EnumOutsideSet(t *testing.T) {
	req := validRequest()
	req.Tone = "Angry"

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "tone must be one of")
	assert.Contains(t, err.Error(), `"Angry"`)
}

func TestValidate_LengthCaps(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GenerationRequest)
		problem string
	}{
		{
			name:    "purpose",
			mutate:  func(r *GenerationRequest) { r.Purpose = strings.Repeat("a", MaxPurposeLength+1) },
			problem: "purpose must be at most 200 characters",
		},
		{
			name:    "background",
			mutate:  func(r *GenerationRequest) { r.Background = strings.Repeat("b", MaxBackgroundLength+1) },
			problem: "background must be at most 500 characters",
		},
		{
			name:    "special instructions",
			mutate:  func(r *GenerationRequest) { r.SpecialInstructions = strings.Repeat("c", MaxInstructionsLength+1) },
			problem: "special_instructions must be at most 300 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, []string{tt.problem}, ve.Problems)
		})
	}
}

func TestValidate_CapCountsCharacters(t *testing.T) {
	req := validRequest()
	// 200 two-byte characters are within the cap.
	req.Purpose = strings.Repeat("é", MaxPurposeLength)
	assert.NoError(t, req.Validate())
}

func TestValidate_MissingEnums(t *testing.T) {
	var req GenerationRequest
	err := req.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Problems, 4)
	assert.Contains(t, ve.Problems, "tone is required")
}

func TestWithDefaults(t *testing.T) {
	req := GenerationRequest{Tone: ToneFriendly}.WithDefaults()

	assert.Equal(t, ToneFriendly, req.Tone)
	assert.Equal(t, LengthShort, req.Length)
	assert.Equal(t, StyleDirect, req.Style)
	assert.Equal(t, LanguageEnglish, req.Language)
	assert.NoError(t, req.Validate())
}

func TestMetadataFor_SnipsPurpose(t *testing.T) {
	req := validRequest()
	req.RecipientName = "Dr. Smith"
	req.Purpose = strings.Repeat("x", 80)

	meta := MetadataFor(&req)
	assert.Equal(t, ToneProfessional, meta.Tone)
	assert.Equal(t, "Dr. Smith", meta.RecipientName)
	assert.Len(t, meta.Purpose, PurposeSnippetLength)
}

func TestSnippet_RuneSafe(t *testing.T) {
	assert.Equal(t, "日本", Snippet("日本語", 2))
	assert.Equal(t, "short", Snippet("short", 50))
}
