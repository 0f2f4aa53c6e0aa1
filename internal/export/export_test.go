package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	tests := map[string]LineKind{
		"Subject: Meeting":   LineHeading,
		"Dear Dr. Smith,":    LineSubheading,
		"Best regards,":      LineSubheading,
		"Sincerely,":         LineSubheading,
		"  Regards,":         LineSubheading,
		"":                   LineBlank,
		"   ":                LineBlank,
		"I hope you're well": LineBody,
	}
	for line, want := range tests {
		assert.Equal(t, want, ClassifyLine(line), "%q", line)
	}
}

func TestToPlainText_Untransformed(t *testing.T) {
	content := "Subject: Café\n\nDear Team,\n"
	assert.Equal(t, []byte(content), ToPlainText(content))
}

func TestToPDF(t *testing.T) {
	content := "Subject: Meeting\n\nDear Team,\n\nLet's meet on Thursday – 10 am.\n\nBest regards,\nAlex"

	data, err := ToPDF(content, "Email to Team")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestToPDF_Paginates(t *testing.T) {
	content := strings.Repeat("A line of body text.\n", 200)

	data, err := ToPDF(content, "")
	require.NoError(t, err)
	// One "/Type /Pages" tree plus several "/Type /Page" objects.
	assert.Greater(t, bytes.Count(data, []byte("/Type /Page")), 2)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "email_to_Dr._Smith.pdf", Filename("Dr. Smith", "pdf"))
	assert.Equal(t, "email_to_Jane_Doe.txt", Filename(" Jane Doe ", "txt"))
	assert.Equal(t, "generated_email.txt", Filename("", "txt"))
	assert.Equal(t, "email_to_ab.txt", Filename("a/b", "txt"))
}

func TestToPDF_NonLatinScripts(t *testing.T) {
	content := "Subject: Встреча\n\nDear Ομάδα,\n\nRéunion à 10 h – café inclus.\n\nBest regards,\nAlex"

	data, err := ToPDF(content, "Email to Ομάδα")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestToPDF_UnrenderableTextIsReported(t *testing.T) {
	content := "Subject: 会议安排\n\nDear 团队,\n\n请准时参加。\n\nBest regards,\nAlex"

	data, err := ToPDF(content, "Email to 团队")
	require.ErrorIs(t, err, ErrUnrenderable)
	assert.Contains(t, err.Error(), "U+")
	assert.Nil(t, data)
}

func TestToPDF_TabsAndCRLF(t *testing.T) {
	data, err := ToPDF("Subject: Agenda\r\n\r\n\t1. Budget\r\n", "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
