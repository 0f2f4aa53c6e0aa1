package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/email-composer/internal/extract"
	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/internal/service"
	"github.com/capitalize-ai/email-composer/pkg/logger"
)

func TestExportFormat(t *testing.T) {
	f, err := exportFormat("out/Email.PDF")
	require.NoError(t, err)
	assert.Equal(t, "pdf", f)

	_, err = exportFormat("email.docx")
	assert.ErrorIs(t, err, service.ErrUnknownFormat)
}

func TestBuildRequest_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "req.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tone: Casual\npurpose: Catch up\nrecipient_name: Sam\n"), 0o600))

	cmd := generateCmd(new(string))
	require.NoError(t, cmd.Flags().Parse([]string{"--request", path, "--purpose", "Plan the offsite"}))

	var f generateFlags
	f.requestFile = path
	f.purpose = "Plan the offsite"

	req, err := buildRequest(cmd, &f)
	require.NoError(t, err)
	assert.Equal(t, model.ToneCasual, req.Tone)
	assert.Equal(t, "Sam", req.RecipientName)
	assert.Equal(t, "Plan the offsite", req.Purpose)
}

func TestLoadAttachments_SkipsReadingOversized(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "notes.txt")
	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(small, []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte("x"), 64), 0o600))

	atts, err := loadAttachments(extract.New(32, logger.NewNop()), []string{small, big})
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, []byte("hi"), atts[0].Data)
	assert.Nil(t, atts[1].Data)
	assert.Equal(t, int64(64), atts[1].Size)
}

func TestPresetsCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"presets"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Job Application (Professional)")
}
