package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/email-composer/internal/config"
	"github.com/capitalize-ai/email-composer/internal/extract"
	"github.com/capitalize-ai/email-composer/internal/llm"
	"github.com/capitalize-ai/email-composer/internal/model"
	"github.com/capitalize-ai/email-composer/internal/prompt"
	"github.com/capitalize-ai/email-composer/internal/service"
	"github.com/capitalize-ai/email-composer/pkg/logger"
)

type generateFlags struct {
	requestFile string
	attach      []string
	preset      string
	out         string
	dryRun      bool

	tone, length, style, language string

	senderName, senderRole       string
	recipientName, recipientRole string
	purpose, background          string
	instructions                 string
	model                        string
}

func generateCmd(logLevel *string) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an email",
		Example: `  emailgen generate --tone Friendly --recipient-name "Dr. Smith" --purpose "Schedule a meeting"
  emailgen generate --request email.yaml --attach resume.pdf --out email.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, &f, *logLevel)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.requestFile, "request", "r", "", "YAML file with request fields")
	fl.StringArrayVarP(&f.attach, "attach", "a", nil, "Attachment file (repeatable)")
	fl.StringVar(&f.preset, "preset", "", "Preset name")
	fl.StringVarP(&f.out, "out", "o", "", "Also write the email to a .txt or .pdf file")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Print the prompt instead of calling the model")

	fl.StringVar(&f.tone, "tone", "", "Tone")
	fl.StringVar(&f.length, "length", "", "Length")
	fl.StringVar(&f.style, "style", "", "Writing style")
	fl.StringVar(&f.language, "language", "", "Language")
	fl.StringVar(&f.senderName, "sender-name", "", "Sender name")
	fl.StringVar(&f.senderRole, "sender-role", "", "Sender role")
	fl.StringVar(&f.recipientName, "recipient-name", "", "Recipient name")
	fl.StringVar(&f.recipientRole, "recipient-role", "", "Recipient role")
	fl.StringVar(&f.purpose, "purpose", "", "Purpose of the email")
	fl.StringVar(&f.background, "background", "", "Background information")
	fl.StringVar(&f.instructions, "instructions", "", "Special instructions")
	fl.StringVar(&f.model, "model", "", "Model")

	return cmd
}

func runGenerate(cmd *cobra.Command, f *generateFlags, logLevel string) error {
	log, err := logger.NewCLI(logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	var format string
	if f.out != "" {
		if format, err = exportFormat(f.out); err != nil {
			return err
		}
	}

	req, err := buildRequest(cmd, f)
	if err != nil {
		return err
	}

	cfg := config.Load()
	manager, err := newManager(cfg, log)
	if err != nil {
		return err
	}
	sess := manager.Create()

	if f.preset != "" {
		if _, err := sess.ApplyPreset(f.preset); err != nil {
			return err
		}
	}

	req.Attachments, err = loadAttachments(manager.Composer().Extractor(), f.attach)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.dryRun {
		promptText, warnings, err := sess.Preview(req)
		if err != nil {
			return err
		}
		printWarnings(cmd, warnings)
		fmt.Fprintln(cmd.OutOrStdout(), promptText)
		return nil
	}

	result, err := sess.Generate(ctx, req)
	if err != nil {
		return err
	}
	printWarnings(cmd, result.Warnings)
	fmt.Fprintln(cmd.OutOrStdout(), result.Record.Content)

	if f.out == "" {
		return nil
	}
	artifact, err := sess.Export(result.Record.ID, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.out, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.out, err)
	}
	log.Info("email written", zap.String("path", f.out))
	return nil
}

func newManager(cfg *config.Config, log *logger.Logger) (*service.SessionManager, error) {
	provider, err := llm.ParseProvider(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(provider, cfg.APIKey(), cfg.BaseURL())
	if err != nil && !errors.Is(err, llm.ErrMissingCredential) {
		return nil, err
	}

	generator := llm.NewGenerator(client, llm.GeneratorConfig{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Retry: llm.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			BackoffUnit: cfg.BackoffUnit,
		},
		RequestTimeout: cfg.RequestTimeout,
	}, log)

	composer := service.NewComposer(
		extract.New(cfg.MaxAttachmentBytes, log),
		prompt.NewBuilder(cfg.AttachmentBudget),
		generator,
		nil,
		log,
	)

	return service.NewSessionManager(composer, service.ManagerConfig{
		MaxSessions:  1,
		HistoryLimit: cfg.HistoryLimit,
		DefaultModel: cfg.DefaultModel,
	}, log), nil
}

// buildRequest reads the optional YAML request file, then applies the flags
// that were set explicitly.
func buildRequest(cmd *cobra.Command, f *generateFlags) (model.GenerationRequest, error) {
	var req model.GenerationRequest

	if f.requestFile != "" {
		data, err := os.ReadFile(f.requestFile)
		if err != nil {
			return req, fmt.Errorf("read request file: %w", err)
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("parse request file: %w", err)
		}
	}

	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}

	var tone, length, style, language string
	set("tone", &tone, f.tone)
	set("length", &length, f.length)
	set("style", &style, f.style)
	set("language", &language, f.language)
	if tone != "" {
		req.Tone = model.Tone(tone)
	}
	if length != "" {
		req.Length = model.Length(length)
	}
	if style != "" {
		req.Style = model.Style(style)
	}
	if language != "" {
		req.Language = model.Language(language)
	}

	set("sender-name", &req.SenderName, f.senderName)
	set("sender-role", &req.SenderRole, f.senderRole)
	set("recipient-name", &req.RecipientName, f.recipientName)
	set("recipient-role", &req.RecipientRole, f.recipientRole)
	set("purpose", &req.Purpose, f.purpose)
	set("background", &req.Background, f.background)
	set("instructions", &req.SpecialInstructions, f.instructions)
	set("model", &req.Model, f.model)

	return req, nil
}

// loadAttachments reads the named files. Files failing the size or type
// check are passed on without data so they surface as warnings.
func loadAttachments(extractor *extract.Extractor, paths []string) ([]model.Attachment, error) {
	attachments := make([]model.Attachment, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("attachment: %w", err)
		}

		att := model.Attachment{Filename: filepath.Base(path), Size: info.Size()}
		if extractor.Check(att.Filename, att.Size) == nil {
			if att.Data, err = os.ReadFile(path); err != nil {
				return nil, fmt.Errorf("attachment: %w", err)
			}
		}
		attachments = append(attachments, att)
	}
	return attachments, nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
}

func extension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
