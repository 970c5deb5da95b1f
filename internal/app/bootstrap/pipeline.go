package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/coopentrega/recruiting-ai-platform/internal/config"
	"github.com/coopentrega/recruiting-ai-platform/internal/conversation"
	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
	"github.com/coopentrega/recruiting-ai-platform/internal/leads"
	"github.com/coopentrega/recruiting-ai-platform/internal/nlu"
	"github.com/coopentrega/recruiting-ai-platform/internal/notify"
	"github.com/coopentrega/recruiting-ai-platform/internal/outbound"
	"github.com/coopentrega/recruiting-ai-platform/internal/scoring"
	"github.com/coopentrega/recruiting-ai-platform/internal/sheets"
	"github.com/coopentrega/recruiting-ai-platform/internal/speech"
	"github.com/coopentrega/recruiting-ai-platform/internal/vacancies"
	"github.com/coopentrega/recruiting-ai-platform/internal/whatsapp"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// BuildScorer assembles the profile scorer: Gemini with the keyword rules as
// fallback when an API key is configured, plain rules otherwise.
func BuildScorer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) scoring.Scorer {
	rules := &scoring.RulesScorer{Threshold: cfg.ProfileMinScore}
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		logger.Info("profile scoring using keyword rules only")
		return rules
	}
	ai, err := scoring.NewGeminiScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, cfg.ProfileMinScore)
	if err != nil {
		logger.Warn("gemini scorer unavailable, falling back to rules", "error", err)
		return rules
	}
	return scoring.NewHybrid(ai, rules, cfg.ScoringTimeout, logger)
}

// BuildNotifier assembles the recruiter email notifier, or nil when no
// provider or recipient is configured.
func BuildNotifier(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) *notify.LeadNotifier {
	if strings.TrimSpace(cfg.RecruiterEmail) == "" {
		return nil
	}
	var sender notify.EmailSender
	switch strings.ToLower(cfg.NotifyProvider) {
	case "sendgrid":
		sender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case "ses":
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
		}, logger)
	default:
		return nil
	}
	return notify.NewLeadNotifier(sender, cfg.RecruiterEmail)
}

// BuildFunnelRouter assembles the fulfillment tag router over the vacancy
// catalog, the scorer and the lead recorder.
func BuildFunnelRouter(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*funnel.Router, error) {
	sheetsClient, err := sheets.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: sheets client: %w", err)
	}

	catalog := vacancies.NewCatalog(sheetsClient, cfg.VacanciesSheetID, cfg.VacanciesTab, logger)
	scorer := BuildScorer(ctx, cfg, logger)

	var recorder leads.Recorder = leads.NewSheetsRecorder(sheetsClient, cfg.LeadsSheetID, cfg.LeadsTab)
	if notifier := BuildNotifier(cfg, awsCfg, logger); notifier != nil {
		recorder = leads.NewNotifyingRecorder(recorder, notifier, logger)
	}

	return funnel.NewRouter(catalog, scorer, recorder, cfg.ApplicationFormURL, logger), nil
}

// BuildEngine connects the Dialogflow CX session client.
func BuildEngine(ctx context.Context, cfg *appconfig.Config) (*nlu.DialogflowCX, error) {
	return nlu.NewDialogflowCX(ctx, cfg.DialogflowProject, cfg.DialogflowLocation, cfg.DialogflowAgentID, cfg.DialogflowLanguage)
}

// BuildDeliveryStack builds the WhatsApp client and the renderer on top of it.
func BuildDeliveryStack(cfg *appconfig.Config, logger *logging.Logger) (*whatsapp.Client, *outbound.Renderer) {
	client := whatsapp.NewClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneID, cfg.WhatsAppBaseURL)
	renderer := outbound.NewRenderer(client, logger,
		outbound.WithBubbleDelay(cfg.BubbleDelay),
		outbound.WithSegmentMax(cfg.SegmentMaxChars),
	)
	return client, renderer
}

// BuildNormalizer builds the inbound normalizer; voice notes get transcription
// only when speech is enabled and the Google client connects.
func BuildNormalizer(ctx context.Context, cfg *appconfig.Config, client *whatsapp.Client, logger *logging.Logger) *whatsapp.Normalizer {
	if !cfg.SpeechEnabled {
		return whatsapp.NewNormalizer(nil, nil, logger)
	}
	stt, err := speech.NewGoogleTranscriber(ctx, cfg.DialogflowLanguage)
	if err != nil {
		logger.Warn("speech-to-text unavailable, voice notes disabled", "error", err)
		return whatsapp.NewNormalizer(nil, nil, logger)
	}
	return whatsapp.NewNormalizer(client, stt, logger)
}

// BuildQueue returns the turn queue: in-memory when configured or when no SQS
// queue URL is present, SQS otherwise.
func BuildQueue(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) conversation.Queue {
	if cfg.UseMemoryQueue || strings.TrimSpace(cfg.TurnQueueURL) == "" {
		logger.Info("using in-memory turn queue")
		return conversation.NewMemoryQueue(0)
	}
	return conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.TurnQueueURL)
}
