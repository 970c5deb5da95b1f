package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	UseMemoryQueue bool
	WorkerCount    int
	DatabaseURL    string

	// WhatsApp Business (Graph API)
	WhatsAppBaseURL     string
	WhatsAppToken       string
	WhatsAppPhoneID     string
	WhatsAppVerifyToken string

	// Dialogflow CX
	DialogflowProject  string
	DialogflowLocation string
	DialogflowAgentID  string
	DialogflowLanguage string

	// Google Sheets tables
	VacanciesSheetID string
	VacanciesTab     string
	LeadsSheetID     string
	LeadsTab         string

	// Candidate-facing application form
	ApplicationFormURL string

	// Shared secret expected on fulfillment calls
	FulfillmentSecret string

	// Profile scoring
	GeminiAPIKey    string
	GeminiModelID   string
	ScoringTimeout  time.Duration
	ProfileMinScore int

	// Outbound pacing
	BubbleDelay     time.Duration
	SegmentMaxChars int

	// Session memory (Redis)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Turn queue
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	TurnQueueURL        string

	// Speech-to-text for voice notes
	SpeechEnabled bool

	// Recruiter notifications
	NotifyProvider    string
	RecruiterEmail    string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		WhatsAppBaseURL:     getEnv("WA_BASE_URL", "https://graph.facebook.com/v20.0"),
		WhatsAppToken:       getEnv("WA_TOKEN", ""),
		WhatsAppPhoneID:     getEnv("WA_PHONE_ID", ""),
		WhatsAppVerifyToken: getEnv("WA_VERIFY_TOKEN", ""),

		DialogflowProject:  getEnv("GCLOUD_PROJECT", ""),
		DialogflowLocation: getEnv("CX_LOCATION", "us-central1"),
		DialogflowAgentID:  getEnv("CX_AGENT_ID", ""),
		DialogflowLanguage: getEnv("CX_LANGUAGE", "pt-BR"),

		VacanciesSheetID: getEnv("SHEETS_VAGAS_ID", ""),
		VacanciesTab:     getEnv("SHEETS_VAGAS_TAB", "Vagas"),
		LeadsSheetID:     getEnv("SHEETS_LEADS_ID", ""),
		LeadsTab:         getEnv("SHEETS_LEADS_TAB", "Leads"),

		ApplicationFormURL: getEnv("APPLICATION_FORM_URL", ""),

		FulfillmentSecret: getEnv("FULFILLMENT_SECRET", ""),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:   getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		ScoringTimeout:  getEnvAsDuration("SCORING_TIMEOUT", 8*time.Second),
		ProfileMinScore: getEnvAsInt("PROFILE_MIN_SCORE", 3),

		BubbleDelay:     getEnvAsDuration("BUBBLE_DELAY", 450*time.Millisecond),
		SegmentMaxChars: getEnvAsInt("SEGMENT_MAX_CHARS", 900),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		TurnQueueURL:        getEnv("TURN_QUEUE_URL", ""),

		SpeechEnabled: getEnvAsBool("SPEECH_ENABLED", false),

		NotifyProvider:    getEnv("NOTIFY_PROVIDER", ""),
		RecruiterEmail:    getEnv("RECRUITER_EMAIL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CoopEntrega"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
