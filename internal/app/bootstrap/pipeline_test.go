package bootstrap

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"

	appconfig "github.com/coopentrega/recruiting-ai-platform/internal/config"
	"github.com/coopentrega/recruiting-ai-platform/internal/conversation"
	"github.com/coopentrega/recruiting-ai-platform/internal/scoring"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

func TestBuildScorerWithoutAPIKeyUsesRules(t *testing.T) {
	cfg := &appconfig.Config{ProfileMinScore: 3}
	scorer := BuildScorer(context.Background(), cfg, logging.Default())

	rules, ok := scorer.(*scoring.RulesScorer)
	assert.True(t, ok, "no API key must yield the rules scorer, got %T", scorer)
	assert.Equal(t, 3, rules.Threshold)
}

func TestBuildQueueDefaultsToMemory(t *testing.T) {
	cfg := &appconfig.Config{}
	queue := BuildQueue(cfg, aws.Config{}, logging.Default())
	assert.IsType(t, &conversation.MemoryQueue{}, queue)
}

func TestBuildQueueMemoryOverridesSQS(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: true, TurnQueueURL: "https://sqs.example/queue"}
	queue := BuildQueue(cfg, aws.Config{}, logging.Default())
	assert.IsType(t, &conversation.MemoryQueue{}, queue)
}

func TestBuildNotifierRequiresRecipient(t *testing.T) {
	cfg := &appconfig.Config{NotifyProvider: "sendgrid", SendGridAPIKey: "sg-key"}
	assert.Nil(t, BuildNotifier(cfg, aws.Config{}, logging.Default()))
}

func TestBuildNotifierUnknownProvider(t *testing.T) {
	cfg := &appconfig.Config{RecruiterEmail: "rh@coopentrega.com.br", NotifyProvider: "pigeon"}
	assert.Nil(t, BuildNotifier(cfg, aws.Config{}, logging.Default()))
}

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	cfg := &appconfig.Config{}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.Default(), false))
}

func TestBuildSessionStoreNilWithoutRedis(t *testing.T) {
	cfg := &appconfig.Config{}
	assert.Nil(t, BuildSessionStore(nil, cfg, logging.Default()))
}
