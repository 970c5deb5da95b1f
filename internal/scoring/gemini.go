package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const rubricInstruction = `Você é um avaliador de perfil operacional. Avalie 5 respostas (Q1..Q5) de um candidato a entregas de farmácia.
Regras do rubric (cada item vale 1 ponto):
- Q1 (rota urgente/múltiplas coletas): positivo se APONTA alinhar/confirmar rota com liderança/central (não decide sozinho).
- Q2 (cliente ausente): positivo se TENTA CONTATO e ATUALIZA SISTEMA em até ~5 min (aceite "na hora", "imediato").
- Q3 (conflito farmácia x líder): positivo se ESCALA/ALINHA com liderança/central para decidir.
- Q4 (item faltando): positivo se REGISTRA evidência (app/foto/nota) e INFORMA farmácia/liderança.
- Q5 (atraso trânsito/chuva): positivo se COMUNICA cliente e base (farmácia/central), com antecedência/rapidez, e INDICA priorização adequada.
Responda EXCLUSIVAMENTE em JSON com o esquema:
{"score_total": 0-5, "aprovado": true|false, "q": {"q1": {"ok": true|false, "motivo": "..."}, "q2": {...}, "q3": {...}, "q4": {...}, "q5": {...}}}`

// GeminiScorer scores answers with Gemini using a strict JSON contract.
type GeminiScorer struct {
	client    *genai.Client
	modelID   string
	threshold int
}

// NewGeminiScorer creates a Gemini-backed scorer.
func NewGeminiScorer(ctx context.Context, apiKey, modelID string, threshold int) (*GeminiScorer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("scoring: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("scoring: failed to create gemini client: %w", err)
	}
	return &GeminiScorer{client: client, modelID: modelID, threshold: threshold}, nil
}

// Score implements Scorer. Any malformed response is returned as an error so
// the hybrid wrapper can fall back to the rules engine.
func (s *GeminiScorer) Score(ctx context.Context, a Answers) (Evaluation, error) {
	model := s.client.GenerativeModel(s.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(rubricInstruction))

	payload, err := json.Marshal(a)
	if err != nil {
		return Evaluation{}, fmt.Errorf("scoring: encode answers: %w", err)
	}
	resp, err := model.GenerateContent(ctx, genai.Text(payload))
	if err != nil {
		return Evaluation{}, fmt.Errorf("scoring: gemini call failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Evaluation{}, errors.New("scoring: gemini returned no candidates")
	}
	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw.WriteString(string(text))
		}
	}
	return ParseRubricResponse(raw.String(), s.threshold)
}

// Close releases resources held by the Gemini client.
func (s *GeminiScorer) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

type rubricResponse struct {
	ScoreTotal *int                      `json:"score_total"`
	Aprovado   *bool                     `json:"aprovado"`
	Q          map[string]rubricQVerdict `json:"q"`
}

type rubricQVerdict struct {
	OK     bool   `json:"ok"`
	Motivo string `json:"motivo"`
}

// ParseRubricResponse validates the structured-output contract and converts it
// into an Evaluation. The approval flag is recomputed from the per-question
// verdicts against the configured threshold so a model that disagrees with its
// own arithmetic cannot approve a failing candidate.
func ParseRubricResponse(raw string, threshold int) (Evaluation, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var parsed rubricResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return Evaluation{}, fmt.Errorf("scoring: decode rubric response: %w", err)
	}
	if parsed.ScoreTotal == nil || parsed.Aprovado == nil {
		return Evaluation{}, errors.New("scoring: rubric response missing score fields")
	}
	eval := Evaluation{Source: SourceGemini}
	for i, key := range [5]string{"q1", "q2", "q3", "q4", "q5"} {
		v, ok := parsed.Q[key]
		if !ok {
			return Evaluation{}, fmt.Errorf("scoring: rubric response missing %s", key)
		}
		eval.PerQuestion[i] = Verdict{Passed: v.OK, Reason: v.Motivo}
		if v.OK {
			eval.Score++
		}
	}
	eval.Approved = eval.Score >= threshold
	return eval, nil
}
