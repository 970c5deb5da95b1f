package scoring

import (
	"context"

	"github.com/coopentrega/recruiting-ai-platform/internal/textnorm"
)

// Term vocabularies for the deterministic rubrics. Kept as data so individual
// rubrics can be tuned without touching control flow.
var (
	alignTerms      = []string{"confirmo", "alinho", "combino", "valido", "consulto", "falo"}
	leadershipTerms = []string{"lider", "lideranca", "supervisor", "coordenador", "central", "cooperativa", "dispatch", "gestor"}
	aloneTerms      = []string{"sozinho", "por conta", "eu decido", "eu escolho"}

	contactTerms = []string{"ligo", "ligar", "whatsapp", "chamo", "entro em contato", "tento contato", "tento contactar", "tento contatar", "contato"}
	updateTerms  = []string{"atualizo", "registro", "marco no app", "sistema", "plataforma", "app"}
	promptTerms  = []string{"agora", "na hora", "imediat"}

	escalateTerms = []string{"aciono", "consulto", "informo", "alinho", "escalo", "falo"}

	evidenceTerms = []string{"registro", "foto", "nota", "app", "sistema", "comprovante"}
	informTerms   = []string{"farmacia", "expedicao", "balcao", "responsavel", "lider", "coordenador", "lideranca"}

	customerTerms = []string{"cliente", "clientes"}
	baseTerms     = []string{"farmacia", "lider", "coordenador", "central", "cooperativa", "base"}
	noticeTerms   = []string{"antecedencia", "assim que", "o quanto antes", "imediat"}
	priorityTerms = []string{"priorizo", "prioridade", "rota", "urgente", "urgencias", "otimizo"}
)

// Q1: urgent multi-pickup route. Pass when the answer aligns the route with
// leadership/dispatch and does not claim to decide alone.
func evalQ1(answer string) Verdict {
	aligns := textnorm.HasAny(answer, alignTerms) && textnorm.HasAny(answer, leadershipTerms)
	alone := textnorm.HasAny(answer, aloneTerms)
	if aligns && !alone {
		return Verdict{Passed: true, Reason: "Alinhou rota com liderança/central."}
	}
	return Verdict{Passed: false, Reason: "Deveria alinhar a rota com liderança/central em urgências."}
}

// Q2: absent customer. Pass when the answer attempts contact AND updates the
// system within ~5 minutes.
func evalQ2(answer string) Verdict {
	contacts := textnorm.HasAny(answer, contactTerms)
	updates := textnorm.HasAny(answer, updateTerms)
	fast := textnorm.WithinFiveMinutes(answer) || textnorm.HasAny(answer, promptTerms)
	if contacts && updates && fast {
		return Verdict{Passed: true, Reason: "Tenta contato e atualiza o sistema em até 5 min."}
	}
	return Verdict{Passed: false, Reason: "Esperado: tentar contato e atualizar o sistema rapidamente (≤5 min)."}
}

// Q3: pharmacy vs leader conflict. Pass when the answer escalates to
// leadership/dispatch.
func evalQ3(answer string) Verdict {
	escalates := textnorm.HasAny(answer, escalateTerms) && textnorm.HasAny(answer, leadershipTerms)
	if escalates {
		return Verdict{Passed: true, Reason: "Escala/alinha com liderança/central no conflito."}
	}
	return Verdict{Passed: false, Reason: "Deveria escalar para liderança/central quando há conflito."}
}

// Q4: missing item. Pass when the answer records evidence and informs the
// pharmacy/leadership.
func evalQ4(answer string) Verdict {
	records := textnorm.HasAny(answer, evidenceTerms)
	informs := textnorm.HasAny(answer, informTerms)
	if records && informs {
		return Verdict{Passed: true, Reason: "Registra evidência e informa farmácia/liderança."}
	}
	return Verdict{Passed: false, Reason: "Esperado: registrar (app/foto) e informar farmácia/liderança."}
}

// Q5: traffic/rain delay. Pass when at least two of {customer contact, base
// contact, early notice, prioritization} are present.
func evalQ5(answer string) Verdict {
	signals := 0
	if textnorm.HasAny(answer, customerTerms) {
		signals++
	}
	if textnorm.HasAny(answer, baseTerms) {
		signals++
	}
	if textnorm.HasAny(answer, noticeTerms) || textnorm.WithinFiveMinutes(answer) {
		signals++
	}
	if textnorm.HasAny(answer, priorityTerms) {
		signals++
	}
	if signals >= 2 {
		return Verdict{Passed: true, Reason: "Comunica e ajusta priorização diante do atraso."}
	}
	return Verdict{Passed: false, Reason: "Esperado: comunicar (cliente/base), avisar com antecedência e priorizar entregas."}
}

var rubrics = [5]func(string) Verdict{evalQ1, evalQ2, evalQ3, evalQ4, evalQ5}

// RulesScorer is the deterministic rubric engine. It is total: Score never
// returns an error.
type RulesScorer struct {
	// Threshold is the minimum passing-rubric count for approval. Zero
	// means DefaultThreshold.
	Threshold int
}

// Score implements Scorer.
func (s *RulesScorer) Score(_ context.Context, a Answers) (Evaluation, error) {
	return s.Evaluate(a), nil
}

// Evaluate runs the five rubrics and aggregates the result.
func (s *RulesScorer) Evaluate(a Answers) Evaluation {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	answers := [5]string{a.Q1, a.Q2, a.Q3, a.Q4, a.Q5}
	eval := Evaluation{Source: SourceRules}
	for i, rubric := range rubrics {
		eval.PerQuestion[i] = rubric(answers[i])
		if eval.PerQuestion[i].Passed {
			eval.Score++
		}
	}
	eval.Approved = eval.Score >= threshold
	return eval
}
