package funnel

import (
	"context"
	"fmt"
	"strings"

	"github.com/coopentrega/recruiting-ai-platform/internal/leads"
	"github.com/coopentrega/recruiting-ai-platform/internal/observability/metrics"
	"github.com/coopentrega/recruiting-ai-platform/internal/scoring"
	"github.com/coopentrega/recruiting-ai-platform/internal/textnorm"
	"github.com/coopentrega/recruiting-ai-platform/internal/vacancies"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// Fulfillment tags, one per conversation step.
const (
	TagVerifyCity       = "verificar_cidade"
	TagGateRequirements = "gate_requisitos"
	TagScoreProfile     = "analisar_perfil"
	TagListVacancies    = "listar_vagas"
	TagBrowseVacancies  = "navegar_vagas"
	TagSelectVacancy    = "selecionar_vaga"
	TagSaveLead         = "salvar_lead"
)

const internalErrorText = "Tive um problema técnico por aqui. Pode tentar de novo em instantes?"

// VacancyLister is the catalog view the router needs.
type VacancyLister interface {
	ListOpen(ctx context.Context, city string) []vacancies.Vacancy
}

// Result is one transition's output: the patch to merge into the session
// snapshot plus the ordered outbound messages.
type Result struct {
	Patch    Params
	Messages []Message
}

// Router dispatches fulfillment tags to their transition functions.
type Router struct {
	catalog  VacancyLister
	scorer   scoring.Scorer
	recorder leads.Recorder
	formURL  string
	logger   *logging.Logger

	fallback *scoring.RulesScorer
	metrics  *metrics.FunnelMetrics
}

// WithMetrics attaches funnel metrics and returns the router.
func (r *Router) WithMetrics(m *metrics.FunnelMetrics) *Router {
	r.metrics = m
	return r
}

// NewRouter creates the tag router. formURL is the external application form
// the candidate receives after lead capture.
func NewRouter(catalog VacancyLister, scorer scoring.Scorer, recorder leads.Recorder, formURL string, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{
		catalog:  catalog,
		scorer:   scorer,
		recorder: recorder,
		formURL:  formURL,
		logger:   logger,
		fallback: &scoring.RulesScorer{Threshold: scoring.DefaultThreshold},
	}
}

// Handle runs the transition selected by tag against the given snapshot. A
// panicking transition is converted into a generic error bubble with an empty
// patch so the conversation survives the turn.
func (r *Router) Handle(ctx context.Context, tag string, params Params) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("fulfillment transition panicked", "tag", tag, "panic", rec)
			result = Result{Patch: Params{}, Messages: []Message{Text{Body: internalErrorText}}}
		}
	}()
	if params == nil {
		params = Params{}
	}

	switch tag {
	case TagVerifyCity:
		return r.verifyCity(ctx, params)
	case TagGateRequirements:
		return r.gateRequirements(params)
	case TagScoreProfile:
		return r.scoreProfile(ctx, params)
	case TagListVacancies:
		return r.listVacancies(ctx, params)
	case TagBrowseVacancies:
		return r.browseVacancies(params)
	case TagSelectVacancy:
		return r.selectVacancy(params)
	case TagSaveLead:
		return r.saveLead(ctx, params)
	}
	r.logger.Warn("unknown fulfillment tag", "tag", tag)
	return Result{Patch: Params{}}
}

func (r *Router) verifyCity(ctx context.Context, params Params) Result {
	first := params.FirstName()
	greeting := ""
	prefix := ""
	if first != "" {
		greeting = ", " + first
		prefix = first + ", "
	}
	searching := Text{Body: fmt.Sprintf("Obrigado%s! Vou verificar vagas na sua cidade…", greeting)}

	city := params.City()
	if city == "" {
		return Result{
			Patch:    Params{KeyOpenings: false},
			Messages: []Message{searching, Text{Body: prefix + "não entendi a cidade. Pode informar de novo?"}},
		}
	}

	open := r.catalog.ListOpen(ctx, city)
	hasOpenings := len(open) > 0
	verdict := Text{Body: fmt.Sprintf("Poxa… %sno momento não há vagas em %s.", prefix, city)}
	if hasOpenings {
		verdict = Text{Body: fmt.Sprintf("Ótimo! %stemos vagas em %s.", prefix, city)}
	}
	return Result{
		Patch:    Params{KeyOpenings: hasOpenings, KeyCity: city},
		Messages: []Message{searching, verdict},
	}
}

func (r *Router) gateRequirements(params Params) Result {
	first := params.FirstName()
	moto := params.Bool(KeyMotoOK)
	cnh := params.Bool(KeyCNHOK)
	android := params.Bool(KeyAndroidOK)

	if moto && cnh && android {
		ack := "Perfeito! Você atende aos requisitos básicos."
		if first != "" {
			ack = first + ", perfeito! Você atende aos requisitos básicos."
		}
		return Result{
			Patch: Params{KeyRequisites: true},
			Messages: []Message{
				Text{Body: ack},
				Text{Body: "Vamos fazer uma avaliação rápida do seu perfil com 5 situações reais do dia a dia. Responda de forma objetiva, combinado?"},
			},
		}
	}

	var missing []string
	if !moto {
		missing = append(missing, "• moto com documentação em dia")
	}
	if !cnh {
		missing = append(missing, "• CNH A válida")
	}
	if !android {
		missing = append(missing, "• celular Android com internet")
	}
	greeting := ""
	if first != "" {
		greeting = ", " + first
	}
	return Result{
		Patch: Params{KeyRequisites: false},
		Messages: []Message{
			Text{Body: fmt.Sprintf("Poxa%s… para atuar conosco é necessário atender a todos os requisitos:", greeting)},
			Text{Body: strings.Join(missing, "\n")},
			Text{Body: "Se quiser, posso te avisar quando abrirmos oportunidades que não exijam todos esses itens. Tudo bem?"},
		},
	}
}

func (r *Router) scoreProfile(ctx context.Context, params Params) Result {
	answers := params.Answers()
	eval, err := r.scorer.Score(ctx, answers)
	if err != nil {
		r.logger.Warn("scorer failed, using rules", "error", err)
		eval = r.fallback.Evaluate(answers)
	}
	r.metrics.ObserveScoring(eval.Source, eval.Approved)

	patch := Params{
		KeyApproved: eval.Approved,
		KeyScore:    eval.Score,
		KeySummary:  eval.Summary(),
	}
	if eval.Approved {
		return Result{Patch: patch, Messages: []Message{Text{Body: "✅ Perfil aprovado! Vamos seguir."}}}
	}
	return Result{Patch: patch, Messages: []Message{
		Text{Body: "Obrigado por se candidatar! Neste momento não seguiremos com a vaga. Podemos te avisar quando houver oportunidades mais compatíveis?"},
	}}
}

func (r *Router) listVacancies(ctx context.Context, params Params) Result {
	city := params.City()
	open := r.catalog.ListOpen(ctx, city)
	total := len(open)

	// Freezing the list also clears any stale selection: omission means
	// "leave unchanged" on the engine side.
	patch := Params{
		KeyListed:     true,
		KeyVacancies:  open,
		KeyVacancyIdx: 0,
		KeyVacancyTot: total,
		KeyVacancyID:  "",
	}
	switch {
	case total == 0:
		patch[KeyVacancies] = []vacancies.Vacancy{}
		return Result{Patch: patch, Messages: []Message{Text{Body: "Não encontrei vagas abertas neste momento."}}}
	case total == 1:
		v := open[0]
		return Result{Patch: patch, Messages: []Message{
			Text{Body: fmt.Sprintf("Encontrei 1 vaga em %s:\n%s", city, v.Line())},
			ChoiceMenu{Body: "Quer ficar com essa vaga?", Choices: []Choice{selectChoice(v)}},
		}}
	}

	rows := make([]ListRow, 0, total)
	for _, v := range open {
		rows = append(rows, ListRow{
			ID:          "select:" + v.ID,
			Title:       fmt.Sprintf("Vaga %s — %s", v.ID, v.Pharmacy),
			Description: fmt.Sprintf("%s — R$ %s", v.Shift, textnorm.FormatBRL(v.Fee)),
		})
	}
	return Result{Patch: patch, Messages: []Message{
		ListMenu{
			Header:      "Vagas em " + city,
			Body:        fmt.Sprintf("Encontrei %d vagas em %s. Toque no botão para escolher.", total, city),
			ButtonLabel: "Ver vagas",
			Rows:        rows,
		},
	}}
}

func (r *Router) browseVacancies(params Params) Result {
	list := params.VacancyList()
	total := params.Int(KeyVacancyTot)
	if total == 0 {
		total = len(list)
	}
	if total == 0 || len(list) == 0 {
		return Result{Patch: Params{}, Messages: []Message{Text{Body: "Não há mais vagas para navegar."}}}
	}
	idx := (params.Int(KeyVacancyIdx) + 1) % total
	if idx >= len(list) {
		idx = 0
	}
	return Result{
		Patch:    Params{KeyVacancyIdx: idx},
		Messages: browseMessages(list[idx], idx, total),
	}
}

func (r *Router) selectVacancy(params Params) Result {
	raw := params.String(KeyVacancyID)
	if raw == "" {
		raw = params.String("VAGA_ID")
	}
	id := vacancyID(raw)

	for _, v := range params.VacancyList() {
		if strings.TrimSpace(v.ID) != id || id == "" {
			continue
		}
		return Result{
			Patch: Params{
				KeyVacancyID: v.ID,
				KeyPharmacy:  v.Pharmacy,
				KeyShift:     v.Shift,
				KeyFee:       v.FeeValue(),
			},
			Messages: []Message{
				Text{Body: fmt.Sprintf("Perfeito! Você escolheu: %s.", v.Line())},
				Text{Body: "Vou registrar seus dados e te enviar o link de inscrição."},
			},
		}
	}
	return Result{Patch: Params{}, Messages: []Message{
		Text{Body: fmt.Sprintf("Não encontrei a vaga ID %s nas opções.", id)},
	}}
}

func (r *Router) saveLead(ctx context.Context, params Params) Result {
	lead := leads.Lead{
		Name:     params.String(KeyName),
		Phone:    params.String(KeyPhone),
		Answers:  params.Answers(),
		Approved: params.Bool(KeyApproved),
		Score:    params.Int(KeyScore),
		Summary:  params.String(KeySummary),
	}
	protocol, err := r.recorder.Record(ctx, lead)
	if err != nil {
		r.logger.Error("lead capture failed", "error", err, "phone", lead.Phone)
		return Result{Patch: Params{}, Messages: []Message{
			Text{Body: "Não consegui concluir seu cadastro agora. Pode tentar novamente em instantes?"},
		}}
	}
	r.metrics.ObserveLead(lead.Approved)
	return Result{
		Patch: Params{KeyProtocol: protocol, KeyFormLink: r.formURL},
		Messages: []Message{
			Text{Body: fmt.Sprintf("Cadastro concluído! Protocolo: %s", protocol)},
			Text{Body: fmt.Sprintf("Finalize sua inscrição: %s", r.formURL)},
		},
	}
}

// vacancyID strips the "select:"/"vaga:" id conventions down to the bare id.
func vacancyID(raw string) string {
	id := strings.TrimSpace(raw)
	for _, prefix := range []string{"select:", "vaga:"} {
		if strings.HasPrefix(strings.ToLower(id), prefix) {
			return strings.TrimSpace(id[len(prefix):])
		}
	}
	return id
}

func selectChoice(v vacancies.Vacancy) Choice {
	return Choice{
		ID:    "select:" + v.ID,
		Title: fmt.Sprintf("Quero essa (ID %s)", v.ID),
		Data:  map[string]string{"action": "select", "vaga_id": v.ID},
	}
}

func browseMessages(v vacancies.Vacancy, idx, total int) []Message {
	return []Message{
		Text{Body: fmt.Sprintf("Opção %d/%d: %s", idx+1, total, v.Line())},
		ChoiceMenu{Body: "Escolha uma opção:", Choices: []Choice{
			selectChoice(v),
			{ID: "next", Title: "Próxima", Data: map[string]string{"action": "next"}},
		}},
		Text{Body: fmt.Sprintf("Responda \"quero %s\" para escolher, ou \"próxima\" para ver outra.", v.ID)},
	}
}
