package funnel

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coopentrega/recruiting-ai-platform/internal/scoring"
	"github.com/coopentrega/recruiting-ai-platform/internal/textnorm"
	"github.com/coopentrega/recruiting-ai-platform/internal/vacancies"
)

// Params is the per-user session parameter snapshot owned by the dialog
// engine. The router reads a snapshot and returns a patch; it never mutates
// the snapshot it receives.
type Params map[string]any

// Session parameter keys.
const (
	KeyName        = "nome"
	KeyPhone       = "telefone"
	KeyCity        = "cidade"
	KeyOpenings    = "vagas_abertas"
	KeyMotoOK      = "moto_ok"
	KeyCNHOK       = "cnh_ok"
	KeyAndroidOK   = "android_ok"
	KeyRequisites  = "requisitos_ok"
	KeyApproved    = "perfil_aprovado"
	KeyScore       = "perfil_nota"
	KeySummary     = "perfil_resumo"
	KeyListed      = "listado"
	KeyVacancies   = "vagas_lista"
	KeyVacancyIdx  = "vagas_idx"
	KeyVacancyTot  = "vagas_total"
	KeyVacancyID   = "vaga_id"
	KeyPharmacy    = "vaga_farmacia"
	KeyShift       = "vaga_turno"
	KeyFee         = "vaga_taxa"
	KeyProtocol    = "protocolo"
	KeyFormLink    = "pipefy_link"
	KeyTranscript  = "audio_transcript"
)

// String returns the value under key rendered as a trimmed string. Missing
// and nil values return "".
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Bool coerces the value under key with the funnel's yes/no semantics.
func (p Params) Bool(key string) bool {
	return textnorm.Boolish(p[key])
}

// Int returns the value under key as an int. The dialog engine round-trips
// numbers as float64.
func (p Params) Int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

// Clone returns a shallow copy of the snapshot.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns {...p, ...patch} without touching either input.
func (p Params) Merge(patch Params) Params {
	out := p.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// FirstName extracts the first name from the `nome` parameter.
func (p Params) FirstName() string {
	fields := strings.Fields(p.String(KeyName))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// City resolves the candidate's city. The dialog engine delivers it under
// several shapes: a plain string, or a geo/location object with city,
// admin-area or original fields. The unresolved system placeholder
// "geo-city" counts as absent.
func (p Params) City() string {
	raw := firstPresent(p, KeyCity, "sys.geo-city", "sys.location", "location")
	city := ""
	switch v := raw.(type) {
	case string:
		city = v
	case map[string]any:
		for _, k := range []string{"city", "admin-area", "original"} {
			if s, ok := v[k].(string); ok && strings.TrimSpace(s) != "" {
				city = s
				break
			}
		}
	}
	city = strings.TrimSpace(city)
	if textnorm.Fold(city) == "geo-city" {
		return ""
	}
	return city
}

func firstPresent(p Params, keys ...string) any {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil && fmt.Sprint(v) != "" {
			return v
		}
	}
	return nil
}

// Answers collects the five behavioral answers from the snapshot.
func (p Params) Answers() scoring.Answers {
	return scoring.Answers{
		Q1: p.String("q1"),
		Q2: p.String("q2"),
		Q3: p.String("q3"),
		Q4: p.String("q4"),
		Q5: p.String("q5"),
	}
}

// VacancyList decodes the frozen vacancy list from the snapshot. The list is
// written as []vacancies.Vacancy but comes back from the dialog engine as
// generic maps, so both shapes are accepted.
func (p Params) VacancyList() []vacancies.Vacancy {
	v, ok := p[KeyVacancies]
	if !ok || v == nil {
		return nil
	}
	if list, ok := v.([]vacancies.Vacancy); ok {
		return list
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var list []vacancies.Vacancy
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}
