package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopentrega/recruiting-ai-platform/internal/vacancies"
)

func TestCityResolvesPlainString(t *testing.T) {
	p := Params{"cidade": " Recife "}
	assert.Equal(t, "Recife", p.City())
}

func TestCityResolvesLocationObject(t *testing.T) {
	p := Params{"sys.location": map[string]any{"city": "Olinda"}}
	assert.Equal(t, "Olinda", p.City())

	p = Params{"location": map[string]any{"admin-area": "Pernambuco"}}
	assert.Equal(t, "Pernambuco", p.City())
}

func TestCityIgnoresPlaceholder(t *testing.T) {
	assert.Empty(t, Params{"cidade": "geo-city"}.City())
	assert.Empty(t, Params{}.City())
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Maria", Params{"nome": "Maria da Silva"}.FirstName())
	assert.Empty(t, Params{}.FirstName())
}

func TestIntCoercesEngineFloats(t *testing.T) {
	p := Params{"vagas_idx": float64(2), "vagas_total": "3"}
	assert.Equal(t, 2, p.Int("vagas_idx"))
	assert.Equal(t, 3, p.Int("vagas_total"))
	assert.Equal(t, 0, p.Int("missing"))
}

func TestMergeLeavesInputsUntouched(t *testing.T) {
	base := Params{"a": 1}
	merged := base.Merge(Params{"b": 2})
	assert.Equal(t, Params{"a": 1, "b": 2}, merged)
	assert.Equal(t, Params{"a": 1}, base)
}

func TestVacancyListAcceptsBothShapes(t *testing.T) {
	typed := Params{"vagas_lista": []vacancies.Vacancy{{ID: "42"}}}
	require.Len(t, typed.VacancyList(), 1)
	assert.Equal(t, "42", typed.VacancyList()[0].ID)

	// shape after a round trip through the dialog engine
	generic := Params{"vagas_lista": []any{
		map[string]any{"VAGA_ID": "42", "FARMACIA": "Central", "TURNO": "manhã", "TAXA_ENTREGA": "7.50"},
	}}
	list := generic.VacancyList()
	require.Len(t, list, 1)
	assert.Equal(t, "Central", list[0].Pharmacy)
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	menu := ChoiceMenu{Body: "Escolha uma opção:", Choices: []Choice{
		{ID: "select:42", Title: "Quero essa (ID 42)", Data: map[string]string{"action": "select", "vaga_id": "42"}},
	}}
	decoded, ok := DecodePayload(EncodePayload(menu))
	require.True(t, ok)
	assert.Equal(t, menu, decoded)

	list := ListMenu{Header: "Vagas", Body: "b", ButtonLabel: "Ver", Rows: []ListRow{{ID: "select:1", Title: "Vaga 1"}}}
	decoded, ok = DecodePayload(EncodePayload(list))
	require.True(t, ok)
	assert.Equal(t, list, decoded)

	_, ok = DecodePayload(map[string]any{"type": "richContent"})
	assert.False(t, ok)
}
