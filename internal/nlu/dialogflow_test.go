package nlu

import (
	"testing"

	"cloud.google.com/go/dialogflow/cx/apiv3/cxpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
	"github.com/coopentrega/recruiting-ai-platform/internal/vacancies"
)

func textResponse(bodies ...string) *cxpb.ResponseMessage {
	return &cxpb.ResponseMessage{
		Message: &cxpb.ResponseMessage_Text_{
			Text: &cxpb.ResponseMessage_Text{Text: bodies},
		},
	}
}

func payloadResponse(t *testing.T, payload map[string]any) *cxpb.ResponseMessage {
	t.Helper()
	s, err := structpb.NewStruct(payload)
	require.NoError(t, err)
	return &cxpb.ResponseMessage{
		Message: &cxpb.ResponseMessage_Payload{Payload: s},
	}
}

func TestDecodeResponseMessagesText(t *testing.T) {
	msgs := DecodeResponseMessages([]*cxpb.ResponseMessage{
		textResponse("primeira", "", "segunda"),
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, funnel.Text{Body: "primeira"}, msgs[0])
	assert.Equal(t, funnel.Text{Body: "segunda"}, msgs[1])
}

func TestDecodeResponseMessagesChoicesPayload(t *testing.T) {
	menu := funnel.ChoiceMenu{Body: "Escolha uma opção:", Choices: []funnel.Choice{
		{ID: "next", Title: "Próxima", Data: map[string]string{"action": "next"}},
	}}
	msgs := DecodeResponseMessages([]*cxpb.ResponseMessage{
		payloadResponse(t, funnel.EncodePayload(menu)),
	})
	require.Len(t, msgs, 1)
	assert.Equal(t, menu, msgs[0])
}

func TestDecodeResponseMessagesSkipsForeignPayload(t *testing.T) {
	msgs := DecodeResponseMessages([]*cxpb.ResponseMessage{
		payloadResponse(t, map[string]any{"richContent": []any{}}),
	})
	assert.Empty(t, msgs)
}

func TestToStructFlattensTypedValues(t *testing.T) {
	s, err := toStruct(map[string]any{
		"vagas_lista": []vacancies.Vacancy{{ID: "42", Pharmacy: "Central"}},
		"vagas_idx":   0,
	})
	require.NoError(t, err)

	list := s.AsMap()["vagas_lista"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "42", list[0].(map[string]any)["VAGA_ID"])
}
