package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_TopLevelFields(t *testing.T) {
	body := `{"titulo_plano":"Sistema Solar","introducao_ludica":"Uma viagem","objetivo_bncc":"EF05CI11","passo_a_passo":"1. Conversa","rubrica_avaliacao":"Participação"}`

	plan, err := parseResponse(200, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Sistema Solar", plan.Title)
	assert.Equal(t, "Uma viagem", plan.Introduction)
	assert.Equal(t, "EF05CI11", plan.Objective)
	assert.Equal(t, "1. Conversa", plan.StepByStep)
	assert.Equal(t, "Participação", plan.Rubric)
}

func TestParseResponse_NestedContent(t *testing.T) {
	plan, err := parseResponse(200, []byte(`{"content":{"titulo_plano":"Frações","passo_a_passo":"Dividir a pizza"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Frações", plan.Title)
	assert.Equal(t, "Dividir a pizza", plan.StepByStep)
	assert.Empty(t, plan.Rubric)
}

func TestParseResponse_ContentAsJSONString(t *testing.T) {
	plan, err := parseResponse(200, []byte(`{"content":"{\"titulo_plano\":\"Água\"}"}`))
	require.NoError(t, err)
	assert.Equal(t, "Água", plan.Title)
}

func TestParseResponse_StepListJoined(t *testing.T) {
	plan, err := parseResponse(200, []byte(`{"titulo_plano":"Cores","passo_a_passo":["Roda","Pintura"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Roda\nPintura", plan.StepByStep)
}

func TestParseResponse_NonStringFieldIgnored(t *testing.T) {
	plan, err := parseResponse(200, []byte(`{"titulo_plano":"Cores","objetivo_bncc":42}`))
	require.NoError(t, err)
	assert.Empty(t, plan.Objective)
}

func TestParseResponse_ErrorFieldWins(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error on success status", 200, `{"error":"Cota excedida"}`, "Cota excedida"},
		{"error beats details", 500, `{"error":"Falhou","details":"stack"}`, "Falhou"},
		{"details only", 502, `{"details":"Modelo indisponível"}`, "Modelo indisponível"},
		{"error text kept verbatim", 200, `{"error":"  Cota excedida.\n"}`, "  Cota excedida.\n"},
		{"error object", 400, `{"error":{"message":"Tópico vazio"}}`, "Tópico vazio"},
		{"bare failure status", 500, `{}`, ""},
		{"non JSON failure", 503, `Service Unavailable`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := parseResponse(tt.status, []byte(tt.body))
			assert.Nil(t, plan)

			var remote *RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, tt.status, remote.StatusCode)
			assert.Equal(t, tt.message, remote.Message)
		})
	}
}

func TestParseResponse_NullErrorIgnored(t *testing.T) {
	plan, err := parseResponse(200, []byte(`{"error":null,"titulo_plano":"Ok"}`))
	require.NoError(t, err)
	assert.Equal(t, "Ok", plan.Title)
}

func TestParseResponse_Malformed(t *testing.T) {
	_, err := parseResponse(200, []byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = parseResponse(200, []byte(`["a"]`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseResponse_Empty(t *testing.T) {
	_, err := parseResponse(200, []byte(`{"content":{}}`))
	assert.ErrorIs(t, err, ErrEmptyPlan)

	_, err = parseResponse(200, []byte(`{"outro":"campo"}`))
	assert.ErrorIs(t, err, ErrEmptyPlan)
}
