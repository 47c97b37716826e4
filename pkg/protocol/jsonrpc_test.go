package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		json string
	}{
		{"integer", NewIntID(42), `42`},
		{"zero integer", NewIntID(0), `0`},
		{"negative integer", NewIntID(-7), `-7`},
		{"beyond float64 precision", NewIntID(9007199254740993), `9007199254740993`},
		{"max int64", NewIntID(9223372036854775807), `9223372036854775807`},
		{"string", NewStringID("req-1"), `"req-1"`},
		{"empty string", NewStringID(""), `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.json, string(data))

			var decoded ID
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.id, decoded)
			assert.True(t, decoded.IsValid())
		})
	}
}

func TestIDRejectsInvalidValues(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &id), "fractional ids are not integers")
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))

	_, err := json.Marshal(ID{})
	assert.Error(t, err, "zero-value id must not marshal")
}

func TestIDIsMapKey(t *testing.T) {
	// Structural equality: ids decoded from the wire must collide with ids
	// built by the constructors.
	m := map[ID]string{
		NewIntID(1):         "one",
		NewStringID("1"):    "string one",
		NewStringID("noop"): "noop",
	}

	var decoded ID
	require.NoError(t, json.Unmarshal([]byte(`1`), &decoded))
	assert.Equal(t, "one", m[decoded])

	require.NoError(t, json.Unmarshal([]byte(`"1"`), &decoded))
	assert.Equal(t, "string one", m[decoded], "number 1 and string \"1\" are distinct ids")
}

func TestParseMessageClassification(t *testing.T) {
	tests := []struct {
		name string
		body string
		want interface{}
	}{
		{
			name: "request",
			body: `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
			want: &Request{},
		},
		{
			name: "string id request",
			body: `{"jsonrpc":"2.0","id":"a","method":"shutdown"}`,
			want: &Request{},
		},
		{
			name: "notification",
			body: `{"jsonrpc":"2.0","method":"initialized","params":{}}`,
			want: &Notification{},
		},
		{
			name: "success response",
			body: `{"jsonrpc":"2.0","id":1,"result":{}}`,
			want: &Response{},
		},
		{
			name: "null result response",
			body: `{"jsonrpc":"2.0","id":1,"result":null}`,
			want: &Response{},
		},
		{
			name: "error response",
			body: `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`,
			want: &Response{},
		},
		{
			name: "error response with null id",
			body: `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}`,
			want: &Response{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.body))
			require.NoError(t, err)
			assert.IsType(t, tt.want, msg)
		})
	}
}

func TestParseMessageNullResultIsResponse(t *testing.T) {
	// "result": null must classify as a Response, not fall through to the
	// request branch. The shutdown response is exactly this shape.
	msg, err := ParseMessage([]byte(`{"jsonrpc":"2.0","id":3,"result":null}`))
	require.NoError(t, err)
	resp, ok := msg.(*Response)
	require.True(t, ok)
	require.NotNil(t, resp.ID)
	assert.Equal(t, NewIntID(3), *resp.ID)
	assert.Equal(t, json.RawMessage("null"), resp.Result)
}

func TestParseMessageRejectsUnroutableShapes(t *testing.T) {
	bodies := []string{
		`{"jsonrpc":"2.0"}`,
		`{"jsonrpc":"2.0","id":1}`,
		`{"jsonrpc":"2.0","params":{}}`,
		`[]`,
		`"just a string"`,
		`{"jsonrpc":"2.0","id":1,"method":`,
	}
	for _, body := range bodies {
		_, err := ParseMessage([]byte(body))
		assert.Error(t, err, "body %s", body)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	req, err := NewRequest(NewIntID(7), "textDocument/hover", map[string]interface{}{"position": 1})
	require.NoError(t, err)

	notif, err := NewNotification("initialized", InitializedParams{})
	require.NoError(t, err)

	okResp, err := NewResponse(NewStringID("r"), map[string]interface{}{"capabilities": map[string]interface{}{}})
	require.NoError(t, err)

	errResp := NewErrorResponse(NewIntID(9), NewError(CodeRequestCancelled, "request cancelled"))

	for _, msg := range []Message{req, notif, okResp, errResp} {
		data, err := EncodeMessage(msg)
		require.NoError(t, err)

		decoded, err := ParseMessage(data)
		require.NoError(t, err)
		assert.Equal(t, msg, decoded)
	}
}

func TestNewResponseNullResult(t *testing.T) {
	// A void result (shutdown) still needs an explicit "result": null on the
	// wire so the message classifies as a response on the peer side.
	resp, err := NewResponse(NewIntID(1), nil)
	require.NoError(t, err)

	data, err := EncodeMessage(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":null}`, string(data))
}

func TestParseBatch(t *testing.T) {
	body := `[
		{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}},
		{"jsonrpc":"2.0","method":"initialized"},
		{"jsonrpc":"2.0","id":2,"result":{}}
	]`
	require.True(t, IsBatch([]byte(body)))
	require.False(t, IsBatch([]byte(`{"jsonrpc":"2.0","method":"x"}`)))

	messages, err := ParseBatch([]byte(body))
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.IsType(t, &Request{}, messages[0])
	assert.IsType(t, &Notification{}, messages[1])
	assert.IsType(t, &Response{}, messages[2])
}

func TestParseBatchRejectsMalformedElements(t *testing.T) {
	_, err := ParseBatch([]byte(`[]`))
	assert.Error(t, err, "empty batch")

	_, err = ParseBatch([]byte(`[{"jsonrpc":"2.0"}]`))
	assert.Error(t, err, "unroutable element")
}

func TestErrorErrorMethod(t *testing.T) {
	assert.Equal(t, "", (*Error)(nil).Error())
	assert.Equal(t,
		"jsonrpc: code -32601, message: method not found",
		NewError(CodeMethodNotFound, "method not found").Error())
}

func TestCancelParamsRoundTrip(t *testing.T) {
	params := CancelParams{ID: NewIntID(5)}
	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5}`, string(data))

	var decoded CancelParams
	require.NoError(t, json.Unmarshal([]byte(`{"id":"abc"}`), &decoded))
	assert.Equal(t, NewStringID("abc"), decoded.ID)
}
