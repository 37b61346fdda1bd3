package odinmcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  MessageType
		wantCode  int
		wantError bool
	}{
		{
			name:     "request",
			input:    `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
			wantType: MessageTypeRequest,
		},
		{
			name:     "notification",
			input:    `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			wantType: MessageTypeNotification,
		},
		{
			name:     "response",
			input:    `{"jsonrpc":"2.0","id":1,"result":{"roots":[]}}`,
			wantType: MessageTypeResponse,
		},
		{
			name:     "error response",
			input:    `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"boom"}}`,
			wantType: MessageTypeError,
		},
		{
			name:      "invalid JSON",
			input:     `{"jsonrpc":`,
			wantError: true,
			wantCode:  ParseError,
		},
		{
			name:      "wrong version",
			input:     `{"jsonrpc":"1.0","id":1,"method":"initialize"}`,
			wantError: true,
			wantCode:  InvalidRequest,
		},
		{
			name:      "no variant matches",
			input:     `{"jsonrpc":"2.0","id":1}`,
			wantError: true,
			wantCode:  InvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, err := ParseMessage([]byte(tt.input))
			if tt.wantError {
				assert.Error(t, err)
				protocolErr := AsError(err)
				assert.EqualValues(t, tt.wantCode, protocolErr.Code)
				return
			}
			assert.NoError(t, err)
			assert.EqualValues(t, tt.wantType, message.Type)
		})
	}
}

func TestMessage_Method(t *testing.T) {
	request, err := NewRequest(MethodCallTool, nil)
	assert.NoError(t, err)
	assert.EqualValues(t, MethodCallTool, NewRequestMessage(request).Method())

	notification, err := NewNotification(MethodNotifyProgress, nil)
	assert.NoError(t, err)
	assert.EqualValues(t, MethodNotifyProgress, NewNotificationMessage(notification).Method())

	assert.EqualValues(t, "", NewResponseMessage(NewResponse(1, []byte(`{}`))).Method())
}
