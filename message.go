package odinmcp

import (
	"encoding/json"
)

// MessageType is an enumeration of the types of messages in the JSON-RPC protocol.
type MessageType string

const (
	MessageTypeRequest      MessageType = "request"
	MessageTypeNotification MessageType = "notification"
	MessageTypeResponse     MessageType = "response"
	MessageTypeError        MessageType = "error"
)

// Message is a wrapper around the different types of JSON-RPC messages
// (Request, Notification, Response, Error). The error variant is carried as a
// Response with the Error field set.
type Message struct {
	Type                MessageType
	JsonRpcRequest      *Request
	JsonRpcNotification *Notification
	JsonRpcResponse     *Response
}

// Method returns the method of a request or notification message, otherwise "".
func (m *Message) Method() string {
	switch m.Type {
	case MessageTypeRequest:
		return m.JsonRpcRequest.Method
	case MessageTypeNotification:
		return m.JsonRpcNotification.Method
	default:
		return ""
	}
}

// MarshalJSON is a custom JSON marshaler for the Message type.
func (m *Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case MessageTypeRequest:
		return json.Marshal(m.JsonRpcRequest)
	case MessageTypeNotification:
		return json.Marshal(m.JsonRpcNotification)
	case MessageTypeResponse, MessageTypeError:
		return json.Marshal(m.JsonRpcResponse)
	default:
		return nil, NewInvalidRequest("unknown message type, couldn't marshal", nil)
	}
}

// ParseMessage classifies raw JSON as one of the JSON-RPC message variants.
// The discriminator follows the JSON-RPC 2.0 shape rules: a method with an id
// is a request, a method without an id is a notification, a result is a
// response, and an error object is an error response.
func ParseMessage(data []byte) (*Message, error) {
	probe := struct {
		Jsonrpc *string          `json:"jsonrpc"`
		Method  *string          `json:"method"`
		Id      *json.RawMessage `json:"id"`
		Result  *json.RawMessage `json:"result"`
		Error   *json.RawMessage `json:"error"`
	}{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, NewParsingError("invalid JSON", nil)
	}
	if probe.Jsonrpc == nil || *probe.Jsonrpc != Version {
		return nil, NewInvalidRequest("jsonrpc version must be "+Version, nil)
	}
	switch {
	case probe.Method != nil && probe.Id != nil:
		request := &Request{}
		if err := json.Unmarshal(data, request); err != nil {
			return nil, NewInvalidRequest(err.Error(), nil)
		}
		return NewRequestMessage(request), nil
	case probe.Method != nil:
		notification := &Notification{}
		if err := json.Unmarshal(data, notification); err != nil {
			return nil, NewInvalidRequest(err.Error(), nil)
		}
		return NewNotificationMessage(notification), nil
	case probe.Result != nil || probe.Error != nil:
		response := &Response{}
		if err := json.Unmarshal(data, response); err != nil {
			return nil, NewInvalidRequest(err.Error(), nil)
		}
		messageType := MessageTypeResponse
		if response.Error != nil {
			messageType = MessageTypeError
		}
		return &Message{Type: messageType, JsonRpcResponse: response}, nil
	default:
		return nil, NewInvalidRequest("message is not a valid JSON-RPC request, notification or response", nil)
	}
}

// NewNotificationMessage creates a new JSON-RPC message of type Notification.
func NewNotificationMessage(notification *Notification) *Message {
	return &Message{
		Type:                MessageTypeNotification,
		JsonRpcNotification: notification,
	}
}

// NewRequestMessage creates a new JSON-RPC message of type Request.
func NewRequestMessage(request *Request) *Message {
	return &Message{
		Type:           MessageTypeRequest,
		JsonRpcRequest: request,
	}
}

// NewResponseMessage creates a new JSON-RPC message of type Response.
func NewResponseMessage(response *Response) *Message {
	return &Message{
		Type:            MessageTypeResponse,
		JsonRpcResponse: response,
	}
}
