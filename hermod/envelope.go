// Package hermod publishes server→client messages into the GRIP push proxy
// that holds the SSE connection open on behalf of the stateless HTTP tier.
package hermod

import (
	"encoding/json"
	"fmt"
	"strings"
)

// streamFormat is the GRIP format key for SSE streaming.
const streamFormat = "http-stream"

// payloadPrefix marks the envelope as JSON on the pub/sub wire.
const payloadPrefix = "J"

// closeAction instructs the proxy to close the held connection.
const closeAction = "close"

// streamItem is the http-stream member of the envelope: either content to
// write to the held connection or a control action.
type streamItem struct {
	Content string `json:"content,omitempty" yaml:"content,omitempty" mapstructure:"content,omitempty"`
	Action  string `json:"action,omitempty" yaml:"action,omitempty" mapstructure:"action,omitempty"`
}

// envelope is the JSON object the push proxy consumes.
type envelope struct {
	Channel string                `json:"channel" yaml:"channel" mapstructure:"channel"`
	Formats map[string]streamItem `json:"formats" yaml:"formats" mapstructure:"formats"`
}

// FrameSSE formats the data as an SSE message event.
func FrameSSE(data []byte) []byte {
	expanded := fmt.Sprintf("event: message\ndata: %s\n\n", strings.TrimSpace(string(data)))
	return []byte(expanded)
}

// EncodeContent builds the wire payload delivering an SSE frame on a channel.
func EncodeContent(channel string, frame []byte) ([]byte, error) {
	return encode(channel, streamItem{Content: string(frame)})
}

// EncodeClose builds the wire payload closing a channel.
func EncodeClose(channel string) ([]byte, error) {
	return encode(channel, streamItem{Action: closeAction})
}

func encode(channel string, item streamItem) ([]byte, error) {
	data, err := json.Marshal(&envelope{
		Channel: channel,
		Formats: map[string]streamItem{streamFormat: item},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode hermod envelope for channel %v: %w", channel, err)
	}
	return append([]byte(payloadPrefix), data...), nil
}
