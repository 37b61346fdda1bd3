// Package worker is the asynchronous execution plane: it dispatches typed
// tasks over the broker, reconstitutes sessions per task and drives
// server-initiated client requests through the push proxy.
package worker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/viant/odinmcp"
	"github.com/viant/odinmcp/auth"
)

// ResponseTaskID derives the deterministic task id under which the response
// to an outbound request rendezvouses. The worker that issues a request and
// the HTTP handler that receives the correlating response must agree on this
// function byte for byte.
func ResponseTaskID(requestID odinmcp.RequestId, user *auth.CurrentUser, channelID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("response_%s_%s_%s", user.UserID, channelID, formatRequestID(requestID))))
	return hex.EncodeToString(sum[:])
}

// formatRequestID renders a JSON-RPC id identically on both tiers: integral
// numbers print without a decimal point regardless of how they were decoded.
func formatRequestID(requestID odinmcp.RequestId) string {
	switch actual := requestID.(type) {
	case string:
		return actual
	case float64:
		if actual == math.Trunc(actual) {
			return strconv.FormatInt(int64(actual), 10)
		}
		return strconv.FormatFloat(actual, 'f', -1, 64)
	case json.Number:
		return actual.String()
	default:
		return fmt.Sprintf("%v", actual)
	}
}
