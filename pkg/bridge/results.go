package bridge

import (
	"math"

	"github.com/entrhq/slack-bridge/pkg/session"
)

// OpenResult is returned by open.
type OpenResult struct {
	SessionID string `json:"session_id"`
}

// ExecuteResult carries the script's return value, null when it returned
// nothing.
type ExecuteResult struct {
	Result interface{} `json:"result"`
}

// jsonSafe replaces NaN and infinities, which JSON cannot carry, with nil
// anywhere in a script result.
func jsonSafe(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil
		}
	case []interface{}:
		for i := range val {
			val[i] = jsonSafe(val[i])
		}
	case map[string]interface{}:
		for k := range val {
			val[k] = jsonSafe(val[k])
		}
	}
	return v
}

// InteractResult is returned by interact.
type InteractResult struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
}

// SnapshotResult lists element descriptions in token order.
type SnapshotResult struct {
	Elements []string `json:"elements"`
	Count    int      `json:"count"`
}

// ScreenshotResult is the path of the written image.
type ScreenshotResult struct {
	Screenshot string `json:"screenshot"`
}

// CloseResult is returned by close.
type CloseResult struct {
	OK     bool   `json:"ok"`
	Closed string `json:"closed"`
}

// ListResult is returned by list.
type ListResult struct {
	Sessions []session.Info `json:"sessions"`
	Count    int            `json:"count"`
}
