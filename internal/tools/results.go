package tools

import (
	"encoding/json"
	"fmt"
)

// envelope marshals a success payload. Every tool result is a single JSON
// object with a success flag, so the model can always tell outcomes apart.
func envelope(fields map[string]any) string {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["success"] = true
	data, err := json.Marshal(fields)
	if err != nil {
		return failure("internal: could not encode tool result", "")
	}
	return string(data)
}

// failure builds the error envelope. An optional hint tells the model how
// to recover, mirroring what a human operator would be told.
func failure(msg, hint string) string {
	if hint != "" {
		msg = msg + ". " + hint
	}
	data, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   msg,
	})
	return string(data)
}

func failuref(hint, format string, args ...any) string {
	return failure(fmt.Sprintf(format, args...), hint)
}

// NotExecuted is the envelope for a requested call the driver refused to
// run. Every requested call still gets a correlated response.
func NotExecuted(reason string) string {
	return failure(reason, "Ask the user before continuing")
}
