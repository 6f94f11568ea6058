package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/ledgerimport/internal/core"
)

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// writeError prints err and, when it maps to a support code, the matching
// user message and action.
func writeError(w io.Writer, err error) {
	fmt.Fprintln(w, err.Error())
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
}
