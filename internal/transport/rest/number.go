package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// numberText accepts a quantity typed either as a JSON number or a string.
// The raw text is handed to the services, which own parsing and the
// decimal-comma rules.
type numberText string

func (n *numberText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected a number or a string, got %s", b)
	}
	*n = numberText(num.String())
	return nil
}
