package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Text is a request field that accepts either a JSON string or a bare JSON
// number. Numbers keep their literal text so amounts never pass through
// float64.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: expected string or number", ErrInvalidParameter)
	}
	*t = Text(n.String())
	return nil
}

// String returns the raw text.
func (t Text) String() string {
	return string(t)
}
