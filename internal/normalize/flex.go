package normalize

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// flexNumber decodes numbers, numeric strings and null. Anything else becomes 0.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = 0

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = flexNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			*n = flexNumber(parsed)
		}
	}

	return nil
}

// flexString decodes strings and numbers as text. Anything else becomes "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = ""

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = flexString(n.String())
	}

	return nil
}

func (s flexString) String() string {
	return strings.TrimSpace(string(s))
}

// flexBool decodes booleans. Anything else becomes false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	*b = false
	return nil
}
