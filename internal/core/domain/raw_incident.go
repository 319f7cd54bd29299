package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawIncidentRecord is one row of the ITSM export as it arrives from the
// source system. Every field is optional. Text fields tolerate numbers and
// booleans, numeric fields tolerate numeric strings, so a single odd value
// never rejects the whole export.
type RawIncidentRecord struct {
	Number               FlexString `json:"Number"`
	ShortDescription     FlexString `json:"Short description"`
	State                FlexString `json:"State"`
	Priority             FlexString `json:"Priority"`
	AssignmentGroup      FlexString `json:"Assignment Group"`
	AssignedTo           FlexString `json:"Assigned to"`
	ResolvedBy           FlexString `json:"Resolved by"`
	Region               FlexString `json:"Region"`
	BusinessOwnerCountry FlexString `json:"Business Owner Country"`
	BusinessUnit         FlexString `json:"Business Unit (Division)"`
	Opened               FlexString `json:"Opened"`
	Created              FlexString `json:"Created,omitempty"`
	Resolved             FlexString `json:"Resolved"`
	Closed               FlexString `json:"Closed,omitempty"`
	ResolveTime          FlexNumber `json:"Resolve time"`
	ReassignmentCount    FlexNumber `json:"Reassignment count"`
	ReopenCount          FlexNumber `json:"Reopen count"`
}

// FlexString decodes any JSON scalar into its text form. null and
// structured values decode to the empty string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			*s = ""
			return nil
		}
		*s = FlexString(v)
	case '{', '[':
		*s = ""
	default:
		// numbers and booleans keep their literal spelling
		*s = FlexString(data)
	}
	return nil
}

// String returns the raw text.
func (s FlexString) String() string {
	return string(s)
}

// Trimmed returns the text without surrounding whitespace.
func (s FlexString) Trimmed() string {
	return strings.TrimSpace(string(s))
}

// FlexNumber is a numeric export field that may arrive as a JSON number,
// a numeric string, or anything else. Non-numeric input yields an invalid
// (absent) value instead of an error.
type FlexNumber struct {
	Value float64
	Valid bool
}

// NewFlexNumber returns a valid FlexNumber holding v.
func NewFlexNumber(v float64) FlexNumber {
	return FlexNumber{Value: v, Valid: true}
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	*n = FlexNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
	} else {
		text = string(data)
	}

	*n = ParseFlexNumber(text)
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// ParseFlexNumber coerces text to a number. Blank text, "null" and
// anything strconv cannot parse are treated as absent.
func ParseFlexNumber(text string) FlexNumber {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" {
		return FlexNumber{}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return FlexNumber{}
	}
	return FlexNumber{Value: v, Valid: true}
}

// IntPtr returns the value truncated toward zero, or nil when absent.
func (n FlexNumber) IntPtr() *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Value)
	return &v
}

// DecodeRawIncidents decodes a JSON array export. Malformed rows never fail
// the decode; only a payload that is not a JSON array does.
func DecodeRawIncidents(data []byte) ([]RawIncidentRecord, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	records := make([]RawIncidentRecord, len(rows))
	for i, row := range rows {
		// a row that is not an object keeps every field absent
		_ = json.Unmarshal(row, &records[i])
	}
	return records, nil
}
