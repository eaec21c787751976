package apiclient

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/me/campusfix/pkg/model"
)

// ErrorMessage extracts a human-readable message from an error body.
//
// Precedence: a string "error" field, then a string "detail" field, then
// the first non-empty entry of the first field-validation list in document
// order (for example {"email": ["user with this email already exists."]}),
// then model.MsgGeneric.
func ErrorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return model.MsgGeneric
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err == nil {
		for _, key := range []string{"error", "detail"} {
			var s string
			if raw, ok := top[key]; ok && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}

	if msg := firstListEntry(body); msg != "" {
		return msg
	}
	return model.MsgGeneric
}

// firstListEntry walks a JSON document in key order and returns the first
// non-empty string that sits directly inside an array.
func firstListEntry(body []byte) string {
	dec := json.NewDecoder(bytes.NewReader(body))
	msg, _ := scanValue(dec, false)
	return msg
}

func scanValue(dec *json.Decoder, inList bool) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			for dec.More() {
				if _, err := dec.Token(); err != nil { // key
					return "", err
				}
				if msg, err := scanValue(dec, false); err != nil || msg != "" {
					return msg, err
				}
			}
		case '[':
			for dec.More() {
				if msg, err := scanValue(dec, true); err != nil || msg != "" {
					return msg, err
				}
			}
		}
		_, err := dec.Token() // closing delimiter
		return "", err
	case string:
		if inList && strings.TrimSpace(t) != "" {
			return t, nil
		}
	}
	return "", nil
}

// messageRule maps raw server phrasing to a fixed user-facing message.
type messageRule struct {
	needles []string
	message string
}

// messageRules are checked in order; the first rule with a matching
// needle wins. Matching is case-insensitive.
var messageRules = []messageRule{
	{[]string{"too short"}, "Password is too short. It must contain at least 8 characters."},
	{[]string{"too common"}, "Password is too common. Please choose a stronger password."},
	{[]string{"entirely numeric"}, "Password cannot be entirely numeric."},
	{[]string{"student id already exists", "student_id already exists"}, "An account with this student ID already exists."},
	{[]string{"already exists"}, "An account with this email already exists."},
	{[]string{"didn't match", "did not match", "do not match", "don't match"}, model.MsgPasswordMismatch},
	{[]string{"invalid email or password", "no active account", "unable to log in", "invalid credentials"}, "Invalid email or password."},
	{[]string{"this field is required", "may not be blank", "this field may not be null"}, model.MsgRequiredFields},
}

// NormalizeMessage maps common raw server messages to friendly phrasings.
// Unrecognised messages are returned unchanged.
func NormalizeMessage(raw string) string {
	lower := strings.ToLower(raw)
	for _, rule := range messageRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.message
			}
		}
	}
	return raw
}
