package upstream

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when a model reply holds no JSON value.
var ErrNoJSON = errors.New("no JSON value found in response")

// StripThinking removes a leading <think>...</think> block that reasoning
// models prepend to their answer.
func StripThinking(s string) string {
	s = strings.TrimSpace(s)
	if thinkStart := strings.Index(s, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(s, "</think>"); thinkEnd != -1 && thinkEnd > thinkStart {
			s = s[:thinkStart] + s[thinkEnd+len("</think>"):]
		}
	}
	return strings.TrimSpace(s)
}

// ExtractJSON returns the text between the first open delimiter and the
// last matching close delimiter. open is '{' or '['.
func ExtractJSON(raw string, open byte) (string, error) {
	closeDelim := byte('}')
	if open == '[' {
		closeDelim = ']'
	}
	s := StripThinking(raw)
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closeDelim)
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}
