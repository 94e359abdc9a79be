package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// AnswerSheet maps question ids to the option the learner chose.
// Keys are kept in ascending order so every adapter sees the same sequence.
// The zero value is an empty sheet ready to use.
type AnswerSheet struct {
	keys   []string
	values map[string]string
}

// NewAnswerSheet builds a sheet from a plain map.
func NewAnswerSheet(m map[string]string) AnswerSheet {
	var sheet AnswerSheet
	for k, v := range m {
		sheet.Set(k, v)
	}
	return sheet
}

// Set records answer for questionID, replacing any earlier answer.
func (a *AnswerSheet) Set(questionID, answer string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, exists := a.values[questionID]; !exists {
		i := sort.SearchStrings(a.keys, questionID)
		a.keys = append(a.keys, "")
		copy(a.keys[i+1:], a.keys[i:])
		a.keys[i] = questionID
	}
	a.values[questionID] = answer
}

func (a AnswerSheet) Get(questionID string) (string, bool) {
	v, ok := a.values[questionID]
	return v, ok
}

func (a AnswerSheet) Len() int {
	return len(a.keys)
}

// Keys returns a copy of the question ids in order.
func (a AnswerSheet) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Each calls fn for every entry in key order.
func (a AnswerSheet) Each(fn func(questionID, answer string)) {
	for _, k := range a.keys {
		fn(k, a.values[k])
	}
}

func (a AnswerSheet) Clone() AnswerSheet {
	var out AnswerSheet
	if len(a.keys) == 0 {
		return out
	}
	out.keys = a.Keys()
	out.values = make(map[string]string, len(a.values))
	for k, v := range a.values {
		out.values[k] = v
	}
	return out
}

// Map returns a plain copy, for adapters that need one.
func (a AnswerSheet) Map() map[string]string {
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the sheet as an object with keys in order.
func (a AnswerSheet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *AnswerSheet) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = NewAnswerSheet(m)
	return nil
}
