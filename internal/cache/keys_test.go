package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{"without paramsKey", "session", "aggregate", "01H", nil, "quizassess:session:aggregate:01H"},
		{"with empty paramsKey", "session", "aggregate", "01H", []string{}, "quizassess:session:aggregate:01H"},
		{"with one paramsKey", "session", "outcome", "01H", []string{"v2"}, "quizassess:session:outcome:01H:v2"},
		{"with multiple paramsKey", "session", "outcome", "01H", []string{"v2", "en"}, "quizassess:session:outcome:01H:v2_en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKey, GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...))
		})
	}
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "quizassess:session:aggregate:abc", SessionKey("abc"))
}
