package workers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "en-US", normalizeLanguage(""))
	assert.Equal(t, "en-US", normalizeLanguage("en"))
	assert.Equal(t, "en-US", normalizeLanguage(" en-US "))
	assert.Equal(t, "hi-IN", normalizeLanguage("hi"))
	assert.Equal(t, "hi-IN", normalizeLanguage("hi-IN"))
	// unknown BCP-47 tags pass through for the STT provider to reject
	assert.Equal(t, "fr-FR", normalizeLanguage("fr-FR"))
}
