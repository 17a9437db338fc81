package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransliterate_CommonDiacritics(t *testing.T) {
	assert.Equal(t, "Cafe", Transliterate("Café"))
	assert.Equal(t, "naive", Transliterate("naïve"))
	assert.Equal(t, "Strasse", Transliterate("Straße"))
}

func TestTransliterate_PlainASCIIPassesThrough(t *testing.T) {
	assert.Equal(t, "hello world 123", Transliterate("hello world 123"))
}

func TestTransliterate_UnmappedRuneDropped(t *testing.T) {
	assert.Equal(t, "x", Transliterate("x中"))
}
