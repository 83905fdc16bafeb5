package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidHexColor(t *testing.T) {
	assert.True(t, IsValidHexColor("#ff9900"))
	assert.True(t, IsValidHexColor("#FFEB3B"))
	assert.True(t, IsValidHexColor("#abc"))
	assert.False(t, IsValidHexColor("ff9900"))
	assert.False(t, IsValidHexColor("#gg0000"))
	assert.False(t, IsValidHexColor(""))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("alice@example.com"))
	assert.False(t, IsValidEmail("not-an-email"))
}

func TestNormalizeWord(t *testing.T) {
	assert.Equal(t, "serendipity", NormalizeWord("  Serendipity "))
	assert.Equal(t, "", NormalizeWord("   "))
}
