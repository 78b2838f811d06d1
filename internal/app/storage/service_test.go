package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("media", "Receipt Photo.JPG")
	assert.True(t, strings.HasPrefix(key, "media/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	// The original name must not leak into the key.
	assert.NotContains(t, key, "Receipt")

	other := ObjectKey("media", "Receipt Photo.JPG")
	assert.NotEqual(t, key, other)
}

func TestObjectKeyNoExtension(t *testing.T) {
	key := ObjectKey("media", "README")
	assert.True(t, strings.HasPrefix(key, "media/"))
	assert.NotContains(t, key[len("media/"):], ".")
}

func TestKeyFromURL(t *testing.T) {
	base := "https://cdn.example.com/splitchat"

	key, ok := KeyFromURL("https://cdn.example.com/splitchat/media/abc.png", base)
	assert.True(t, ok)
	assert.Equal(t, "media/abc.png", key)

	// Trailing slash on the base makes no difference.
	key, ok = KeyFromURL("https://cdn.example.com/splitchat/media/abc.png", base+"/")
	assert.True(t, ok)
	assert.Equal(t, "media/abc.png", key)

	_, ok = KeyFromURL("https://elsewhere.example.com/media/abc.png", base)
	assert.False(t, ok)

	_, ok = KeyFromURL("https://cdn.example.com/splitchat/", base)
	assert.False(t, ok)
}
