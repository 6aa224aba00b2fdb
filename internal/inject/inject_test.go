package inject

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInjectorUnknownToolIsUnavailable(t *testing.T) {
	i := NewInjector("dictd-nonexistent-tool-xyz")
	assert.False(t, i.Available())
}

func TestTypeSkipsWhenUnavailable(t *testing.T) {
	i := NewInjector("dictd-nonexistent-tool-xyz")
	err := i.Type(context.Background(), "hello")
	assert.NoError(t, err)
}

func TestNewClipboardUnknownToolIsUnavailable(t *testing.T) {
	c := NewClipboard("dictd-nonexistent-tool-xyz")
	assert.False(t, c.Available())
}

func TestCopySkipsWhenUnavailable(t *testing.T) {
	c := NewClipboard("dictd-nonexistent-tool-xyz")
	// Should not panic or block even though no tool is present.
	c.Copy("hello")
}

func TestNewInjectorResolvesRealTool(t *testing.T) {
	i := NewInjector("echo")
	assert.True(t, i.Available())

	err := i.Type(context.Background(), "hello world")
	assert.NoError(t, err)
}
