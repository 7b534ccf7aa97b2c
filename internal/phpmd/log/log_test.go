package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	saved := GetLevel()
	defer SetLevel(saved)

	SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, GetLevel())

	SetLevel(LevelError)
	assert.Equal(t, LevelError, GetLevel())
}

func TestLevelFiltering(t *testing.T) {
	saved := GetLevel()
	defer SetLevel(saved)

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel(LevelInfo)
	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	Info("visible %d", 2)
	assert.Contains(t, buf.String(), "visible 2")

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("now shown")
	assert.Contains(t, buf.String(), "now shown")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
