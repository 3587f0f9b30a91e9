package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTagsSource(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf).With("integration")

	log.Info("activated %s", "ACME")

	out := buf.String()
	assert.Contains(t, out, "source=integration")
	assert.Contains(t, out, `msg="activated ACME"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("hidden")
	log.Critical("boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=CRITICAL")
}
