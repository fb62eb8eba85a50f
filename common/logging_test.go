package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger("LPV", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	l.Infof("info")
	l.Warnf("warn")

	assert.Contains(t, out.String(), "[LPV] DEBUG: shown 2")
	assert.Contains(t, out.String(), "[LPV] INFO: info")
	assert.Contains(t, errOut.String(), "[LPV] WARN: warn")
	assert.NotContains(t, out.String(), "hidden")
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
	l.Errorf("dropped")
}
