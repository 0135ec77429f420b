package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		DisableDebug()
	})
	return &buf
}

func TestMaskIdentifier(t *testing.T) {
	assert.Equal(t, "", MaskIdentifier("  "))
	assert.Equal(t, "****", MaskIdentifier("abc"))
	assert.Equal(t, "****5678", MaskIdentifier("12345678"))
}

func TestDebugGate(t *testing.T) {
	buf := captureLog(t)
	Debugf("hidden %d", 1)
	LogCall("client", "GetChildren", 1, nil)
	assert.Empty(t, buf.String())

	EnableDebug()
	LogCall("client", "GetChildren", 7, []any{int32(0), []string{"label"}})
	assert.Contains(t, buf.String(), "client call #7 GetChildren(0, [label])")
}

func TestLogFrameMasksTokens(t *testing.T) {
	buf := captureLog(t)
	EnableDebug()
	LogFrame("recv", map[string]string{"kind": "hello", "token": "supersecret"}, nil)
	out := buf.String()
	assert.Contains(t, out, "kind=hello")
	assert.Contains(t, out, "token=*******cret")
	assert.NotContains(t, out, "supersecret")
}

func TestSummarizeArgs(t *testing.T) {
	assert.Equal(t, `"x", <3 bytes>, true`, SummarizeArgs([]any{"x", []byte{1, 2, 3}, true}))
	long := SummarizeArgs([]any{strings.Repeat("a", 400)})
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.Len(t, long, maxSummary+3)
}
