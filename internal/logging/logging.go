package logging

import (
	"encoding/base64"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

var debugEnabled atomic.Bool

// maxSummary caps how much of an argument list is written per log line.
const maxSummary = 256

// EnableDebug turns on verbose debug logging for the application lifecycle.
func EnableDebug() {
	debugEnabled.Store(true)
	log.Printf("[DEBUG] debug logging enabled")
}

// DisableDebug turns verbose logging back off.
func DisableDebug() {
	debugEnabled.Store(false)
}

// DebugEnabled reports whether debug logging is active.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf emits a formatted debug log message when debugging is enabled.
func Debugf(format string, args ...interface{}) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// LogCall describes an outbound or inbound method call when debugging is
// enabled.
func LogCall(peer, method string, serial uint32, args []any) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] %s call #%d %s(%s)", peer, serial, method, SummarizeArgs(args))
}

// LogReply describes the completion of a call when debugging is enabled.
func LogReply(peer string, serial uint32, values []any, err error) {
	if !DebugEnabled() {
		return
	}
	if err != nil {
		log.Printf("[DEBUG] %s reply #%d failed: %v", peer, serial, err)
		return
	}
	log.Printf("[DEBUG] %s reply #%d -> (%s)", peer, serial, SummarizeArgs(values))
}

// LogSignal describes a signal emission or delivery when debugging is enabled.
func LogSignal(peer, signal string, args []any) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] %s signal %s(%s)", peer, signal, SummarizeArgs(args))
}

// LogFrame emits a raw transport frame when debugging is enabled. Fields named
// like credentials are masked before the frame reaches the log.
func LogFrame(direction string, fields map[string]string, body []byte) {
	if !DebugEnabled() {
		return
	}
	var b strings.Builder
	first := true
	for _, name := range sortedKeys(fields) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(sanitizeSensitiveValue(name, fields[name]))
	}
	if len(body) > 0 {
		log.Printf("[DEBUG] %s frame [%s] payload %s", direction, b.String(), describePayload(body))
		return
	}
	log.Printf("[DEBUG] %s frame [%s]", direction, b.String())
}

// SummarizeArgs renders a call argument list on one line, truncating long
// output and printing binary blobs by size only.
func SummarizeArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case []byte:
			parts[i] = fmt.Sprintf("<%d bytes>", len(v))
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	out := strings.Join(parts, ", ")
	if len(out) > maxSummary {
		out = out[:maxSummary] + "..."
	}
	return out
}

func describePayload(body []byte) string {
	if utf8.Valid(body) {
		return fmt.Sprintf("(utf-8, %d bytes): %s", len(body), string(body))
	}

	encoded := base64.StdEncoding.EncodeToString(body)
	return fmt.Sprintf("(base64, %d bytes): %s", len(body), encoded)
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	return keys
}

func isSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "api-key"),
		strings.Contains(lower, "apikey"),
		strings.Contains(lower, "authorization"),
		strings.Contains(lower, "secret"),
		strings.Contains(lower, "token"):
		return true
	default:
		return false
	}
}

func sanitizeSensitiveValue(name, value string) string {
	if value == "" {
		return value
	}
	if isSensitiveKey(name) {
		return MaskIdentifier(value)
	}
	return value
}

// MaskIdentifier obscures sensitive identifiers leaving only the last four characters visible.
func MaskIdentifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-4:]
}
