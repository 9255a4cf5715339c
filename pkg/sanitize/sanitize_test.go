package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPII(t *testing.T) {
	in := "Contact dana@example.com or +971 50 123 4567 about the hearing."
	out := RedactPII(in)
	assert.NotContains(t, out, "dana@example.com")
	assert.NotContains(t, out, "50 123 4567")
	assert.Contains(t, out, "[redacted email]")
	assert.Contains(t, out, "[redacted phone]")
	assert.Contains(t, out, "about the hearing")
}

func TestRedactPIILeavesPlainTextAlone(t *testing.T) {
	in := "File the motion before Thursday."
	assert.Equal(t, in, RedactPII(in))
	assert.Empty(t, RedactPII(""))
}

func TestSummary(t *testing.T) {
	long := "The client disputes the second invoice and requests a revised statement"
	got := Summary(long, 30)
	assert.LessOrEqual(t, len(got), 31+len("…"))
	assert.NotContains(t, got[:len(got)-len("…")], "revised")

	short := "Short note"
	assert.Equal(t, short, Summary(short, 30))
}
