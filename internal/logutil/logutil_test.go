package logutil

import (
	"net/http"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestFormatHeadersForLog_RedactsAndSorts(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("User-Agent", "Playwright")
	h.Set("Cookie", "session=abc")
	h.Set("Accept", "text/html")

	got := FormatHeadersForLog(h)
	want := `accept="text/html"; cookie="[REDACTED]"; user-agent="Playwright"`
	if got != want {
		t.Fatalf("FormatHeadersForLog = %s, want %s", got, want)
	}
	if got := FormatHeadersForLog(nil); got != "{}" {
		t.Fatalf("FormatHeadersForLog(nil) = %q", got)
	}
}

func TestTruncateForLog_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.StringMatching(`[a-z \n\t<>/]{0,200}`).Draw(t, "value")
		limit := rapid.IntRange(1, 120).Draw(t, "limit")

		got := TruncateForLog(value, limit)
		if strings.ContainsAny(got, "\n\t") {
			t.Fatalf("preview contains line breaks: %q", got)
		}
		body := strings.TrimSuffix(got, "... [truncated]")
		if len(body) > limit {
			t.Fatalf("preview body longer than limit %d: %q", limit, got)
		}
	})
}
