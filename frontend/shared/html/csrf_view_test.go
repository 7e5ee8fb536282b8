package html

import (
	"strings"
	"testing"

	sessioncookie "receiptstudio/infrastructure/session"
)

func TestCSRFFormScriptUsesSessionNames(t *testing.T) {
	script := CSRFFormScript()
	for _, want := range []string{sessioncookie.CSRFCookieName, `"` + sessioncookie.CSRFHeader + `"`, `"` + sessioncookie.CSRFField + `"`} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q", want)
		}
	}
	if strings.Contains(script, "%!") {
		t.Fatalf("script has a formatting error: %s", script)
	}
}
