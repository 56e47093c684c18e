package pattern_test

import (
	"testing"

	"github.com/cortexhq/cortex/internal/pattern"
)

func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"plain words", "fix auth bug", `"fix" "auth" "bug"`},
		{"operators become literals", "auth AND NOT", `"auth" "AND" "NOT"`},
		{"existing quotes stripped", `"already quoted"`, `"already" "quoted"`},
		{"empty tokens dropped", `fix "" bug`, `"fix" "bug"`},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pattern.EscapeQuery(tt.query); got != tt.want {
				t.Errorf("EscapeQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}
