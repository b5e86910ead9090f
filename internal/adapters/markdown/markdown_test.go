package markdown

import (
	"strings"
	"testing"
)

// TestRender tests basic formatting and HTML escaping.
func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		notWant []string
	}{
		{"bold", "Meet at **noon**", []string{"<strong>noon</strong>"}, nil},
		{"hard wrap", "line one\nline two", []string{"<br"}, nil},
		{"link", "see https://example.org", []string{`href="https://example.org"`}, nil},
		{"raw html escaped", "<script>alert(1)</script>", nil, []string{"<script>"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RenderOrEscape(tc.in)
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("output %q missing %q", got, w)
				}
			}
			for _, w := range tc.notWant {
				if strings.Contains(got, w) {
					t.Errorf("output %q must not contain %q", got, w)
				}
			}
		})
	}
}
