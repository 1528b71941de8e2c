package main

import "testing"

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		expect string
	}{
		{"plain name", "Alice", "Alice"},
		{"exactly 16 bytes", "1234567890123456", "1234567890123456"},
		{"long name truncated", "ThisIsAVeryLongUsername", "ThisIsAVeryLongU"},
		{"control chars stripped", "he\x00ll\x1bo", "hello"},
		{"path traversal stripped", "../../etc/passwd", "etcpasswd"},
		{"backslash stripped", `who\ami`, "whoami"},
		{"empty input", "", ""},
		{"pure control chars", "\x00\x01\x02\x1b", ""},
		{"multi-byte runes fit the byte cap", "日本語のテスト", "日本語のテ"},
		{"tabs and newlines stripped", "hello\tworld\n", "helloworld"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitizeName(tc.input); got != tc.expect {
				t.Errorf("sanitizeName(%q) = %q, want %q", tc.input, got, tc.expect)
			}
		})
	}
}

func TestAllowedTerms(t *testing.T) {
	cases := []struct {
		term    string
		allowed bool
	}{
		{"xterm-256color", true},
		{"tmux", true},
		{"linux", true},
		{"vt100", true},
		{"screen", true},
		{"evil-term", false},
		{"../../../etc/passwd", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.term, func(t *testing.T) {
			if got := allowedTerms[tc.term]; got != tc.allowed {
				t.Errorf("allowedTerms[%q] = %v, want %v", tc.term, got, tc.allowed)
			}
		})
	}
}
