package utils

import "testing"

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "drops scripts and styles",
			input:  `<html><head><title>x</title><style>p{color:red}</style></head><body><script>var a = 1;</script><p>Hello   world</p></body></html>`,
			expect: "Hello world",
		},
		{
			name:   "blocks become lines",
			input:  `<div>Senior Go Engineer</div><div>Acme Corp &amp; Co</div><ul><li>Remote</li><li>Full-time</li></ul>`,
			expect: "Senior Go Engineer\nAcme Corp & Co\nRemote\nFull-time",
		},
		{
			name:   "inline elements stay on one line",
			input:  `<p>Apply <a href="https://x.io">here</a> today</p>`,
			expect: "Apply here today",
		},
		{
			name:   "plain text passes through",
			input:  "just text",
			expect: "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StringHTMLToText(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
