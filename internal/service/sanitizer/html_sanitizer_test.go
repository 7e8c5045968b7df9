package sanitizer

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "Main Street", want: "Main Street"},
		{name: "ampersand survives", input: "Smith & Sons", want: "Smith & Sons"},
		{name: "quotes survive", input: `O'Brien "Store"`, want: `O'Brien "Store"`},
		{name: "trims whitespace", input: "  12345  ", want: "12345"},
		{name: "strips tags", input: "<b>Bold</b> move", want: "Bold move"},
		{name: "drops script", input: `<script>alert("x")</script>Shop`, want: "Shop"},
		{name: "drops attributes", input: `<a href="javascript:alert(1)">link</a>`, want: "link"},
		{name: "empty", input: "", want: ""},
	}

	s := NewTextSanitizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
