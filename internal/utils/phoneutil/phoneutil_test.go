package phoneutil

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"prefixed", "whatsapp:+15551234567", "+15551234567"},
		{"bare", "+15551234567", "+15551234567"},
		{"whitespace", "  whatsapp:+1555  ", "+1555"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWhatsApp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", "+15551234567", "whatsapp:+15551234567"},
		{"already prefixed", "whatsapp:+15551234567", "whatsapp:+15551234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WhatsApp(tt.input); got != tt.want {
				t.Errorf("WhatsApp(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
