package oracle

import "testing"

func TestNormalizeTeam(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "arsenal", "arsenal"},
		{"uppercase", "ARSENAL", "arsenal"},
		{"diacritics stripped", "São Paulo", "saopaulo"},
		{"punctuation stripped", " SAO-PAULO ", "saopaulo"},
		{"dots and spaces", "F.C. Bayern München", "fcbayernmunchen"},
		{"digits kept", "Schalke 04", "schalke04"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTeam(tt.in); got != tt.want {
				t.Errorf("NormalizeTeam(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTeamIdempotent(t *testing.T) {
	for _, in := range []string{"São Paulo", "Real Madrid C.F.", "1. FC Köln"} {
		once := NormalizeTeam(in)
		if twice := NormalizeTeam(once); twice != once {
			t.Errorf("NormalizeTeam not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestSameTeam(t *testing.T) {
	if !SameTeam("São Paulo", "sao paulo") {
		t.Error("diacritic variants should match")
	}
	if !SameTeam("sao paulo", " SAO-PAULO ") {
		t.Error("punctuation variants should match")
	}
	if SameTeam("Arsenal", "Aston Villa") {
		t.Error("distinct teams must not match")
	}
}
