package utils

import "testing"

func TestShortURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "http://localhost:8080/", want: "http://localhost:8080/abc1234"},
		{base: "http://localhost:8080", want: "http://localhost:8080/abc1234"},
		{base: "https://sho.rt//", want: "https://sho.rt/abc1234"},
	}

	for _, tt := range tests {
		if got := ShortURL(tt.base, "abc1234"); got != tt.want {
			t.Errorf("ShortURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
