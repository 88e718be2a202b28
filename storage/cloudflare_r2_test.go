package storage

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"host only", "https://cdn.example.com", "avatars/a.png", "https://cdn.example.com/avatars/a.png"},
		{"trailing slash", "https://cdn.example.com/", "avatars/a.png", "https://cdn.example.com/avatars/a.png"},
		{"leading slash key", "https://cdn.example.com/", "/avatars/a.png", "https://cdn.example.com/avatars/a.png"},
		{"base with path", "https://cdn.example.com/kmo", "avatars/a.png", "https://cdn.example.com/kmo/avatars/a.png"},
		{"empty key", "https://cdn.example.com", "", ""},
		{"empty base", "", "avatars/a.png", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PublicURL(tt.base, tt.key); got != tt.want {
				t.Errorf("PublicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
			}
		})
	}
}
