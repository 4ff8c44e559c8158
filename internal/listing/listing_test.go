package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		page int
		want string
	}{
		{"no query", "https://l.example/search", 1, "https://l.example/search?page=1"},
		{"existing query", "https://l.example/search?q=ceo", 2, "https://l.example/search?q=ceo&page=2"},
		{"existing page first", "https://l.example/search?page=1&q=x", 3, "https://l.example/search?page=3&q=x"},
		{"existing page last", "https://l.example/search?q=x&page=7", 2, "https://l.example/search?q=x&page=2"},
		{"empty page value", "https://l.example/search?page=", 4, "https://l.example/search?page=4"},
		{"homepage param untouched", "https://l.example/search?homepage=1", 2, "https://l.example/search?homepage=1&page=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageURL(tt.base, tt.page))
		})
	}
}
