package crud

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Page
	}{
		{"defaults", "", Page{Limit: 20, Offset: 0}},
		{"explicit", "limit=5&offset=10", Page{Limit: 5, Offset: 10}},
		{"clamped", "limit=5000", Page{Limit: 200, Offset: 0}},
		{"garbage", "limit=abc&offset=-3", Page{Limit: 20, Offset: 0}},
		{"page", "limit=10&page=3", Page{Limit: 10, Offset: 20}},
		{"offset wins over page", "limit=10&page=3&offset=4", Page{Limit: 10, Offset: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ParsePage(q))
		})
	}
}
