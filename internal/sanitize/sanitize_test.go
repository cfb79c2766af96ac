package sanitize

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bearer header", "Authorization: Bearer abc.def", "Authorization: Bearer [REDACTED]"},
		{"jwt", "got eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.sig", "got [REDACTED]"},
		{"secret assignment", "jwt_secret=abcdefghijklmnopqrstuvwxyz", "jwt_secret=[REDACTED]"},
		{"plain", "nothing to see", "nothing to see"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "", Query(""))
	assert.Equal(t, "format=html", Query("format=html"))
	assert.Equal(t, "format=term&token=%5BREDACTED%5D", Query("token=abc&format=term"))
	assert.Equal(t, "Token=%5BREDACTED%5D", Query("Token=abc"))
}

func TestURL(t *testing.T) {
	u, err := url.Parse("https://user:pw@example.com/v1/preview/live?token=abc")
	require.NoError(t, err)
	got := URL(u)
	assert.NotContains(t, got, "pw")
	assert.NotContains(t, got, "abc")
	assert.Equal(t, "https://user:pw@example.com/v1/preview/live?token=abc", u.String())
}
