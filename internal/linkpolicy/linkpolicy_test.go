package linkpolicy

import (
	"testing"

	"civic-pulse/internal/domain/poll"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	allow, err := NewPolicy(poll.LinkModeAllowlist, []string{"example.com"})
	require.NoError(t, err)
	anyPolicy, err := NewPolicy(poll.LinkModeAny, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		url     string
		policy  poll.LinkPolicy
		wantErr error
	}{
		{"exact domain", "https://example.com/profile", allow, nil},
		{"subdomain", "https://sub.example.com/x", allow, nil},
		{"uppercase host", "https://WWW.Example.COM/x", allow, nil},
		{"suffix trick", "https://example.com.evil.net", allow, poll.ErrDomainNotAllowed},
		{"lookalike", "https://badexample.com", allow, poll.ErrDomainNotAllowed},
		{"userinfo trick", "https://example.com@evil.net/", allow, poll.ErrDomainNotAllowed},
		{"plain http", "http://example.com", allow, poll.ErrNotHTTPS},
		{"plain http any", "http://example.com", anyPolicy, poll.ErrNotHTTPS},
		{"javascript", "javascript:alert(1)", anyPolicy, poll.ErrNotHTTPS},
		{"any https", "https://elsewhere.org/a?b=c", anyPolicy, nil},
		{"no host", "https:///path", anyPolicy, poll.ErrInvalidURL},
		{"unparseable", "https://exa mple.com/%zz", anyPolicy, poll.ErrInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, tt.policy)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateDomain(t *testing.T) {
	valid := []string{"example.com", "a.b.c.example.org", "x1-y2.gr", "localhost", " Example.COM "}
	for _, d := range valid {
		assert.NoError(t, ValidateDomain(d), d)
	}

	invalid := []string{"", ".example.com", "example.com.", "exa..mple.com", "-example.com", "example-.com", "exa_mple.com", "https://example.com", "example.com/path"}
	for _, d := range invalid {
		assert.ErrorIs(t, ValidateDomain(d), poll.ErrInvalidDomain, d)
	}
}

func TestNewPolicy(t *testing.T) {
	t.Run("empty mode means any", func(t *testing.T) {
		p, err := NewPolicy("", []string{"ignored"})
		require.NoError(t, err)
		assert.Equal(t, poll.LinkModeAny, p.Mode)
		assert.Empty(t, p.AllowedDomains)
	})

	t.Run("allowlist is cleaned and deduplicated", func(t *testing.T) {
		p, err := NewPolicy(poll.LinkModeAllowlist, []string{"Example.com", "example.com ", "gov.gr"})
		require.NoError(t, err)
		assert.Equal(t, []string{"example.com", "gov.gr"}, p.AllowedDomains)
	})

	t.Run("bad domain rejected at set time", func(t *testing.T) {
		_, err := NewPolicy(poll.LinkModeAllowlist, []string{"example.com", "bad..domain"})
		assert.ErrorIs(t, err, poll.ErrInvalidDomain)
	})

	t.Run("empty allowlist", func(t *testing.T) {
		_, err := NewPolicy(poll.LinkModeAllowlist, nil)
		assert.ErrorIs(t, err, poll.ErrInvalidDomain)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewPolicy("blocklist", nil)
		assert.ErrorIs(t, err, poll.ErrInvalidPoll)
	})
}
