package linkpolicy

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"civic-pulse/internal/domain/poll"
)

var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

const (
	maxDomainLength = 253
	maxLabelLength  = 63
)

// ValidateDomain checks an allowlist entry against a conservative hostname
// grammar: dot separated alphanumeric labels, inner hyphens only.
func ValidateDomain(domain string) error {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" || len(d) > maxDomainLength {
		return fmt.Errorf("%q: %w", domain, poll.ErrInvalidDomain)
	}
	if strings.HasPrefix(d, ".") || strings.HasSuffix(d, ".") {
		return fmt.Errorf("%q: %w", domain, poll.ErrInvalidDomain)
	}
	for _, label := range strings.Split(d, ".") {
		if label == "" || len(label) > maxLabelLength || !labelPattern.MatchString(label) {
			return fmt.Errorf("%q: %w", domain, poll.ErrInvalidDomain)
		}
	}
	return nil
}

// NewPolicy builds a link policy, rejecting bad domains now rather than at
// URL check time. An empty mode means "any".
func NewPolicy(mode poll.LinkMode, domains []string) (poll.LinkPolicy, error) {
	switch mode {
	case "", poll.LinkModeAny:
		return poll.LinkPolicy{Mode: poll.LinkModeAny, AllowedDomains: []string{}}, nil
	case poll.LinkModeAllowlist:
	default:
		return poll.LinkPolicy{}, fmt.Errorf("link policy mode %q: %w", mode, poll.ErrInvalidPoll)
	}

	seen := make(map[string]struct{}, len(domains))
	cleaned := make([]string, 0, len(domains))
	for _, d := range domains {
		if err := ValidateDomain(d); err != nil {
			return poll.LinkPolicy{}, err
		}
		d = strings.ToLower(strings.TrimSpace(d))
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		cleaned = append(cleaned, d)
	}
	if len(cleaned) == 0 {
		return poll.LinkPolicy{}, fmt.Errorf("allowlist without domains: %w", poll.ErrInvalidDomain)
	}
	return poll.LinkPolicy{Mode: poll.LinkModeAllowlist, AllowedDomains: cleaned}, nil
}

// ValidateURL accepts only https URLs, and under an allowlist only hosts equal
// to or below an allowed domain.
func ValidateURL(raw string, policy poll.LinkPolicy) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%q: %w", raw, poll.ErrInvalidURL)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("%q: %w", raw, poll.ErrNotHTTPS)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("%q: %w", raw, poll.ErrInvalidURL)
	}
	if policy.Mode != poll.LinkModeAllowlist {
		return nil
	}
	for _, d := range policy.AllowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return fmt.Errorf("%q: %w", host, poll.ErrDomainNotAllowed)
}
