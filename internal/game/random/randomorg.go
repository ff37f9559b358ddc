package random

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OrgProvider fetches random decimal fractions from the random.org HTTP API.
// Each Float call performs one blocking request; failures are wrapped in
// ErrUnavailable so callers can distinguish transient upstream outages.
type OrgProvider struct {
	url    string
	client *http.Client
}

// NewOrgProvider creates an OrgProvider for the given decimal-fractions
// endpoint URL.
//
// Precondition: url must be non-empty; timeout must be positive.
func NewOrgProvider(url string, timeout time.Duration) *OrgProvider {
	return &OrgProvider{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Float requests one decimal fraction from random.org.
//
// Postcondition: Returns a value in [0, 1), or an error wrapping
// ErrUnavailable when the upstream is unreachable or responds with
// anything other than a parseable fraction.
func (p *OrgProvider) Float(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, fmt.Errorf("building random.org request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: requesting random.org: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: random.org returned status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("%w: reading random.org response: %v", ErrUnavailable, err)
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing random.org response %q: %v", ErrUnavailable, strings.TrimSpace(string(body)), err)
	}
	if val < 0 || val >= 1 {
		return 0, fmt.Errorf("%w: random.org value %v outside [0, 1)", ErrUnavailable, val)
	}

	return val, nil
}
