package upguard

import (
	"context"
	"encoding/json"
)

// Organisation returns the account's organisation.
func (u *Client) Organisation(ctx context.Context) (json.RawMessage, error) {
	return u.get(ctx, "get_organisation", "/organisation", nil, 0)
}

// Labels lists the labels defined in the account.
func (u *Client) Labels(ctx context.Context) (json.RawMessage, error) {
	return u.get(ctx, "get_labels", "/labels", nil, 0)
}

// Vulnerabilities lists vulnerabilities found on the organisation's domains
// and IPs.
func (u *Client) Vulnerabilities(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_org_vulnerabilities", "/vulnerabilities", params, 0)
}
