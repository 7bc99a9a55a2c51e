package upguard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jonwraymond/resilientapi/client"
)

const (
	bulkHostnamesPath = "/bulk/hostnames"
	bulkStatsPath     = "/bulk/hostnames/stats"
)

// ListHostnames lists hostnames registered for bulk monitoring.
func (u *Client) ListHostnames(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "list_bulk_hostnames", bulkHostnamesPath, params, 0)
}

// RegisterHostnames registers hostnames for bulk monitoring.
func (u *Client) RegisterHostnames(ctx context.Context, hostnames []string) (json.RawMessage, error) {
	body := map[string]any{"hostnames": hostnames}
	return u.write(ctx, "register_bulk_hostnames", post(bulkHostnamesPath, body), bulkHostnamesPath, bulkStatsPath)
}

// DeregisterHostnames removes hostnames from bulk monitoring.
func (u *Client) DeregisterHostnames(ctx context.Context, hostnames []string) (json.RawMessage, error) {
	req := client.Request{
		Method: http.MethodDelete,
		Path:   bulkHostnamesPath,
		Body:   map[string]any{"hostnames": hostnames},
	}
	return u.write(ctx, "deregister_bulk_hostnames", req, bulkHostnamesPath, bulkStatsPath)
}

// HostnameDetails returns the scan details of one registered hostname.
func (u *Client) HostnameDetails(ctx context.Context, hostname string, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_bulk_hostname_details", "/bulk/hostnames/{hostname}", params, 0,
		client.WithPathParams(map[string]string{"hostname": hostname}))
}

// PutHostnameLabels replaces the labels of a registered hostname.
func (u *Client) PutHostnameLabels(ctx context.Context, hostname string, labels []string) (json.RawMessage, error) {
	req := put("/bulk/hostnames/{hostname}/labels", map[string]any{"labels": labels})
	req.PathParams = map[string]string{"hostname": hostname}
	return u.write(ctx, "put_bulk_hostname_labels", req)
}

// HostnamesStats summarizes the registered hostnames.
func (u *Client) HostnamesStats(ctx context.Context) (json.RawMessage, error) {
	return u.get(ctx, "get_bulk_hostnames_stats", bulkStatsPath, nil, 0)
}
