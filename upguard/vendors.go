package upguard

import (
	"context"
	"encoding/json"
)

const vendorsPath = "/vendors"

// VendorDetails returns a vendor by id or hostname.
func (u *Client) VendorDetails(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_vendor_details", "/vendor", params, 0)
}

// ListMonitoredVendors lists monitored vendors.
func (u *Client) ListMonitoredVendors(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "list_monitored_vendors", vendorsPath, params, 0)
}

// StartMonitoringVendor starts monitoring the vendor at hostname.
func (u *Client) StartMonitoringVendor(ctx context.Context, hostname string) (json.RawMessage, error) {
	return u.write(ctx, "start_monitoring_vendor", post("/vendor/monitor", map[string]string{"hostname": hostname}), vendorsPath)
}

// StopMonitoringVendor stops monitoring the vendor at hostname.
func (u *Client) StopMonitoringVendor(ctx context.Context, hostname string) (json.RawMessage, error) {
	return u.write(ctx, "stop_monitoring_vendor", post("/vendor/unmonitor", map[string]string{"hostname": hostname}), vendorsPath)
}

// UpdateVendorTier sets the tier of a monitored vendor.
func (u *Client) UpdateVendorTier(ctx context.Context, primaryHostname string, tier int) (json.RawMessage, error) {
	body := map[string]any{"vendor_primary_hostname": primaryHostname, "tier": tier}
	return u.write(ctx, "update_vendor_tier", put("/vendor/tier", body))
}

// UpdateVendorLabels replaces the labels of a monitored vendor.
func (u *Client) UpdateVendorLabels(ctx context.Context, primaryHostname string, labels []string) (json.RawMessage, error) {
	body := map[string]any{"vendor_primary_hostname": primaryHostname, "labels": labels}
	return u.write(ctx, "update_vendor_labels", put("/vendor/labels", body))
}
