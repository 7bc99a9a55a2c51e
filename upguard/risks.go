package upguard

import (
	"context"
	"encoding/json"
)

// AvailableRisks lists the risk types UpGuard can detect.
func (u *Client) AvailableRisks(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_available_risks", "/available_risks", params, CatalogueTTL)
}

// AvailableRisksV2 lists risk types in the v2 format.
func (u *Client) AvailableRisksV2(ctx context.Context) (json.RawMessage, error) {
	return u.get(ctx, "get_available_risks_v2", "/available_risks/v2", nil, CatalogueTTL)
}

// RiskDetails describes a single risk type.
func (u *Client) RiskDetails(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_risk_details", "/available_risks/risk", params, CatalogueTTL)
}

// AccountRisks lists the active risks of the account.
func (u *Client) AccountRisks(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_account_risks", "/risks", params, DynamicTTL)
}

// AccountRisksDiff lists account risk changes between two dates.
func (u *Client) AccountRisksDiff(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_account_risks_diff", "/risks/diff", params, DiffTTL)
}

// VendorRisks lists the active risks of a vendor.
func (u *Client) VendorRisks(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_vendor_risks", "/risks/vendors", params, DynamicTTL)
}

// VendorRisksDiff lists a vendor's risk changes between two dates.
func (u *Client) VendorRisksDiff(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_vendor_risks_diff", "/risks/vendors/diff", params, DiffTTL)
}

// VendorsRisksDiff lists risk changes across all monitored vendors.
func (u *Client) VendorsRisksDiff(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_vendors_risks_diff", "/risks/vendors/diffs", params, DiffTTL)
}

// VendorQuestionnaireRisks lists risks raised by vendor questionnaires.
func (u *Client) VendorQuestionnaireRisks(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_vendor_questionnaire_risks", "/risks/vendors/questionnaires", params, DiffTTL)
}

// VendorQuestionnaireRisksV2 is VendorQuestionnaireRisks in the v2 format.
func (u *Client) VendorQuestionnaireRisksV2(ctx context.Context, params Params) (json.RawMessage, error) {
	return u.get(ctx, "get_vendor_questionnaire_risks_v2", "/risks/vendors/questionnaires/v2", params, DiffTTL)
}
