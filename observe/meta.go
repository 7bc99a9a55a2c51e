package observe

// RequestMeta describes one logical API call for telemetry purposes.
type RequestMeta struct {
	CallID   string // unique per logical call
	Method   string // HTTP method (required)
	Path     string // concrete request path
	Endpoint string // endpoint key: "<METHOD> <path template>"
	Label    string // optional operation name, e.g. "vendor_risks"
}

// EndpointKey returns Endpoint, or "<Method> <Path>" when it is unset.
func (m RequestMeta) EndpointKey() string {
	if m.Endpoint != "" {
		return m.Endpoint
	}
	return m.Method + " " + m.Path
}

// SpanName returns the deterministic span name for this call.
// Format: api.call.<label> or api.call <endpoint key>
func (m RequestMeta) SpanName() string {
	if m.Label != "" {
		return "api.call." + m.Label
	}
	return "api.call " + m.EndpointKey()
}

// Validate checks that the metadata identifies an endpoint.
func (m RequestMeta) Validate() error {
	if m.Method == "" || (m.Path == "" && m.Endpoint == "") {
		return ErrMissingEndpoint
	}
	return nil
}
