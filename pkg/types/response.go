package types

// ErrorEnvelope is the failure body every endpoint returns.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusEnvelope is the body of the health probes.
type StatusEnvelope struct {
	Status string `json:"status"`
}
