package types

const StatusSuccess = "success"

// SuccessEnvelope wraps every 2xx JSON body.
type SuccessEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ErrorEnvelope is the body written for every failed request.
type ErrorEnvelope struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// ListEnvelope is the data payload of paginated list endpoints.
type ListEnvelope[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
