package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ContractRequest represents the JSON body of the analyze and humanize endpoints.
type ContractRequest struct {
	Text string `json:"text" example:"The Supplier may terminate this Agreement at any time without notice."`
	URL  string `json:"url" example:"https://example.com/terms"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string   `json:"status" example:"ok"`
	Providers []string `json:"providers,omitempty" example:"analyze:openrouter,humanize:openrouter"`
	Error     string   `json:"error,omitempty"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

// FailedRunResponseBody is returned when every segment failed. Data carries
// the run's error and warnings.
type FailedRunResponseBody struct {
	Success bool        `json:"success" example:"false"`
	Data    interface{} `json:"data"`
	Error   *APIError   `json:"error"`
}
