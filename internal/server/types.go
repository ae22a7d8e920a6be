package server

// ErrorResponse is the JSON body of every 4xx/5xx reply that carries one.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

const (
	msgInvalidJSON      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body too large"
	msgInternalError    = "Internal Server Error"
	msgMethodNotAllowed = "Method Not Allowed"
)
