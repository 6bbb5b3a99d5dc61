// Package server provides the HTTP surface for the video crop API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// UploadResponse is the HTTP response after a successful upload.
type UploadResponse struct {
	// Filename is the generated identity of the stored source asset.
	Filename string `json:"filename"`
	// URL is the path the source asset is served under.
	URL string `json:"url"`
}

// CropResponse is the HTTP response after a successful transform.
type CropResponse struct {
	// Filename is the generated identity of the derived asset.
	Filename string `json:"filename"`
	// URL is the path the derived asset is served under.
	URL string `json:"url"`
	// S3URL is the mirror location when S3 mirroring is configured.
	S3URL string `json:"s3_url,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message. For transcode failures it
	// carries the engine's raw diagnostic text.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
