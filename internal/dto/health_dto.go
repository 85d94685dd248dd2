package dto

type HealthResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
