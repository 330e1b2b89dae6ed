package types

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func ErrorResponse(message string) DataResponse {
	return DataResponse{
		Status:  StatusError,
		Message: message,
	}
}
