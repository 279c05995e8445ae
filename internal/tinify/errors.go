package tinify

import "fmt"

const (
	CodeConnection = "ConnectionError"
	CodeClient     = "ClientError"
	CodeAccount    = "AccountError"
	CodeServer     = "ServerError"
)

// Error is a failure reported by the compression service. Code is the short
// error code sent by the service, Message the human readable text.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d/%s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
