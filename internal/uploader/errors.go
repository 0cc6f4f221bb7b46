package uploader

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidType        = errors.New("invalid file type")
	ErrTooLarge           = errors.New("file too large")
	ErrNoFileSelected     = errors.New("no file selected")
	ErrBusy               = errors.New("prediction already in progress")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrSelectionChanged   = errors.New("selection changed while the prediction was running")
)

// ServerError carries the message of a JSON {"error": "..."} response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// MalformedResponseError is returned when the endpoint answers with something
// other than JSON, typically an HTML error page.
type MalformedResponseError struct {
	StatusCode  int
	ContentType string
	Title       string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (status %d, %s): %s", e.StatusCode, e.ContentType, e.Title)
}

// TransportError wraps a failure to send the request or read the response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	var (
		serverErr    *ServerError
		malformedErr *MalformedResponseError
		transportErr *TransportError
	)

	switch {
	case errors.Is(err, ErrInvalidType):
		return "Please upload a valid image file (PNG, JPG, or JPEG)"
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("File size exceeds %dMB limit", MaxFileSize>>20)
	case errors.Is(err, ErrNoFileSelected):
		return "Please select an image first"
	case errors.Is(err, ErrUnexpectedResponse):
		return "An unexpected error occurred"
	case errors.As(err, &serverErr):
		return serverErr.Message
	case errors.As(err, &malformedErr):
		return fmt.Sprintf("Server Error: %s. Check console for details.", malformedErr.Title)
	case errors.As(err, &transportErr):
		return "Network error: " + transportErr.Err.Error()
	default:
		return err.Error()
	}
}
