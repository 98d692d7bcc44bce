package amplitude

import (
	"fmt"
	"unicode/utf8"

	"github.com/loft-sh/amplitude/pkg/event"
	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is matched by every *ConfigError
	ErrConfiguration = errors.New("invalid configuration")
	// ErrMissingAPIKey is returned for an empty api key
	ErrMissingAPIKey = errors.New("api key must not be empty")
	// ErrNoEvents is returned by Send for an empty batch
	ErrNoEvents = errors.New("no events to send")
)

// ValidationError is returned by Send before any request is made
type ValidationError = event.ValidationError

// ConfigError is returned if a client cannot be created
type ConfigError struct {
	Err error
}

func (c *ConfigError) Error() string {
	return fmt.Sprintf("initialize amplitude client: %v", c.Err)
}

func (c *ConfigError) Unwrap() error {
	return c.Err
}

func (c *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NetworkError wraps a transport failure such as a refused connection, a
// TLS error or a timeout. Uploads are never retried by the client.
type NetworkError struct {
	URL string
	Err error
}

func (n *NetworkError) Error() string {
	return fmt.Sprintf("send events: %v", n.Err)
}

func (n *NetworkError) Unwrap() error {
	return n.Err
}

func (n *NetworkError) Cause() error {
	return n.Err
}

// DecodeError is returned if the body does not match the response variant
// selected by the status code. Body holds the start of the raw body.
type DecodeError struct {
	StatusCode int
	Body       string
	Err        error
}

const maxErrorBody = 512

func newDecodeError(statusCode int, body []byte, err error) *DecodeError {
	excerpt := string(body)
	if len(excerpt) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "..."
	}

	return &DecodeError{StatusCode: statusCode, Body: excerpt, Err: err}
}

func (d *DecodeError) Error() string {
	return fmt.Sprintf("status %d: %v (body: %s)", d.StatusCode, d.Err, d.Body)
}

func (d *DecodeError) Unwrap() error {
	return d.Err
}

func (d *DecodeError) Cause() error {
	return d.Err
}
