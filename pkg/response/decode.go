package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// DefaultServerError replaces a response body that is empty or could not be read.
const DefaultServerError = `{"error": "Some kind of server error"}`

// KindForStatus maps an HTTP status code to the response variant. Codes the
// collector does not document fall back to KindOk to stay compatible with
// existing callers, even though such a response is not a success; use
// IsSuccess to tell them apart.
func KindForStatus(code int) Kind {
	switch code {
	case http.StatusOK:
		return KindOk
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	case http.StatusTooManyRequests:
		return KindTooManyRequests
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return KindServerError
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	default:
		// should not happen
		return KindOk
	}
}

// StatusForKind returns the canonical status code of a variant.
func StatusForKind(kind Kind) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindServerError:
		return http.StatusInternalServerError
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

// New returns an empty response of the given kind.
func New(kind Kind) (Response, error) {
	switch kind {
	case KindOk:
		return &Ok{}, nil
	case KindBadRequest:
		return &BadRequest{}, nil
	case KindPayloadTooLarge:
		return &PayloadTooLarge{}, nil
	case KindTooManyRequests:
		return &TooManyRequests{}, nil
	case KindServerError:
		return &ServerError{}, nil
	case KindServiceUnavailable:
		return &ServiceUnavailable{}, nil
	}

	return nil, fmt.Errorf("unknown response kind %q", kind)
}

// Decode builds the response variant selected by the status code from the
// response body. An empty body is decoded as DefaultServerError.
func Decode(statusCode int, body []byte) (Response, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte(DefaultServerError)
	}

	r, err := decodeKind(KindForStatus(statusCode), body)
	if err != nil {
		return nil, err
	}

	r.setStatusCode(statusCode)
	return r, nil
}

func decodeKind(kind Kind, body []byte) (Response, error) {
	r, err := New(kind)
	if err != nil {
		return nil, err
	}

	switch t := r.(type) {
	case *ServerError:
		err = json.Unmarshal(body, &t.Value)
	case *ServiceUnavailable:
		err = json.Unmarshal(body, &t.Value)
	default:
		err = json.Unmarshal(body, r)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s response", kind)
	}

	return r, nil
}

// Tag wraps a response body into a single key object named after the kind,
// e.g. {"TooManyRequests": {...}}.
func Tag(kind Kind, body []byte) []byte {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte(DefaultServerError)
	}

	return []byte(fmt.Sprintf(`{"%s": %s}`, kind, body))
}

// DecodeTagged decodes the output of Tag. The status code of the result is
// the canonical code of the kind.
func DecodeTagged(data []byte) (Response, error) {
	tagged := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, errors.Wrap(err, "decode tagged response")
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("tagged response must have exactly one key, got %d", len(tagged))
	}

	var (
		kind Kind
		body json.RawMessage
	)
	for key, value := range tagged {
		kind, body = Kind(key), value
	}

	r, err := decodeKind(kind, body)
	if err != nil {
		return nil, err
	}

	r.setStatusCode(StatusForKind(r.Kind()))
	return r, nil
}

// Encode renders a response in the tagged form read by DecodeTagged.
func Encode(r Response) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("response is nil")
	}

	var (
		body []byte
		err  error
	)
	switch t := r.(type) {
	case *ServerError:
		body, err = json.Marshal(t.Value)
	case *ServiceUnavailable:
		body, err = json.Marshal(t.Value)
	default:
		body, err = json.Marshal(r)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s response", r.Kind())
	}

	return Tag(r.Kind(), body), nil
}
