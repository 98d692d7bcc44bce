package amplitude

import (
	"github.com/loft-sh/amplitude/pkg/event"
)

// RequestOptions are per upload settings understood by the collector.
type RequestOptions struct {
	// MinIDLength is the minimum length of user_id and device_id. The
	// collector uses 5 if unset.
	MinIDLength *uint16 `json:"min_id_length,omitempty"`
}

func (o *RequestOptions) clone() *RequestOptions {
	if o == nil {
		return nil
	}

	c := *o
	if o.MinIDLength != nil {
		v := *o.MinIDLength
		c.MinIDLength = &v
	}
	return &c
}

// UploadEnvelope is the request body of a single upload.
type UploadEnvelope struct {
	APIKey  string          `json:"api_key"`
	Events  []event.Event   `json:"events"`
	Options *RequestOptions `json:"options,omitempty"`
}
