package event

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// FromJSON decodes a raw JSON object into an event. The identity fields are
// checked on the raw object first, so an event without user_id and device_id
// is rejected before it is decoded.
func FromJSON(raw []byte) (Event, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Event{}, newValidationError(errors.Wrapf(ErrNotAnObject, "parse %s", truncate(raw, 64)))
	}
	if !hasRawIdentity(fields, "user_id") && !hasRawIdentity(fields, "device_id") {
		return Event{}, newValidationError(ErrMissingIdentity)
	}

	e := Event{}
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, errors.Wrap(err, "decode event")
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}

	return e, nil
}

// FromMap is FromJSON for an already parsed object.
func FromMap(obj map[string]interface{}) (Event, error) {
	if obj == nil {
		return Event{}, newValidationError(ErrNotAnObject)
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return Event{}, errors.Wrap(err, "marshal event")
	}

	return FromJSON(raw)
}

func hasRawIdentity(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return false
	}

	return id != ""
}
