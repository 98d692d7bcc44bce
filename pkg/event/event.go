package event

import (
	"bytes"
	"encoding/json"
)

// RemoteIP tells the collector to use the source address of the upload request.
const RemoteIP = "$remote"

// Properties holds free-form event, user or group data. Values can be strings,
// numbers, booleans, arrays or nested objects. Numbers are kept as
// json.Number so integers beyond 2^53 are sent unchanged.
type Properties map[string]interface{}

func (p *Properties) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	out := map[string]interface{}{}
	if err := decoder.Decode(&out); err != nil {
		return err
	}

	*p = out
	return nil
}

// Event is a single occurrence reported to the collector. Only EventType is
// mandatory, every other field is omitted from the payload while unset.
//
// Events are built by value: each With* method returns a modified copy, so
// a partially built event can be reused as a template safely.
type Event struct {
	EventType string `json:"event_type"`

	UserID   *string `json:"user_id,omitempty"`
	DeviceID *string `json:"device_id,omitempty"`

	// Time is the occurrence time in milliseconds since epoch. The collector
	// uses the upload time when unset.
	Time *int64 `json:"time,omitempty"`

	EventProperties Properties `json:"event_properties,omitempty"`
	UserProperties  Properties `json:"user_properties,omitempty"`
	Groups          Properties `json:"groups,omitempty"`

	AppVersion         *string `json:"app_version,omitempty"`
	Platform           *string `json:"platform,omitempty"`
	OSName             *string `json:"os_name,omitempty"`
	OSVersion          *string `json:"os_version,omitempty"`
	DeviceBrand        *string `json:"device_brand,omitempty"`
	DeviceManufacturer *string `json:"device_manufacturer,omitempty"`
	DeviceModel        *string `json:"device_model,omitempty"`
	Carrier            *string `json:"carrier,omitempty"`
	Country            *string `json:"country,omitempty"`
	Region             *string `json:"region,omitempty"`
	City               *string `json:"city,omitempty"`
	DMA                *string `json:"dma,omitempty"`
	Language           *string `json:"language,omitempty"`

	// Revenue is derived as Price * Quantity by the collector when it is
	// unset and both other fields are present.
	Price       *float64 `json:"price,omitempty"`
	Quantity    *uint32  `json:"quantity,omitempty"`
	Revenue     *float64 `json:"revenue,omitempty"`
	ProductID   *string  `json:"productId,omitempty"`
	RevenueType *string  `json:"revenueType,omitempty"`

	LocationLat *float64 `json:"location_lat,omitempty"`
	LocationLng *float64 `json:"location_lng,omitempty"`
	IP          *string  `json:"ip,omitempty"`

	IDFA      *string `json:"idfa,omitempty"`
	IDFV      *string `json:"idfv,omitempty"`
	ADID      *string `json:"adid,omitempty"`
	AndroidID *string `json:"android_id,omitempty"`

	EventID   *int32  `json:"event_id,omitempty"`
	SessionID *int64  `json:"session_id,omitempty"`
	InsertID  *string `json:"insert_id,omitempty"`

	// err is the first error hit by a builder method, reported by Validate
	err error
}

// New starts an event of the given type. Identity fields are checked by
// Validate, which every send path calls before any request is made.
func New(eventType string) Event {
	return Event{EventType: eventType}
}

// NewWithIdentity creates an event and checks the identity fields right away.
// Empty identifiers are treated as absent.
func NewWithIdentity(eventType, userID, deviceID string) (Event, error) {
	e := New(eventType)
	if userID != "" {
		e = e.WithUserID(userID)
	}
	if deviceID != "" {
		e = e.WithDeviceID(deviceID)
	}

	return e, e.Validate()
}

// Validate checks the event can be submitted: it needs a type, a user or
// device identifier and no pending builder error.
func (e Event) Validate() error {
	if e.err != nil {
		return newValidationError(e.err)
	}
	if e.EventType == "" {
		return newValidationError(ErrMissingEventType)
	}
	if !e.HasIdentity() {
		return newValidationError(ErrMissingIdentity)
	}

	return nil
}

// HasIdentity reports whether a user or device identifier is set.
func (e Event) HasIdentity() bool {
	return !isEmpty(e.UserID) || !isEmpty(e.DeviceID)
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}

func ptr[T any](v T) *T {
	return &v
}
