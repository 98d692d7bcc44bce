package response

// Kind names the variant of a Response.
type Kind string

const (
	KindOk                 Kind = "Ok"
	KindBadRequest         Kind = "BadRequest"
	KindPayloadTooLarge    Kind = "PayloadTooLarge"
	KindTooManyRequests    Kind = "TooManyRequests"
	KindServerError        Kind = "ServerError"
	KindServiceUnavailable Kind = "ServiceUnavailable"
)

// Kinds lists all variants
var Kinds = []Kind{
	KindOk,
	KindBadRequest,
	KindPayloadTooLarge,
	KindTooManyRequests,
	KindServerError,
	KindServiceUnavailable,
}

// Map is an arbitrary JSON object as returned by the collector
type Map = map[string]interface{}

// Response is the decoded answer of the collector. Exactly one of the variant
// types below implements it for any given upload: *Ok, *BadRequest,
// *PayloadTooLarge, *TooManyRequests, *ServerError or *ServiceUnavailable.
type Response interface {
	Kind() Kind
	// StatusCode is the HTTP status the response was received with
	StatusCode() int

	setStatusCode(code int)
}

type status struct {
	code int
}

func (s *status) StatusCode() int {
	return s.code
}

func (s *status) setStatusCode(code int) {
	s.code = code
}

// Ok is returned for a successful upload. It is also used for status codes the
// collector does not document, see KindForStatus.
type Ok struct {
	status

	Code             *int   `json:"code,omitempty"`
	EventsIngested   *int   `json:"events_ingested,omitempty"`
	PayloadSizeBytes *int64 `json:"payload_size_bytes,omitempty"`
	ServerUploadTime *int64 `json:"server_upload_time,omitempty"`
}

func (*Ok) Kind() Kind { return KindOk }

// BadRequest is returned if the payload or some of its events are invalid.
// The per-event maps are keyed by field name and hold the indices of the
// offending events.
type BadRequest struct {
	status

	Code                       *int     `json:"code,omitempty"`
	Error                      *string  `json:"error,omitempty"`
	MissingField               *string  `json:"missing_field,omitempty"`
	EventsWithInvalidFields    Map      `json:"events_with_invalid_fields,omitempty"`
	EventsWithMissingFields    Map      `json:"events_with_missing_fields,omitempty"`
	EventsWithInvalidIDLengths Map      `json:"events_with_invalid_id_lengths,omitempty"`
	SilencedDevices            []string `json:"silenced_devices,omitempty"`
	SilencedEvents             []int    `json:"silenced_events,omitempty"`
}

func (*BadRequest) Kind() Kind { return KindBadRequest }

type PayloadTooLarge struct {
	status

	Code  *int    `json:"code,omitempty"`
	Error *string `json:"error,omitempty"`
}

func (*PayloadTooLarge) Kind() Kind { return KindPayloadTooLarge }

// TooManyRequests is returned when devices or users are throttled. The
// throttled maps are keyed by device or user id and hold the current events
// per second of that id.
type TooManyRequests struct {
	status

	Code                      *int    `json:"code,omitempty"`
	Error                     *string `json:"error,omitempty"`
	EPSThreshold              *int    `json:"eps_threshold,omitempty"`
	ThrottledDevices          Map     `json:"throttled_devices,omitempty"`
	ThrottledUsers            Map     `json:"throttled_users,omitempty"`
	ThrottledEvents           []int   `json:"throttled_events,omitempty"`
	ExceededDailyQuotaDevices Map     `json:"exceeded_daily_quota_devices,omitempty"`
	ExceededDailyQuotaUsers   Map     `json:"exceeded_daily_quota_users,omitempty"`
}

func (*TooManyRequests) Kind() Kind { return KindTooManyRequests }

// ServerError holds the undocumented error body of a 500, 502 or 504.
type ServerError struct {
	status

	Value Map `json:"value,omitempty"`
}

func (*ServerError) Kind() Kind { return KindServerError }

// ServiceUnavailable holds the undocumented error body of a 503.
type ServiceUnavailable struct {
	status

	Value Map `json:"value,omitempty"`
}

func (*ServiceUnavailable) Kind() Kind { return KindServiceUnavailable }

// IsSuccess reports whether the response is an Ok received with status 200.
// Ok responses for undocumented status codes are not a success.
func IsSuccess(r Response) bool {
	if r == nil {
		return false
	}

	return r.Kind() == KindOk && r.StatusCode() == 200
}
