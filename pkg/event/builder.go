package event

import (
	"encoding/json"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (e Event) WithEventType(eventType string) Event {
	e.EventType = eventType
	return e
}

func (e Event) WithUserID(userID string) Event {
	e.UserID = ptr(userID)
	return e
}

func (e Event) WithDeviceID(deviceID string) Event {
	e.DeviceID = ptr(deviceID)
	return e
}

// WithTime sets the occurrence time, truncated to milliseconds.
func (e Event) WithTime(t time.Time) Event {
	e.Time = ptr(t.UnixMilli())
	return e
}

// WithTimeMillis sets the occurrence time in milliseconds since epoch.
func (e Event) WithTimeMillis(ms int64) Event {
	e.Time = ptr(ms)
	return e
}

// WithEventProperties stores any value that serializes to a JSON object.
func (e Event) WithEventProperties(v interface{}) Event {
	e.EventProperties = e.properties(v)
	return e
}

// WithUserProperties stores any value that serializes to a JSON object.
func (e Event) WithUserProperties(v interface{}) Event {
	e.UserProperties = e.properties(v)
	return e
}

// WithGroups stores any value that serializes to a JSON object.
func (e Event) WithGroups(v interface{}) Event {
	e.Groups = e.properties(v)
	return e
}

func (e Event) WithAppVersion(v string) Event {
	e.AppVersion = ptr(v)
	return e
}

func (e Event) WithPlatform(v string) Event {
	e.Platform = ptr(v)
	return e
}

func (e Event) WithOSName(v string) Event {
	e.OSName = ptr(v)
	return e
}

func (e Event) WithOSVersion(v string) Event {
	e.OSVersion = ptr(v)
	return e
}

func (e Event) WithDeviceBrand(v string) Event {
	e.DeviceBrand = ptr(v)
	return e
}

func (e Event) WithDeviceManufacturer(v string) Event {
	e.DeviceManufacturer = ptr(v)
	return e
}

func (e Event) WithDeviceModel(v string) Event {
	e.DeviceModel = ptr(v)
	return e
}

func (e Event) WithCarrier(v string) Event {
	e.Carrier = ptr(v)
	return e
}

func (e Event) WithCountry(v string) Event {
	e.Country = ptr(v)
	return e
}

func (e Event) WithRegion(v string) Event {
	e.Region = ptr(v)
	return e
}

func (e Event) WithCity(v string) Event {
	e.City = ptr(v)
	return e
}

func (e Event) WithDMA(v string) Event {
	e.DMA = ptr(v)
	return e
}

func (e Event) WithLanguage(v string) Event {
	e.Language = ptr(v)
	return e
}

func (e Event) WithPrice(v float64) Event {
	e.Price = ptr(v)
	return e
}

func (e Event) WithQuantity(v uint32) Event {
	e.Quantity = ptr(v)
	return e
}

func (e Event) WithRevenue(v float64) Event {
	e.Revenue = ptr(v)
	return e
}

func (e Event) WithProductID(v string) Event {
	e.ProductID = ptr(v)
	return e
}

func (e Event) WithRevenueType(v string) Event {
	e.RevenueType = ptr(v)
	return e
}

func (e Event) WithLocation(lat, lng float64) Event {
	e.LocationLat = ptr(lat)
	e.LocationLng = ptr(lng)
	return e
}

func (e Event) WithLocationLat(v float64) Event {
	e.LocationLat = ptr(v)
	return e
}

func (e Event) WithLocationLng(v float64) Event {
	e.LocationLng = ptr(v)
	return e
}

// WithIP sets the client address. A nil address stores RemoteIP so the
// collector falls back to the address the request came from.
func (e Event) WithIP(ip net.IP) Event {
	if len(ip) == 0 {
		e.IP = ptr(RemoteIP)
		return e
	}

	e.IP = ptr(ip.String())
	return e
}

// WithIP4 is WithIP for IPv4 addresses, stored in dotted-quad form.
func (e Event) WithIP4(ip net.IP) Event {
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}

	return e.WithIP(ip)
}

// WithIP6 is WithIP for IPv6 addresses.
func (e Event) WithIP6(ip net.IP) Event {
	return e.WithIP(ip)
}

func (e Event) WithIDFA(v string) Event {
	e.IDFA = ptr(v)
	return e
}

func (e Event) WithIDFV(v string) Event {
	e.IDFV = ptr(v)
	return e
}

func (e Event) WithADID(v string) Event {
	e.ADID = ptr(v)
	return e
}

func (e Event) WithAndroidID(v string) Event {
	e.AndroidID = ptr(v)
	return e
}

func (e Event) WithEventID(v int32) Event {
	e.EventID = ptr(v)
	return e
}

func (e Event) WithSessionID(v int64) Event {
	e.SessionID = ptr(v)
	return e
}

func (e Event) WithInsertID(v string) Event {
	e.InsertID = ptr(v)
	return e
}

// WithRandomInsertID sets a new random insert_id, which the collector uses to
// drop duplicate uploads of the same event.
func (e Event) WithRandomInsertID() Event {
	return e.WithInsertID(uuid.New().String())
}

// properties normalizes v into a Properties copy. The first failure is kept
// on the event and surfaces through Validate.
func (e *Event) properties(v interface{}) Properties {
	if v == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		e.setErr(errors.Wrap(err, "marshal properties"))
		return nil
	}

	out := Properties{}
	if err := json.Unmarshal(raw, &out); err != nil {
		e.setErr(errors.Wrapf(ErrNotAnObject, "properties %s", truncate(raw, 64)))
		return nil
	}

	return out
}

func (e *Event) setErr(err error) {
	if e.err == nil {
		e.err = err
	}
}

func truncate(raw []byte, max int) string {
	if len(raw) <= max {
		return string(raw)
	}

	return string(raw[:max]) + "..."
}
