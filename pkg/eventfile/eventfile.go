// Package eventfile reads events from JSON, JSONC, newline delimited JSON and
// YAML documents. A document holds a single event object, an array of event
// objects, or a stream of either.
package eventfile

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/loft-sh/amplitude/pkg/event"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Stdin is the path that reads from standard input
const Stdin = "-"

// Options control how events are read
type Options struct {
	// Format overrides the format guessed from the path or content
	Format Format

	// DeviceID is set on every event without user_id and device_id
	DeviceID string
}

// FormatFromPath guesses the format from the file extension
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json", ".jsonc", ".ndjson", ".jsonl":
		return FormatJSON
	}

	return FormatAuto
}

// ReadFile reads the events from path, or from stdin if path is "-"
func ReadFile(path string) ([]event.Event, error) {
	return ReadFileWithOptions(path, Options{})
}

func ReadFileWithOptions(path string, options Options) ([]event.Event, error) {
	if path == Stdin {
		return ReadWithOptions(os.Stdin, options)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read event file")
	}

	if options.Format == FormatAuto {
		options.Format = FormatFromPath(path)
	}
	events, err := ParseWithOptions(data, options)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	return events, nil
}

// ReadWithOptions parses all events from r
func ReadWithOptions(r io.Reader, options Options) ([]event.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read events")
	}

	return ParseWithOptions(data, options)
}

// Parse decodes the events in data. With FormatAuto, data is treated as YAML
// if it does not start like a JSON document.
func Parse(data []byte, format Format) ([]event.Event, error) {
	return ParseWithOptions(data, Options{Format: format})
}

func ParseWithOptions(data []byte, options Options) ([]event.Event, error) {
	format := options.Format
	if format == FormatAuto {
		format = detect(data)
	}

	if format == FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, errors.Wrap(err, "convert yaml")
		}
		data = converted
	} else {
		data = jsonc.ToJSON(data)
	}

	return parseJSON(data, options.DeviceID)
}

func detect(data []byte) Format {
	trimmed := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}

	return FormatYAML
}

func parseJSON(data []byte, deviceID string) ([]event.Event, error) {
	events := []event.Event{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	for {
		raw := json.RawMessage{}
		err := decoder.Decode(&raw)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "decode event %d", len(events))
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			items := []json.RawMessage{}
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return nil, errors.Wrapf(err, "decode event %d", len(events))
			}

			for _, item := range items {
				e, err := parseEvent(item, len(events), deviceID)
				if err != nil {
					return nil, err
				}
				events = append(events, e)
			}
			continue
		}

		e, err := parseEvent(trimmed, len(events), deviceID)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if len(events) == 0 {
		return nil, errors.New("no events found")
	}

	return events, nil
}

func parseEvent(raw []byte, index int, deviceID string) (event.Event, error) {
	if deviceID != "" {
		raw = withDeviceID(raw, deviceID)
	}

	e, err := event.FromJSON(raw)
	if err != nil {
		validationErr := &event.ValidationError{}
		if errors.As(err, &validationErr) {
			return event.Event{}, validationErr.AtIndex(index)
		}

		return event.Event{}, errors.Wrapf(err, "event %d", index)
	}

	return e, nil
}

// withDeviceID sets device_id on objects without any identity. Anything that
// is not an object is returned as is and rejected by event.FromJSON.
func withDeviceID(raw []byte, deviceID string) []byte {
	fields := map[string]interface{}{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil || fields == nil {
		return raw
	}
	if hasID(fields, "user_id") || hasID(fields, "device_id") {
		return raw
	}

	fields["device_id"] = deviceID
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}

	return out
}

func hasID(fields map[string]interface{}, key string) bool {
	id, ok := fields[key].(string)
	return ok && id != ""
}
