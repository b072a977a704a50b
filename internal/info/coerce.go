package info

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Coerce extracts and validates a typed result from a raw provider reply.
// Pure and deterministic: no I/O. Extra fields in the reply are ignored;
// empty topic arrays are valid ("no current alerts" is an answer).
func Coerce(topic Topic, raw string) (Result, error) {
	if topic == TopicChat {
		// The chat topic's shape contract is non-empty text, not JSON.
		text := strings.TrimSpace(raw)
		if text == "" {
			return nil, &CoercionError{Coerce: CoerceShapeMismatch, Reason: "empty chat reply"}
		}
		return ChatReply{Text: text}, nil
	}

	doc, ok := extractJSON(raw)
	if !ok {
		return nil, &CoercionError{Coerce: CoerceNotJSON, Reason: "no JSON object or array in reply"}
	}

	switch topic {
	case TopicWeather:
		return coerceWeather(doc)
	case TopicTraffic:
		return coerceTraffic(doc)
	case TopicBusRoutes:
		return coerceBusRoutes(doc)
	case TopicTemples:
		return coerceTemples(doc)
	case TopicNews:
		return coerceNews(doc)
	case TopicAlerts:
		return coerceAlerts(doc)
	default:
		return nil, &CoercionError{Coerce: CoerceShapeMismatch, Reason: fmt.Sprintf("no shape contract for topic %q", topic)}
	}
}

// extractJSON locates the first balanced top-level JSON object or array
// embedded in free-form text. Prose before and after the value is ignored.
func extractJSON(s string) (json.RawMessage, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return raw, true
		}
	}
	return nil, false
}

func asObject(doc json.RawMessage) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, &CoercionError{Coerce: CoerceNotJSON, Reason: err.Error()}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &CoercionError{Coerce: CoerceShapeMismatch, Reason: "expected a JSON object"}
	}
	return obj, nil
}

func numField(obj map[string]any, key string) (float64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, shapeErrf("missing field %q", key)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, shapeErrf("field %q is not a number", key)
	}
	return n, nil
}

func strField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", shapeErrf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", shapeErrf("field %q is not a string", key)
	}
	return s, nil
}

// optStrField returns "" when the key is absent but still rejects wrong types.
func optStrField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", shapeErrf("field %q is not a string", key)
	}
	return s, nil
}

func arrField(obj map[string]any, key string) ([]any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, shapeErrf("missing field %q", key)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, shapeErrf("field %q is not an array", key)
	}
	return arr, nil
}

func elemObject(key string, i int, v any) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeErrf("%s[%d] is not an object", key, i)
	}
	return obj, nil
}

func shapeErrf(format string, args ...any) error {
	return &CoercionError{Coerce: CoerceShapeMismatch, Reason: fmt.Sprintf(format, args...)}
}

func coerceWeather(doc json.RawMessage) (Result, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}

	var w Weather
	if w.Temp, err = numField(obj, "temp"); err != nil {
		return nil, err
	}
	if w.Condition, err = strField(obj, "condition"); err != nil {
		return nil, err
	}
	if w.Humidity, err = numField(obj, "humidity"); err != nil {
		return nil, err
	}
	if w.AQI, err = numField(obj, "aqi"); err != nil {
		return nil, err
	}
	return w, nil
}

func coerceTraffic(doc json.RawMessage) (Result, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}

	level, err := strField(obj, "level")
	if err != nil {
		return nil, err
	}
	switch TrafficLevel(level) {
	case TrafficLow, TrafficModerate, TrafficHeavy, TrafficSevere:
	default:
		return nil, shapeErrf("field %q is not a known traffic level: %q", "level", level)
	}

	summary, err := strField(obj, "summary")
	if err != nil {
		return nil, err
	}

	var incidents []string
	if v, ok := obj["incidents"]; ok && v != nil {
		arr, ok := v.([]any)
		if !ok {
			return nil, shapeErrf("field %q is not an array", "incidents")
		}
		for i, e := range arr {
			s, ok := e.(string)
			if !ok {
				return nil, shapeErrf("incidents[%d] is not a string", i)
			}
			incidents = append(incidents, s)
		}
	}

	return Traffic{Level: TrafficLevel(level), Summary: summary, Incidents: incidents}, nil
}

func coerceBusRoutes(doc json.RawMessage) (Result, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}

	arr, err := arrField(obj, "routes")
	if err != nil {
		return nil, err
	}

	routes := make([]BusRoute, 0, len(arr))
	for i, e := range arr {
		item, err := elemObject("routes", i, e)
		if err != nil {
			return nil, err
		}
		var r BusRoute
		if r.Route, err = strField(item, "route"); err != nil {
			return nil, err
		}
		if r.Destination, err = strField(item, "destination"); err != nil {
			return nil, err
		}
		if r.Frequency, err = optStrField(item, "frequency"); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return BusRoutes{Routes: routes}, nil
}

func coerceTemples(doc json.RawMessage) (Result, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}

	arr, err := arrField(obj, "temples")
	if err != nil {
		return nil, err
	}

	temples := make([]Temple, 0, len(arr))
	for i, e := range arr {
		item, err := elemObject("temples", i, e)
		if err != nil {
			return nil, err
		}
		var t Temple
		if t.Name, err = strField(item, "name"); err != nil {
			return nil, err
		}
		if t.Address, err = optStrField(item, "address"); err != nil {
			return nil, err
		}
		if t.Description, err = optStrField(item, "description"); err != nil {
			return nil, err
		}
		temples = append(temples, t)
	}
	return Temples{Temples: temples}, nil
}

func coerceNews(doc json.RawMessage) (Result, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}

	arr, err := arrField(obj, "items")
	if err != nil {
		return nil, err
	}

	items := make([]NewsItem, 0, len(arr))
	for i, e := range arr {
		item, err := elemObject("items", i, e)
		if err != nil {
			return nil, err
		}
		var n NewsItem
		if n.Title, err = strField(item, "title"); err != nil {
			return nil, err
		}
		if n.Summary, err = strField(item, "summary"); err != nil {
			return nil, err
		}
		if n.Date, err = optStrField(item, "date"); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return News{Items: items}, nil
}

func coerceAlerts(doc json.RawMessage) (Result, error) {
	obj, err := asObject(doc)
	if err != nil {
		return nil, err
	}

	arr, err := arrField(obj, "alerts")
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(arr))
	for i, e := range arr {
		item, err := elemObject("alerts", i, e)
		if err != nil {
			return nil, err
		}
		var a Alert
		if a.Message, err = strField(item, "message"); err != nil {
			return nil, err
		}
		if a.AlertKind, err = optStrField(item, "kind"); err != nil {
			return nil, err
		}
		if a.Severity, err = optStrField(item, "severity"); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return Alerts{Alerts: alerts}, nil
}
