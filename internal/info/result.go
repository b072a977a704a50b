package info

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result is the typed payload for one topic. Concrete types below form a
// closed set; Kind reports which topic a value belongs to.
type Result interface {
	Kind() Topic
}

// Condition is a normalized high-level weather condition. REST adapters map
// upstream codes onto it; chat providers may answer with any descriptive
// string, which the shape contract accepts.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Weather is the current-conditions view for an area.
type Weather struct {
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
	Humidity  float64 `json:"humidity"`
	AQI       float64 `json:"aqi"`
}

func (Weather) Kind() Topic { return TopicWeather }

// TrafficLevel is the normalized congestion level.
type TrafficLevel string

const (
	TrafficLow      TrafficLevel = "low"
	TrafficModerate TrafficLevel = "moderate"
	TrafficHeavy    TrafficLevel = "heavy"
	TrafficSevere   TrafficLevel = "severe"
)

// Traffic summarizes road conditions for an area.
type Traffic struct {
	Level     TrafficLevel `json:"level"`
	Summary   string       `json:"summary"`
	Incidents []string     `json:"incidents,omitempty"`
}

func (Traffic) Kind() Topic { return TopicTraffic }

// BusRoute is one route serving the area.
type BusRoute struct {
	Route       string `json:"route"`
	Destination string `json:"destination"`
	Frequency   string `json:"frequency,omitempty"`
}

// BusRoutes lists live-looked-up routes for an area.
type BusRoutes struct {
	Routes []BusRoute `json:"routes"`
}

func (BusRoutes) Kind() Topic { return TopicBusRoutes }

// Temple is one temple or shrine near the area.
type Temple struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Description string `json:"description,omitempty"`
}

// Temples lists temples near an area.
type Temples struct {
	Temples []Temple `json:"temples"`
}

func (Temples) Kind() Topic { return TopicTemples }

// NewsItem is one local news headline.
type NewsItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Date    string `json:"date,omitempty"`
}

// News lists local headlines for an area.
type News struct {
	Items []NewsItem `json:"items"`
}

func (News) Kind() Topic { return TopicNews }

// Alert is one active advisory. An empty alert list is a valid result.
type Alert struct {
	Message   string `json:"message"`
	AlertKind string `json:"kind,omitempty"`
	Severity  string `json:"severity,omitempty"`
}

// Alerts lists active advisories for an area.
type Alerts struct {
	Alerts []Alert `json:"alerts"`
}

func (Alerts) Kind() Topic { return TopicAlerts }

// ChatReply is the free-form answer for the generic chat topic.
type ChatReply struct {
	Text string `json:"text"`
}

func (ChatReply) Kind() Topic { return TopicChat }

// envelope tags a serialized result with its topic so a byte-oriented cache
// backend can round-trip the concrete type.
type envelope struct {
	Topic    Topic           `json:"topic"`
	StoredAt time.Time       `json:"storedAt"`
	Payload  json.RawMessage `json:"payload"`
}

// EncodeResult serializes a result into a topic-tagged envelope.
func EncodeResult(r Result) ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		Topic:    r.Kind(),
		StoredAt: time.Now().UTC(),
		Payload:  payload,
	})
}

// DecodeResult deserializes an envelope back into its concrete result type.
func DecodeResult(b []byte) (Result, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}

	var (
		r   Result
		err error
	)
	switch env.Topic {
	case TopicWeather:
		var v Weather
		err = json.Unmarshal(env.Payload, &v)
		r = v
	case TopicTraffic:
		var v Traffic
		err = json.Unmarshal(env.Payload, &v)
		r = v
	case TopicBusRoutes:
		var v BusRoutes
		err = json.Unmarshal(env.Payload, &v)
		r = v
	case TopicTemples:
		var v Temples
		err = json.Unmarshal(env.Payload, &v)
		r = v
	case TopicNews:
		var v News
		err = json.Unmarshal(env.Payload, &v)
		r = v
	case TopicAlerts:
		var v Alerts
		err = json.Unmarshal(env.Payload, &v)
		r = v
	case TopicChat:
		var v ChatReply
		err = json.Unmarshal(env.Payload, &v)
		r = v
	default:
		return nil, fmt.Errorf("cached entry has unknown topic %q", env.Topic)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
