package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/core/model"
)

// Document is the external, wire-friendly shape of a scenario description
// (§6). LoadDocument decodes one from JSON or YAML; Build constructs the
// World it describes, and New wraps that World into a steppable Scenario.
type Document struct {
	Scenario   ScenarioMeta                `json:"scenario" yaml:"scenario"`
	Components ComponentsDoc               `json:"components" yaml:"components"`
	Events     EventsDoc                   `json:"events" yaml:"events"`
}

// ScenarioMeta carries the run's time axis and optional core standing time.
type ScenarioMeta struct {
	StartTime        time.Time          `json:"start_time" yaml:"start_time"`
	IntervalMinutes  int                `json:"interval" yaml:"interval"`
	NIntervals       int                `json:"n_intervals" yaml:"n_intervals"`
	StopTime         *time.Time         `json:"stop_time" yaml:"stop_time"`
	CoreStandingTime *CoreStandingTimeDoc `json:"core_standing_time" yaml:"core_standing_time"`
}

// CoreStandingTimeDoc is the wire shape of CoreStandingTime. Convention must
// be set explicitly by the caller after decoding (§9 Open Question) — the
// document itself carries no convention tag, since the ambiguity lives in
// how the *caller* interprets FullDays, not in the document format.
type CoreStandingTimeDoc struct {
	Times    []DailyWindowDoc `json:"times" yaml:"times"`
	FullDays []int            `json:"full_days" yaml:"full_days"`
}

// DailyWindowDoc is [start:[h,m], end:[h,m]] on the wire.
type DailyWindowDoc struct {
	Start [2]int `json:"start" yaml:"start"`
	End   [2]int `json:"end" yaml:"end"`
}

// ComponentsDoc groups the six component maps a scenario document declares.
type ComponentsDoc struct {
	VehicleTypes    map[string]VehicleTypeDoc    `json:"vehicle_types" yaml:"vehicle_types"`
	Vehicles        map[string]VehicleDoc        `json:"vehicles" yaml:"vehicles"`
	ChargingStations map[string]ChargingStationDoc `json:"charging_stations" yaml:"charging_stations"`
	GridConnectors  map[string]GridConnectorDoc  `json:"grid_connectors" yaml:"grid_connectors"`
	Batteries       map[string]BatteryDoc        `json:"batteries" yaml:"batteries"`
	Photovoltaics   map[string]PVDoc             `json:"photovoltaics" yaml:"photovoltaics"`
}

type CurvePointDoc struct {
	SoC      float64 `json:"soc" yaml:"soc"`
	MaxPower float64 `json:"max_power" yaml:"max_power"`
}

type VehicleTypeDoc struct {
	Capacity          float64         `json:"capacity" yaml:"capacity"`
	Mileage           float64         `json:"mileage" yaml:"mileage"`
	ChargingCurve     []CurvePointDoc `json:"charging_curve" yaml:"charging_curve"`
	MinChargingPower  float64         `json:"min_charging_power" yaml:"min_charging_power"`
	V2G               bool            `json:"v2g" yaml:"v2g"`
	V2GPowerFactor    float64         `json:"v2g_power_factor" yaml:"v2g_power_factor"`
	DischargeLimit    float64         `json:"discharge_limit" yaml:"discharge_limit"`
	BatteryEfficiency float64         `json:"battery_efficiency" yaml:"battery_efficiency"`
}

type VehicleDoc struct {
	VehicleType               string     `json:"vehicle_type" yaml:"vehicle_type"`
	SoC                       float64    `json:"soc" yaml:"soc"`
	DesiredSoC                float64    `json:"desired_soc" yaml:"desired_soc"`
	ConnectedChargingStation  string     `json:"connected_charging_station" yaml:"connected_charging_station"`
	EstimatedTimeOfDeparture  *time.Time `json:"estimated_time_of_departure" yaml:"estimated_time_of_departure"`
}

type ChargingStationDoc struct {
	Parent   string  `json:"parent" yaml:"parent"`
	MaxPower float64 `json:"max_power" yaml:"max_power"`
	MinPower float64 `json:"min_power" yaml:"min_power"`
}

type CostDoc struct {
	Type  string    `json:"type" yaml:"type"`
	Value []float64 `json:"value" yaml:"value"`
}

type GridConnectorDoc struct {
	MaxPower     float64 `json:"max_power" yaml:"max_power"`
	VoltageLevel string  `json:"voltage_level" yaml:"voltage_level"`
	Cost         CostDoc `json:"cost" yaml:"cost"`
	// GridOperator accepts either the `grid_operator` key or the document's
	// legacy `grid operator` (space) spelling — see resolveGridOperator
	// (§9 Open Question).
	GridOperator string `json:"grid_operator" yaml:"grid_operator"`
	NumberCS     int    `json:"number_cs" yaml:"number_cs"`
}

type BatteryDoc struct {
	Parent        string          `json:"parent" yaml:"parent"`
	Capacity      float64         `json:"capacity" yaml:"capacity"` // -1 means unlimited
	ChargingCurve []CurvePointDoc `json:"charging_curve" yaml:"charging_curve"`
	SoC           float64         `json:"soc" yaml:"soc"`
}

type PVDoc struct {
	Parent       string  `json:"parent" yaml:"parent"`
	NominalPower float64 `json:"nominal_power" yaml:"nominal_power"`
}

// EventsDoc groups the event arrays a scenario document declares.
type EventsDoc struct {
	GridOperatorSignals   []GridOperatorSignalDoc   `json:"grid_operator_signals" yaml:"grid_operator_signals"`
	FixedLoad             []FixedLoadDoc            `json:"fixed_load" yaml:"fixed_load"`
	LocalGeneration       []LocalGenerationDoc      `json:"local_generation" yaml:"local_generation"`
	VehicleEvents         []VehicleEventDoc         `json:"vehicle_events" yaml:"vehicle_events"`
	ScheduleUpdates       []ScheduleUpdateDoc       `json:"schedule_updates" yaml:"schedule_updates"`
}

type GridOperatorSignalDoc struct {
	SignalTime     time.Time `json:"signal_time" yaml:"signal_time"`
	StartTime      time.Time `json:"start_time" yaml:"start_time"`
	GridConnector  string    `json:"grid_connector" yaml:"grid_connector"`
	MaxPower       *float64  `json:"max_power" yaml:"max_power"`
	Cost           *CostDoc  `json:"cost" yaml:"cost"`
	ChargingWindow *bool     `json:"charging_window" yaml:"charging_window"`
	Schedule       *float64  `json:"schedule" yaml:"schedule"`
}

type FixedLoadDoc struct {
	StartTime     time.Time `json:"start_time" yaml:"start_time"`
	GridConnector string    `json:"grid_connector" yaml:"grid_connector"`
	Name          string    `json:"name" yaml:"name"`
	PowerKW       float64   `json:"power_kw" yaml:"power_kw"`
}

type LocalGenerationDoc struct {
	StartTime     time.Time `json:"start_time" yaml:"start_time"`
	GridConnector string    `json:"grid_connector" yaml:"grid_connector"`
	Name          string    `json:"name" yaml:"name"`
	PowerKW       float64   `json:"power_kw" yaml:"power_kw"`
}

// VehicleEventDoc is a tagged arrival-or-departure, distinguished by Kind.
type VehicleEventDoc struct {
	Kind                     string     `json:"kind" yaml:"kind"` // "arrival" | "departure"
	SignalTime               time.Time  `json:"signal_time" yaml:"signal_time"`
	StartTime                time.Time  `json:"start_time" yaml:"start_time"`
	VehicleID                string     `json:"vehicle_id" yaml:"vehicle_id"`
	Station                  string     `json:"station" yaml:"station"`
	SoCDelta                 float64    `json:"soc_delta" yaml:"soc_delta"`
	DesiredSoC               float64    `json:"desired_soc" yaml:"desired_soc"`
	EstimatedTimeOfDeparture *time.Time `json:"estimated_time_of_departure" yaml:"estimated_time_of_departure"`
	EstimatedTimeOfArrival   *time.Time `json:"estimated_time_of_arrival" yaml:"estimated_time_of_arrival"`
}

type ScheduleUpdateDoc struct {
	SignalTime    time.Time `json:"signal_time" yaml:"signal_time"`
	StartTime     time.Time `json:"start_time" yaml:"start_time"`
	VehicleID     string    `json:"vehicle_id" yaml:"vehicle_id"`
	GridConnector string    `json:"grid_connector" yaml:"grid_connector"`
	TargetKW      float64   `json:"target_kw" yaml:"target_kw"`
}

// LoadDocument decodes a Document from r. format is "json" or "yaml"/"yml".
// Unlike config.Load (koanf, process configuration with env overrides), a
// scenario document is pure data with no environment layering, so it is
// decoded directly with the matching stdlib/yaml.v3 decoder.
func LoadDocument(r io.Reader, format string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("scenario: read document: %w", err)
	}

	var doc Document
	var raw map[string]any
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("scenario: decode json: %w", err)
		}
		_ = json.Unmarshal(data, &raw)
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("scenario: decode yaml: %w", err)
		}
		_ = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("scenario: unsupported document format %q", format)
	}

	applyGridOperatorFallback(&doc, raw)
	return &doc, nil
}

// applyGridOperatorFallback resolves resolveGridOperator for every grid
// connector whose structured grid_operator field decoded empty, checking
// the raw document for the legacy `grid operator` spelling.
func applyGridOperatorFallback(doc *Document, raw map[string]any) {
	if raw == nil {
		return
	}
	components, ok := raw["components"].(map[string]any)
	if !ok {
		return
	}
	gcs, ok := components["grid_connectors"].(map[string]any)
	if !ok {
		return
	}
	for id, gc := range doc.Components.GridConnectors {
		rawGC, _ := gcs[id].(map[string]any)
		gc.GridOperator = resolveGridOperator(gc.GridOperator, rawGC)
		doc.Components.GridConnectors[id] = gc
	}
}

// resolveGridOperator is the Open Question (§9) resolution: the document
// schema declares `grid_operator`, but ingested third-party scenario files
// are known to carry a `grid operator` (space) key under the same JSON/YAML
// object when round-tripped through tools that don't snake_case. Decoding
// into the struct tag already binds `grid_operator`; callers that need the
// space-variant read it from a raw map before unmarshalling into
// GridConnectorDoc and pass it through here so both spellings land in the
// same field.
func resolveGridOperator(structured string, raw map[string]any) string {
	if structured != "" {
		return structured
	}
	if v, ok := raw["grid operator"].(string); ok {
		return v
	}
	return ""
}

func curvePoints(pts []CurvePointDoc) []model.Point {
	out := make([]model.Point, len(pts))
	for i, p := range pts {
		out[i] = model.Point{SoC: p.SoC, MaxPower: p.MaxPower}
	}
	return out
}

func decodeCost(c CostDoc) (model.Cost, error) {
	switch c.Type {
	case "fixed":
		if len(c.Value) == 0 {
			return model.Cost{}, model.ErrMalformedCost
		}
		return model.FixedCost(c.Value[0]), nil
	case "polynomial":
		if len(c.Value) == 0 {
			return model.Cost{}, model.ErrMalformedCost
		}
		return model.PolynomialCost(c.Value...), nil
	default:
		return model.Cost{}, fmt.Errorf("%w: unknown cost type %q", model.ErrMalformedCost, c.Type)
	}
}

func voltageLevel(s string) model.VoltageLevel {
	return model.VoltageLevel(s)
}

// newRunID generates the per-run identifier attached to summary documents.
func newRunID() string { return uuid.NewString() }

func costSignal(c *CostDoc) (*events.CostSignal, error) {
	if c == nil {
		return nil, nil
	}
	cost, err := decodeCost(*c)
	if err != nil {
		return nil, err
	}
	return &events.CostSignal{Type: int(cost.Type), Value: cost.Value}, nil
}
