package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smukkama/phenocover/internal/phenology"
)

const (
	EventAnalysisCompleted = "ANALYSIS_COMPLETED"
	EventStageReached      = "STAGE_REACHED"
)

// AnalysisCompleted is published once per finished analysis run
type AnalysisCompleted struct {
	Type          string    `json:"type"`
	RunID         string    `json:"run_id"`
	CompletedAt   time.Time `json:"completed_at"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	WeatherSource string    `json:"weather_source"`
	SowingDate    string    `json:"sowing_date"`
	HarvestDate   string    `json:"harvest_date"`
	FVCMethod     string    `json:"fvc_method"`
	NDVISoil      float64   `json:"ndvi_soil"`
	NDVIVeg       float64   `json:"ndvi_vegetation"`
	Interpolation string    `json:"interpolation"`

	Summary phenology.Summary           `json:"summary"`
	Stages  []phenology.StageTransition `json:"stages"`
}

// StageReached is published for every growth stage transition of a run
type StageReached struct {
	Type          string    `json:"type"`
	RunID         string    `json:"run_id"`
	Stage         string    `json:"stage"`
	Date          time.Time `json:"date"`
	CumulativeGDD float64   `json:"cumulative_gdd"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
}

// NewAnalysisCompleted builds the completion event of a run
func NewAnalysisCompleted(runID string, lat, lon float64, weatherSource string, res *phenology.Result) *AnalysisCompleted {
	return &AnalysisCompleted{
		Type:          EventAnalysisCompleted,
		RunID:         runID,
		CompletedAt:   time.Now().UTC(),
		Latitude:      lat,
		Longitude:     lon,
		WeatherSource: weatherSource,
		SowingDate:    res.SowingDate.Format("2006-01-02"),
		HarvestDate:   res.HarvestDate.Format("2006-01-02"),
		FVCMethod:     string(res.FVCParams.Method),
		NDVISoil:      res.FVCParams.NDVISoil,
		NDVIVeg:       res.FVCParams.NDVIVegetation,
		Interpolation: string(res.Interpolation),
		Summary:       res.Summary,
		Stages:        res.Transitions,
	}
}

// NewStageEvents builds one StageReached event per transition
func NewStageEvents(runID string, lat, lon float64, transitions []phenology.StageTransition) []*StageReached {
	events := make([]*StageReached, 0, len(transitions))
	for _, t := range transitions {
		events = append(events, &StageReached{
			Type:          EventStageReached,
			RunID:         runID,
			Stage:         t.Stage,
			Date:          t.Date,
			CumulativeGDD: t.GDD,
			Latitude:      lat,
			Longitude:     lon,
		})
	}
	return events
}

// PeekType returns the event type of an encoded message without decoding the rest
func PeekType(data []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", err
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("message has no event type")
	}
	return envelope.Type, nil
}

// EncodeAnalysisCompleted encodes an AnalysisCompleted to JSON
func EncodeAnalysisCompleted(msg *AnalysisCompleted) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeAnalysisCompleted decodes JSON to AnalysisCompleted
func DecodeAnalysisCompleted(data []byte) (*AnalysisCompleted, error) {
	var msg AnalysisCompleted
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != EventAnalysisCompleted {
		return nil, fmt.Errorf("unexpected event type %q", msg.Type)
	}
	return &msg, nil
}

// EncodeStageReached encodes a StageReached to JSON
func EncodeStageReached(msg *StageReached) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeStageReached decodes JSON to StageReached
func DecodeStageReached(data []byte) (*StageReached, error) {
	var msg StageReached
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != EventStageReached {
		return nil, fmt.Errorf("unexpected event type %q", msg.Type)
	}
	return &msg, nil
}
