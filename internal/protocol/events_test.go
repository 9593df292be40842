package protocol

import (
	"testing"
	"time"

	"github.com/smukkama/phenocover/internal/phenology"
)

func testResult() *phenology.Result {
	sowing := time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC)
	return &phenology.Result{
		SowingDate:    sowing,
		HarvestDate:   sowing.AddDate(0, 0, 240),
		FVCParams:     phenology.FVCParams{NDVISoil: 0.15, NDVIVegetation: 0.85, Method: phenology.FVCSeasonal},
		Interpolation: phenology.InterpBalanced,
		Transitions: []phenology.StageTransition{
			{Stage: phenology.StageSowing, Threshold: 0, Date: sowing, GDD: 9.5},
			{Stage: phenology.StageEmergence, Threshold: 50, Date: sowing.AddDate(0, 0, 6), GDD: 54},
		},
		Summary: phenology.Summary{Days: 241, PeakNDVI: 0.78, FinalStage: phenology.StageMaturity},
	}
}

func TestAnalysisCompleted_RoundTrip(t *testing.T) {
	msg := NewAnalysisCompleted("run-1", 45.1, 7.6, "api", testResult())

	data, err := EncodeAnalysisCompleted(msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	typ, err := PeekType(data)
	if err != nil {
		t.Fatalf("PeekType failed: %v", err)
	}
	if typ != EventAnalysisCompleted {
		t.Errorf("Expected type %s, got %s", EventAnalysisCompleted, typ)
	}

	decoded, err := DecodeAnalysisCompleted(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.SowingDate != "2024-10-15" || decoded.HarvestDate != "2025-06-12" {
		t.Errorf("Unexpected season %s..%s", decoded.SowingDate, decoded.HarvestDate)
	}
	if decoded.Summary.FinalStage != phenology.StageMaturity {
		t.Errorf("Expected final stage %s, got %s", phenology.StageMaturity, decoded.Summary.FinalStage)
	}
	if len(decoded.Stages) != 2 {
		t.Errorf("Expected 2 stages, got %d", len(decoded.Stages))
	}
}

func TestStageEvents(t *testing.T) {
	events := NewStageEvents("run-1", 45.1, 7.6, testResult().Transitions)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	data, err := EncodeStageReached(events[1])
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeStageReached(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Stage != phenology.StageEmergence || decoded.CumulativeGDD != 54 {
		t.Errorf("Unexpected event %+v", decoded)
	}

	if _, err := DecodeAnalysisCompleted(data); err == nil {
		t.Error("Expected type mismatch error")
	}
}

func TestPeekType_Invalid(t *testing.T) {
	if _, err := PeekType([]byte(`{"run_id":"x"}`)); err == nil {
		t.Error("Expected error for missing type")
	}
	if _, err := PeekType([]byte(`not json`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
