package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smukkama/phenocover/internal/phenology"
)

// ReportDocument is the MongoDB shape of a run: one document with the daily history embedded
type ReportDocument struct {
	RunID         string     `bson:"runId"`
	CreatedAt     time.Time  `bson:"createdAt"`
	Location      GeoPoint   `bson:"location"`
	WeatherSource string     `bson:"weatherSource"`
	SowingDate    time.Time  `bson:"sowingDate"`
	HarvestDate   time.Time  `bson:"harvestDate"`
	FVC           FVCDoc     `bson:"fvc"`
	Interpolation string     `bson:"interpolation"`
	Summary       SummaryDoc `bson:"summary"`
	Stages        []StageDoc `bson:"stages"`
	History       []DailyDoc `bson:"history"`
}

// GeoPoint is a GeoJSON point, longitude first
type GeoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type FVCDoc struct {
	Method         string  `bson:"method"`
	NDVISoil       float64 `bson:"ndviSoil"`
	NDVIVegetation float64 `bson:"ndviVegetation"`
	FellBack       bool    `bson:"fellBack"`
}

type SummaryDoc struct {
	PeakNDVI          float64   `bson:"peakNdvi"`
	PeakNDVIDate      time.Time `bson:"peakNdviDate"`
	MeanNDVI          float64   `bson:"meanNdvi"`
	MaxGroundCoverPct float64   `bson:"maxGroundCoverPct"`
	TotalGDD          float64   `bson:"totalGdd"`
	FinalStage        string    `bson:"finalStage"`
	HeatStressDays    int       `bson:"heatStressDays"`
	ColdStressDays    int       `bson:"coldStressDays"`
	DroughtStressDays int       `bson:"droughtStressDays"`
	OptimalDays       int       `bson:"optimalDays"`
	TotalPrecipMm     float64   `bson:"totalPrecipMm"`
}

type StageDoc struct {
	Stage         string    `bson:"stage"`
	Date          time.Time `bson:"date"`
	CumulativeGDD float64   `bson:"cumulativeGdd"`
}

type DailyDoc struct {
	Date           time.Time `bson:"date"`
	NDVI           float64   `bson:"ndvi"`
	NDVILower      float64   `bson:"ndviLower"`
	NDVIUpper      float64   `bson:"ndviUpper"`
	GroundCoverPct float64   `bson:"groundCoverPct"`
	CumulativeGDD  float64   `bson:"cumulativeGdd"`
	Stage          string    `bson:"stage"`
	Stress         []string  `bson:"stress,omitempty"`
}

// NewReportDocument flattens a run into its MongoDB document
func NewReportDocument(run *Run) ReportDocument {
	res := run.Result
	sum := res.Summary

	doc := ReportDocument{
		RunID:         run.ID,
		CreatedAt:     run.CreatedAt,
		Location:      GeoPoint{Type: "Point", Coordinates: []float64{run.Longitude, run.Latitude}},
		WeatherSource: run.WeatherSource,
		SowingDate:    res.SowingDate,
		HarvestDate:   res.HarvestDate,
		FVC: FVCDoc{
			Method:         string(res.FVCParams.Method),
			NDVISoil:       res.FVCParams.NDVISoil,
			NDVIVegetation: res.FVCParams.NDVIVegetation,
			FellBack:       res.FVCParams.FellBack,
		},
		Interpolation: string(res.Interpolation),
		Summary: SummaryDoc{
			PeakNDVI:          sum.PeakNDVI,
			PeakNDVIDate:      sum.PeakNDVIDate,
			MeanNDVI:          sum.MeanNDVI,
			MaxGroundCoverPct: sum.MaxGroundCoverPct,
			TotalGDD:          sum.TotalGDD,
			FinalStage:        sum.FinalStage,
			HeatStressDays:    sum.HeatStressDays,
			ColdStressDays:    sum.ColdStressDays,
			DroughtStressDays: sum.DroughtStressDays,
			OptimalDays:       sum.OptimalDays,
			TotalPrecipMm:     sum.TotalPrecipMm,
		},
		Stages:  make([]StageDoc, 0, len(res.Transitions)),
		History: make([]DailyDoc, 0, len(res.Days)),
	}

	for _, t := range res.Transitions {
		doc.Stages = append(doc.Stages, StageDoc{Stage: t.Stage, Date: t.Date, CumulativeGDD: t.GDD})
	}
	for _, d := range res.Days {
		doc.History = append(doc.History, DailyDoc{
			Date:           d.Date,
			NDVI:           d.NDVI,
			NDVILower:      d.NDVILower,
			NDVIUpper:      d.NDVIUpper,
			GroundCoverPct: d.GroundCoverPct,
			CumulativeGDD:  d.CumulativeGDD,
			Stage:          d.GrowthStage,
			Stress:         stressLabels(d),
		})
	}
	return doc
}

func stressLabels(d phenology.DailyRecord) []string {
	var out []string
	if d.HeatStress {
		out = append(out, "heat")
	}
	if d.ColdStress {
		out = append(out, "cold")
	}
	if d.DroughtStress {
		out = append(out, "drought")
	}
	return out
}

// MongoStore keeps one report document per run in the phenology_reports collection
type MongoStore struct {
	client  *mongo.Client
	reports *mongo.Collection
}

// NewMongoStore connects to MongoDB and ensures the report indexes exist
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	reports := client.Database(database).Collection("phenology_reports")
	if _, err := reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "runId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create report indexes: %w", err)
	}

	return &MongoStore{client: client, reports: reports}, nil
}

// SaveAnalysis inserts or replaces the report document of a run
func (m *MongoStore) SaveAnalysis(ctx context.Context, run *Run) error {
	doc := NewReportDocument(run)
	_, err := m.reports.ReplaceOne(ctx, bson.M{"runId": run.ID}, &doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", run.ID, err)
	}
	return nil
}

// FindReport loads a report document by run ID
func (m *MongoStore) FindReport(ctx context.Context, runID string) (*ReportDocument, error) {
	var doc ReportDocument
	err := m.reports.FindOne(ctx, bson.M{"runId": runID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", runID, err)
	}
	return &doc, nil
}

// Close disconnects the client
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// MultiStore fans a save out to every configured store
type MultiStore []Store

func (ms MultiStore) SaveAnalysis(ctx context.Context, run *Run) error {
	for _, s := range ms {
		if err := s.SaveAnalysis(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

func (ms MultiStore) Close() error {
	var firstErr error
	for _, s := range ms {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
