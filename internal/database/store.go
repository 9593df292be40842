package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smukkama/phenocover/internal/phenology"
)

// ErrRunNotFound is returned by LoadRun for an unknown run ID
var ErrRunNotFound = errors.New("analysis run not found")

// SQLStore persists runs into the analysis_runs, daily_records and stage_transitions tables
type SQLStore struct {
	db *DB
}

// NewSQLStore connects and migrates the database
func NewSQLStore(driver, connectionString string) (*SQLStore, error) {
	db, err := Connect(driver, connectionString)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SaveAnalysis writes a run and all its daily records in a single transaction
func (s *SQLStore) SaveAnalysis(ctx context.Context, run *Run) error {
	if run == nil || run.Result == nil {
		return errors.New("failed to save analysis: empty run")
	}
	res := run.Result
	sum := res.Summary

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := s.db.Rebind(`
			INSERT INTO analysis_runs (
				id, created_at, sowing_date, harvest_date, latitude, longitude, weather_source,
				fvc_method, ndvi_soil, ndvi_vegetation, fvc_fell_back, interpolation, observations,
				peak_ndvi, peak_ndvi_date, mean_ndvi, max_ground_cover_pct, total_gdd, final_stage,
				heat_stress_days, cold_stress_days, drought_stress_days, optimal_days, total_precip_mm
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		_, err := tx.ExecContext(ctx, query,
			run.ID,
			run.CreatedAt.UTC().Format(timestampLayout),
			res.SowingDate.Format(dateLayout),
			res.HarvestDate.Format(dateLayout),
			run.Latitude,
			run.Longitude,
			run.WeatherSource,
			string(res.FVCParams.Method),
			res.FVCParams.NDVISoil,
			res.FVCParams.NDVIVegetation,
			res.FVCParams.FellBack,
			string(res.Interpolation),
			sum.Observations,
			sum.PeakNDVI,
			sum.PeakNDVIDate.Format(dateLayout),
			sum.MeanNDVI,
			sum.MaxGroundCoverPct,
			sum.TotalGDD,
			sum.FinalStage,
			sum.HeatStressDays,
			sum.ColdStressDays,
			sum.DroughtStressDays,
			sum.OptimalDays,
			sum.TotalPrecipMm,
		)
		if err != nil {
			return fmt.Errorf("failed to insert analysis run: %w", err)
		}

		dayStmt, err := tx.PrepareContext(ctx, s.db.Rebind(`
			INSERT INTO daily_records (
				run_id, date, ndvi, ndvi_lower, ndvi_upper, fvc, fvc_lower, fvc_upper,
				ground_cover_pct, ground_cover_pct_lower, ground_cover_pct_upper,
				daily_gdd, cumulative_gdd, growth_stage,
				heat_stress, cold_stress, drought_stress, optimal,
				temperature_mean, temperature_min, temperature_max, precipitation,
				relative_humidity, pressure, wind_speed, cloud_cover
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare daily insert: %w", err)
		}
		defer dayStmt.Close()

		for _, d := range res.Days {
			w := d.Weather
			if _, err := dayStmt.ExecContext(ctx,
				run.ID, d.Date.Format(dateLayout),
				d.NDVI, d.NDVILower, d.NDVIUpper,
				d.FVC, d.FVCLower, d.FVCUpper,
				d.GroundCoverPct, d.GroundCoverLower, d.GroundCoverUpper,
				d.DailyGDD, d.CumulativeGDD, d.GrowthStage,
				d.HeatStress, d.ColdStress, d.DroughtStress, d.Optimal,
				w.TemperatureMean, w.TemperatureMin, w.TemperatureMax, w.Precipitation,
				w.RelativeHumidity, w.Pressure, w.WindSpeed, w.CloudCover,
			); err != nil {
				return fmt.Errorf("failed to insert daily record %s: %w", d.Date.Format(dateLayout), err)
			}
		}

		stageQuery := s.db.Rebind(`
			INSERT INTO stage_transitions (run_id, stage, threshold_gdd, date, cumulative_gdd)
			VALUES (?, ?, ?, ?, ?)
		`)
		for _, t := range res.Transitions {
			if _, err := tx.ExecContext(ctx, stageQuery,
				run.ID, t.Stage, t.Threshold, t.Date.Format(dateLayout), t.GDD,
			); err != nil {
				return fmt.Errorf("failed to insert stage transition %s: %w", t.Stage, err)
			}
		}

		return nil
	})
}

// LoadRun reads a run back with its daily records and stage transitions
func (s *SQLStore) LoadRun(ctx context.Context, id string) (*Run, error) {
	query := s.db.Rebind(`
		SELECT created_at, sowing_date, harvest_date, latitude, longitude, weather_source,
		       fvc_method, ndvi_soil, ndvi_vegetation, fvc_fell_back, interpolation, observations,
		       peak_ndvi, peak_ndvi_date, mean_ndvi, max_ground_cover_pct, total_gdd, final_stage,
		       heat_stress_days, cold_stress_days, drought_stress_days, optimal_days, total_precip_mm
		FROM analysis_runs
		WHERE id = ?
	`)

	run := &Run{ID: id, Result: &phenology.Result{}}
	res := run.Result
	var (
		createdAt, sowing, harvest, peakDate string
		fvcMethod, interpolation             string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&createdAt, &sowing, &harvest, &run.Latitude, &run.Longitude, &run.WeatherSource,
		&fvcMethod, &res.FVCParams.NDVISoil, &res.FVCParams.NDVIVegetation, &res.FVCParams.FellBack,
		&interpolation, &res.Summary.Observations,
		&res.Summary.PeakNDVI, &peakDate, &res.Summary.MeanNDVI, &res.Summary.MaxGroundCoverPct,
		&res.Summary.TotalGDD, &res.Summary.FinalStage,
		&res.Summary.HeatStressDays, &res.Summary.ColdStressDays, &res.Summary.DroughtStressDays,
		&res.Summary.OptimalDays, &res.Summary.TotalPrecipMm,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis run: %w", err)
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	for _, f := range []struct {
		src string
		dst *time.Time
	}{
		{sowing, &res.SowingDate},
		{harvest, &res.HarvestDate},
		{peakDate, &res.Summary.PeakNDVIDate},
	} {
		if *f.dst, err = time.Parse(dateLayout, f.src); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", f.src, err)
		}
	}
	res.FVCParams.Method = phenology.FVCMethod(fvcMethod)
	res.Interpolation = phenology.InterpolationMethod(interpolation)

	if res.Days, err = s.loadDays(ctx, id); err != nil {
		return nil, err
	}
	res.Summary.Days = len(res.Days)

	if res.Transitions, err = s.loadTransitions(ctx, id); err != nil {
		return nil, err
	}

	return run, nil
}

func (s *SQLStore) loadDays(ctx context.Context, id string) ([]phenology.DailyRecord, error) {
	query := s.db.Rebind(`
		SELECT date, ndvi, ndvi_lower, ndvi_upper, fvc, fvc_lower, fvc_upper,
		       ground_cover_pct, ground_cover_pct_lower, ground_cover_pct_upper,
		       daily_gdd, cumulative_gdd, growth_stage,
		       heat_stress, cold_stress, drought_stress, optimal,
		       temperature_mean, temperature_min, temperature_max, precipitation,
		       relative_humidity, pressure, wind_speed, cloud_cover
		FROM daily_records
		WHERE run_id = ?
		ORDER BY date
	`)

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily records: %w", err)
	}
	defer rows.Close()

	var days []phenology.DailyRecord
	for rows.Next() {
		var (
			d    phenology.DailyRecord
			date string
		)
		w := &d.Weather
		if err := rows.Scan(
			&date, &d.NDVI, &d.NDVILower, &d.NDVIUpper, &d.FVC, &d.FVCLower, &d.FVCUpper,
			&d.GroundCoverPct, &d.GroundCoverLower, &d.GroundCoverUpper,
			&d.DailyGDD, &d.CumulativeGDD, &d.GrowthStage,
			&d.HeatStress, &d.ColdStress, &d.DroughtStress, &d.Optimal,
			&w.TemperatureMean, &w.TemperatureMin, &w.TemperatureMax, &w.Precipitation,
			&w.RelativeHumidity, &w.Pressure, &w.WindSpeed, &w.CloudCover,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		if d.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("invalid daily record date %q: %w", date, err)
		}
		w.Date = d.Date
		days = append(days, d)
	}

	return days, rows.Err()
}

func (s *SQLStore) loadTransitions(ctx context.Context, id string) ([]phenology.StageTransition, error) {
	query := s.db.Rebind(`
		SELECT stage, threshold_gdd, date, cumulative_gdd
		FROM stage_transitions
		WHERE run_id = ?
		ORDER BY threshold_gdd
	`)

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage transitions: %w", err)
	}
	defer rows.Close()

	var transitions []phenology.StageTransition
	for rows.Next() {
		var (
			t    phenology.StageTransition
			date string
		)
		if err := rows.Scan(&t.Stage, &t.Threshold, &date, &t.GDD); err != nil {
			return nil, fmt.Errorf("failed to scan stage transition: %w", err)
		}
		if t.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("invalid transition date %q: %w", date, err)
		}
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}

// ListRuns returns the IDs of the most recent runs, newest first
func (s *SQLStore) ListRuns(ctx context.Context, limit int) ([]string, error) {
	query := s.db.Rebind(`SELECT id FROM analysis_runs ORDER BY created_at DESC LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
