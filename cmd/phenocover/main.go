package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/phenocover/internal/database"
	"github.com/smukkama/phenocover/internal/location"
	"github.com/smukkama/phenocover/internal/ndvi"
	"github.com/smukkama/phenocover/internal/phenology"
	"github.com/smukkama/phenocover/internal/protocol"
	"github.com/smukkama/phenocover/internal/queue"
	"github.com/smukkama/phenocover/internal/report"
	"github.com/smukkama/phenocover/internal/weather"
	"github.com/smukkama/phenocover/pkg/config"
)

var version = "dev"

func main() {
	var (
		configFile  = flag.String("config", "", "YAML configuration file")
		ndviFile    = flag.String("ndvi", "", "NDVI observation CSV")
		locFile     = flag.String("location", "", "GeoJSON file with the field geometry")
		lat         = flag.Float64("lat", 0, "field latitude (overrides -location)")
		lon         = flag.Float64("lon", 0, "field longitude (overrides -location)")
		sowing      = flag.String("sowing", "", "sowing date (YYYY-MM-DD)")
		harvest     = flag.String("harvest", "", "harvest date (YYYY-MM-DD)")
		fvcMethod   = flag.String("fvc", "", "FVC parameter method: literature, data_driven or seasonal")
		interp      = flag.String("interp", "", "NDVI interpolation: linear, cubic or balanced")
		offline     = flag.Bool("offline", false, "use synthetic weather instead of the archive API")
		csvOut      = flag.String("csv", "", "daily results CSV")
		xlsxOut     = flag.String("xlsx", "", "daily results workbook")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("phenocover %s\n", version)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags given on the command line win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ndvi":
			cfg.Analysis.NDVIFile = *ndviFile
		case "location":
			cfg.Location.File = *locFile
		case "lat":
			cfg.Location.Latitude = *lat
		case "lon":
			cfg.Location.Longitude = *lon
		case "sowing":
			cfg.Analysis.SowingDate = *sowing
		case "harvest":
			cfg.Analysis.HarvestDate = *harvest
		case "fvc":
			cfg.Analysis.FVCMethod = *fvcMethod
		case "interp":
			cfg.Analysis.Interpolation = *interp
		case "offline":
			cfg.Weather.Offline = *offline
		case "csv":
			cfg.Output.CSV = *csvOut
		case "xlsx":
			cfg.Output.XLSX = *xlsxOut
		}
	})

	logFile, err := setupLogging(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
}

func setupLogging(cfg config.LoggingConfig) (*os.File, error) {
	log.SetOutput(os.Stderr)
	if cfg.File == "" {
		return nil, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return file, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	debug := func(format string, args ...interface{}) {
		if cfg.Logging.Level == "debug" {
			log.Printf(format, args...)
		}
	}

	sowing, harvest, err := cfg.Analysis.Season()
	if err != nil {
		return err
	}

	loc, err := resolveLocation(cfg.Location)
	if err != nil {
		return err
	}
	log.Printf("Field location: %s", loc)

	obs, err := ndvi.ReadCSV(cfg.Analysis.NDVIFile)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d NDVI observations from %s", len(obs), cfg.Analysis.NDVIFile)

	svc, closeCache := newWeatherService(ctx, cfg)
	defer closeCache()

	table, err := svc.Table(ctx, loc, sowing, harvest)
	if err != nil {
		return fmt.Errorf("failed to get weather: %w", err)
	}
	log.Print(weatherNote(table))

	fvcMethod, err := phenology.ParseFVCMethod(cfg.Analysis.FVCMethod)
	if err != nil {
		return err
	}
	interp, err := phenology.ParseInterpolationMethod(cfg.Analysis.Interpolation)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := phenology.Analyze(table.Records, obs, phenology.Options{
		Sowing:        sowing,
		Harvest:       harvest,
		FVCMethod:     fvcMethod,
		Interpolation: interp,
		Params:        cfg.Analysis.Params(),
	})
	if err != nil {
		return err
	}
	debug("Analysis took %v", time.Since(start))
	if res.FVCParams.FellBack {
		log.Printf("FVC parameters fell back to literature defaults")
	}

	if cfg.Output.CSV != "" {
		if err := report.SaveCSV(cfg.Output.CSV, res); err != nil {
			return err
		}
		log.Printf("Wrote %s", cfg.Output.CSV)
	}
	if cfg.Output.XLSX != "" {
		if err := report.WriteXLSX(cfg.Output.XLSX, res); err != nil {
			return err
		}
		log.Printf("Wrote %s", cfg.Output.XLSX)
	}
	if cfg.Output.Summary {
		fmt.Print(report.Summary(res))
	}

	analysis := database.NewRun(res, loc.Lat, loc.Lon, table.Source)
	debug("Run ID: %s", analysis.ID)

	if err := persist(ctx, cfg, analysis); err != nil {
		return err
	}

	if cfg.Kafka.Enabled {
		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()

		completed := protocol.NewAnalysisCompleted(analysis.ID, loc.Lat, loc.Lon, table.Source, res)
		if err := producer.PublishAnalysis(ctx, completed); err != nil {
			return fmt.Errorf("failed to publish analysis: %w", err)
		}
		log.Printf("Published run %s to %s", analysis.ID, cfg.Kafka.Topic)
	}

	return nil
}

// weatherNote describes where the weather table came from
func weatherNote(table *weather.Table) string {
	note := fmt.Sprintf("Weather table: %d days from %s", len(table.Records), table.Source)
	if table.Backfilled > 0 && table.Source != weather.SourceSynthetic {
		note += fmt.Sprintf(", %d days backfilled from synthetic climatology", table.Backfilled)
	}
	return note
}

func resolveLocation(cfg config.LocationConfig) (location.Point, error) {
	if cfg.Latitude != 0 || cfg.Longitude != 0 {
		p := location.Point{Lat: cfg.Latitude, Lon: cfg.Longitude}
		return p, p.Validate()
	}
	return location.Load(cfg.File)
}

func newWeatherService(ctx context.Context, cfg *config.Config) (*weather.Service, func()) {
	client := weather.NewOpenMeteoClient(cfg.Weather.APIURL, cfg.Weather.Timeout, cfg.Weather.Retries)
	if !cfg.Redis.Enabled {
		return weather.NewService(client, nil, cfg.Weather.Offline), func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable, weather cache disabled: %v", err)
		redisClient.Close()
		return weather.NewService(client, nil, cfg.Weather.Offline), func() {}
	}

	cache := weather.NewCache(redisClient, cfg.Weather.CacheTTL)
	return weather.NewService(client, cache, cfg.Weather.Offline), func() { redisClient.Close() }
}

func persist(ctx context.Context, cfg *config.Config, run *database.Run) error {
	var stores database.MultiStore
	defer func() {
		if err := stores.Close(); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()

	if cfg.Database.Enabled {
		store, err := database.NewSQLStore(cfg.Database.Driver, cfg.Database.ConnectionString())
		if err != nil {
			return err
		}
		stores = append(stores, store)
	}
	if cfg.Mongo.Enabled {
		store, err := database.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		stores = append(stores, store)
	}
	if len(stores) == 0 {
		return nil
	}

	if err := stores.SaveAnalysis(ctx, run); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	log.Printf("Saved run %s to %d store(s)", run.ID, len(stores))
	return nil
}
