package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/smukkama/phenocover/internal/phenology"
)

const dateLayout = "2006-01-02"

type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Weather  WeatherConfig  `yaml:"weather"`
	Location LocationConfig `yaml:"location"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AnalysisConfig struct {
	NDVIFile        string  `yaml:"ndvi_file"`
	SowingDate      string  `yaml:"sowing_date"`
	HarvestDate     string  `yaml:"harvest_date"`
	FVCMethod       string  `yaml:"fvc_method"`
	Interpolation   string  `yaml:"interpolation"`
	BaseTemperature float64 `yaml:"base_temperature"`
	HeatMax         float64 `yaml:"heat_max"`
	ColdMin         float64 `yaml:"cold_min"`
	DroughtDays     int     `yaml:"drought_days"`
	OptimalMinTemp  float64 `yaml:"optimal_min_temp"`
	OptimalMaxTemp  float64 `yaml:"optimal_max_temp"`

	Stages []phenology.StageThreshold `yaml:"stages"`
}

type WeatherConfig struct {
	APIURL   string        `yaml:"api_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	Offline  bool          `yaml:"offline"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type LocationConfig struct {
	File      string  `yaml:"file"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type OutputConfig struct {
	CSV     string `yaml:"csv"`
	XLSX    string `yaml:"xlsx"`
	Summary bool   `yaml:"summary"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Driver   string `yaml:"driver"` // sqlite or postgres
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnectionString returns the DSN for the configured driver
func (d DatabaseConfig) ConnectionString() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	}
	return d.Path
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration
func Default() *Config {
	p := phenology.DefaultParams()
	return &Config{
		Analysis: AnalysisConfig{
			NDVIFile:        "ndvi.csv",
			FVCMethod:       string(phenology.FVCSeasonal),
			Interpolation:   string(phenology.InterpBalanced),
			BaseTemperature: p.BaseTemperature,
			HeatMax:         p.HeatMax,
			ColdMin:         p.ColdMin,
			DroughtDays:     p.DroughtDays,
			OptimalMinTemp:  p.OptimalMinTemp,
			OptimalMaxTemp:  p.OptimalMaxTemp,
		},
		Weather: WeatherConfig{
			APIURL:   "https://archive-api.open-meteo.com",
			Timeout:  30 * time.Second,
			Retries:  3,
			CacheTTL: 7 * 24 * time.Hour,
		},
		Location: LocationConfig{
			File: "location.geojson",
		},
		Output: OutputConfig{
			CSV:     "phenocover_results.csv",
			Summary: true,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			Path:     "phenocover.db",
			Host:     "localhost",
			Port:     5432,
			User:     "phenocover",
			Password: "phenocover",
			DBName:   "phenocover",
			SSLMode:  "disable",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "phenocover",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "phenocover.analyses",
			GroupID: "phenocover-notifier",
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
			From: "phenocover@example.com",
			To:   "agronomist@example.com",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment, in that order.
// Values in a .env file are treated as environment variables.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnv()

	return config, nil
}

func (c *Config) applyEnv() {
	a := &c.Analysis
	a.NDVIFile = getEnv("PHENO_NDVI_FILE", a.NDVIFile)
	a.SowingDate = getEnv("PHENO_SOWING_DATE", a.SowingDate)
	a.HarvestDate = getEnv("PHENO_HARVEST_DATE", a.HarvestDate)
	a.FVCMethod = getEnv("PHENO_FVC_METHOD", a.FVCMethod)
	a.Interpolation = getEnv("PHENO_INTERPOLATION", a.Interpolation)
	a.BaseTemperature = getEnvAsFloat("PHENO_BASE_TEMPERATURE", a.BaseTemperature)
	a.HeatMax = getEnvAsFloat("PHENO_HEAT_MAX", a.HeatMax)
	a.ColdMin = getEnvAsFloat("PHENO_COLD_MIN", a.ColdMin)
	a.DroughtDays = getEnvAsInt("PHENO_DROUGHT_DAYS", a.DroughtDays)

	w := &c.Weather
	w.APIURL = getEnv("WEATHER_API_URL", w.APIURL)
	w.Timeout = getEnvAsDuration("WEATHER_TIMEOUT", w.Timeout)
	w.Retries = getEnvAsInt("WEATHER_RETRIES", w.Retries)
	w.Offline = getEnvAsBool("WEATHER_OFFLINE", w.Offline)
	w.CacheTTL = getEnvAsDuration("WEATHER_CACHE_TTL", w.CacheTTL)

	c.Location.File = getEnv("LOCATION_FILE", c.Location.File)
	c.Location.Latitude = getEnvAsFloat("LOCATION_LAT", c.Location.Latitude)
	c.Location.Longitude = getEnvAsFloat("LOCATION_LON", c.Location.Longitude)

	c.Output.CSV = getEnv("OUTPUT_CSV", c.Output.CSV)
	c.Output.XLSX = getEnv("OUTPUT_XLSX", c.Output.XLSX)

	d := &c.Database
	d.Enabled = getEnvAsBool("DB_ENABLED", d.Enabled)
	d.Driver = getEnv("DB_DRIVER", d.Driver)
	d.Path = getEnv("DB_PATH", d.Path)
	d.Host = getEnv("DB_HOST", d.Host)
	d.Port = getEnvAsInt("DB_PORT", d.Port)
	d.User = getEnv("DB_USER", d.User)
	d.Password = getEnv("DB_PASSWORD", d.Password)
	d.DBName = getEnv("DB_NAME", d.DBName)
	d.SSLMode = getEnv("DB_SSLMODE", d.SSLMode)

	c.Mongo.Enabled = getEnvAsBool("MONGO_ENABLED", c.Mongo.Enabled)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DATABASE", c.Mongo.Database)

	c.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)

	c.Kafka.Enabled = getEnvAsBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = getEnvAsSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC_ANALYSES", c.Kafka.Topic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	s := &c.SMTP
	s.Host = getEnv("SMTP_HOST", s.Host)
	s.Port = getEnvAsInt("SMTP_PORT", s.Port)
	s.Username = getEnv("SMTP_USERNAME", s.Username)
	s.Password = getEnv("SMTP_PASSWORD", s.Password)
	s.From = getEnv("SMTP_FROM", s.From)
	s.To = getEnv("SMTP_TO", s.To)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
}

// Validate reports configuration errors that would make an analysis run meaningless
func (c *Config) Validate() error {
	var errs []error

	if _, err := phenology.ParseFVCMethod(c.Analysis.FVCMethod); err != nil {
		errs = append(errs, err)
	}
	if _, err := phenology.ParseInterpolationMethod(c.Analysis.Interpolation); err != nil {
		errs = append(errs, err)
	}

	sowing, harvest, err := c.Analysis.Season()
	if err != nil {
		errs = append(errs, err)
	} else if !sowing.Before(harvest) {
		errs = append(errs, fmt.Errorf("%w: sowing %s, harvest %s", phenology.ErrInvalidSeason,
			c.Analysis.SowingDate, c.Analysis.HarvestDate))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka enabled without brokers"))
	}

	return errors.Join(errs...)
}

// Season parses the configured sowing and harvest dates
func (a AnalysisConfig) Season() (time.Time, time.Time, error) {
	if a.SowingDate == "" || a.HarvestDate == "" {
		return time.Time{}, time.Time{}, errors.New("sowing_date and harvest_date are required")
	}
	sowing, err := time.Parse(dateLayout, a.SowingDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid sowing_date: %w", err)
	}
	harvest, err := time.Parse(dateLayout, a.HarvestDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid harvest_date: %w", err)
	}
	return sowing, harvest, nil
}

// Params builds the core parameters from the defaults plus the configured overrides
func (a AnalysisConfig) Params() phenology.Params {
	p := phenology.DefaultParams()
	p.BaseTemperature = a.BaseTemperature
	p.HeatMax = a.HeatMax
	p.ColdMin = a.ColdMin
	p.DroughtDays = a.DroughtDays
	p.OptimalMinTemp = a.OptimalMinTemp
	p.OptimalMaxTemp = a.OptimalMaxTemp
	if len(a.Stages) > 0 {
		p.Stages = a.Stages
	}
	return p
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
