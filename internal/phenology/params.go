package phenology

// StageThreshold pairs a cumulative GDD value with the stage name it unlocks
type StageThreshold struct {
	GDD   float64 `yaml:"gdd" json:"gdd"`
	Stage string  `yaml:"stage" json:"stage"`
}

// Wheat growth stages
const (
	StageSowing         = "Sowing"
	StageEmergence      = "Emergence"
	StageTillering      = "Tillering"
	StageStemElongation = "Stem Elongation"
	StageBooting        = "Booting"
	StageHeading        = "Heading"
	StageFlowering      = "Flowering"
	StageGrainFilling   = "Grain Filling"
	StageMaturity       = "Maturity"
	StageHarvest        = "Harvest"
)

// WheatStages returns the wheat GDD threshold table, ascending
func WheatStages() []StageThreshold {
	return []StageThreshold{
		{GDD: 0, Stage: StageSowing},
		{GDD: 50, Stage: StageEmergence},
		{GDD: 200, Stage: StageTillering},
		{GDD: 500, Stage: StageStemElongation},
		{GDD: 800, Stage: StageBooting},
		{GDD: 1000, Stage: StageHeading},
		{GDD: 1200, Stage: StageFlowering},
		{GDD: 1400, Stage: StageGrainFilling},
		{GDD: 1800, Stage: StageMaturity},
		{GDD: 2000, Stage: StageHarvest},
	}
}

// Params is the immutable domain configuration consumed by the core components.
// It is passed by value; callers obtain a copy from DefaultParams and override fields.
type Params struct {
	BaseTemperature float64

	// Linear mixing model endpoints
	LiteratureSoil       float64
	LiteratureVegetation float64
	MinEndpointSpan      float64
	DataDrivenSoilFloor  float64
	DataDrivenVegCeiling float64
	SeasonalSoilWindow   [2]float64 // fractions of the observed time span
	SeasonalPeakWindow   [2]float64
	SeasonalMinObs       int

	// Observation validation
	NDVITolerance float64

	// Interpolation and confidence band
	BandScale          float64
	BandBaseline       float64
	BandGrowth         float64 // extra baseline per GapDays of distance to the nearest observation
	BandMax            float64
	GapDays            float64
	MaxReferenceWeight float64

	// Stress annotation
	HeatMax        float64
	ColdMin        float64
	DroughtDays    int
	OptimalMinTemp float64
	OptimalMaxTemp float64

	Stages []StageThreshold
}

// DefaultParams returns the wheat defaults
func DefaultParams() Params {
	return Params{
		BaseTemperature: 0,

		LiteratureSoil:       0.15,
		LiteratureVegetation: 0.85,
		MinEndpointSpan:      0.1,
		DataDrivenSoilFloor:  0.05,
		DataDrivenVegCeiling: 0.95,
		SeasonalSoilWindow:   [2]float64{0, 0.2},
		SeasonalPeakWindow:   [2]float64{0.4, 0.6},
		SeasonalMinObs:       2,

		NDVITolerance: 0.05,

		BandScale:          0.15,
		BandBaseline:       0.03,
		BandGrowth:         0.03,
		BandMax:            0.25,
		GapDays:            14,
		MaxReferenceWeight: 0.5,

		HeatMax:        30,
		ColdMin:        -5,
		DroughtDays:    3,
		OptimalMinTemp: 10,
		OptimalMaxTemp: 25,

		Stages: WheatStages(),
	}
}

// stages returns the configured thresholds, falling back to the wheat table
func (p Params) stages() []StageThreshold {
	if len(p.Stages) == 0 {
		return WheatStages()
	}
	return p.Stages
}
