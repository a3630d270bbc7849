package weather

// Request is the structured current-weather request sent to the provider.
// Latitude and longitude always carry the resolved caller location; Current
// is the non-empty list of requested variable names. Optional fields left at
// their zero value are omitted from the outbound call because they match the
// provider defaults.
type Request struct {
	Latitude  float64
	Longitude float64

	Current []string

	Elevation         *float64
	TemperatureUnit   string
	WindSpeedUnit     string
	PrecipitationUnit string
	Timeformat        string
	Timezone          string
	CellSelection     string
}

// Observation is the provider response: a map of the requested variable
// names to current values plus echoed metadata. It is treated as opaque by
// everything except the answer stage.
type Observation struct {
	Latitude             float64           `json:"latitude"`
	Longitude            float64           `json:"longitude"`
	GenerationTimeMs     float64           `json:"generationtime_ms"`
	UTCOffsetSeconds     int               `json:"utc_offset_seconds"`
	Timezone             string            `json:"timezone"`
	TimezoneAbbreviation string            `json:"timezone_abbreviation"`
	Elevation            float64           `json:"elevation"`
	CurrentUnits         map[string]string `json:"current_units"`
	Current              map[string]any    `json:"current"`
}
