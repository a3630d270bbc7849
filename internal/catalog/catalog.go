// Package catalog holds the static registry of Open-Meteo current-weather
// variables and request-level fields. It is built once at startup and is
// safe for unsynchronized concurrent reads.
package catalog

import (
	"fmt"
	"sort"
)

// Variable is a queryable current-condition variable.
type Variable struct {
	Name        string
	Description string
}

// Field is a request-level field (units, timezone, grid-cell selection).
// Enum is empty for free-form fields. Default is the provider default; a
// request that carries the default value may omit the field entirely.
type Field struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Default     string
}

// Catalog is the immutable registry shared by all requests.
type Catalog struct {
	byName map[string]string
	names  []string
	fields []Field
}

// New builds the catalog from the static variable and field tables.
func New() *Catalog {
	byName := make(map[string]string, len(variables))
	names := make([]string, 0, len(variables))
	for _, v := range variables {
		byName[v.Name] = v.Description
		names = append(names, v.Name)
	}
	sort.Strings(names)

	return &Catalog{
		byName: byName,
		names:  names,
		fields: requestFields,
	}
}

// Has reports whether name is a known current-weather variable.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Describe returns the human-readable description for a variable.
func (c *Catalog) Describe(name string) (string, bool) {
	desc, ok := c.byName[name]
	return desc, ok
}

// Names returns the variable names in sorted order. The returned slice is a
// copy; callers may not mutate catalog state.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Variables returns all variables in sorted name order.
func (c *Catalog) Variables() []Variable {
	out := make([]Variable, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, Variable{Name: n, Description: c.byName[n]})
	}
	return out
}

// Fields returns the request-level field definitions.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// FieldByName looks up a request-level field definition.
func (c *Catalog) FieldByName(name string) (Field, bool) {
	for _, f := range c.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Len returns the number of registered variables.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Validate checks that every name in params is a registered variable and
// returns the offending name on failure.
func (c *Catalog) Validate(params []string) error {
	for _, p := range params {
		if !c.Has(p) {
			return fmt.Errorf("unknown weather variable %q", p)
		}
	}
	return nil
}

// variables is the source-of-truth list of Open-Meteo current-condition
// variables. Descriptions follow the provider documentation.
var variables = []Variable{
	{"temperature_2m", "Air temperature at 2 meters above ground"},
	{"relative_humidity_2m", "Relative humidity at 2 meters above ground"},
	{"dew_point_2m", "Dew point temperature at 2 meters above ground"},
	{"apparent_temperature", "Perceived feels-like temperature combining wind chill factor, relative humidity and solar radiation"},
	{"pressure_msl", "Atmospheric air pressure reduced to mean sea level"},
	{"surface_pressure", "Atmospheric air pressure at surface; gets lower with increasing elevation"},
	{"cloud_cover", "Total cloud cover as an area fraction"},
	{"cloud_cover_low", "Low level clouds and fog up to 3 km altitude"},
	{"cloud_cover_mid", "Mid level clouds from 3 to 8 km altitude"},
	{"cloud_cover_high", "High level clouds from 8 km altitude"},
	{"wind_speed_10m", "Wind speed at 10 meters above ground, the standard level"},
	{"wind_speed_80m", "Wind speed at 80 meters above ground"},
	{"wind_speed_120m", "Wind speed at 120 meters above ground"},
	{"wind_speed_180m", "Wind speed at 180 meters above ground"},
	{"wind_direction_10m", "Wind direction at 10 meters above ground"},
	{"wind_direction_80m", "Wind direction at 80 meters above ground"},
	{"wind_direction_120m", "Wind direction at 120 meters above ground"},
	{"wind_direction_180m", "Wind direction at 180 meters above ground"},
	{"wind_gusts_10m", "Gusts at 10 meters above ground as a maximum of the preceding hour"},
	{"shortwave_radiation", "Shortwave solar radiation as average of the preceding hour; equal to the total global horizontal irradiation"},
	{"direct_radiation", "Direct solar radiation as average of the preceding hour on the horizontal plane"},
	{"direct_normal_irradiance", "Direct solar radiation as average of the preceding hour on the normal plane, perpendicular to the sun"},
	{"diffuse_radiation", "Diffuse solar radiation as average of the preceding hour"},
	{"global_tilted_irradiance", "Total radiation received on a tilted pane as average of the preceding hour"},
	{"vapour_pressure_deficit", "Vapour pressure deficit in kilopascal; above 1.6 kPa water transpiration of plants increases, below 0.4 kPa it decreases"},
	{"cape", "Convective available potential energy"},
	{"evapotranspiration", "Evapotranspiration from land surface and plants assumed for this location, considering available soil water"},
	{"et0_fao_evapotranspiration", "Reference evapotranspiration of a well watered grass field, based on FAO-56 Penman-Monteith equations"},
	{"precipitation", "Total precipitation (rain, showers, snow) sum of the preceding hour"},
	{"snowfall", "Snowfall amount of the preceding hour in centimeters"},
	{"precipitation_probability", "Probability of precipitation with more than 0.1 mm in the preceding hour"},
	{"rain", "Rain from large scale weather systems of the preceding hour in millimeter"},
	{"showers", "Showers from convective precipitation of the preceding hour in millimeter"},
	{"weather_code", "Weather condition as a numeric code following WMO weather interpretation codes"},
	{"snow_depth", "Snow depth on the ground"},
	{"freezing_level_height", "Altitude above sea level of the 0 degree Celsius level"},
	{"visibility", "Viewing distance in meters, influenced by low clouds, humidity and aerosols"},
	{"soil_temperature_0cm", "Temperature in the soil at 0 cm depth; surface temperature on land or water surface temperature on water"},
	{"soil_temperature_6cm", "Temperature in the soil at 6 cm depth"},
	{"soil_temperature_18cm", "Temperature in the soil at 18 cm depth"},
	{"soil_temperature_54cm", "Temperature in the soil at 54 cm depth"},
	{"soil_moisture_0_to_1cm", "Average soil water content as volumetric mixing ratio at 0-1 cm depth"},
	{"soil_moisture_1_to_3cm", "Average soil water content as volumetric mixing ratio at 1-3 cm depth"},
	{"soil_moisture_3_to_9cm", "Average soil water content as volumetric mixing ratio at 3-9 cm depth"},
	{"soil_moisture_9_to_27cm", "Average soil water content as volumetric mixing ratio at 9-27 cm depth"},
	{"soil_moisture_27_to_81cm", "Average soil water content as volumetric mixing ratio at 27-81 cm depth"},
	{"is_day", "1 if the current time step has daylight, 0 at night"},
}

// requestFields describes the optional request-level fields a weather request
// may carry. Latitude and longitude are deliberately absent: coordinates are
// resolved from the caller's network origin, never chosen by a model.
var requestFields = []Field{
	{
		Name:        "elevation",
		Type:        "number",
		Description: "Elevation in meters used for statistical downscaling; defaults to a 90 meter digital elevation model",
	},
	{
		Name:        "temperature_unit",
		Type:        "string",
		Description: "Unit for all temperature values",
		Enum:        []string{"celsius", "fahrenheit"},
		Default:     "celsius",
	},
	{
		Name:        "wind_speed_unit",
		Type:        "string",
		Description: "Unit for all wind speed values",
		Enum:        []string{"kmh", "ms", "mph", "kn"},
		Default:     "kmh",
	},
	{
		Name:        "precipitation_unit",
		Type:        "string",
		Description: "Unit for all precipitation amounts",
		Enum:        []string{"mm", "inch"},
		Default:     "mm",
	},
	{
		Name:        "timeformat",
		Type:        "string",
		Description: "Format of returned timestamps",
		Enum:        []string{"iso8601", "unixtime"},
		Default:     "iso8601",
	},
	{
		Name:        "timezone",
		Type:        "string",
		Description: "Time zone for returned timestamps; any tz database name, or auto to resolve from the coordinates",
		Default:     "GMT",
	},
	{
		Name:        "cell_selection",
		Type:        "string",
		Description: "Preference for how grid cells are selected",
		Enum:        []string{"land", "sea", "nearest"},
		Default:     "land",
	},
}
