package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Render     RenderConfig     `yaml:"render" mapstructure:"render"`
	POI        POIConfig        `yaml:"poi" mapstructure:"poi"`
	Choropleth ChoroplethConfig `yaml:"choropleth" mapstructure:"choropleth"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OutputConfig controls where map files are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Report bool   `yaml:"report" mapstructure:"report"`
}

// FetchConfig configures remote downloads (boundaries and basemap tiles).
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"` // total attempts per request, including the first
	RatePerHost float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
}

// RenderConfig configures PNG rasterization.
type RenderConfig struct {
	Width            int  `yaml:"width" mapstructure:"width"`
	Height           int  `yaml:"height" mapstructure:"height"`
	Basemap          bool `yaml:"basemap" mapstructure:"basemap"`
	TileConcurrency  int  `yaml:"tile_concurrency" mapstructure:"tile_concurrency"`
	TileCacheSize    int  `yaml:"tile_cache_size" mapstructure:"tile_cache_size"`
	TileCacheTTLMins int  `yaml:"tile_cache_ttl_mins" mapstructure:"tile_cache_ttl_mins"`

	// A tile server is skipped after this many consecutive failures.
	TileFailureThreshold    int `yaml:"tile_failure_threshold" mapstructure:"tile_failure_threshold"`
	TileFailureCooldownSecs int `yaml:"tile_failure_cooldown_secs" mapstructure:"tile_failure_cooldown_secs"`
}

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64 `yaml:"lat" mapstructure:"lat"`
	Lon float64 `yaml:"lon" mapstructure:"lon"`
}

// POIConfig configures the single point-of-interest map.
type POIConfig struct {
	Name          string  `yaml:"name" mapstructure:"name"`
	Title         string  `yaml:"title" mapstructure:"title"`
	Label         string  `yaml:"label" mapstructure:"label"`
	Location      Point   `yaml:"location" mapstructure:"location"`
	LabelLocation Point   `yaml:"label_location" mapstructure:"label_location"`
	Zoom          int     `yaml:"zoom" mapstructure:"zoom"`
	Tiles         string  `yaml:"tiles" mapstructure:"tiles"`
	RadiusMeters  float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
	Color         string  `yaml:"color" mapstructure:"color"`
}

// ChoroplethConfig configures the statistics choropleth map.
type ChoroplethConfig struct {
	Name          string            `yaml:"name" mapstructure:"name"`
	Statistics    StatisticsConfig  `yaml:"statistics" mapstructure:"statistics"`
	Coordinates   CoordinatesConfig `yaml:"coordinates" mapstructure:"coordinates"`
	Substitutions []Substitution    `yaml:"substitutions" mapstructure:"substitutions"`
	JoinPolicy    string            `yaml:"join_policy" mapstructure:"join_policy"`
	Boundaries    BoundariesConfig  `yaml:"boundaries" mapstructure:"boundaries"`
	Center        Point             `yaml:"center" mapstructure:"center"`
	Zoom          int               `yaml:"zoom" mapstructure:"zoom"`
	Tiles         string            `yaml:"tiles" mapstructure:"tiles"`
	Scale         ScaleConfig       `yaml:"scale" mapstructure:"scale"`
	Title         TitleConfig       `yaml:"title" mapstructure:"title"`
	LabelFontPx   int               `yaml:"label_font_px" mapstructure:"label_font_px"`
	LabelOffsets  []LabelOffset     `yaml:"label_offsets" mapstructure:"label_offsets"`
	Highlight     HighlightConfig   `yaml:"highlight" mapstructure:"highlight"`
	Destination   DestinationConfig `yaml:"destination" mapstructure:"destination"`
}

// StatisticsConfig describes the layout of the statistics spreadsheet.
type StatisticsConfig struct {
	Path          string   `yaml:"path" mapstructure:"path"`
	Sheet         string   `yaml:"sheet" mapstructure:"sheet"`
	HeaderRow     int      `yaml:"header_row" mapstructure:"header_row"`
	CountryColumn string   `yaml:"country_column" mapstructure:"country_column"`
	DropColumns   []string `yaml:"drop_columns" mapstructure:"drop_columns"`
	SummaryRows   int      `yaml:"summary_rows" mapstructure:"summary_rows"`
}

// CoordinatesConfig describes the country centroid reference CSV.
type CoordinatesConfig struct {
	Path            string `yaml:"path" mapstructure:"path"`
	CountryColumn   string `yaml:"country_column" mapstructure:"country_column"`
	LatitudeColumn  string `yaml:"latitude_column" mapstructure:"latitude_column"`
	LongitudeColumn string `yaml:"longitude_column" mapstructure:"longitude_column"`
}

// Substitution renames a country before the join.
type Substitution struct {
	From string `yaml:"from" mapstructure:"from"`
	To   string `yaml:"to" mapstructure:"to"`
}

// BoundariesConfig locates the country boundary geometry.
type BoundariesConfig struct {
	Source    string `yaml:"source" mapstructure:"source"`
	KeyOn     string `yaml:"key_on" mapstructure:"key_on"`
	TablePath string `yaml:"table_path" mapstructure:"table_path"`
}

// ScaleConfig configures the choropleth colour scale and legend.
type ScaleConfig struct {
	Scheme       string  `yaml:"scheme" mapstructure:"scheme"`
	Bins         int     `yaml:"bins" mapstructure:"bins"`
	FillOpacity  float64 `yaml:"fill_opacity" mapstructure:"fill_opacity"`
	LineOpacity  float64 `yaml:"line_opacity" mapstructure:"line_opacity"`
	NaNFillColor string  `yaml:"nan_fill_color" mapstructure:"nan_fill_color"`
	Legend       string  `yaml:"legend" mapstructure:"legend"`
}

// TitleConfig places a text title on the map.
type TitleConfig struct {
	Text     string `yaml:"text" mapstructure:"text"`
	Location Point  `yaml:"location" mapstructure:"location"`
	FontPx   int    `yaml:"font_px" mapstructure:"font_px"`
}

// LabelOffset shifts one country's label away from its centroid.
type LabelOffset struct {
	Country string  `yaml:"country" mapstructure:"country"`
	Lat     float64 `yaml:"lat" mapstructure:"lat"`
	Lon     float64 `yaml:"lon" mapstructure:"lon"`
	FontPx  int     `yaml:"font_px" mapstructure:"font_px"`
}

// HighlightConfig draws a pixel-radius ring around one location.
type HighlightConfig struct {
	Enabled  bool    `yaml:"enabled" mapstructure:"enabled"`
	Location Point   `yaml:"location" mapstructure:"location"`
	RadiusPx float64 `yaml:"radius_px" mapstructure:"radius_px"`
}

// DestinationConfig labels and pins the destination country.
type DestinationConfig struct {
	Name           string `yaml:"name" mapstructure:"name"`
	LabelLocation  Point  `yaml:"label_location" mapstructure:"label_location"`
	MarkerLocation Point  `yaml:"marker_location" mapstructure:"marker_location"`
	FontPx         int    `yaml:"font_px" mapstructure:"font_px"`
}

// Load reads configuration from file and environment. An empty path looks
// for config.yaml in the working directory and tolerates its absence.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("GEOMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.report", false)

	v.SetDefault("fetch.user_agent", "geomap/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_host", 20.0)

	v.SetDefault("render.width", 1280)
	v.SetDefault("render.height", 720)
	v.SetDefault("render.basemap", true)
	v.SetDefault("render.tile_concurrency", 4)
	v.SetDefault("render.tile_cache_size", 256)
	v.SetDefault("render.tile_cache_ttl_mins", 60)
	v.SetDefault("render.tile_failure_threshold", 5)
	v.SetDefault("render.tile_failure_cooldown_secs", 30)

	v.SetDefault("poi.name", "NASA_JSC")
	v.SetDefault("poi.title", "NASA Johnson Space Center Location")
	v.SetDefault("poi.label", "NASA Johnson Space Center")
	v.SetDefault("poi.location.lat", 29.559684888503615)
	v.SetDefault("poi.location.lon", -95.0830971930759)
	v.SetDefault("poi.label_location.lat", 29.55)
	v.SetDefault("poi.label_location.lon", -95.05)
	v.SetDefault("poi.zoom", 10)
	v.SetDefault("poi.tiles", "openstreetmap")
	v.SetDefault("poi.radius_meters", 1000.0)
	v.SetDefault("poi.color", "black")

	v.SetDefault("choropleth.name", "SmallBoats")
	v.SetDefault("choropleth.statistics.path", "statistics-relating-to-the-illegal-migration-act-data-tables-to-apr-2024.ods")
	v.SetDefault("choropleth.statistics.sheet", "IMB_01b")
	v.SetDefault("choropleth.statistics.header_row", 2)
	v.SetDefault("choropleth.statistics.country_column", "Nationality")
	v.SetDefault("choropleth.statistics.drop_columns", []string{"End of table"})
	v.SetDefault("choropleth.statistics.summary_rows", 2)
	v.SetDefault("choropleth.coordinates.path", "country-coord.csv")
	v.SetDefault("choropleth.coordinates.country_column", "Country")
	v.SetDefault("choropleth.coordinates.latitude_column", "Latitude (average)")
	v.SetDefault("choropleth.coordinates.longitude_column", "Longitude (average)")
	v.SetDefault("choropleth.substitutions", []map[string]any{
		{"from": "Iran, Islamic Republic of", "to": "Iran"},
		{"from": "Viet Nam", "to": "Vietnam"},
		{"from": "Syrian Arab Republic", "to": "Syria"},
	})
	v.SetDefault("choropleth.join_policy", "fill")
	v.SetDefault("choropleth.boundaries.source", "https://raw.githubusercontent.com/python-visualization/folium/master/examples/data/world-countries.json")
	v.SetDefault("choropleth.boundaries.key_on", "feature.properties.name")
	v.SetDefault("choropleth.center.lat", 30.0)
	v.SetDefault("choropleth.center.lon", 10.0)
	v.SetDefault("choropleth.zoom", 3)
	v.SetDefault("choropleth.tiles", "esri.worldshadedrelief")
	v.SetDefault("choropleth.scale.scheme", "YlOrRd")
	v.SetDefault("choropleth.scale.bins", 6)
	v.SetDefault("choropleth.scale.fill_opacity", 0.8)
	v.SetDefault("choropleth.scale.line_opacity", 0.1)
	v.SetDefault("choropleth.scale.nan_fill_color", "lightgrey")
	v.SetDefault("choropleth.scale.legend", "UK Arrival Volumes January 2022 to April 2024")
	v.SetDefault("choropleth.title.text", "Small Boat Arrivals UK 2022-2024")
	v.SetDefault("choropleth.title.location.lat", 54.0)
	v.SetDefault("choropleth.title.location.lon", -20.0)
	v.SetDefault("choropleth.title.font_px", 20)
	v.SetDefault("choropleth.label_font_px", 12)
	v.SetDefault("choropleth.label_offsets", []map[string]any{
		{"country": "Albania", "lat": 5.0, "lon": 0.0, "font_px": 10},
	})
	v.SetDefault("choropleth.highlight.enabled", true)
	v.SetDefault("choropleth.highlight.location.lat", 41.0)
	v.SetDefault("choropleth.highlight.location.lon", 20.0)
	v.SetDefault("choropleth.highlight.radius_px", 25.0)
	v.SetDefault("choropleth.destination.name", "United Kingdom")
	v.SetDefault("choropleth.destination.label_location.lat", 55.0)
	v.SetDefault("choropleth.destination.label_location.lon", 0.0)
	v.SetDefault("choropleth.destination.marker_location.lat", 55.0)
	v.SetDefault("choropleth.destination.marker_location.lon", -3.0)
	v.SetDefault("choropleth.destination.font_px", 15)
}

// Validate rejects settings that cannot produce a map.
func (c *Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return eris.Errorf("config: render size must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Fetch.MaxRetries < 1 {
		return eris.Errorf("config: fetch.max_retries must be at least 1, got %d", c.Fetch.MaxRetries)
	}
	switch c.Choropleth.JoinPolicy {
	case "fill", "flag", "drop":
	default:
		return eris.Errorf("config: unknown join_policy %q (want fill, flag or drop)", c.Choropleth.JoinPolicy)
	}
	if c.Choropleth.Statistics.SummaryRows < 0 {
		return eris.New("config: choropleth.statistics.summary_rows must not be negative")
	}
	if c.Choropleth.Scale.Bins < 1 {
		return eris.New("config: choropleth.scale.bins must be at least 1")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
