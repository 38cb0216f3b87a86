// Package dataset prepares the arrivals statistics and joins them to country centroids.
package dataset

// CountryTotal is one prepared statistics row.
type CountryTotal struct {
	Country string  `yaml:"country"`
	Total   float64 `yaml:"total"`
}

// Record is a statistics row after the centroid join. Located is false when
// no reference row matched, in which case Latitude and Longitude are zero.
type Record struct {
	Country   string  `yaml:"country"`
	Total     float64 `yaml:"total"`
	Latitude  float64 `yaml:"latitude,omitempty"`
	Longitude float64 `yaml:"longitude,omitempty"`
	Located   bool    `yaml:"located"`
}

// Centroid is one row of the country reference table.
type Centroid struct {
	Country   string  `csv:"Country"`
	Alpha2    string  `csv:"Alpha-2 code,omitempty"`
	Alpha3    string  `csv:"Alpha-3 code,omitempty"`
	Numeric   string  `csv:"Numeric code,omitempty"`
	Latitude  float64 `csv:"Latitude (average)"`
	Longitude float64 `csv:"Longitude (average)"`
}
