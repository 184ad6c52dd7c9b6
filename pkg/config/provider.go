package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Configuration management (for future SQLite-specific operations)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Site      SiteData        `json:"site"`
	Input     InputData       `json:"input"`
	Partition PartitionData   `json:"partition"`
	Storage   StorageData     `json:"storage,omitempty"`
	Outputs   OutputsData     `json:"outputs,omitempty"`
	Server    *RESTServerData `json:"server,omitempty"`
	Ingest    *IngestData     `json:"ingest,omitempty"`
}

// SiteData identifies the measurement site and its coordinates, used for
// day/night classification of intervals.
type SiteData struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// InputData describes the high-frequency data files and how to read them
type InputData struct {
	Glob       string                   `json:"glob"`
	TimeLayout string                   `json:"time_layout,omitempty"`
	Delimiter  string                   `json:"delimiter,omitempty"`
	SkipRows   int                      `json:"skip_rows,omitempty"`
	Cols       map[string]int           `json:"cols,omitempty"`
	Flags      map[string]FlagData      `json:"flags,omitempty"`
	Converters map[string]ConverterData `json:"converters,omitempty"`
	Bounds     map[string]BoundsData    `json:"bounds,omitempty"`
	RdTol      float64                  `json:"rd_tol,omitempty"`
	AdTol      int                      `json:"ad_tol,omitempty"`
	Hz         float64                  `json:"hz,omitempty"`
	Interval   string                   `json:"interval,omitempty"`
	Workers    int                      `json:"workers,omitempty"`
}

// FlagData marks a data column holding a QC flag and the value that
// indicates a good record.
type FlagData struct {
	Col       string `json:"col"`
	GoodValue string `json:"good_value"`
}

// ConverterData rescales a raw column into SI units: value*Gain + Offset
type ConverterData struct {
	Gain   float64 `json:"gain,omitempty"`
	Offset float64 `json:"offset,omitempty"`
}

// BoundsData gives the admissible range for a variable during cleansing
type BoundsData struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PartitionData controls the flux partitioning itself
type PartitionData struct {
	WUE           float64 `json:"wue"`
	AdjustFluxes  bool    `json:"adjust_fluxes"`
	WipeIfInvalid bool    `json:"wipe_if_invalid,omitempty"`
	SkipNighttime bool    `json:"skip_nighttime,omitempty"`
}

// StorageData holds the configuration for results storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// OutputsData holds file output destinations
type OutputsData struct {
	ResultsCSV string `json:"results_csv,omitempty"`
	Archive    string `json:"archive,omitempty"`
}

// RESTServerData configures the optional HTTP results API
type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port"`
}

// IngestData configures the optional live sample ingest
type IngestData struct {
	ListenAddr   string `json:"listen_addr,omitempty"`
	Port         int    `json:"port,omitempty"`
	SerialDevice string `json:"serial_device,omitempty"`
	Baud         int    `json:"baud,omitempty"`
}

// DefaultInterval is used when input.interval is not set.
const DefaultInterval = 30 * time.Minute

// IntervalDuration parses the configured averaging interval, falling back
// to the default when unset.
func (i InputData) IntervalDuration() (time.Duration, error) {
	if i.Interval == "" {
		return DefaultInterval, nil
	}
	d, err := time.ParseDuration(i.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid input interval %q: %w", i.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("input interval must be positive, got %v", d)
	}
	return d, nil
}

// Validate checks configuration invariants that every backend must satisfy
func (c *ConfigData) Validate() error {
	if c.Partition.WUE >= 0 {
		return fmt.Errorf("partition.wue must be negative (kg CO2 / kg H2O), got %v", c.Partition.WUE)
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		return fmt.Errorf("site.latitude out of range: %v", c.Site.Latitude)
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		return fmt.Errorf("site.longitude out of range: %v", c.Site.Longitude)
	}
	if c.Ingest != nil && c.Ingest.Port == 0 && c.Ingest.SerialDevice == "" {
		return fmt.Errorf("ingest requires a TCP port or a serial device")
	}
	if _, err := c.Input.IntervalDuration(); err != nil {
		return err
	}
	return nil
}
