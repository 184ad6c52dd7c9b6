package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// YAML-tagged mirror structs for unmarshalling
type siteYAML struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude,omitempty"`
}

type flagYAML struct {
	Col       string `yaml:"col"`
	GoodValue string `yaml:"good_value"`
}

type converterYAML struct {
	Gain   float64 `yaml:"gain,omitempty"`
	Offset float64 `yaml:"offset,omitempty"`
}

type boundsYAML struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

type inputYAML struct {
	Glob       string                   `yaml:"glob"`
	TimeLayout string                   `yaml:"time_layout,omitempty"`
	Delimiter  string                   `yaml:"delimiter,omitempty"`
	SkipRows   int                      `yaml:"skip_rows,omitempty"`
	Cols       map[string]int           `yaml:"cols,omitempty"`
	Flags      map[string]flagYAML      `yaml:"flags,omitempty"`
	Converters map[string]converterYAML `yaml:"converters,omitempty"`
	Bounds     map[string]boundsYAML    `yaml:"bounds,omitempty"`
	RdTol      float64                  `yaml:"rd_tol,omitempty"`
	AdTol      int                      `yaml:"ad_tol,omitempty"`
	Hz         float64                  `yaml:"hz,omitempty"`
	Interval   string                   `yaml:"interval,omitempty"`
	Workers    int                      `yaml:"workers,omitempty"`
}

type partitionYAML struct {
	WUE           float64 `yaml:"wue"`
	AdjustFluxes  bool    `yaml:"adjust_fluxes"`
	WipeIfInvalid bool    `yaml:"wipe_if_invalid,omitempty"`
	SkipNighttime bool    `yaml:"skip_nighttime,omitempty"`
}

type storageYAML struct {
	TimescaleDB *struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"timescaledb,omitempty"`
}

type outputsYAML struct {
	ResultsCSV string `yaml:"results_csv,omitempty"`
	Archive    string `yaml:"archive,omitempty"`
}

type serverYAML struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
	Port       int    `yaml:"port"`
}

type ingestYAML struct {
	ListenAddr   string `yaml:"listen_addr,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	SerialDevice string `yaml:"serial_device,omitempty"`
	Baud         int    `yaml:"baud,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Site      siteYAML      `yaml:"site"`
		Input     inputYAML     `yaml:"input"`
		Partition partitionYAML `yaml:"partition"`
		Storage   storageYAML   `yaml:"storage,omitempty"`
		Outputs   outputsYAML   `yaml:"outputs,omitempty"`
		Server    *serverYAML   `yaml:"server,omitempty"`
		Ingest    *ingestYAML   `yaml:"ingest,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Site: SiteData{
			Name:      yamlConfig.Site.Name,
			Latitude:  yamlConfig.Site.Latitude,
			Longitude: yamlConfig.Site.Longitude,
			Altitude:  yamlConfig.Site.Altitude,
		},
		Input: InputData{
			Glob:       yamlConfig.Input.Glob,
			TimeLayout: yamlConfig.Input.TimeLayout,
			Delimiter:  yamlConfig.Input.Delimiter,
			SkipRows:   yamlConfig.Input.SkipRows,
			Cols:       yamlConfig.Input.Cols,
			RdTol:      yamlConfig.Input.RdTol,
			AdTol:      yamlConfig.Input.AdTol,
			Hz:         yamlConfig.Input.Hz,
			Interval:   yamlConfig.Input.Interval,
			Workers:    yamlConfig.Input.Workers,
		},
		Partition: PartitionData{
			WUE:           yamlConfig.Partition.WUE,
			AdjustFluxes:  yamlConfig.Partition.AdjustFluxes,
			WipeIfInvalid: yamlConfig.Partition.WipeIfInvalid,
			SkipNighttime: yamlConfig.Partition.SkipNighttime,
		},
		Outputs: OutputsData{
			ResultsCSV: yamlConfig.Outputs.ResultsCSV,
			Archive:    yamlConfig.Outputs.Archive,
		},
	}

	if len(yamlConfig.Input.Flags) > 0 {
		config.Input.Flags = make(map[string]FlagData, len(yamlConfig.Input.Flags))
		for name, f := range yamlConfig.Input.Flags {
			config.Input.Flags[name] = FlagData{Col: f.Col, GoodValue: f.GoodValue}
		}
	}
	if len(yamlConfig.Input.Converters) > 0 {
		config.Input.Converters = make(map[string]ConverterData, len(yamlConfig.Input.Converters))
		for name, cv := range yamlConfig.Input.Converters {
			config.Input.Converters[name] = ConverterData{Gain: cv.Gain, Offset: cv.Offset}
		}
	}
	if len(yamlConfig.Input.Bounds) > 0 {
		config.Input.Bounds = make(map[string]BoundsData, len(yamlConfig.Input.Bounds))
		for name, b := range yamlConfig.Input.Bounds {
			config.Input.Bounds[name] = BoundsData{Lower: b.Lower, Upper: b.Upper}
		}
	}

	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	if yamlConfig.Server != nil {
		config.Server = &RESTServerData{
			ListenAddr: yamlConfig.Server.ListenAddr,
			Port:       yamlConfig.Server.Port,
		}
	}
	if yamlConfig.Ingest != nil {
		config.Ingest = &IngestData{
			ListenAddr:   yamlConfig.Ingest.ListenAddr,
			Port:         yamlConfig.Ingest.Port,
			SerialDevice: yamlConfig.Ingest.SerialDevice,
			Baud:         yamlConfig.Ingest.Baud,
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true as YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
