package config

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	site, err := s.getSite()
	if err != nil {
		return nil, fmt.Errorf("failed to load site config: %w", err)
	}
	config.Site = *site

	input, err := s.getInput()
	if err != nil {
		return nil, fmt.Errorf("failed to load input config: %w", err)
	}
	config.Input = *input

	partition, err := s.getPartition()
	if err != nil {
		return nil, fmt.Errorf("failed to load partition config: %w", err)
	}
	config.Partition = *partition

	storage, err := s.getStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	config.Outputs, err = s.getOutputs()
	if err != nil {
		return nil, fmt.Errorf("failed to load outputs config: %w", err)
	}

	config.Server, err = s.getServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	config.Ingest, err = s.getIngest()
	if err != nil {
		return nil, fmt.Errorf("failed to load ingest config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (s *SQLiteProvider) getSite() (*SiteData, error) {
	query := `
		SELECT name, latitude, longitude, altitude
		FROM site
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var site SiteData
	var altitude sql.NullFloat64
	err := s.db.QueryRow(query).Scan(&site.Name, &site.Latitude, &site.Longitude, &altitude)
	if err != nil {
		return nil, fmt.Errorf("failed to query site: %w", err)
	}
	if altitude.Valid {
		site.Altitude = altitude.Float64
	}
	return &site, nil
}

func (s *SQLiteProvider) getInput() (*InputData, error) {
	query := `
		SELECT glob, time_layout, delimiter, skip_rows, cols, flags,
		       converters, bounds, rd_tol, ad_tol, hz, interval, workers
		FROM input
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var input InputData
	var timeLayout, delimiter, interval sql.NullString
	var cols, flags, converters, bounds sql.NullString
	var skipRows, adTol, workers sql.NullInt64
	var rdTol, hz sql.NullFloat64

	err := s.db.QueryRow(query).Scan(
		&input.Glob, &timeLayout, &delimiter, &skipRows,
		&cols, &flags, &converters, &bounds,
		&rdTol, &adTol, &hz, &interval, &workers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query input: %w", err)
	}

	if timeLayout.Valid {
		input.TimeLayout = timeLayout.String
	}
	if delimiter.Valid {
		input.Delimiter = delimiter.String
	}
	if interval.Valid {
		input.Interval = interval.String
	}
	if skipRows.Valid {
		input.SkipRows = int(skipRows.Int64)
	}
	if adTol.Valid {
		input.AdTol = int(adTol.Int64)
	}
	if workers.Valid {
		input.Workers = int(workers.Int64)
	}
	if rdTol.Valid {
		input.RdTol = rdTol.Float64
	}
	if hz.Valid {
		input.Hz = hz.Float64
	}

	// Map-valued columns are stored as JSON text
	if err := unmarshalJSONColumn(cols, &input.Cols); err != nil {
		return nil, fmt.Errorf("failed to decode input.cols: %w", err)
	}
	if err := unmarshalJSONColumn(flags, &input.Flags); err != nil {
		return nil, fmt.Errorf("failed to decode input.flags: %w", err)
	}
	if err := unmarshalJSONColumn(converters, &input.Converters); err != nil {
		return nil, fmt.Errorf("failed to decode input.converters: %w", err)
	}
	if err := unmarshalJSONColumn(bounds, &input.Bounds); err != nil {
		return nil, fmt.Errorf("failed to decode input.bounds: %w", err)
	}

	return &input, nil
}

func unmarshalJSONColumn(col sql.NullString, dst interface{}) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

func (s *SQLiteProvider) getPartition() (*PartitionData, error) {
	query := `
		SELECT wue, adjust_fluxes, wipe_if_invalid, skip_nighttime
		FROM partition
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var p PartitionData
	var wipe, skip sql.NullBool
	err := s.db.QueryRow(query).Scan(&p.WUE, &p.AdjustFluxes, &wipe, &skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query partition: %w", err)
	}
	if wipe.Valid {
		p.WipeIfInvalid = wipe.Bool
	}
	if skip.Valid {
		p.SkipNighttime = skip.Bool
	}
	return &p, nil
}

func (s *SQLiteProvider) getStorage() (*StorageData, error) {
	query := `
		SELECT timescaledb_connection_string
		FROM storage
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	storage := &StorageData{}
	var connString sql.NullString
	err := s.db.QueryRow(query).Scan(&connString)
	if err == sql.ErrNoRows {
		return storage, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query storage: %w", err)
	}
	if connString.Valid && connString.String != "" {
		storage.TimescaleDB = &TimescaleDBData{ConnectionString: connString.String}
	}
	return storage, nil
}

func (s *SQLiteProvider) getOutputs() (OutputsData, error) {
	query := `
		SELECT results_csv, archive
		FROM outputs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var outputs OutputsData
	var resultsCSV, archive sql.NullString
	err := s.db.QueryRow(query).Scan(&resultsCSV, &archive)
	if err == sql.ErrNoRows {
		return outputs, nil
	}
	if err != nil {
		return outputs, fmt.Errorf("failed to query outputs: %w", err)
	}
	if resultsCSV.Valid {
		outputs.ResultsCSV = resultsCSV.String
	}
	if archive.Valid {
		outputs.Archive = archive.String
	}
	return outputs, nil
}

func (s *SQLiteProvider) getServer() (*RESTServerData, error) {
	query := `
		SELECT listen_addr, port
		FROM server
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var server RESTServerData
	var listenAddr sql.NullString
	err := s.db.QueryRow(query).Scan(&listenAddr, &server.Port)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server: %w", err)
	}
	if listenAddr.Valid {
		server.ListenAddr = listenAddr.String
	}
	return &server, nil
}

func (s *SQLiteProvider) getIngest() (*IngestData, error) {
	query := `
		SELECT listen_addr, port, serial_device, baud
		FROM ingest
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var ingest IngestData
	var listenAddr, serialDevice sql.NullString
	var port, baud sql.NullInt64
	err := s.db.QueryRow(query).Scan(&listenAddr, &port, &serialDevice, &baud)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest: %w", err)
	}
	if listenAddr.Valid {
		ingest.ListenAddr = listenAddr.String
	}
	if serialDevice.Valid {
		ingest.SerialDevice = serialDevice.String
	}
	if port.Valid {
		ingest.Port = int(port.Int64)
	}
	if baud.Valid {
		ingest.Baud = int(baud.Int64)
	}
	return &ingest, nil
}

// IsReadOnly returns false as SQLite databases support writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the SQLite database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
