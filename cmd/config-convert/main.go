// config-convert converts a YAML configuration file into the SQLite
// configuration database format.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/micromet/fvspart/pkg/config"
)

const schema = `
CREATE TABLE configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE site (
	config_id INTEGER NOT NULL REFERENCES configs(id),
	name TEXT NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	altitude REAL
);
CREATE TABLE input (
	config_id INTEGER NOT NULL REFERENCES configs(id),
	glob TEXT NOT NULL,
	time_layout TEXT,
	delimiter TEXT,
	skip_rows INTEGER,
	cols TEXT,
	flags TEXT,
	converters TEXT,
	bounds TEXT,
	rd_tol REAL,
	ad_tol INTEGER,
	hz REAL,
	interval TEXT,
	workers INTEGER
);
CREATE TABLE partition (
	config_id INTEGER NOT NULL REFERENCES configs(id),
	wue REAL NOT NULL,
	adjust_fluxes BOOLEAN NOT NULL,
	wipe_if_invalid BOOLEAN,
	skip_nighttime BOOLEAN
);
CREATE TABLE storage (
	config_id INTEGER NOT NULL REFERENCES configs(id),
	timescaledb_connection_string TEXT
);
CREATE TABLE outputs (
	config_id INTEGER NOT NULL REFERENCES configs(id),
	results_csv TEXT,
	archive TEXT
);
CREATE TABLE server (
	config_id INTEGER NOT NULL REFERENCES configs(id),
	listen_addr TEXT,
	port INTEGER NOT NULL
);
CREATE TABLE ingest (
	config_id INTEGER NOT NULL REFERENCES configs(id),
	listen_addr TEXT,
	port INTEGER,
	serial_device TEXT,
	baud INTEGER
);
`

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*sqliteFile); err == nil {
		if !*force {
			fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
			fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
			os.Exit(1)
		}
		os.Remove(*sqliteFile)
	}

	cfg, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load YAML configuration: %v\n", err)
		os.Exit(1)
	}

	if err := convert(cfg, *sqliteFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: conversion failed: %v\n", err)
		os.Exit(1)
	}

	// Read it back through the SQLite provider as a sanity check
	provider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open converted database: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()
	if _, err := provider.LoadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: converted database failed to load: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %s -> %s\n", *yamlFile, *sqliteFile)
}

func convert(cfg *config.ConfigData, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}

	res, err := db.Exec(`INSERT INTO configs (name) VALUES ('default')`)
	if err != nil {
		return err
	}
	configID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT INTO site (config_id, name, latitude, longitude, altitude) VALUES (?, ?, ?, ?, ?)`,
		configID, cfg.Site.Name, cfg.Site.Latitude, cfg.Site.Longitude, cfg.Site.Altitude)
	if err != nil {
		return err
	}

	cols, err := jsonOrNil(cfg.Input.Cols)
	if err != nil {
		return err
	}
	flags, err := jsonOrNil(cfg.Input.Flags)
	if err != nil {
		return err
	}
	converters, err := jsonOrNil(cfg.Input.Converters)
	if err != nil {
		return err
	}
	bounds, err := jsonOrNil(cfg.Input.Bounds)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT INTO input (config_id, glob, time_layout, delimiter, skip_rows, cols, flags,
		converters, bounds, rd_tol, ad_tol, hz, interval, workers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		configID, cfg.Input.Glob, cfg.Input.TimeLayout, cfg.Input.Delimiter, cfg.Input.SkipRows,
		cols, flags, converters, bounds,
		cfg.Input.RdTol, cfg.Input.AdTol, cfg.Input.Hz, cfg.Input.Interval, cfg.Input.Workers)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT INTO partition (config_id, wue, adjust_fluxes, wipe_if_invalid, skip_nighttime)
		VALUES (?, ?, ?, ?, ?)`,
		configID, cfg.Partition.WUE, cfg.Partition.AdjustFluxes, cfg.Partition.WipeIfInvalid, cfg.Partition.SkipNighttime)
	if err != nil {
		return err
	}

	connString := ""
	if cfg.Storage.TimescaleDB != nil {
		connString = cfg.Storage.TimescaleDB.ConnectionString
	}
	if _, err := db.Exec(`INSERT INTO storage (config_id, timescaledb_connection_string) VALUES (?, ?)`,
		configID, connString); err != nil {
		return err
	}

	if _, err := db.Exec(`INSERT INTO outputs (config_id, results_csv, archive) VALUES (?, ?, ?)`,
		configID, cfg.Outputs.ResultsCSV, cfg.Outputs.Archive); err != nil {
		return err
	}

	if cfg.Server != nil {
		if _, err := db.Exec(`INSERT INTO server (config_id, listen_addr, port) VALUES (?, ?, ?)`,
			configID, cfg.Server.ListenAddr, cfg.Server.Port); err != nil {
			return err
		}
	}

	if cfg.Ingest != nil {
		if _, err := db.Exec(`INSERT INTO ingest (config_id, listen_addr, port, serial_device, baud) VALUES (?, ?, ?, ?, ?)`,
			configID, cfg.Ingest.ListenAddr, cfg.Ingest.Port, cfg.Ingest.SerialDevice, cfg.Ingest.Baud); err != nil {
			return err
		}
	}

	return nil
}

func jsonOrNil(v any) (any, error) {
	switch m := v.(type) {
	case map[string]int:
		if len(m) == 0 {
			return nil, nil
		}
	case map[string]config.FlagData:
		if len(m) == 0 {
			return nil, nil
		}
	case map[string]config.ConverterData:
		if len(m) == 0 {
			return nil, nil
		}
	case map[string]config.BoundsData:
		if len(m) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
