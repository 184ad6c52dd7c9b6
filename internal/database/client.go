package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/micromet/fvspart/internal/log"
	"go.uber.org/zap"
)

// Client holds the connection to a TimescaleDB/Postgres results database
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect connects to the results database
func (c *Client) Connect() error {
	var err error

	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	config := &gorm.Config{
		Logger: dbLogger,
	}

	log.Info("connecting to results database...")
	c.DB, err = gorm.Open(postgres.Open(c.connectionString), config)
	if err != nil {
		log.Warn("warning: unable to create a results database connection:", err)
		return err
	}
	log.Info("results database connection successful")

	return nil
}

// Migrate creates or updates the partition_records table
func (c *Client) Migrate() error {
	if err := c.DB.AutoMigrate(&PartitionRecord{}); err != nil {
		return fmt.Errorf("error migrating partition_records: %w", err)
	}
	return nil
}

// InsertRecords stores a batch of interval results
func (c *Client) InsertRecords(records []PartitionRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.DB.Create(&records).Error; err != nil {
		return fmt.Errorf("error inserting partition records: %w", err)
	}
	return nil
}

// LatestRunID returns the run ID of the most recently stored record
func (c *Client) LatestRunID() (string, error) {
	var rec PartitionRecord
	err := c.DB.Order("created_at DESC").Limit(1).Find(&rec).Error
	if err != nil {
		return "", fmt.Errorf("error querying latest run: %w", err)
	}
	return rec.RunID, nil
}

// RecordsForRun returns all interval results belonging to one run,
// ordered by interval start time.
func (c *Client) RecordsForRun(runID string) ([]PartitionRecord, error) {
	var records []PartitionRecord
	err := c.DB.Where("run_id = ?", runID).Order("interval_start ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error querying records for run %s: %w", runID, err)
	}
	return records, nil
}
