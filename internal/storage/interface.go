// Package storage defines interfaces and implementations for partitioning
// result storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/micromet/fvspart/internal/database"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- database.PartitionRecord
}
