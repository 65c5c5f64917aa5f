package backend

import (
	"context"
	"fmt"

	"budget/internal/cache"
	"budget/internal/log"
	"budget/internal/metrics"
	"budget/internal/sheets/cached"
	"budget/internal/sheets/csvfile"
	"budget/internal/sheets/google"
	"budget/internal/sheets/memory"
	"budget/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new backend factory. m may be nil.
func NewFactory(logger *log.Logger, m *metrics.Metrics) *DefaultFactory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized CSV backend", "data_directory", config.DataDirectory)
	return &BackendResult{
		Type:  CSVBackend,
		Store: csvfile.New(config.DataDirectory),
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{
		Type:  MemoryBackend,
		Store: memory.New(nil),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Type:    SQLiteBackend,
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := NewSheetsClient(ctx, config, f.logger)
	if err != nil {
		return nil, err
	}

	store := cached.New(client, config.CacheSize, config.CacheTTL, f.metrics)

	var cleanup CleanupFunc
	if config.CacheTTL > 0 {
		manager := cache.NewManager(f.logger)
		manager.Register(store.Cache())
		manager.StartCleanup(config.CacheTTL)
		cleanup = func() error {
			manager.Stop()
			return nil
		}
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"cache_ttl", config.CacheTTL,
		"cache_size", config.CacheSize)

	return &BackendResult{
		Type:    SheetsBackend,
		Store:   store,
		Cleanup: cleanup,
	}, nil
}

// NewSheetsClient builds an uncached Google Sheets table store. The mirror
// worker writes through it directly.
func NewSheetsClient(ctx context.Context, config Config, logger *log.Logger) (*google.Client, error) {
	client, err := google.New(ctx, google.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		TabPrefix:       config.GoogleSheetPrefix,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return client, nil
}
