package backend

import (
	"context"
	"fmt"
	"log/slog"

	"petspese/internal/amqp"
	gsheet "petspese/internal/sheets/google"
	"petspese/internal/storage"
	"petspese/internal/storage/files"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// The files store always serves photos, and the whole state for the files backend.
	fileStore, err := files.New(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data directory: %w", err)
	}

	var res *BackendResult
	switch config.Type {
	case FilesBackend:
		res = &BackendResult{
			Backend: fileStore,
			Ready:   func(context.Context) error { return nil },
		}
		f.logger.Info("Initialized files backend", "data_dir", config.DataDir)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	res.Type = config.Type
	res.Photos = fileStore

	f.attachPublisher(res, config)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: sqliteRepo,
		Ready:   sqliteRepo.Ping,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, config.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.Sheets.SpreadsheetID,
		"expenses_sheet", config.Sheets.ExpensesSheet,
		"pets_sheet", config.Sheets.PetsSheet)

	return &BackendResult{
		Backend: cli,
		Ready:   func(context.Context) error { return nil },
	}, nil
}

// attachPublisher connects to AMQP when configured. A broker that cannot be
// reached only disables events.
func (f *DefaultFactory) attachPublisher(res *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}
	amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Publisher = amqpClient
	backendCleanup := res.Cleanup
	res.Cleanup = func() error {
		amqpErr := amqpClient.Close()
		if backendCleanup != nil {
			if err := backendCleanup(); err != nil {
				return err
			}
		}
		return amqpErr
	}
}
