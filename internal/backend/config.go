package backend

import (
	"fmt"

	"petspese/internal/config"
	gsheet "petspese/internal/sheets/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		DataDir:      appConfig.DataDir,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		Sheets: gsheet.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			ExpensesSheet:      appConfig.GoogleExpensesSheet,
			PetsSheet:          appConfig.GooglePetsSheet,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		},
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// MirrorFromAppConfig returns the config of the mirror backend. The mirror
// never publishes events.
func MirrorFromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	if appConfig.MirrorBackend == "" {
		return Config{}, fmt.Errorf("no mirror backend configured")
	}
	mirror := *appConfig
	mirror.DataBackend = appConfig.MirrorBackend
	mirror.AMQPURL = ""
	return FromAppConfig(&mirror)
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required for photos")
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{FilesBackend, SQLiteBackend, SheetsBackend}
}
