package main

import (
	"log"

	"github.com/joho/godotenv"

	"crashlens/adapters/dataload"
	"crashlens/domain/collision"
	"crashlens/internal"
	"crashlens/internal/config"
	"crashlens/internal/testkit"
	"crashlens/ports"
	"crashlens/ui"
)

func main() {
	// Load .env file if present (ignore errors for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	records, loadReport, err := loadRecords(cfg)
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}

	app, err := ui.NewApp(ui.Config{
		Port:           cfg.Server.Port,
		GeoCellDegrees: cfg.Data.GeoCellDegrees,
		Params:         cfg.Analysis,
	}, records, loadReport)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Serve(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadRecords reads the configured data file, or falls back to the
// synthetic demo dataset when none is configured.
func loadRecords(cfg *config.Config) ([]collision.Record, ports.LoadReport, error) {
	var source ports.RecordSource
	if cfg.Data.File == "" {
		internal.DefaultLogger.Warn("CRASHLENS_DATA_FILE not set; using synthetic demo dataset")
		source = testkit.Source{Config: testkit.DefaultConfig()}
	} else {
		mapping := dataload.DefaultMapping()
		if cfg.Data.MappingFile != "" {
			var err error
			mapping, err = dataload.LoadMapping(cfg.Data.MappingFile)
			if err != nil {
				return nil, ports.LoadReport{}, err
			}
		}
		source = dataload.NewDataReader(cfg.Data.File, mapping)
	}
	return source.Load()
}
