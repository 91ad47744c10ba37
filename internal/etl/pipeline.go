// Package etl bulk-imports dictionary entities from CSV, Parquet, or
// newline-delimited JSON files.
package etl

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/dictionary"
	"github.com/safedialog/safedialog/internal/entity"
)

// Pipeline imports dictionary records into a store.
type Pipeline struct {
	store  dictionary.Store
	config *Config
	logger *zap.Logger
}

// NewPipeline creates a new import pipeline
func NewPipeline(store dictionary.Store, config *Config, logger *zap.Logger) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pipeline{
		store:  store,
		config: config,
		logger: logger,
	}
}

// ImportFile imports a dictionary file (CSV, Parquet, or JSON)
func (p *Pipeline) ImportFile(ctx context.Context, filePath string) (*ImportResult, error) {
	p.logger.Info("Starting dictionary import",
		zap.String("file", filePath),
		zap.Int("batch_size", p.config.BatchSize))

	start := time.Now()
	result := &ImportResult{}

	format := DetectFileFormat(filePath)
	p.logger.Info("Detected file format", zap.String("format", string(format)))

	var err error
	switch format {
	case FormatCSV:
		err = p.importCSV(ctx, filePath, result)
	case FormatParquet:
		err = p.importParquet(ctx, filePath, result)
	case FormatJSON:
		err = p.importJSON(ctx, filePath, result)
	default:
		err = fmt.Errorf("unsupported file format: %s", format)
	}

	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	p.logger.Info("Dictionary import completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("imported", result.Imported),
		zap.Int64("duplicates", result.Duplicates),
		zap.Int64("invalid", result.Invalid),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// importCSV imports a CSV file with a name,placeholder,category header row
func (p *Pipeline) importCSV(ctx context.Context, filePath string, result *ImportResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	p.logger.Info("CSV header detected", zap.Strings("columns", header))

	return p.importBatches(ctx, func() ([]DictionaryRecord, error) {
		var batch []DictionaryRecord
		for len(batch) < p.config.BatchSize {
			row, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read CSV record", zap.Error(err))
				result.Failed++
				continue
			}
			if len(row) < 2 {
				p.logger.Warn("Invalid CSV record length", zap.Int("length", len(row)))
				result.Failed++
				continue
			}

			record := DictionaryRecord{
				Name:        strings.TrimSpace(row[0]),
				Placeholder: strings.TrimSpace(row[1]),
			}
			if len(row) > 2 {
				record.Category = strings.TrimSpace(row[2])
			}
			batch = append(batch, record)
		}
		return batch, nil
	}, result)
}

// importParquet imports a Parquet file
func (p *Pipeline) importParquet(ctx context.Context, filePath string, result *ImportResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	return p.importBatches(ctx, func() ([]DictionaryRecord, error) {
		var batch []DictionaryRecord
		for len(batch) < p.config.BatchSize {
			var record DictionaryRecord
			err := reader.Read(&record)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read Parquet record", zap.Error(err))
				result.Failed++
				continue
			}
			batch = append(batch, record)
		}
		return batch, nil
	}, result)
}

// importJSON imports a JSON file (one object per line or a stream of objects)
func (p *Pipeline) importJSON(ctx context.Context, filePath string, result *ImportResult) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	return p.importBatches(ctx, func() ([]DictionaryRecord, error) {
		var batch []DictionaryRecord
		for len(batch) < p.config.BatchSize {
			var record DictionaryRecord
			err := decoder.Decode(&record)
			if err == io.EOF {
				break
			}
			if err != nil {
				p.logger.Warn("Failed to read JSON record", zap.Error(err))
				result.Failed++
				continue
			}
			batch = append(batch, record)
		}
		return batch, nil
	}, result)
}

// importBatches drains the reader function and writes records to the store
func (p *Pipeline) importBatches(ctx context.Context, readBatch func() ([]DictionaryRecord, error), result *ImportResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := readBatch()
		if err != nil {
			return fmt.Errorf("failed to read batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, record := range batch {
			result.TotalRecords++

			if p.config.ValidateData && !p.validateRecord(record) {
				result.Invalid++
				continue
			}

			_, err := p.store.Add(ctx, record.Name, record.Placeholder, record.Category)
			if err != nil {
				var dup *dictionary.DuplicateNameError
				if errors.As(err, &dup) {
					result.Duplicates++
					if p.config.SkipDuplicates {
						continue
					}
					return fmt.Errorf("duplicate entity name at record %d: %w", result.TotalRecords, err)
				}
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				p.logger.Warn("Failed to import record", zap.Error(err))
				continue
			}
			result.Imported++

			if result.TotalRecords%int64(p.config.ProgressReport) == 0 {
				p.logger.Info("Import progress",
					zap.Int64("records", result.TotalRecords),
					zap.Int64("imported", result.Imported),
					zap.Int64("duplicates", result.Duplicates))
			}
		}
	}

	return nil
}

// validateRecord checks a record against the entity invariants before the
// store does, so an invalid row is counted instead of surfacing an error.
func (p *Pipeline) validateRecord(record DictionaryRecord) bool {
	if err := entity.ValidateName(record.Name); err != nil {
		p.logger.Debug("Invalid record: bad name", zap.Error(err))
		return false
	}
	if err := entity.ValidatePlaceholder(record.Placeholder); err != nil {
		p.logger.Debug("Invalid record: bad placeholder", zap.Error(err))
		return false
	}
	return true
}
