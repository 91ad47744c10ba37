package etl

import (
	"time"
)

// DictionaryRecord is a single dictionary entry from an import file.
type DictionaryRecord struct {
	Name        string `csv:"name" parquet:"name" json:"name"`
	Placeholder string `csv:"placeholder" parquet:"placeholder" json:"placeholder"`
	Category    string `csv:"category" parquet:"category" json:"category"`
}

// ImportResult represents the result of importing a dictionary file
type ImportResult struct {
	TotalRecords int64         `json:"total_records"`
	Imported     int64         `json:"imported"`
	Duplicates   int64         `json:"duplicates"`
	Invalid      int64         `json:"invalid"`
	Failed       int64         `json:"failed"`
	Duration     time.Duration `json:"duration"`
	Errors       []string      `json:"errors,omitempty"`
}

// Config contains import pipeline configuration
type Config struct {
	BatchSize      int  `yaml:"batch_size" mapstructure:"batch_size"`           // 500
	SkipDuplicates bool `yaml:"skip_duplicates" mapstructure:"skip_duplicates"` // true
	ValidateData   bool `yaml:"validate_data" mapstructure:"validate_data"`     // true
	ProgressReport int  `yaml:"progress_report" mapstructure:"progress_report"` // 1000
}

// DefaultConfig returns the default import configuration.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      500,
		SkipDuplicates: true,
		ValidateData:   true,
		ProgressReport: 1000,
	}
}

// FileFormat represents supported file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension
func DetectFileFormat(filename string) FileFormat {
	switch {
	case len(filename) >= 8 && filename[len(filename)-8:] == ".parquet":
		return FormatParquet
	case len(filename) >= 5 && filename[len(filename)-5:] == ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}
