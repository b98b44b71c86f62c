// Package review provides code review service configuration options.
package review

import (
	"fmt"

	"github.com/kart-io/reviewer-x/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Options contains review-specific configuration.
type Options struct {
	// ModelsConfig is the path to the model registry configuration file.
	ModelsConfig string `json:"models-config" mapstructure:"models-config"`

	// WatchModels enables hot reload of the model registry on file change.
	WatchModels bool `json:"watch-models" mapstructure:"watch-models"`

	// ExamplesDir is the directory containing sample code files for review.
	ExamplesDir string `json:"examples-dir" mapstructure:"examples-dir"`

	// FileExtension filters which files ExamplesDir exposes.
	FileExtension string `json:"file-extension" mapstructure:"file-extension"`

	// GuidelinesDir is the directory containing guideline documents to index at startup.
	// Empty disables startup indexing.
	GuidelinesDir string `json:"guidelines-dir" mapstructure:"guidelines-dir"`

	// HistoryEnabled persists review records to MongoDB.
	HistoryEnabled bool `json:"history-enabled" mapstructure:"history-enabled"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ModelsConfig:   "configs/models.yaml",
		WatchModels:    true,
		ExamplesDir:    "examples",
		FileExtension:  ".py",
		GuidelinesDir:  "",
		HistoryEnabled: false,
	}
}

// AddFlags adds flags for review options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.ModelsConfig, options.Join(prefixes...)+"review.models-config", o.ModelsConfig, "Path to the model registry configuration file.")
	fs.BoolVar(&o.WatchModels, options.Join(prefixes...)+"review.watch-models", o.WatchModels, "Hot reload the model registry on file change.")
	fs.StringVar(&o.ExamplesDir, options.Join(prefixes...)+"review.examples-dir", o.ExamplesDir, "Directory containing sample code files.")
	fs.StringVar(&o.FileExtension, options.Join(prefixes...)+"review.file-extension", o.FileExtension, "File extension filter for the examples directory.")
	fs.StringVar(&o.GuidelinesDir, options.Join(prefixes...)+"review.guidelines-dir", o.GuidelinesDir, "Directory of guideline documents to index at startup.")
	fs.BoolVar(&o.HistoryEnabled, options.Join(prefixes...)+"review.history-enabled", o.HistoryEnabled, "Persist review records to MongoDB.")
}

// Validate validates the review options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ModelsConfig == "" {
		errs = append(errs, fmt.Errorf("review models-config is required"))
	}
	if o.ExamplesDir == "" {
		errs = append(errs, fmt.Errorf("review examples-dir is required"))
	}
	return errs
}
