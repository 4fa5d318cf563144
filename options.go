package pdfmerge

import (
	"io"
	"log/slog"
)

// Page size names understood by WithPageSize.
const (
	PageSizeA4     = "A4"
	PageSizeA5     = "A5"
	PageSizeLetter = "Letter"
	PageSizeLegal  = "Legal"
)

// Config is the immutable configuration handed to a merge or conversion.
// Build it with NewConfig; the zero value is not usable.
type Config struct {
	Logger *slog.Logger

	// Layout used when a non-PDF source is converted into pages.
	PageSize    string
	Orientation string  // "P" or "L"
	Margin      float64 // points
	FontFamily  string
	FontSize    float64 // points
	LineHeight  float64 // multiple of FontSize
}

// Option is a functional option for NewConfig.
type Option func(*Config)

// WithLogger sets the structured logger. A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithPageSize sets the page size of converted documents.
// Use PageSizeA4, PageSizeA5, PageSizeLetter or PageSizeLegal.
func WithPageSize(size string) Option {
	return func(c *Config) {
		c.PageSize = size
	}
}

// WithLandscape lays converted documents out in landscape orientation.
func WithLandscape() Option {
	return func(c *Config) {
		c.Orientation = "L"
	}
}

// WithMargin sets the page margin of converted documents in points.
func WithMargin(points float64) Option {
	return func(c *Config) {
		c.Margin = points
	}
}

// WithFont sets the core font family and size used for text conversions.
func WithFont(family string, size float64) Option {
	return func(c *Config) {
		c.FontFamily = family
		c.FontSize = size
	}
}

// WithLineHeight sets the line height as a multiple of the font size.
func WithLineHeight(factor float64) Option {
	return func(c *Config) {
		c.LineHeight = factor
	}
}

// NewConfig returns a configuration with the given options applied.
// If no options are specified, converted documents use portrait A4 with
// 11pt Helvetica and a 50pt margin, and logging is discarded.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		PageSize:    PageSizeA4,
		Orientation: "P",
		Margin:      50,
		FontFamily:  "Helvetica",
		FontSize:    11,
		LineHeight:  1.4,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 11
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = 1.4
	}
	if cfg.Margin < 0 {
		cfg.Margin = 0
	}
	return cfg
}
