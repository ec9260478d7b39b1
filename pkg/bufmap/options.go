package bufmap

import (
	"fmt"
	"log/slog"
	"os"

	internalCel "github.com/twinfer/bufmap/internal/cel"
	"gopkg.in/yaml.v3"
)

// options holds build configuration
type options struct {
	logger      *slog.Logger
	startOffset int
	pool        *internalCel.ExpressionPool
}

// Option is a function that configures a build
type Option func(*options)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStartOffset places the top-level struct at offset bytes into the buffer
func WithStartOffset(offset int) Option {
	return func(o *options) {
		o.startOffset = offset
	}
}

// WithExpressionPool sets the CEL pool used by Struct.Eval and Struct.Expr
func WithExpressionPool(pool *internalCel.ExpressionPool) Option {
	return func(o *options) {
		o.pool = pool
	}
}

// defaultOptions returns the default configuration
func defaultOptions() options {
	return options{
		logger: slog.Default(),
	}
}

// LoggerFrom returns the logger opts would give a build, so code that wraps
// Build logs to the same place.
func LoggerFrom(opts ...Option) *slog.Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// RenderOptions controls a single render call. It is passed by value so
// concurrent renders with different settings never interfere.
type RenderOptions struct {
	// Debug annotates every field with its offset and size and shows empty
	// and reserved fields.
	Debug bool `yaml:"debug" json:"debug"`
	// ShowReserved shows reserved fields.
	ShowReserved bool `yaml:"show_reserved" json:"show_reserved"`
}

// LoadRenderOptions reads RenderOptions from a YAML file.
func LoadRenderOptions(path string) (RenderOptions, error) {
	var opts RenderOptions
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read render options: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse render options YAML: %w", err)
	}
	return opts, nil
}

// fieldConfig collects per-field presentation and decoding flags
type fieldConfig struct {
	signed       bool
	decimal      bool
	showHex      bool
	showContents bool
	verbose      bool
	encoding     string
}

// FieldOption tweaks how a declared field decodes or renders
type FieldOption func(*fieldConfig)

// Signed decodes numbers as two's complement.
func Signed() FieldOption { return func(c *fieldConfig) { c.signed = true } }

// Decimal appends the decimal value when it is negative or above 9.
func Decimal() FieldOption { return func(c *fieldConfig) { c.decimal = true } }

// HexOnly suppresses the decimal suffix.
func HexOnly() FieldOption { return func(c *fieldConfig) { c.decimal = false } }

// ShowHex prints the raw bytes next to a string value.
func ShowHex() FieldOption { return func(c *fieldConfig) { c.showHex = true } }

// ShowContents renders a buffer as a hex dump instead of its size.
func ShowContents() FieldOption { return func(c *fieldConfig) { c.showContents = true } }

// Encoding names the character encoding a string field exports its text in,
// e.g. "ISO-8859-1" or "UTF-16LE". See LookupEncoding for the known names.
// The dump still shows printable ASCII.
func Encoding(name string) FieldOption { return func(c *fieldConfig) { c.encoding = name } }

// Verbose renders one line per array element.
func Verbose() FieldOption { return func(c *fieldConfig) { c.verbose = true } }

func newFieldConfig(def fieldConfig, opts []FieldOption) fieldConfig {
	for _, opt := range opts {
		opt(&def)
	}
	return def
}
