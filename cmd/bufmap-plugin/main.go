package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	_ "github.com/redpanda-data/benthos/v4/public/components/io"
	_ "github.com/redpanda-data/benthos/v4/public/components/pure"
	"github.com/redpanda-data/benthos/v4/public/service"
	"github.com/twinfer/bufmap/pkg/bufmap"
	"github.com/twinfer/bufmap/pkg/formats"
)

const (
	formatAuto       = "auto"
	outputDump       = "dump"
	outputStructured = "structured"
)

// BufmapProcessor is a Benthos processor that lays a known file format over
// each message and emits either the text dump or the decoded field tree.
type BufmapProcessor struct {
	config    BufmapConfig
	format    *formats.Format // nil when detecting
	logger    *service.Logger
	mBuilt    *service.MetricCounter
	mUnknown  *service.MetricCounter
	mErrors   *service.MetricCounter
	mDetected *service.MetricCounter
}

// BufmapConfig contains configuration parameters for the bufmap processor.
type BufmapConfig struct {
	Format       string `json:"format" yaml:"format"`
	Output       string `json:"output" yaml:"output"`
	Debug        bool   `json:"debug" yaml:"debug"`
	ShowReserved bool   `json:"show_reserved" yaml:"show_reserved"`
	StartOffset  int    `json:"start_offset" yaml:"start_offset"`
}

func init() {
	err := service.RegisterProcessor(
		"bufmap",
		bufmapProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newBufmapProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

func main() {
	service.RunCLI(context.Background())
}

// bufmapProcessorConfig returns a config spec for a bufmap processor.
func bufmapProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Decodes binary files (BMP, PNG, PE headers) into a field dump or a structured document.").
		Description("This processor lays a declared file format over the message bytes. With format `auto` each known format is tried in turn and the first whose signatures match is used.").
		Field(service.NewStringEnumField("format", append([]string{formatAuto}, formats.Keys()...)...).
			Description("File format of the message, or `auto` to detect it.").
			Default(formatAuto)).
		Field(service.NewStringEnumField("output", outputStructured, outputDump).
			Description("Emit the decoded field tree as a structured message, or the aligned text dump.").
			Default(outputStructured)).
		Field(service.NewBoolField("debug").
			Description("Annotate the dump with offsets and sizes.").
			Default(false)).
		Field(service.NewBoolField("show_reserved").
			Description("Include reserved fields in the dump.").
			Default(false)).
		Field(service.NewIntField("start_offset").
			Description("Byte offset of the file inside the message.").
			Default(0)).
		Version("0.1.0")
}

// newBufmapProcessorFromConfig creates a new BufmapProcessor from a parsed config.
func newBufmapProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*BufmapProcessor, error) {
	format, err := conf.FieldString("format")
	if err != nil {
		return nil, err
	}
	output, err := conf.FieldString("output")
	if err != nil {
		return nil, err
	}
	debug, err := conf.FieldBool("debug")
	if err != nil {
		return nil, err
	}
	showReserved, err := conf.FieldBool("show_reserved")
	if err != nil {
		return nil, err
	}
	startOffset, err := conf.FieldInt("start_offset")
	if err != nil {
		return nil, err
	}
	if startOffset < 0 {
		return nil, fmt.Errorf("start_offset must not be negative, got %d", startOffset)
	}

	p := &BufmapProcessor{
		config: BufmapConfig{
			Format:       format,
			Output:       output,
			Debug:        debug,
			ShowReserved: showReserved,
			StartOffset:  startOffset,
		},
		logger: mgr.Logger(),
	}
	if format != formatAuto {
		f, err := formats.Lookup(format)
		if err != nil {
			return nil, err
		}
		p.format = &f
	}

	metrics := mgr.Metrics()
	p.mBuilt = metrics.NewCounter("bufmap_built_messages")
	p.mDetected = metrics.NewCounter("bufmap_detected_formats")
	p.mUnknown = metrics.NewCounter("bufmap_unknown_formats")
	p.mErrors = metrics.NewCounter("bufmap_processing_errors")
	return p, nil
}

// Process decodes one message.
func (p *BufmapProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	data, err := msg.AsBytes()
	if err != nil {
		return p.fail(msg, fmt.Errorf("failed to get binary data from message: %w", err))
	}
	if len(data) == 0 {
		p.logger.Warn("Empty binary data provided")
		return p.fail(msg, errors.New("empty binary data provided"))
	}

	st, format, err := p.build(data)
	if err != nil {
		if errors.Is(err, formats.ErrUnknownFormat) {
			p.mUnknown.Incr(1)
		}
		return p.fail(msg, fmt.Errorf("failed to decode %d bytes: %w", len(data), err))
	}
	p.logger.Debugf("Decoded %d bytes as %s (%d bytes laid out)", len(data), format.Key, st.Size())
	p.mBuilt.Incr(1)

	newMsg := msg.Copy()
	switch p.config.Output {
	case outputDump:
		newMsg.SetBytes([]byte(st.Render(bufmap.RenderOptions{
			Debug:        p.config.Debug,
			ShowReserved: p.config.ShowReserved,
		})))
	default:
		tree, err := st.ToMap()
		if err != nil {
			return p.fail(msg, fmt.Errorf("failed to export %s: %w", format.Name, err))
		}
		newMsg.SetStructured(tree)
	}
	newMsg.MetaSet("bufmap_format", format.Key)
	newMsg.MetaSet("bufmap_size", strconv.Itoa(st.Size()))
	return service.MessageBatch{newMsg}, nil
}

func (p *BufmapProcessor) build(data []byte) (*bufmap.Struct, formats.Format, error) {
	opts := []bufmap.Option{
		bufmap.WithStartOffset(p.config.StartOffset),
		bufmap.WithLogger(slog.Default()),
	}
	if p.format != nil {
		st, err := p.format.Build(data, opts...)
		return st, *p.format, err
	}
	st, f, err := formats.Detect(data, opts...)
	if err == nil {
		p.mDetected.Incr(1)
	}
	return st, f, err
}

func (p *BufmapProcessor) fail(msg *service.Message, err error) (service.MessageBatch, error) {
	p.logger.Errorf("%v", err)
	p.mErrors.Incr(1)
	msg.SetError(err)
	return service.MessageBatch{msg}, nil
}

// Close releases processor resources.
func (p *BufmapProcessor) Close(ctx context.Context) error {
	p.logger.Debug("Closing bufmap processor")
	return nil
}
