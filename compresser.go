package compressio

import (
	"io"
	"slices"

	"github.com/cockroachdb/errors"
)

// Compresser is an open compression layer over one raw handle.
type Compresser interface {
	// Stream returns the stream handed to the serializer. It is readable in
	// ModeRead and writable otherwise.
	Stream() io.ReadWriter

	// Mode returns the mode the compresser was opened in.
	Mode() Mode

	// Close finalizes framing and closes the handle if it is owned. It is
	// safe to call more than once.
	Close() error
}

// CompresserOptions are passed to a compression constructor.
type CompresserOptions struct {
	// Level is algorithm specific; 0 selects the library default.
	Level int

	// Member names the archive member used by container formats.
	Member string
}

// Constructor opens a compresser over t in mode.
type Constructor func(t Target, mode Mode, opts CompresserOptions) (Compresser, error)

// CompressionDescriptor describes a registered compression method.
type CompressionDescriptor struct {
	Name string

	// Extensions recognized for the method. The first one is canonical.
	Extensions []string

	WriteMode  Mode
	ReadMode   Mode
	AppendMode Mode

	// MinLevel and MaxLevel bound the accepted compression levels. Level 0
	// always selects the library default. Methods with both bounds zero
	// have no levels and ignore the option.
	MinLevel int
	MaxLevel int

	New Constructor
}

func (d *CompressionDescriptor) clone() *CompressionDescriptor {
	c := *d
	c.Extensions = slices.Clone(d.Extensions)
	return &c
}

func (d *CompressionDescriptor) hasLevels() bool {
	return d.MinLevel != 0 || d.MaxLevel != 0
}

// CheckLevel reports an ErrConfiguration if level is outside the method's
// range.
func (d *CompressionDescriptor) CheckLevel(level int) error {
	if level == 0 || !d.hasLevels() {
		return nil
	}
	if level < d.MinLevel || level > d.MaxLevel {
		return opError(ErrConfiguration, "level", d.Name,
			errors.Newf("level %d outside [%d, %d]", level, d.MinLevel, d.MaxLevel))
	}
	return nil
}

// ClampLevel maps level into the method's range, or to 0 for methods
// without levels.
func (d *CompressionDescriptor) ClampLevel(level int) int {
	if level == 0 || !d.hasLevels() {
		return 0
	}
	return min(max(level, d.MinLevel), d.MaxLevel)
}

// CanonicalExtension returns the first extension, or "".
func (d *CompressionDescriptor) CanonicalExtension() string {
	if len(d.Extensions) == 0 {
		return ""
	}
	return d.Extensions[0]
}

// DefaultMode returns the default mode of kind.
func (d *CompressionDescriptor) DefaultMode(kind ModeKind) (Mode, error) {
	var m Mode
	switch kind {
	case KindRead:
		m = d.ReadMode
	case KindWrite:
		m = d.WriteMode
	case KindAppend:
		m = d.AppendMode
	}
	if m == ModeUnsupported {
		e := opError(ErrUnsupportedMode, "mode", d.Name, errors.Newf("%s not supported", kind))
		return ModeUnsupported, e
	}
	return m, nil
}

// Supports reports whether the method can be opened in mode.
func (d *CompressionDescriptor) Supports(mode Mode) bool {
	kind := mode.Kind()
	if kind == 0 {
		return false
	}
	_, err := d.DefaultMode(kind)
	return err == nil
}

// Open validates mode and level, then opens a compresser over t. Nothing
// is opened when validation fails.
func (d *CompressionDescriptor) Open(t Target, mode Mode, opts CompresserOptions) (Compresser, error) {
	if !d.Supports(mode) {
		e := opError(ErrUnsupportedMode, "open", d.Name, errors.Newf("%s does not support %s", d.Name, mode))
		e.Mode = mode
		return nil, e
	}
	if mode.Writing() {
		if err := d.CheckLevel(opts.Level); err != nil {
			return nil, err
		}
	}
	c, err := d.New(t, mode, opts)
	if err != nil {
		return nil, classify(ErrResource, "open", d.Name, mode, err)
	}
	return c, nil
}

// directional exposes a reader or a writer as an io.ReadWriter that fails
// on the other direction.
type directional struct {
	r io.Reader
	w io.Writer
}

func (d directional) Read(p []byte) (int, error) {
	if d.r == nil {
		return 0, opError(ErrUnsupportedMode, "read", "", errors.New("stream opened for writing"))
	}
	return d.r.Read(p)
}

func (d directional) Write(p []byte) (int, error) {
	if d.w == nil {
		return 0, opError(ErrUnsupportedMode, "write", "", errors.New("stream opened for reading"))
	}
	return d.w.Write(p)
}

// filterCompresser wraps a handle with a streaming encoder or decoder.
// A nil encoder and decoder make it a pass-through.
type filterCompresser struct {
	name   string
	mode   Mode
	handle *Handle
	enc    io.WriteCloser
	dec    io.ReadCloser
	closed bool
}

// WriterFunc builds a streaming encoder over w.
type WriterFunc func(w io.Writer, level int) (io.WriteCloser, error)

// ReaderFunc builds a streaming decoder over r.
type ReaderFunc func(r io.Reader) (io.ReadCloser, error)

// NewFilterConstructor returns a Constructor for a streaming format. The
// encoder and decoder are applied directly on the raw handle; a nil pair
// gives a pass-through compresser.
func NewFilterConstructor(name string, newWriter WriterFunc, newReader ReaderFunc) Constructor {
	return func(t Target, mode Mode, opts CompresserOptions) (Compresser, error) {
		h, err := t.Open(mode)
		if err != nil {
			return nil, err
		}
		c := &filterCompresser{name: name, mode: mode, handle: h}
		switch {
		case mode.Writing() && newWriter != nil:
			c.enc, err = newWriter(h, opts.Level)
			if err != nil {
				err = opError(ErrConfiguration, "open", name, err)
			}
		case !mode.Writing() && newReader != nil:
			c.dec, err = newReader(h)
			if err != nil {
				err = opError(ErrDeserialization, "open", name, err)
			}
		}
		if err != nil {
			return nil, errors.CombineErrors(err, h.Close())
		}
		return c, nil
	}
}

func (c *filterCompresser) Mode() Mode { return c.mode }

func (c *filterCompresser) Stream() io.ReadWriter {
	switch {
	case c.enc != nil:
		return directional{w: c.enc}
	case c.dec != nil:
		return directional{r: c.dec}
	case c.mode.Writing():
		return directional{w: c.handle}
	default:
		return directional{r: c.handle}
	}
}

func (c *filterCompresser) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	if c.enc != nil {
		if cerr := c.enc.Close(); cerr != nil {
			err = opError(ErrResource, "close", c.name, cerr)
		}
	}
	if c.dec != nil {
		// Decoders report corrupt input they noticed late on close.
		if cerr := c.dec.Close(); cerr != nil {
			err = opError(ErrDeserialization, "close", c.name, cerr)
		}
	}
	return errors.CombineErrors(err, c.handle.Close())
}
