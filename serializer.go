package compressio

import (
	"encoding/gob"
	"io"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// Serializer encodes values onto a stream and decodes them back. It never
// closes the stream.
type Serializer interface {
	Encode(w io.Writer, v any) error

	// Decode reads one value into v, which must be a pointer.
	Decode(r io.Reader, v any) error
}

// SerializerOptions are serializer specific settings keyed by option name.
type SerializerOptions map[string]any

// SerializerFactory builds a Serializer from options. Unknown option keys
// are rejected with ErrConfiguration.
type SerializerFactory func(opts SerializerOptions) (Serializer, error)

// optionReader consumes typed values from SerializerOptions and reports the
// keys nobody asked for.
type optionReader struct {
	name string
	opts SerializerOptions
	seen map[string]bool
	err  error
}

func readOptions(name string, opts SerializerOptions) *optionReader {
	return &optionReader{name: name, opts: opts, seen: make(map[string]bool)}
}

func (o *optionReader) lookup(key string) (any, bool) {
	o.seen[key] = true
	v, ok := o.opts[key]
	return v, ok
}

func (o *optionReader) fail(key string, v any, want string) {
	if o.err == nil {
		o.err = configErrorf("serializer", o.name, "option %q: got %T, want %s", key, v, want)
	}
}

func (o *optionReader) Bool(key string) bool {
	v, ok := o.lookup(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		o.fail(key, v, "bool")
	}
	return b
}

func (o *optionReader) String(key string) string {
	v, ok := o.lookup(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		o.fail(key, v, "string")
	}
	return s
}

func (o *optionReader) Int(key string, def int) int {
	v, ok := o.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	o.fail(key, v, "int")
	return def
}

// Err returns the first type error or an error naming an unknown key.
func (o *optionReader) Err() error {
	if o.err != nil {
		return o.err
	}
	for key := range o.opts {
		if !o.seen[key] {
			return configErrorf("serializer", o.name, "unknown option %q", key)
		}
	}
	return nil
}

type gobSerializer struct{}

func newGobSerializer(opts SerializerOptions) (Serializer, error) {
	if err := readOptions("gob", opts).Err(); err != nil {
		return nil, err
	}
	return gobSerializer{}, nil
}

func (gobSerializer) Encode(w io.Writer, v any) error { return gob.NewEncoder(w).Encode(v) }

func (gobSerializer) Decode(r io.Reader, v any) error { return gob.NewDecoder(r).Decode(v) }

type jsonSerializer struct {
	api    jsoniter.API
	indent string
}

func newJSONSerializer(opts SerializerOptions) (Serializer, error) {
	o := readOptions("json", opts)
	indent := o.String("indent")
	useNumber := o.Bool("use_number")
	if err := o.Err(); err != nil {
		return nil, err
	}
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		UseNumber:              useNumber,
	}.Froze()
	return &jsonSerializer{api: api, indent: indent}, nil
}

func (s *jsonSerializer) Encode(w io.Writer, v any) error {
	enc := s.api.NewEncoder(w)
	if s.indent != "" {
		enc.SetIndent("", s.indent)
	}
	return enc.Encode(v)
}

func (s *jsonSerializer) Decode(r io.Reader, v any) error {
	return s.api.NewDecoder(r).Decode(v)
}

// sonicSerializer is the json_fast variant: same wire format as json,
// encoded with sonic's fastest configuration. It is the optimized variant of
// json, not of the default gob format; gob has a single encoding and no
// faster encoder producing the same bytes, so it has no such variant.
type sonicSerializer struct{}

func newSonicSerializer(opts SerializerOptions) (Serializer, error) {
	if err := readOptions("json_fast", opts).Err(); err != nil {
		return nil, err
	}
	return sonicSerializer{}, nil
}

func (sonicSerializer) Encode(w io.Writer, v any) error {
	return sonic.ConfigFastest.NewEncoder(w).Encode(v)
}

func (sonicSerializer) Decode(r io.Reader, v any) error {
	return sonic.ConfigFastest.NewDecoder(r).Decode(v)
}

type cborSerializer struct {
	enc cbor.EncMode
}

func newCBORSerializer(opts SerializerOptions) (Serializer, error) {
	o := readOptions("cbor", opts)
	canonical := o.Bool("canonical")
	if err := o.Err(); err != nil {
		return nil, err
	}
	encOpts := cbor.EncOptions{}
	if canonical {
		encOpts = cbor.CanonicalEncOptions()
	}
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, opError(ErrConfiguration, "serializer", "cbor", err)
	}
	return &cborSerializer{enc: em}, nil
}

func (s *cborSerializer) Encode(w io.Writer, v any) error { return s.enc.NewEncoder(w).Encode(v) }

func (s *cborSerializer) Decode(r io.Reader, v any) error { return cbor.NewDecoder(r).Decode(v) }

type yamlSerializer struct {
	indent int
}

func newYAMLSerializer(opts SerializerOptions) (Serializer, error) {
	o := readOptions("yaml", opts)
	indent := o.Int("indent", 4)
	if err := o.Err(); err != nil {
		return nil, err
	}
	if indent < 1 {
		return nil, configErrorf("serializer", "yaml", "indent must be positive, got %d", indent)
	}
	return &yamlSerializer{indent: indent}, nil
}

func (s *yamlSerializer) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(s.indent)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (s *yamlSerializer) Decode(r io.Reader, v any) error {
	return yaml.NewDecoder(r).Decode(v)
}

type protoSerializer struct {
	marshal proto.MarshalOptions
}

func newProtoSerializer(opts SerializerOptions) (Serializer, error) {
	o := readOptions("proto", opts)
	deterministic := o.Bool("deterministic")
	if err := o.Err(); err != nil {
		return nil, err
	}
	return &protoSerializer{marshal: proto.MarshalOptions{Deterministic: deterministic}}, nil
}

func (s *protoSerializer) Encode(w io.Writer, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return errors.Newf("%T is not a proto.Message", v)
	}
	b, err := s.marshal.Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Decode reads the whole stream: the wire format is not self-delimiting.
func (s *protoSerializer) Decode(r io.Reader, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return errors.Newf("%T is not a proto.Message", v)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return proto.Unmarshal(b, m)
}
