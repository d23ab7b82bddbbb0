package compressio

// CallOption configures a single dump or load.
type CallOption interface {
	apply(*callOptions)
}

type callOptions struct {
	compression      string
	serializer       string
	serializerOpts   SerializerOptions
	defaultExtension bool
	mode             Mode
	level            int
	levelSet         bool
	member           string
}

func defaultCallOptions() callOptions {
	return callOptions{defaultExtension: true}
}

type optionFunc func(*callOptions)

var _ CallOption = optionFunc(nil)

func (f optionFunc) apply(o *callOptions) { f(o) }

// WithCompression names the compression method or alias. Without it the
// method is inferred from the path extension.
func WithCompression(name string) CallOption {
	return optionFunc(func(o *callOptions) {
		o.compression = name
	})
}

// WithSerializer names the serializer or alias.
// If not set, the registry default is used.
func WithSerializer(name string) CallOption {
	return optionFunc(func(o *callOptions) {
		o.serializer = name
	})
}

// WithSerializerOptions passes options to the serializer factory.
func WithSerializerOptions(opts SerializerOptions) CallOption {
	return optionFunc(func(o *callOptions) {
		o.serializerOpts = opts
	})
}

// WithDefaultExtension controls whether the canonical extension of the
// method is appended to a path that lacks one. Default is true.
func WithDefaultExtension(enabled bool) CallOption {
	return optionFunc(func(o *callOptions) {
		o.defaultExtension = enabled
	})
}

// WithMode overrides the method's default mode. The mode must match the
// direction of the call.
func WithMode(m Mode) CallOption {
	return optionFunc(func(o *callOptions) {
		o.mode = m
	})
}

// WithLevel sets the compression level for this call.
func WithLevel(level int) CallOption {
	return optionFunc(func(o *callOptions) {
		o.level = level
		o.levelSet = true
	})
}

// WithMember names the archive member for container formats.
func WithMember(name string) CallOption {
	return optionFunc(func(o *callOptions) {
		o.member = name
	})
}
