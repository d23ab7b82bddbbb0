package compressio

import (
	"iter"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// SerializerDescriptor describes a registered serializer.
type SerializerDescriptor struct {
	Name string
	New  SerializerFactory
}

// DefaultSerializer is the serializer used when a call does not name one.
const DefaultSerializer = "gob"

// SerializerRegistry maps serializer names and aliases to descriptors.
type SerializerRegistry struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	policy   DuplicatePolicy
	order    []string
	methods  map[string]*SerializerDescriptor
	aliases  map[string]string
	fallback string
}

// NewSerializerRegistry returns an empty registry whose default is gob.
func NewSerializerRegistry(config *RegistryConfig) *SerializerRegistry {
	return &SerializerRegistry{
		logger:   config.logger(),
		policy:   config.policy(),
		methods:  make(map[string]*SerializerDescriptor),
		aliases:  make(map[string]string),
		fallback: DefaultSerializer,
	}
}

// SetLogger replaces the logger used for registration warnings.
func (r *SerializerRegistry) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

// Register adds or replaces a serializer.
func (r *SerializerRegistry) Register(desc SerializerDescriptor) error {
	if desc.Name == "" {
		return configErrorf("register", "", "empty serializer name")
	}
	if desc.New == nil {
		return configErrorf("register", desc.Name, "nil serializer factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aliases[desc.Name]; ok {
		return configErrorf("register", desc.Name, "%q is registered as an alias", desc.Name)
	}
	if _, ok := r.methods[desc.Name]; ok {
		if r.policy == DuplicateError {
			return configErrorf("register", desc.Name, "serializer %q is already registered", desc.Name)
		}
		r.logger.Warn("overwriting registered serializer", zap.String("serializer", desc.Name))
	} else {
		r.order = append(r.order, desc.Name)
	}
	r.methods[desc.Name] = &desc
	return nil
}

// AddAlias makes alias resolve to target.
func (r *SerializerRegistry) AddAlias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if canonical, ok := r.aliases[target]; ok {
		target = canonical
	}
	if _, ok := r.methods[target]; !ok {
		return opError(ErrUnknownMethod, "alias", target, nil)
	}
	if _, ok := r.methods[alias]; ok {
		return configErrorf("alias", alias, "%q is a registered serializer", alias)
	}
	r.aliases[alias] = target
	return nil
}

// Resolve returns the descriptor for name. An empty name resolves the
// current default.
func (r *SerializerRegistry) Resolve(name string) (*SerializerDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.fallback
	}
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	d, ok := r.methods[name]
	if !ok {
		return nil, opError(ErrUnknownMethod, "resolve", name, nil)
	}
	return d, nil
}

// Methods yields the canonical serializer names in registration order.
func (r *SerializerRegistry) Methods() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.mu.RLock()
		names := slices.Clone(r.order)
		r.mu.RUnlock()
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// Default returns the name used when a call names no serializer.
func (r *SerializerRegistry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// SetDefault changes the default serializer. name must be registered.
func (r *SerializerRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	if _, ok := r.methods[name]; !ok {
		return opError(ErrUnknownMethod, "default", name, nil)
	}
	r.fallback = name
	return nil
}
