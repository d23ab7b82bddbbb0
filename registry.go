package compressio

import (
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DuplicatePolicy decides what happens when a name is registered twice.
type DuplicatePolicy int

const (
	// DuplicateOverwrite replaces the previous entry and logs a warning.
	DuplicateOverwrite DuplicatePolicy = iota
	// DuplicateError rejects the registration with ErrConfiguration.
	DuplicateError
)

// RegistryConfig configures a registry.
type RegistryConfig struct {
	Logger      *zap.Logger
	OnDuplicate DuplicatePolicy
}

func (c *RegistryConfig) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *RegistryConfig) policy() DuplicatePolicy {
	if c == nil {
		return DuplicateOverwrite
	}
	return c.OnDuplicate
}

// RegisterOption modifies a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	force bool
}

// ForceOverride lets a registration claim extensions owned by another method.
func ForceOverride() RegisterOption {
	return func(o *registerOptions) { o.force = true }
}

// CompressionRegistry maps compression names, aliases and extensions to
// descriptors. It is safe for concurrent use.
type CompressionRegistry struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	policy     DuplicatePolicy
	order      []string
	methods    map[string]*CompressionDescriptor
	aliases    map[string]string
	extensions map[string]string
}

// NewCompressionRegistry returns an empty registry. A nil config uses defaults.
func NewCompressionRegistry(config *RegistryConfig) *CompressionRegistry {
	return &CompressionRegistry{
		logger:     config.logger(),
		policy:     config.policy(),
		methods:    make(map[string]*CompressionDescriptor),
		aliases:    make(map[string]string),
		extensions: make(map[string]string),
	}
}

// SetLogger replaces the logger used for registration warnings.
func (r *CompressionRegistry) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

func normalizeExtension(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

func validModeKind(m Mode, kinds ...ModeKind) bool {
	return m == ModeUnsupported || slices.Contains(kinds, m.Kind())
}

// Register adds desc to the registry.
func (r *CompressionRegistry) Register(desc CompressionDescriptor, opts ...RegisterOption) error {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case desc.Name == "":
		return configErrorf("register", "", "empty compression name")
	case desc.New == nil:
		return configErrorf("register", desc.Name, "nil constructor")
	case !validModeKind(desc.ReadMode, KindRead):
		return configErrorf("register", desc.Name, "read mode %s is not a read mode", desc.ReadMode)
	case !validModeKind(desc.WriteMode, KindWrite):
		return configErrorf("register", desc.Name, "write mode %s is not a write mode", desc.WriteMode)
	case !validModeKind(desc.AppendMode, KindAppend):
		return configErrorf("register", desc.Name, "append mode %s is not an append mode", desc.AppendMode)
	}
	exts := lo.Uniq(lo.FilterMap(desc.Extensions, func(ext string, _ int) (string, bool) {
		ext = normalizeExtension(ext)
		return ext, ext != ""
	}))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.aliases[desc.Name]; ok {
		return configErrorf("register", desc.Name, "%q is registered as an alias", desc.Name)
	}
	_, exists := r.methods[desc.Name]
	if exists && r.policy == DuplicateError {
		return configErrorf("register", desc.Name, "compression %q is already registered", desc.Name)
	}
	for _, ext := range exts {
		owner, claimed := r.extensions[ext]
		if claimed && owner != desc.Name && !o.force {
			e := opError(ErrConfiguration, "register", desc.Name, errors.Newf("extension already belongs to %s", owner))
			e.Extension = ext
			return e
		}
	}

	if exists {
		r.logger.Warn("overwriting registered compression", zap.String("compression", desc.Name))
		for ext, owner := range r.extensions {
			if owner == desc.Name {
				delete(r.extensions, ext)
			}
		}
	} else {
		r.order = append(r.order, desc.Name)
	}
	for _, ext := range exts {
		if owner, claimed := r.extensions[ext]; claimed && owner != desc.Name {
			r.logger.Warn("moving extension to new compression",
				zap.String("extension", ext), zap.String("from", owner), zap.String("to", desc.Name))
			prev := r.methods[owner]
			moved := *prev
			moved.Extensions = lo.Without(prev.Extensions, ext)
			r.methods[owner] = &moved
		}
		r.extensions[ext] = desc.Name
	}
	desc.Extensions = exts
	r.methods[desc.Name] = &desc
	return nil
}

// AddAlias makes alias resolve to the descriptor of target.
func (r *CompressionRegistry) AddAlias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.methods[target]; !ok {
		if canonical, ok := r.aliases[target]; ok {
			target = canonical
		} else {
			return opError(ErrUnknownMethod, "alias", target, nil)
		}
	}
	if _, ok := r.methods[alias]; ok {
		return configErrorf("alias", alias, "%q is a registered compression", alias)
	}
	if prev, ok := r.aliases[alias]; ok && prev != target {
		r.logger.Warn("overwriting compression alias",
			zap.String("alias", alias), zap.String("from", prev), zap.String("to", target))
	}
	r.aliases[alias] = target
	return nil
}

// Resolve returns a copy of the descriptor registered under name or alias.
func (r *CompressionRegistry) Resolve(name string) (*CompressionDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, err := r.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	return d.clone(), nil
}

func (r *CompressionRegistry) resolveLocked(name string) (*CompressionDescriptor, error) {
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	d, ok := r.methods[name]
	if !ok {
		return nil, opError(ErrUnknownMethod, "resolve", name, nil)
	}
	return d, nil
}

// ResolveExtension returns a copy of the descriptor claiming ext. The leading dot is
// optional.
func (r *CompressionRegistry) ResolveExtension(ext string) (*CompressionDescriptor, error) {
	ext = normalizeExtension(ext)
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.extensions[ext]
	if !ok {
		e := opError(ErrUnknownExtension, "resolve", "", nil)
		e.Extension = ext
		return nil, e
	}
	return r.methods[name].clone(), nil
}

// Methods yields the canonical names in registration order. Each iteration
// takes a fresh snapshot.
func (r *CompressionRegistry) Methods() iter.Seq[string] {
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

// Len returns the number of registered methods, aliases excluded.
func (r *CompressionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Aliases returns a copy of the alias table.
func (r *CompressionRegistry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Assign(r.aliases)
}

// Extensions returns a copy of the extension table.
func (r *CompressionRegistry) Extensions() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Assign(r.extensions)
}

// DefaultMode returns the default mode of kind for method.
func (r *CompressionRegistry) DefaultMode(method string, kind ModeKind) (Mode, error) {
	d, err := r.Resolve(method)
	if err != nil {
		return ModeUnsupported, err
	}
	return d.DefaultMode(kind)
}
