package engine

import (
	"context"
	"github.com/hydrogend/dbcore/connstring"
	"github.com/pkg/errors"
	"sync"
)

// ErrNilConfig and ErrUnknownEngine name the two ways Connect can be called with an invalid
// argument, per the engine_connect null-safety contract.
var (
	ErrNilConfig         = errors.New("engine: connection config is nil")
	ErrUnknownEngine     = errors.New("engine: unknown engine type")
	ErrNoDriver          = errors.New("engine: no driver registered for this engine type")
	ErrAlreadyRegistered = errors.New("engine: a driver is already registered for this engine type")
)

// Registry maps EngineType to the VTable implementing it. The zero value is not ready to use;
// construct one with NewRegistry.
type Registry struct {
	mu          sync.RWMutex
	drivers     map[EngineType]*VTable
	initialized bool
}

// NewRegistry returns an initialized, empty Registry. Construction itself can't fail in Go (no
// allocation-exhaustion path the way the spec's native engine_init has), so there's no error
// return — Init exists only for API parity with the one-shot idempotent init elsewhere in this
// module and to support a lazily-constructed default Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Init()
	return r
}

// Init allocates the registry's internal state. Calling Init more than once is a no-op; this
// mirrors engine_init's idempotency contract for callers that share a Registry across multiple
// subsystems each performing their own startup sequence.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return
	}

	r.drivers = make(map[EngineType]*VTable)
	r.initialized = true
}

// Register adds vtable to the registry under vtable.EngineType. It fails if the engine type is
// invalid, if a mandatory method is missing, or if a driver is already registered for that tag.
func (r *Registry) Register(vtable *VTable) error {
	if vtable == nil {
		return errors.New("engine: vtable is nil")
	}

	if err := vtable.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		r.drivers = make(map[EngineType]*VTable)
		r.initialized = true
	}

	if _, exists := r.drivers[vtable.EngineType]; exists {
		return errors.Wrapf(ErrAlreadyRegistered, "engine type %v", vtable.EngineType)
	}

	r.drivers[vtable.EngineType] = vtable

	return nil
}

// Lookup returns the VTable registered for tag, or ErrNoDriver.
func (r *Registry) Lookup(tag EngineType) (*VTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vtable, ok := r.drivers[tag]
	if !ok {
		return nil, errors.Wrapf(ErrNoDriver, "engine type %v", tag)
	}

	return vtable, nil
}

// Connect opens a new Handle for the given engine tag using the driver registered for it. It
// fails if config is nil, if tag isn't one of the known engines, or if no driver is registered
// for tag; otherwise it delegates to the driver's Connect.
func (r *Registry) Connect(ctx context.Context, tag EngineType, config *connstring.ConnectionConfig, designator string) (*Handle, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	if !tag.Valid() {
		return nil, errors.Wrapf(ErrUnknownEngine, "tag %v", tag)
	}

	vtable, err := r.Lookup(tag)
	if err != nil {
		return nil, err
	}

	if !vtable.IsAvailable {
		return nil, errors.Errorf("engine: driver for %v is registered but not available", tag)
	}

	handle, err := vtable.Connect(ctx, config, designator)
	if err != nil {
		return nil, errors.Wrapf(err, "can't connect to %v", tag)
	}

	return handle, nil
}

// Cleanup disconnects and releases handle. A nil handle is tolerated and treated as a no-op.
func (r *Registry) Cleanup(ctx context.Context, handle *Handle) error {
	if handle == nil {
		return nil
	}

	vtable, err := r.Lookup(handle.EngineType)
	if err != nil {
		return err
	}

	if err := vtable.Disconnect(ctx, handle); err != nil {
		return errors.Wrapf(err, "can't disconnect %v handle", handle.EngineType)
	}

	handle.SetStatus(Disconnected)

	return nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide Registry, lazily initialized on first use. Most callers that
// just need "the" engine registry (driver packages registering themselves via an init func,
// dbqueue connecting through it) should use this instead of constructing their own.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
