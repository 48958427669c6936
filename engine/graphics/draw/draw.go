// Package draw owns the registry of drawable entities: sprites and colored
// primitives. Entities live in an arena owned by the registry; external code
// holds lightweight generation-checked handles whose release soft-deletes the
// entity. GPU resources for dead entities are freed only during Reclaim, the
// single deallocation point of the frame loop.
//
// The registry is not safe for concurrent use: all access happens on the one
// thread driving the frame loop.
package draw

import (
	"fmt"
	"sort"

	"github.com/Meziu/magma/common"
)

// Flags is the per-entity bit-flag set.
type Flags uint8

const (
	// FlagUsed marks the entity as live; an entity without it is dead and
	// will be removed on the next Reclaim.
	FlagUsed Flags = 1 << iota

	// FlagVisible gates inclusion in the draw pass without destroying the
	// entity.
	FlagVisible
)

// ResourceFactory allocates and destroys the GPU resources backing an entity.
// Implemented by the renderer backend; faked in tests.
type ResourceFactory interface {
	// CreateResources allocates the mesh, texture binding, and uniform
	// buffer for one entity.
	//
	// Parameters:
	//   - pipelineName: the pipeline the entity draws with
	//   - texture: the decoded texture to upload
	//
	// Returns:
	//   - any: an opaque resource handle owned by the registry
	//   - error: error if allocation fails
	CreateResources(pipelineName string, texture common.TextureStagingData) (any, error)

	// WriteUniform uploads per-entity uniform data to the entity's buffer.
	//
	// Parameters:
	//   - resources: the handle returned by CreateResources
	//   - data: the marshaled uniform bytes
	WriteUniform(resources any, data []byte)

	// DestroyResources frees the entity's GPU resources.
	//
	// Parameters:
	//   - resources: the handle returned by CreateResources
	DestroyResources(resources any)
}

// EntitySpec describes a drawable entity at creation time.
type EntitySpec struct {
	// PipelineName selects the pipeline the entity draws with.
	PipelineName string

	// Texture is the decoded image to upload as the entity's texture.
	Texture common.TextureStagingData

	// Uniform is the initial CPU-side uniform state.
	Uniform EntityUniform

	// ZIndex is the immutable draw-order key, lower drawn first.
	ZIndex uint8
}

// DrawItem is one draw call's worth of state, produced by Visible in z-order.
type DrawItem struct {
	// PipelineName selects the pipeline to bind.
	PipelineName string

	// Resources is the opaque handle from the ResourceFactory.
	Resources any
}

// entity is one arena slot's payload.
type entity struct {
	flags        Flags
	zIndex       uint8
	seq          uint64
	pipelineName string
	resources    any
	uniform      EntityUniform
}

// slot is one arena entry; gen invalidates stale handles after reuse.
type slot struct {
	ent  entity
	gen  uint32
	live bool
}

// Registry owns all drawable entities and their draw order.
type Registry interface {
	// Create allocates GPU resources for a new entity, inserts it in z-order,
	// and returns the first handle to it.
	//
	// Parameters:
	//   - spec: the entity description
	//
	// Returns:
	//   - Handle: a live handle to the new entity
	//   - error: error if GPU resource allocation fails
	Create(spec EntitySpec) (Handle, error)

	// Reclaim removes every entity whose liveness flag has been cleared,
	// releasing its GPU resources. Called once per frame before any GPU
	// work; this is the only point where dead entities' resources are freed.
	Reclaim()

	// FlushAll uploads every live entity's CPU-side uniform mirror to its
	// GPU buffer. Runs after external mutation for the frame and before
	// command recording.
	FlushAll()

	// Visible returns the draw list: every live, visible entity in z-order,
	// ties in creation order.
	//
	// Returns:
	//   - []DrawItem: the ordered draw list
	Visible() []DrawItem

	// Len returns the number of entities currently in the registry,
	// including dead ones awaiting Reclaim.
	//
	// Returns:
	//   - int: the entity count
	Len() int

	// Release destroys every remaining entity's GPU resources. The registry
	// must not be used afterwards.
	Release()
}

// drawRegistryImpl is the implementation of the Registry interface.
type drawRegistryImpl struct {
	factory ResourceFactory

	slots []slot
	free  []int

	// order holds slot indices sorted by (zIndex, seq); insertion is the
	// only place ordering work happens.
	order []int

	seq uint64
}

var _ Registry = &drawRegistryImpl{}

// NewRegistry creates an empty Registry backed by the given factory.
//
// Parameters:
//   - factory: the backend that allocates entity GPU resources
//
// Returns:
//   - Registry: the draw object registry
func NewRegistry(factory ResourceFactory) Registry {
	return &drawRegistryImpl{
		factory: factory,
	}
}

func (r *drawRegistryImpl) Create(spec EntitySpec) (Handle, error) {
	resources, err := r.factory.CreateResources(spec.PipelineName, spec.Texture)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity resources: %w", err)
	}

	r.seq++
	ent := entity{
		flags:        FlagUsed | FlagVisible,
		zIndex:       spec.ZIndex,
		seq:          r.seq,
		pipelineName: spec.PipelineName,
		resources:    resources,
		uniform:      spec.Uniform,
	}

	var index int
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[index].ent = ent
		r.slots[index].live = true
	} else {
		index = len(r.slots)
		r.slots = append(r.slots, slot{ent: ent, live: true})
	}

	// Stable z-order: insert after every existing entry with z <= new z.
	// seq is monotonic, so ties land in creation order.
	pos := sort.Search(len(r.order), func(i int) bool {
		return r.slots[r.order[i]].ent.zIndex > spec.ZIndex
	})
	r.order = append(r.order, 0)
	copy(r.order[pos+1:], r.order[pos:])
	r.order[pos] = index

	return &handleImpl{
		shared: &sharedRef{
			reg:   r,
			index: index,
			gen:   r.slots[index].gen,
			refs:  1,
		},
	}, nil
}

func (r *drawRegistryImpl) Reclaim() {
	kept := r.order[:0]
	for _, index := range r.order {
		s := &r.slots[index]
		if s.ent.flags&FlagUsed != 0 {
			kept = append(kept, index)
			continue
		}
		r.factory.DestroyResources(s.ent.resources)
		s.ent = entity{}
		s.gen++
		s.live = false
		r.free = append(r.free, index)
	}
	r.order = kept
}

func (r *drawRegistryImpl) FlushAll() {
	for _, index := range r.order {
		ent := &r.slots[index].ent
		if ent.flags&FlagUsed == 0 {
			continue
		}
		r.factory.WriteUniform(ent.resources, ent.uniform.Marshal())
	}
}

func (r *drawRegistryImpl) Visible() []DrawItem {
	items := make([]DrawItem, 0, len(r.order))
	for _, index := range r.order {
		ent := &r.slots[index].ent
		if ent.flags&FlagUsed == 0 || ent.flags&FlagVisible == 0 {
			continue
		}
		items = append(items, DrawItem{
			PipelineName: ent.pipelineName,
			Resources:    ent.resources,
		})
	}
	return items
}

func (r *drawRegistryImpl) Len() int {
	return len(r.order)
}

func (r *drawRegistryImpl) Release() {
	for _, index := range r.order {
		r.factory.DestroyResources(r.slots[index].ent.resources)
	}
	r.order = nil
	r.slots = nil
	r.free = nil
}

// resolve returns the entity for a handle reference if the slot is still the
// same generation and live, nil otherwise.
func (r *drawRegistryImpl) resolve(index int, gen uint32) *entity {
	if index >= len(r.slots) {
		return nil
	}
	s := &r.slots[index]
	if !s.live || s.gen != gen {
		return nil
	}
	return &s.ent
}
