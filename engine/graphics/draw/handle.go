package draw

import (
	"github.com/Meziu/magma/common"
)

// Handle is a shared, cloneable reference to a drawable entity. Clones share
// one reference count; releasing the last one soft-deletes the entity (clears
// its liveness flag) without freeing GPU resources, which happens on the
// registry's next Reclaim. A released handle's accessors return zero values
// and its setters do nothing.
type Handle interface {
	// Clone returns a new handle sharing this handle's reference count.
	//
	// Returns:
	//   - Handle: the new handle
	Clone() Handle

	// Release drops this handle's reference. Releasing the last reference
	// soft-deletes the entity. Releasing twice is a no-op.
	Release()

	// Live reports whether the underlying entity still exists and this
	// handle has not been released.
	//
	// Returns:
	//   - bool: true if the entity is addressable through this handle
	Live() bool

	// Visible reports whether the entity is included in the draw pass.
	//
	// Returns:
	//   - bool: the visibility flag
	Visible() bool

	// SetVisible includes or excludes the entity from the draw pass without
	// destroying it.
	//
	// Parameters:
	//   - visible: the new visibility
	SetVisible(visible bool)

	// Color returns the entity's color.
	//
	// Returns:
	//   - common.Color: the current color
	Color() common.Color

	// SetColor sets the entity's color.
	//
	// Parameters:
	//   - c: the new color
	SetColor(c common.Color)

	// Position returns the entity's world position.
	//
	// Returns:
	//   - common.Vec2: the current position
	Position() common.Vec2

	// SetPosition sets the entity's world position.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p common.Vec2)

	// Scale returns the entity's scale.
	//
	// Returns:
	//   - common.Vec2: the current scale
	Scale() common.Vec2

	// SetScale sets the entity's scale.
	//
	// Parameters:
	//   - s: the new scale
	SetScale(s common.Vec2)

	// ZIndex returns the entity's immutable draw-order key.
	//
	// Returns:
	//   - uint8: the z-index
	ZIndex() uint8
}

// sharedRef is the reference count shared by all clones of one handle.
type sharedRef struct {
	reg   *drawRegistryImpl
	index int
	gen   uint32
	refs  int
}

// handleImpl is the implementation of the Handle interface.
type handleImpl struct {
	shared   *sharedRef
	released bool
}

var _ Handle = &handleImpl{}

// entity resolves the underlying entity, nil if the handle is released or the
// slot was reclaimed and reused.
func (h *handleImpl) entity() *entity {
	if h.released {
		return nil
	}
	return h.shared.reg.resolve(h.shared.index, h.shared.gen)
}

func (h *handleImpl) Clone() Handle {
	if h.released {
		return &handleImpl{shared: h.shared, released: true}
	}
	h.shared.refs++
	return &handleImpl{shared: h.shared}
}

func (h *handleImpl) Release() {
	if h.released {
		return
	}
	h.released = true
	h.shared.refs--
	if h.shared.refs > 0 {
		return
	}
	if ent := h.shared.reg.resolve(h.shared.index, h.shared.gen); ent != nil {
		ent.flags &^= FlagUsed
	}
}

func (h *handleImpl) Live() bool {
	ent := h.entity()
	return ent != nil && ent.flags&FlagUsed != 0
}

func (h *handleImpl) Visible() bool {
	ent := h.entity()
	return ent != nil && ent.flags&FlagVisible != 0
}

func (h *handleImpl) SetVisible(visible bool) {
	ent := h.entity()
	if ent == nil {
		return
	}
	if visible {
		ent.flags |= FlagVisible
	} else {
		ent.flags &^= FlagVisible
	}
}

func (h *handleImpl) Color() common.Color {
	ent := h.entity()
	if ent == nil {
		return common.Color{}
	}
	u := ent.uniform.Color
	return common.Color{R: u[0], G: u[1], B: u[2], A: u[3]}
}

func (h *handleImpl) SetColor(c common.Color) {
	ent := h.entity()
	if ent == nil {
		return
	}
	ent.uniform.Color = [4]float32{c.R, c.G, c.B, c.A}
}

func (h *handleImpl) Position() common.Vec2 {
	ent := h.entity()
	if ent == nil {
		return common.Vec2{}
	}
	return common.Vec2{X: ent.uniform.GlobalPosition[0], Y: ent.uniform.GlobalPosition[1]}
}

func (h *handleImpl) SetPosition(p common.Vec2) {
	ent := h.entity()
	if ent == nil {
		return
	}
	ent.uniform.GlobalPosition[0] = p.X
	ent.uniform.GlobalPosition[1] = p.Y
}

func (h *handleImpl) Scale() common.Vec2 {
	ent := h.entity()
	if ent == nil {
		return common.Vec2{}
	}
	return common.Vec2{X: ent.uniform.Scale[0], Y: ent.uniform.Scale[1]}
}

func (h *handleImpl) SetScale(s common.Vec2) {
	ent := h.entity()
	if ent == nil {
		return
	}
	ent.uniform.Scale[0] = s.X
	ent.uniform.Scale[1] = s.Y
}

func (h *handleImpl) ZIndex() uint8 {
	ent := h.entity()
	if ent == nil {
		return 0
	}
	return ent.zIndex
}
