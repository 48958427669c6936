package draw

import (
	"errors"
	"testing"

	"github.com/Meziu/magma/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFactory hands out sequential resource tokens and records destroys and
// uniform writes.
type fakeFactory struct {
	next      int
	destroyed []any
	writes    map[any]int
	err       error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{writes: make(map[any]int)}
}

func (f *fakeFactory) CreateResources(pipelineName string, texture common.TextureStagingData) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	return f.next, nil
}

func (f *fakeFactory) WriteUniform(resources any, data []byte) {
	f.writes[resources]++
}

func (f *fakeFactory) DestroyResources(resources any) {
	f.destroyed = append(f.destroyed, resources)
}

func mustCreate(t *testing.T, r Registry, name string, z uint8) Handle {
	t.Helper()
	h, err := r.Create(EntitySpec{PipelineName: name, ZIndex: z})
	require.NoError(t, err)
	return h
}

func pipelineNames(items []DrawItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.PipelineName
	}
	return names
}

func TestVisibleOrderedByZThenCreation(t *testing.T) {
	r := NewRegistry(newFakeFactory())

	mustCreate(t, r, "c", 5)
	mustCreate(t, r, "a", 1)
	mustCreate(t, r, "d", 5)
	mustCreate(t, r, "b", 3)
	mustCreate(t, r, "e", 5)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, pipelineNames(r.Visible()))
}

func TestReleaseIsDeferredUntilReclaim(t *testing.T) {
	f := newFakeFactory()
	r := NewRegistry(f)

	h := mustCreate(t, r, "Sprite", 0)
	mustCreate(t, r, "Primitive", 1)

	h.Release()
	// Soft delete: still registered, no longer drawn, nothing freed yet.
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"Primitive"}, pipelineNames(r.Visible()))
	assert.Empty(t, f.destroyed)

	r.Reclaim()
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []any{1}, f.destroyed)

	// Idempotent once reclaimed.
	r.Reclaim()
	assert.Equal(t, 1, r.Len())
	assert.Len(t, f.destroyed, 1)
}

func TestCloneSharesOneReference(t *testing.T) {
	r := NewRegistry(newFakeFactory())

	h := mustCreate(t, r, "Sprite", 0)
	clone := h.Clone()

	h.Release()
	assert.True(t, clone.Live())
	r.Reclaim()
	assert.Equal(t, 1, r.Len())

	clone.Release()
	assert.False(t, clone.Live())
	r.Reclaim()
	assert.Equal(t, 0, r.Len())
}

func TestDoubleReleaseIsNoOp(t *testing.T) {
	r := NewRegistry(newFakeFactory())

	h := mustCreate(t, r, "Sprite", 0)
	clone := h.Clone()

	h.Release()
	h.Release()
	assert.True(t, clone.Live())
}

func TestInvisibleEntitySurvivesReclaim(t *testing.T) {
	r := NewRegistry(newFakeFactory())

	h := mustCreate(t, r, "Sprite", 0)
	h.SetVisible(false)

	assert.Empty(t, r.Visible())
	r.Reclaim()
	assert.Equal(t, 1, r.Len())
	assert.True(t, h.Live())

	h.SetVisible(true)
	assert.Len(t, r.Visible(), 1)
}

func TestFlushAllSkipsDeadEntities(t *testing.T) {
	f := newFakeFactory()
	r := NewRegistry(f)

	h1 := mustCreate(t, r, "Sprite", 0)
	h2 := mustCreate(t, r, "Sprite", 1)
	h2.SetVisible(false)
	h1.Release()

	r.FlushAll()
	assert.Equal(t, 0, f.writes[1])
	// Invisible but live entities are still flushed.
	assert.Equal(t, 1, f.writes[2])
}

func TestDropBeforeFirstFrame(t *testing.T) {
	f := newFakeFactory()
	r := NewRegistry(f)

	h := mustCreate(t, r, "Sprite", 0)
	h.Release()

	r.Reclaim()
	r.FlushAll()
	assert.Empty(t, r.Visible())
	assert.Equal(t, []any{1}, f.destroyed)
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	r := NewRegistry(newFakeFactory())

	h := mustCreate(t, r, "Sprite", 0)
	stale := h.Clone()
	h.Release()
	stale.Release()
	r.Reclaim()

	// The slot is reused by a new entity; the old handle must not reach it.
	replacement := mustCreate(t, r, "Primitive", 0)
	assert.False(t, stale.Live())
	stale.SetColor(common.Color{R: 1})
	assert.Equal(t, common.Color{}, replacement.Color())
}

func TestHandleAccessors(t *testing.T) {
	r := NewRegistry(newFakeFactory())

	h, err := r.Create(EntitySpec{
		PipelineName: "Primitive",
		Uniform: EntityUniform{
			Color: [4]float32{1, 1, 1, 1},
			Scale: [4]float32{1, 1, 0, 0},
		},
		ZIndex: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, common.White, h.Color())
	assert.Equal(t, uint8(7), h.ZIndex())

	h.SetColor(common.Color{R: 0.5, A: 1})
	h.SetPosition(common.Vec2{X: 3, Y: -2})
	h.SetScale(common.Vec2{X: 2, Y: 4})

	assert.Equal(t, common.Color{R: 0.5, A: 1}, h.Color())
	assert.Equal(t, common.Vec2{X: 3, Y: -2}, h.Position())
	assert.Equal(t, common.Vec2{X: 2, Y: 4}, h.Scale())

	h.Release()
	assert.Equal(t, common.Color{}, h.Color())
	assert.Equal(t, common.Vec2{}, h.Position())
	assert.Equal(t, uint8(0), h.ZIndex())
}

func TestCreateFactoryError(t *testing.T) {
	f := newFakeFactory()
	f.err = errors.New("out of memory")
	r := NewRegistry(f)

	_, err := r.Create(EntitySpec{PipelineName: "Sprite"})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestReleaseDestroysEverything(t *testing.T) {
	f := newFakeFactory()
	r := NewRegistry(f)

	mustCreate(t, r, "Sprite", 0)
	mustCreate(t, r, "Primitive", 1)

	r.Release()
	assert.ElementsMatch(t, []any{1, 2}, f.destroyed)
}

func TestEntityUniformMarshalLayout(t *testing.T) {
	u := EntityUniform{
		Color:           [4]float32{1, 0, 0, 1},
		GlobalPosition:  [4]float32{2, 3, 0, 0},
		Scale:           [4]float32{4, 5, 0, 0},
		ImageDimensions: [4]uint32{64, 32, 0, 0},
	}

	buf := u.Marshal()
	require.Len(t, buf, 64)
	assert.Equal(t, u.Size(), len(buf))

	// Spot-check offsets: Color.r, GlobalPosition.y, ImageDimensions.x.
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[0:4])
	assert.Equal(t, []byte{0, 0, 0x40, 0x40}, buf[20:24])
	assert.Equal(t, []byte{64, 0, 0, 0}, buf[48:52])
}
