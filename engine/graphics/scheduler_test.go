package graphics

import (
	"errors"
	"testing"
	"time"

	"github.com/Meziu/magma/common"
	"github.com/Meziu/magma/engine/graphics/swapchain"
	"github.com/Meziu/magma/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow satisfies window.Window without a window system.
type fakeWindow struct {
	width, height int
}

func (w *fakeWindow) PollEvents() window.Events                  { return window.Events{} }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) Close() error                               { return nil }
func (w *fakeWindow) Width() int                                 { return w.width }
func (w *fakeWindow) Height() int                                { return w.height }

// fakeCompletion records waits and can time out.
type fakeCompletion struct {
	waits int
	err   error
}

func (c *fakeCompletion) Wait(timeout time.Duration) error {
	c.waits++
	return c.err
}

// fakeBackend is an in-memory Backend covering every scheduler path.
type fakeBackend struct {
	configures   []([3]uint32)
	configureErr error

	beginErr   error
	begins     int
	viewports  []swapchain.Viewport
	draws      [][2]any
	endErr     error
	ends       int
	completion *fakeCompletion
	cleanups   int

	nextResource int
	destroyed    []any
	globalWrites [][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{completion: &fakeCompletion{}}
}

func (b *fakeBackend) CompileRenderPipeline(name, vs, fs string) (any, error) {
	return "compiled:" + name, nil
}

func (b *fakeBackend) ConfigureSurface(width, height, imageCount uint32) error {
	if b.configureErr != nil {
		return b.configureErr
	}
	b.configures = append(b.configures, [3]uint32{width, height, imageCount})
	return nil
}

func (b *fakeBackend) CreateResources(pipelineName string, texture common.TextureStagingData) (any, error) {
	b.nextResource++
	return b.nextResource, nil
}

func (b *fakeBackend) WriteUniform(resources any, data []byte) {}

func (b *fakeBackend) DestroyResources(resources any) {
	b.destroyed = append(b.destroyed, resources)
}

func (b *fakeBackend) WriteGlobalUniform(data []byte) {
	b.globalWrites = append(b.globalWrites, data)
}

func (b *fakeBackend) BeginFrame(viewport swapchain.Viewport) error {
	if b.beginErr != nil {
		return b.beginErr
	}
	b.begins++
	b.viewports = append(b.viewports, viewport)
	b.draws = nil
	return nil
}

func (b *fakeBackend) Draw(pipelineHandle any, resources any) {
	b.draws = append(b.draws, [2]any{pipelineHandle, resources})
}

func (b *fakeBackend) EndFrame() (Completion, error) {
	if b.endErr != nil {
		return nil, b.endErr
	}
	b.ends++
	return b.completion, nil
}

func (b *fakeBackend) Cleanup() {
	b.cleanups++
}

func (b *fakeBackend) Release() {}

func newTestGraphics(t *testing.T, backend Backend) Graphics {
	t.Helper()
	g, err := NewGraphics(&fakeWindow{width: 800, height: 600}, WithBackend(backend))
	require.NoError(t, err)
	return g
}

func TestUpdateDrawsVisibleEntitiesInOrder(t *testing.T) {
	b := newFakeBackend()
	g := newTestGraphics(t, b)

	_, err := g.NewRectangle(common.Vec2{X: 1, Y: 1}, common.White, common.Vec2{}, 5)
	require.NoError(t, err)
	_, err = g.NewRectangle(common.Vec2{X: 1, Y: 1}, common.White, common.Vec2{}, 1)
	require.NoError(t, err)

	require.NoError(t, g.Update(false))

	require.Len(t, b.draws, 2)
	// z=1 rectangle (second created, resource 2) draws first.
	assert.Equal(t, [2]any{"compiled:Primitive", 2}, b.draws[0])
	assert.Equal(t, [2]any{"compiled:Primitive", 1}, b.draws[1])
	assert.Equal(t, 1, b.ends)
	assert.Equal(t, 1, b.completion.waits)
	assert.Equal(t, 1, b.cleanups)
	require.NotEmpty(t, b.globalWrites)

	w, h := g.WindowSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
}

func TestUpdateSkipsWhenAcquireOutOfDate(t *testing.T) {
	b := newFakeBackend()
	g := newTestGraphics(t, b)
	baseline := len(b.configures)

	b.beginErr = ErrOutOfDate
	require.NoError(t, g.Update(false))
	assert.Equal(t, 0, b.ends)
	assert.Equal(t, 0, b.cleanups)

	// The chain was marked stale: the next update rebuilds, then draws.
	b.beginErr = nil
	require.NoError(t, g.Update(false))
	assert.Len(t, b.configures, baseline+1)
	assert.Equal(t, 1, b.ends)
}

func TestUpdateSkipsWhenPresentOutOfDate(t *testing.T) {
	b := newFakeBackend()
	g := newTestGraphics(t, b)
	baseline := len(b.configures)

	b.endErr = ErrOutOfDate
	require.NoError(t, g.Update(false))
	assert.Equal(t, 0, b.completion.waits)

	b.endErr = nil
	require.NoError(t, g.Update(false))
	assert.Len(t, b.configures, baseline+1)
	assert.Equal(t, 1, b.completion.waits)
}

func TestUpdateDropsFrameOnSubmitError(t *testing.T) {
	b := newFakeBackend()
	g := newTestGraphics(t, b)
	baseline := len(b.configures)

	b.endErr = errors.New("device queue rejected submission")
	require.NoError(t, g.Update(false))

	// No rebuild is pending: the chain itself is fine.
	b.endErr = nil
	require.NoError(t, g.Update(false))
	assert.Len(t, b.configures, baseline)
	assert.Equal(t, 1, b.ends)
}

func TestUpdateFatalOnCompletionTimeout(t *testing.T) {
	b := newFakeBackend()
	g := newTestGraphics(t, b)

	b.completion.err = errors.New("timed out")
	assert.Error(t, g.Update(false))
}

func TestResizeRebuildsExactlyOnce(t *testing.T) {
	b := newFakeBackend()
	win := &fakeWindow{width: 800, height: 600}
	g, err := NewGraphics(win, WithBackend(b))
	require.NoError(t, err)
	baseline := len(b.configures)

	win.width, win.height = 1024, 768
	require.NoError(t, g.Update(true))

	require.Len(t, b.configures, baseline+1)
	assert.Equal(t, [3]uint32{1024, 768, 2}, b.configures[baseline])
	assert.Equal(t, swapchain.Viewport{Width: 1024, Height: 768}, b.viewports[len(b.viewports)-1])

	// Steady state afterwards: no further rebuilds.
	require.NoError(t, g.Update(false))
	assert.Len(t, b.configures, baseline+1)
}

func TestUnsupportedResizeSkipsUntilSupported(t *testing.T) {
	b := newFakeBackend()
	win := &fakeWindow{width: 800, height: 600}
	g, err := NewGraphics(win, WithBackend(b))
	require.NoError(t, err)
	baseline := len(b.configures)

	b.configureErr = swapchain.ErrUnsupportedDimensions
	win.width, win.height = 99999, 99999
	require.NoError(t, g.Update(true))
	assert.Equal(t, 0, b.ends)
	assert.Len(t, b.configures, baseline)

	b.configureErr = nil
	win.width, win.height = 1024, 768
	require.NoError(t, g.Update(true))
	assert.Len(t, b.configures, baseline+1)
	assert.Equal(t, 1, b.ends)
}

func TestReleasedEntityFreedOnNextUpdate(t *testing.T) {
	b := newFakeBackend()
	g := newTestGraphics(t, b)

	h, err := g.NewRectangle(common.Vec2{X: 1, Y: 1}, common.White, common.Vec2{}, 0)
	require.NoError(t, err)
	h.Release()

	require.NoError(t, g.Update(false))
	assert.Equal(t, []any{1}, b.destroyed)
	assert.Empty(t, b.draws)
}

func TestCameraState(t *testing.T) {
	g := newTestGraphics(t, newFakeBackend())

	assert.Equal(t, common.Vec2{X: 1, Y: 1}, g.CameraScale())

	g.SetCameraPosition(common.Vec2{X: 10, Y: -4})
	g.SetCameraScale(common.Vec2{X: 2, Y: -2})
	assert.Equal(t, common.Vec2{X: 10, Y: -4}, g.CameraPosition())
	assert.Equal(t, common.Vec2{X: 2, Y: -2}, g.CameraScale())
}

func TestGlobalUniformMarshalLayout(t *testing.T) {
	u := GlobalUniform{
		WindowSize:     [4]uint32{800, 600, 0, 0},
		CameraPosition: [4]float32{1, 2, 0, 0},
		CameraScale:    [4]float32{1, -1, 0, 0},
	}

	buf := u.Marshal()
	require.Len(t, buf, 48)
	assert.Equal(t, u.Size(), len(buf))
	assert.Equal(t, []byte{0x20, 0x03, 0, 0}, buf[0:4])          // window width 800
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[16:20])        // camera x = 1.0
	assert.Equal(t, []byte{0, 0, 0x80, 0xbf}, buf[36:40])        // camera scale y = -1.0
}
