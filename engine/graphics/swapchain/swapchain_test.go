package swapchain

import (
	"errors"
	"testing"

	"github.com/Meziu/magma/engine/graphics/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConfigurer records configurations and can reject them.
type fakeConfigurer struct {
	calls []configureCall
	err   error
}

type configureCall struct {
	width, height, imageCount uint32
}

func (f *fakeConfigurer) ConfigureSurface(width, height, imageCount uint32) error {
	f.calls = append(f.calls, configureCall{width, height, imageCount})
	return f.err
}

func TestComputeImageCount(t *testing.T) {
	assert.Equal(t, uint32(2), computeImageCount(device.Caps{MinImageCount: 2, MaxImageCount: 3}))
	assert.Equal(t, uint32(4), computeImageCount(device.Caps{MinImageCount: 4}))
	assert.Equal(t, uint32(2), computeImageCount(device.Caps{MinImageCount: 1, MaxImageCount: 3}))
	assert.Equal(t, uint32(3), computeImageCount(device.Caps{MinImageCount: 5, MaxImageCount: 3}))
}

func TestValidateBuildsChainOnce(t *testing.T) {
	cfg := &fakeConfigurer{}
	m := NewManager(cfg, device.Caps{MinImageCount: 2, MaxImageCount: 3}, 800, 600)

	assert.False(t, m.Valid())
	require.NoError(t, m.Validate())
	assert.True(t, m.Valid())

	// Already valid: no further configuration.
	require.NoError(t, m.Validate())
	assert.Len(t, cfg.calls, 1)
	assert.Equal(t, configureCall{800, 600, 2}, cfg.calls[0])
}

func TestResizeRebuildsViewportAndFramebuffers(t *testing.T) {
	cfg := &fakeConfigurer{}
	m := NewManager(cfg, device.Caps{MinImageCount: 2, MaxImageCount: 3}, 800, 600)
	require.NoError(t, m.Validate())

	m.Resize(1920, 1080)
	assert.False(t, m.Valid())
	require.NoError(t, m.Validate())

	assert.Len(t, cfg.calls, 2)
	assert.Equal(t, Viewport{Width: 1920, Height: 1080}, m.Viewport())
	require.Len(t, m.Framebuffers(), int(m.ImageCount()))
	for i, fb := range m.Framebuffers() {
		assert.Equal(t, uint32(i), fb.Index)
		assert.Equal(t, uint32(1920), fb.Width)
		assert.Equal(t, uint32(1080), fb.Height)
	}
}

func TestValidateSoftFailureKeepsPending(t *testing.T) {
	cfg := &fakeConfigurer{err: ErrUnsupportedDimensions}
	m := NewManager(cfg, device.Caps{MinImageCount: 2, MaxImageCount: 3}, 800, 600)

	err := m.Validate()
	assert.ErrorIs(t, err, ErrFrameSkipped)
	assert.False(t, m.Valid())

	// The size becomes supported again: the retry succeeds.
	cfg.err = nil
	require.NoError(t, m.Validate())
	assert.True(t, m.Valid())
	assert.Len(t, cfg.calls, 2)
}

func TestValidateFatalFailure(t *testing.T) {
	cfg := &fakeConfigurer{err: errors.New("device lost")}
	m := NewManager(cfg, device.Caps{MinImageCount: 2, MaxImageCount: 3}, 800, 600)

	err := m.Validate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFrameSkipped)
}

func TestValidateZeroExtentSkips(t *testing.T) {
	cfg := &fakeConfigurer{}
	m := NewManager(cfg, device.Caps{MinImageCount: 2, MaxImageCount: 3}, 800, 600)
	require.NoError(t, m.Validate())

	m.Resize(0, 0) // minimized
	assert.ErrorIs(t, m.Validate(), ErrFrameSkipped)
	assert.Empty(t, cfg.calls[1:])

	m.Resize(800, 600)
	require.NoError(t, m.Validate())
}

func TestMarkStaleForcesRebuildAtCurrentSize(t *testing.T) {
	cfg := &fakeConfigurer{}
	m := NewManager(cfg, device.Caps{MinImageCount: 2, MaxImageCount: 3}, 800, 600)
	require.NoError(t, m.Validate())

	m.MarkStale()
	require.NoError(t, m.Validate())

	assert.Len(t, cfg.calls, 2)
	assert.Equal(t, cfg.calls[0], cfg.calls[1])
}
