package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler returns a canned handle or error.
type fakeCompiler struct {
	err     error
	handles int
}

func (f *fakeCompiler) CompileRenderPipeline(name, vertexSource, fragmentSource string) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.handles++
	return f.handles, nil
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry(&fakeCompiler{})
	require.NoError(t, r.Register("Sprite", "vs", "fs"))
	require.NoError(t, r.Register("Primitive", "vs", "fs"))

	assert.Equal(t, "Sprite", r.Get("Sprite").Name())
	assert.Equal(t, 1, r.Get("Sprite").Pipeline())
	assert.Equal(t, 2, r.Get("Primitive").Pipeline())
	assert.Equal(t, []string{"Sprite", "Primitive"}, r.Names())
}

func TestGetUnknownNamePanics(t *testing.T) {
	r := NewRegistry(&fakeCompiler{})
	assert.Panics(t, func() {
		r.Get("Missing")
	})
}

func TestRegisterAfterSealFails(t *testing.T) {
	r := NewRegistry(&fakeCompiler{})
	require.NoError(t, r.Register("Sprite", "vs", "fs"))
	r.Seal()

	assert.Error(t, r.Register("Primitive", "vs", "fs"))
	// The sealed registry still serves lookups.
	assert.Equal(t, "Sprite", r.Get("Sprite").Name())
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry(&fakeCompiler{})
	require.NoError(t, r.Register("Sprite", "vs", "fs"))
	assert.Error(t, r.Register("Sprite", "vs", "fs"))
}

func TestRegisterCompileError(t *testing.T) {
	compileErr := errors.New("bad wgsl")
	r := NewRegistry(&fakeCompiler{err: compileErr})

	err := r.Register("Sprite", "vs", "fs")
	assert.ErrorIs(t, err, compileErr)
	assert.Panics(t, func() { r.Get("Sprite") })
}
