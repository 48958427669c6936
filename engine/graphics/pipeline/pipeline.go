// Package pipeline holds the registry of named, compiled graphics pipelines.
// Pipelines are registered once at startup from vertex and fragment stage
// sources and are immutable for the process lifetime; a lookup of an unknown
// name is a programming mistake and panics.
package pipeline

import (
	"fmt"
)

// Compiler compiles a vertex/fragment stage pair into a backend pipeline
// object. Implemented by the renderer backend; faked in tests.
type Compiler interface {
	// CompileRenderPipeline builds a render pipeline from WGSL stage sources.
	//
	// Parameters:
	//   - name: the pipeline's registry name, used for labeling
	//   - vertexSource: the vertex stage WGSL source
	//   - fragmentSource: the fragment stage WGSL source
	//
	// Returns:
	//   - any: the underlying backend pipeline object
	//   - error: error if compilation fails
	CompileRenderPipeline(name, vertexSource, fragmentSource string) (any, error)
}

// Pipeline is an immutable, named compiled graphics pipeline.
type Pipeline interface {
	// Name returns the registry name of the pipeline.
	//
	// Returns:
	//   - string: the pipeline name
	Name() string

	// Pipeline returns the underlying backend pipeline object.
	// Note: The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - any: the underlying pipeline object
	Pipeline() any
}

// pipelineImpl is the implementation of the Pipeline interface.
type pipelineImpl struct {
	name   string
	handle any
}

var _ Pipeline = &pipelineImpl{}

func (p *pipelineImpl) Name() string {
	return p.name
}

func (p *pipelineImpl) Pipeline() any {
	return p.handle
}

// Registry maps pipeline names to compiled pipelines. Registration happens at
// startup only; after Seal the registry rejects further registration.
type Registry interface {
	// Register compiles and stores a pipeline under the given name.
	// Must be called before Seal.
	//
	// Parameters:
	//   - name: the pipeline name, unique within the registry
	//   - vertexSource: the vertex stage WGSL source
	//   - fragmentSource: the fragment stage WGSL source
	//
	// Returns:
	//   - error: error if the registry is sealed, the name is taken, or
	//     compilation fails
	Register(name, vertexSource, fragmentSource string) error

	// Get returns the pipeline registered under name. Panics on an unknown
	// name: startup-only registration means a miss is a configuration bug,
	// not a runtime condition.
	//
	// Parameters:
	//   - name: the pipeline name
	//
	// Returns:
	//   - Pipeline: the compiled pipeline
	Get(name string) Pipeline

	// Seal closes the registry to further registration.
	Seal()

	// Names returns the registered pipeline names in registration order.
	//
	// Returns:
	//   - []string: the pipeline names
	Names() []string
}

// pipelineRegistryImpl is the implementation of the Registry interface.
type pipelineRegistryImpl struct {
	compiler  Compiler
	pipelines map[string]Pipeline
	order     []string
	sealed    bool
}

var _ Registry = &pipelineRegistryImpl{}

// NewRegistry creates an empty Registry backed by the given compiler.
//
// Parameters:
//   - compiler: the backend that compiles stage sources
//
// Returns:
//   - Registry: the pipeline registry
func NewRegistry(compiler Compiler) Registry {
	return &pipelineRegistryImpl{
		compiler:  compiler,
		pipelines: make(map[string]Pipeline),
	}
}

func (r *pipelineRegistryImpl) Register(name, vertexSource, fragmentSource string) error {
	if r.sealed {
		return fmt.Errorf("pipeline registry is sealed, cannot register %q", name)
	}
	if _, exists := r.pipelines[name]; exists {
		return fmt.Errorf("pipeline %q is already registered", name)
	}

	handle, err := r.compiler.CompileRenderPipeline(name, vertexSource, fragmentSource)
	if err != nil {
		return fmt.Errorf("failed to compile pipeline %q: %w", name, err)
	}

	r.pipelines[name] = &pipelineImpl{name: name, handle: handle}
	r.order = append(r.order, name)
	return nil
}

func (r *pipelineRegistryImpl) Get(name string) Pipeline {
	p, ok := r.pipelines[name]
	if !ok {
		panic(fmt.Sprintf("no pipeline registered under %q", name))
	}
	return p
}

func (r *pipelineRegistryImpl) Seal() {
	r.sealed = true
}

func (r *pipelineRegistryImpl) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
