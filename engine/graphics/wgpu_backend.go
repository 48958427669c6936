package graphics

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Meziu/magma/common"
	"github.com/Meziu/magma/engine/graphics/device"
	"github.com/Meziu/magma/engine/graphics/swapchain"
	"github.com/cogentcore/webgpu/wgpu"
)

// quadVertices is the unit quad every entity draws: corner positions in
// counter-clockwise winding.
var quadVertices = [8]float32{
	-1, -1,
	-1, 1,
	1, 1,
	1, -1,
}

// quadIndices splits the quad into two triangles.
var quadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// entityResources bundles the GPU objects backing one drawable entity.
type entityResources struct {
	uniformBuffer *wgpu.Buffer
	texture       *wgpu.Texture
	textureView   *wgpu.TextureView
	sampler       *wgpu.Sampler
	bindGroup     *wgpu.BindGroup
}

// wgpuBackendImpl is the WebGPU implementation of the Backend interface.
// All GPU object creation and frame recording lives here; the rest of the
// renderer never touches wgpu types directly.
type wgpuBackendImpl struct {
	mu  *sync.Mutex
	ctx device.Context

	surfaceFormat *wgpu.TextureFormat
	maxDimension  uint32

	globalBuffer    *wgpu.Buffer
	globalLayout    *wgpu.BindGroupLayout
	globalBindGroup *wgpu.BindGroup
	entityLayout    *wgpu.BindGroupLayout

	quadVertexBuffer *wgpu.Buffer
	quadIndexBuffer  *wgpu.Buffer

	// Frame state between BeginFrame and EndFrame.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Backend = &wgpuBackendImpl{}

// newWGPUBackend creates the backend's long-lived GPU objects: the global
// uniform buffer and bind group, the entity bind group layout, and the shared
// quad mesh.
func newWGPUBackend(ctx device.Context) (Backend, error) {
	b := &wgpuBackendImpl{
		mu:           &sync.Mutex{},
		ctx:          ctx,
		maxDimension: ctx.Device().GetLimits().Limits.MaxTextureDimension2D,
	}

	var global GlobalUniform
	globalBuffer, err := ctx.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Global Uniform Buffer",
		Size:  uint64(global.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create global uniform buffer: %w", err)
	}
	b.globalBuffer = globalBuffer

	globalLayout, err := ctx.Device().CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Global Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(global.Size()),
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	b.globalLayout = globalLayout

	globalBindGroup, err := ctx.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Global Bind Group",
		Layout: globalLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  globalBuffer,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	b.globalBindGroup = globalBindGroup

	var entityUniformSize uint64 = 64
	entityLayout, err := ctx.Device().CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Entity Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: entityUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	b.entityLayout = entityLayout

	vertexBuffer, err := ctx.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Quad Vertex Buffer",
		Size:  uint64(len(quadVertices) * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.quadVertexBuffer = vertexBuffer
	ctx.Queue().WriteBuffer(vertexBuffer, 0, common.StructToBytes(&quadVertices))

	indexBuffer, err := ctx.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Quad Index Buffer",
		Size:  uint64(len(quadIndices) * 2),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.quadIndexBuffer = indexBuffer
	ctx.Queue().WriteBuffer(indexBuffer, 0, common.StructToBytes(&quadIndices))

	return b, nil
}

func (b *wgpuBackendImpl) ConfigureSurface(width, height, imageCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width > b.maxDimension || height > b.maxDimension {
		return fmt.Errorf("%dx%d exceeds device limit %d: %w",
			width, height, b.maxDimension, swapchain.ErrUnsupportedDimensions)
	}

	capabilities := b.ctx.Surface().GetCapabilities(b.ctx.Adapter())
	b.surfaceFormat = &capabilities.Formats[0]

	// wgpu-native sizes the image chain from the present mode; the requested
	// count selects between double buffering (FIFO) and triple (Mailbox).
	presentMode := wgpu.PresentModeFifo
	if imageCount > 2 {
		presentMode = wgpu.PresentModeMailbox
	}

	b.ctx.Surface().Configure(b.ctx.Adapter(), b.ctx.Device(), &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	return nil
}

func (b *wgpuBackendImpl) CompileRenderPipeline(name, vertexSource, fragmentSource string) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return nil, fmt.Errorf("surface must be configured before compiling pipeline %q", name)
	}

	vs, err := b.ctx.Device().CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name + " Vertex Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexSource,
		},
	})
	if err != nil {
		return nil, err
	}

	// Both stages usually share one WGSL source; reuse the module then.
	fs := vs
	if fragmentSource != vertexSource {
		fs, err = b.ctx.Device().CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label: name + " Fragment Shader",
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: fragmentSource,
			},
		})
		if err != nil {
			return nil, err
		}
	}

	pipelineLayout, err := b.ctx.Device().CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.globalLayout, b.entityLayout},
	})
	if err != nil {
		return nil, err
	}

	created, err := b.ctx.Device().CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  name + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x2,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: *b.surfaceFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (b *wgpuBackendImpl) CreateResources(pipelineName string, texture common.TextureStagingData) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Untextured entities sample a 1x1 white texel so every pipeline shares
	// one bind group layout.
	if len(texture.Pixels) == 0 {
		texture = common.TextureStagingData{
			Pixels: []byte{0xff, 0xff, 0xff, 0xff},
			Width:  1,
			Height: 1,
		}
	}

	res := &entityResources{}
	cleanup := func() {
		b.destroyResourcesLocked(res)
	}

	var entityUniform uint64 = 64
	uniformBuffer, err := b.ctx.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: pipelineName + " Entity Uniform Buffer",
		Size:  entityUniform,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	res.uniformBuffer = uniformBuffer

	tex, err := b.ctx.Device().CreateTexture(&wgpu.TextureDescriptor{
		Label:     pipelineName + " Entity Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              texture.Width,
			Height:             texture.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	res.texture = tex

	b.ctx.Queue().WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		texture.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  texture.Width * 4,
			RowsPerImage: texture.Height,
		},
		&wgpu.Extent3D{
			Width:              texture.Width,
			Height:             texture.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		cleanup()
		return nil, err
	}
	res.textureView = view

	sampler, err := b.ctx.Device().CreateSampler(&wgpu.SamplerDescriptor{
		Label:         pipelineName + " Entity Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	res.sampler = sampler

	bindGroup, err := b.ctx.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  pipelineName + " Entity Bind Group",
		Layout: b.entityLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  uniformBuffer,
				Size:    wgpu.WholeSize,
			},
			{
				Binding:     1,
				TextureView: view,
			},
			{
				Binding: 2,
				Sampler: sampler,
			},
		},
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	res.bindGroup = bindGroup

	return res, nil
}

func (b *wgpuBackendImpl) WriteUniform(resources any, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := resources.(*entityResources)
	b.ctx.Queue().WriteBuffer(res.uniformBuffer, 0, data)
}

func (b *wgpuBackendImpl) WriteGlobalUniform(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ctx.Queue().WriteBuffer(b.globalBuffer, 0, data)
}

func (b *wgpuBackendImpl) DestroyResources(resources any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.destroyResourcesLocked(resources.(*entityResources))
}

// destroyResourcesLocked releases whatever parts of an entity's resources
// exist. Callers must hold b.mu.
func (b *wgpuBackendImpl) destroyResourcesLocked(res *entityResources) {
	if res.bindGroup != nil {
		res.bindGroup.Release()
	}
	if res.sampler != nil {
		res.sampler.Release()
	}
	if res.textureView != nil {
		res.textureView.Release()
	}
	if res.texture != nil {
		res.texture.Release()
	}
	if res.uniformBuffer != nil {
		res.uniformBuffer.Release()
	}
	*res = entityResources{}
}

// classifyAcquire maps surface staleness reports onto ErrOutOfDate so the
// scheduler can skip the frame and rebuild; anything else passes through.
func classifyAcquire(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "outdated") || strings.Contains(msg, "out of date") ||
		strings.Contains(msg, "lost") || strings.Contains(msg, "suboptimal") {
		return fmt.Errorf("%v: %w", err, ErrOutOfDate)
	}
	return err
}

func (b *wgpuBackendImpl) BeginFrame(viewport swapchain.Viewport) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.ctx.Surface().GetCurrentTexture()
	if err != nil {
		return classifyAcquire(err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.ctx.Device().CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: 0.0, G: 0.0, B: 0.0, A: 1.0,
				},
			},
		},
	})
	pass.SetViewport(viewport.X, viewport.Y, viewport.Width, viewport.Height, 0, 1)

	// The quad mesh and global bind group are shared by every draw; binding
	// them once per pass is valid across pipeline switches.
	pass.SetBindGroup(0, b.globalBindGroup, nil)
	pass.SetVertexBuffer(0, b.quadVertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(b.quadIndexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuBackendImpl) Draw(pipelineHandle any, resources any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}

	renderPipeline := pipelineHandle.(*wgpu.RenderPipeline)
	res := resources.(*entityResources)

	b.framePass.SetPipeline(renderPipeline)
	b.framePass.SetBindGroup(1, res.bindGroup, nil)
	b.framePass.DrawIndexed(uint32(len(quadIndices)), 1, 0, 0, 0)
}

func (b *wgpuBackendImpl) EndFrame() (Completion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	releaseFrame := func() {
		if b.frameView != nil {
			b.frameView.Release()
			b.frameView = nil
		}
		if b.frameSurface != nil {
			b.frameSurface.Release()
			b.frameSurface = nil
		}
	}

	b.framePass.End()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		releaseFrame()
		return nil, err
	}

	index := b.ctx.Queue().Submit(commandBuffer)
	commandBuffer.Release()

	b.ctx.Surface().Present()
	releaseFrame()

	return &gpuCompletion{
		device: b.ctx.Device(),
		index: &wgpu.WrappedSubmissionIndex{
			Queue:           b.ctx.Queue(),
			SubmissionIndex: index,
		},
	}, nil
}

func (b *wgpuBackendImpl) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ctx.Device().Poll(false, nil)
}

func (b *wgpuBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.quadIndexBuffer != nil {
		b.quadIndexBuffer.Release()
		b.quadIndexBuffer = nil
	}
	if b.quadVertexBuffer != nil {
		b.quadVertexBuffer.Release()
		b.quadVertexBuffer = nil
	}
	if b.entityLayout != nil {
		b.entityLayout.Release()
		b.entityLayout = nil
	}
	if b.globalBindGroup != nil {
		b.globalBindGroup.Release()
		b.globalBindGroup = nil
	}
	if b.globalLayout != nil {
		b.globalLayout.Release()
		b.globalLayout = nil
	}
	if b.globalBuffer != nil {
		b.globalBuffer.Release()
		b.globalBuffer = nil
	}
}

// gpuCompletion tracks one queue submission and resolves by polling the
// device until the submission retires.
type gpuCompletion struct {
	device *wgpu.Device
	index  *wgpu.WrappedSubmissionIndex
}

var _ Completion = &gpuCompletion{}

func (c *gpuCompletion) Wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if c.device.Poll(false, c.index) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("GPU work did not complete within %v", timeout)
		}
		time.Sleep(100 * time.Microsecond)
	}
}
