// Package shaders embeds the WGSL stage sources for the built-in pipelines.
// Each source file holds both the vertex (vs_main) and fragment (fs_main)
// entry points for its pipeline.
package shaders

import (
	_ "embed"
)

const (
	// SpriteName is the registry name of the textured quad pipeline.
	SpriteName = "Sprite"

	// PrimitiveName is the registry name of the solid-color quad pipeline.
	PrimitiveName = "Primitive"

	// VertexEntryPoint is the vertex stage entry point in every source.
	VertexEntryPoint = "vs_main"

	// FragmentEntryPoint is the fragment stage entry point in every source.
	FragmentEntryPoint = "fs_main"
)

// SpriteSource is the WGSL source for the textured sprite pipeline.
//
//go:embed sprite.wgsl
var SpriteSource string

// PrimitiveSource is the WGSL source for the solid-color primitive pipeline.
//
//go:embed primitive.wgsl
var PrimitiveSource string
