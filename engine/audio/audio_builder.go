package audio

import "github.com/faiface/beep"

// MixerBuilderOption is a functional option for configuring an engineMixer.
// Use the With* functions to create options.
type MixerBuilderOption func(m *engineMixer)

// WithSampleRate sets the speaker output sample rate.
//
// Parameters:
//   - rate: samples per second (default 44100)
//
// Returns:
//   - MixerBuilderOption: option function to apply
func WithSampleRate(rate int) MixerBuilderOption {
	return func(m *engineMixer) {
		m.sampleRate = beep.SampleRate(rate)
	}
}
