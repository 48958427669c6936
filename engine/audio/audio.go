// Package audio provides sound effect and music playback for the engine.
// Sound effects are decoded fully into memory at load time so triggering them
// is allocation-free; music is streamed from disk with independent pause and
// volume control.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// Mixer manages sound effect and music playback.
type Mixer interface {
	// LoadSFX decodes an audio file into memory and registers it under the given name.
	// Supported formats are wav, ogg and mp3, selected by file extension.
	//
	// Parameters:
	//   - name: identifier used to trigger the effect later
	//   - path: path to the audio file
	//
	// Returns:
	//   - error: error if the file cannot be opened or decoded
	LoadSFX(name, path string) error

	// PlaySFX plays a previously loaded sound effect. Multiple plays of the
	// same effect overlap freely.
	//
	// Parameters:
	//   - name: identifier passed to LoadSFX
	//
	// Returns:
	//   - error: error if no effect is registered under name
	PlaySFX(name string) error

	// PlayMusic streams an audio file as background music, replacing any
	// music currently playing.
	//
	// Parameters:
	//   - path: path to the audio file
	//   - loop: whether to loop the track indefinitely
	//
	// Returns:
	//   - error: error if the file cannot be opened or decoded
	PlayMusic(path string, loop bool) error

	// SetMusicPaused pauses or resumes the current music track.
	//
	// Parameters:
	//   - paused: true to pause, false to resume
	SetMusicPaused(paused bool)

	// SetMusicVolume adjusts the music volume.
	//
	// Parameters:
	//   - volume: volume in the range [0, 1], where 0 silences the track
	SetMusicVolume(volume float64)

	// StopMusic stops the current music track and releases its stream.
	StopMusic()

	// Close stops all playback and releases the mixer's resources.
	Close()
}

// engineMixer is the implementation of the Mixer interface.
type engineMixer struct {
	mu sync.Mutex

	// sampleRate is the speaker's output sample rate; all streams are
	// resampled to it on playback.
	sampleRate beep.SampleRate

	// sfx maps effect names to their fully buffered samples.
	sfx map[string]*bufferedSFX

	// musicStream is the open stream of the current music track, nil when stopped.
	musicStream beep.StreamSeekCloser

	// musicCtrl wraps the music stream for pause control.
	musicCtrl *beep.Ctrl

	// musicVolume wraps musicCtrl for volume control.
	musicVolume *effects.Volume
}

// bufferedSFX pairs a decoded sample buffer with its source format.
type bufferedSFX struct {
	buffer *beep.Buffer
	format beep.Format
}

var _ Mixer = &engineMixer{}

// NewMixer creates a Mixer with the specified options and initializes the
// speaker. The speaker is a process-wide singleton, so only one Mixer should
// exist at a time.
//
// Parameters:
//   - options: functional options to configure the mixer
//
// Returns:
//   - Mixer: the configured mixer
//   - error: error if the speaker cannot be initialized
func NewMixer(options ...MixerBuilderOption) (Mixer, error) {
	m := &engineMixer{
		sampleRate: 44100,
		sfx:        make(map[string]*bufferedSFX),
	}
	for _, opt := range options {
		opt(m)
	}
	// A tenth of a second of buffer keeps latency low without underruns.
	if err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return m, nil
}

// decodeFile opens and decodes an audio file based on its extension.
//
// Parameters:
//   - path: path to the audio file
//
// Returns:
//   - beep.StreamSeekCloser: the decoded stream, owned by the caller
//   - beep.Format: the stream's sample format
//   - error: error if the file cannot be opened or the format is unsupported
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open audio file: %w", err)
	}

	var stream beep.StreamSeekCloser
	var format beep.Format
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return stream, format, nil
}

func (m *engineMixer) LoadSFX(name, path string) error {
	stream, format, err := decodeFile(path)
	if err != nil {
		return err
	}
	defer stream.Close()

	buffer := beep.NewBuffer(format)
	buffer.Append(stream)

	m.mu.Lock()
	m.sfx[name] = &bufferedSFX{buffer: buffer, format: format}
	m.mu.Unlock()
	return nil
}

func (m *engineMixer) PlaySFX(name string) error {
	m.mu.Lock()
	s, ok := m.sfx[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no sound effect loaded under %q", name)
	}

	streamer := s.buffer.Streamer(0, s.buffer.Len())
	speaker.Play(m.resampled(s.format, streamer))
	return nil
}

func (m *engineMixer) PlayMusic(path string, loop bool) error {
	stream, format, err := decodeFile(path)
	if err != nil {
		return err
	}

	var streamer beep.Streamer = stream
	if loop {
		streamer = beep.Loop(-1, stream)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMusicLocked()

	m.musicStream = stream
	m.musicCtrl = &beep.Ctrl{Streamer: m.resampled(format, streamer)}
	m.musicVolume = &effects.Volume{
		Streamer: m.musicCtrl,
		Base:     2,
	}
	speaker.Play(m.musicVolume)
	return nil
}

func (m *engineMixer) SetMusicPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.musicCtrl == nil {
		return
	}
	speaker.Lock()
	m.musicCtrl.Paused = paused
	speaker.Unlock()
}

func (m *engineMixer) SetMusicVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.musicVolume == nil {
		return
	}
	speaker.Lock()
	if volume <= 0 {
		m.musicVolume.Silent = true
	} else {
		m.musicVolume.Silent = false
		// effects.Volume is logarithmic; map [0,1] onto a -5..0 exponent range.
		m.musicVolume.Volume = (volume - 1) * 5
	}
	speaker.Unlock()
}

func (m *engineMixer) StopMusic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMusicLocked()
}

// stopMusicLocked detaches and closes the current music track.
// Callers must hold m.mu.
func (m *engineMixer) stopMusicLocked() {
	if m.musicStream == nil {
		return
	}
	speaker.Lock()
	m.musicCtrl.Streamer = nil
	speaker.Unlock()
	m.musicStream.Close()
	m.musicStream = nil
	m.musicCtrl = nil
	m.musicVolume = nil
}

func (m *engineMixer) Close() {
	m.mu.Lock()
	m.stopMusicLocked()
	m.sfx = make(map[string]*bufferedSFX)
	m.mu.Unlock()
	speaker.Clear()
}

// resampled adapts a streamer to the speaker's sample rate if it differs.
func (m *engineMixer) resampled(format beep.Format, streamer beep.Streamer) beep.Streamer {
	if format.SampleRate == m.sampleRate {
		return streamer
	}
	return beep.Resample(4, format.SampleRate, m.sampleRate, streamer)
}
