package renderer

import (
	"sync"

	"github.com/pkg/errors"
)

// RecordedTexture is a texture captured by a RecordingBackend.
type RecordedTexture struct {
	Pixels        []byte
	Width, Height uint32
}

// RecordingBackend is a RendererBackend that keeps the last upload of every key in memory.
// It needs no GPU and is safe for concurrent use.
type RecordingBackend struct {
	mu *sync.Mutex

	buffers  map[string][]byte
	kinds    map[string]BufferKind
	textures map[string]RecordedTexture
	writes   int
}

var _ RendererBackend = &RecordingBackend{}

// NewRecordingBackend creates an empty RecordingBackend.
//
// Returns:
//   - *RecordingBackend: the backend
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{
		mu:       &sync.Mutex{},
		buffers:  make(map[string][]byte),
		kinds:    make(map[string]BufferKind),
		textures: make(map[string]RecordedTexture),
	}
}

func (r *RecordingBackend) WriteBuffer(key string, kind BufferKind, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.kinds[key]; ok && prev != kind {
		return errors.Errorf("buffer %q is a %s buffer, not %s", key, prev, kind)
	}
	r.buffers[key] = append(r.buffers[key][:0], data...)
	r.kinds[key] = kind
	r.writes++
	return nil
}

func (r *RecordingBackend) WriteTexture(key string, pixels []byte, width, height uint32) error {
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		return errors.Errorf("texture %q: %d bytes for %dx%d RGBA8", key, len(pixels), width, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.textures[key] = RecordedTexture{Pixels: append([]byte(nil), pixels...), Width: width, Height: height}
	r.writes++
	return nil
}

func (r *RecordingBackend) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buffers)
	clear(r.kinds)
	clear(r.textures)
}

// Buffer returns a copy of the last data written to key, or nil.
func (r *RecordingBackend) Buffer(key string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.buffers[key]
	if !ok {
		return nil
	}
	return append([]byte(nil), data...)
}

// Texture returns the last texture written to key.
func (r *RecordingBackend) Texture(key string) (RecordedTexture, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.textures[key]
	return t, ok
}

// Keys returns the number of distinct buffers held.
func (r *RecordingBackend) Keys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers)
}

// Writes returns the total number of uploads performed.
func (r *RecordingBackend) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
