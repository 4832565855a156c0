package renderer

import (
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// wgpuBuffer is a GPU buffer together with its allocated size.
type wgpuBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

// wgpuTexture is a GPU texture with its default view.
type wgpuTexture struct {
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	width, height uint32
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	buffers  map[string]*wgpuBuffer
	textures map[string]*wgpuTexture

	// staging pads writes whose length is not a multiple of 4, which WriteBuffer requires.
	staging []byte
}

// WGPUBackend is the RendererBackend of BackendTypeWGPU. A draw layer type-asserts Renderer.Backend
// to it to bind the uploaded resources.
type WGPUBackend interface {
	RendererBackend

	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// BufferHandle returns the GPU buffer named key for binding, or nil.
	//
	// Parameters:
	//   - key: the buffer name
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	BufferHandle(key string) *wgpu.Buffer

	// TextureView returns the default view of the texture named key, or nil.
	//
	// Parameters:
	//   - key: the texture name
	//
	// Returns:
	//   - *wgpu.TextureView: the view or nil
	TextureView(key string) *wgpu.TextureView
}

var _ WGPUBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend requests an adapter and a device without a presentation surface.
// Presentation belongs to the window layer; this backend only owns the uploaded resources.
//
// Parameters:
//   - forceFallbackAdapter: true to request the software adapter
//
// Returns:
//   - WGPUBackend: the backend
//   - error: an error if no adapter or device is available
func newWGPURendererBackend(forceFallbackAdapter bool) (WGPUBackend, error) {
	w := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
		buffers:  make(map[string]*wgpuBuffer),
		textures: make(map[string]*wgpuTexture),
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		w.instance.Release()
		return nil, errors.Wrap(err, "failed to request adapter")
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Viewer Device",
	})
	if err != nil {
		a.Release()
		w.instance.Release()
		return nil, errors.Wrap(err, "failed to request device")
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) BufferHandle(key string) *wgpu.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf, ok := b.buffers[key]; ok {
		return buf.buffer
	}
	return nil
}

func (b *wgpuRendererBackendImpl) TextureView(key string) *wgpu.TextureView {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tex, ok := b.textures[key]; ok {
		return tex.view
	}
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(key string, kind BufferKind, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	size := alignTo4(uint64(len(data)))
	buf, ok := b.buffers[key]
	if ok && buf.size < size {
		buf.buffer.Release()
		delete(b.buffers, key)
		ok = false
	}
	if !ok {
		created, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            key,
			Size:             size,
			Usage:            kind.usage(),
			MappedAtCreation: false,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to create %s buffer %q", kind, key)
		}
		buf = &wgpuBuffer{buffer: created, size: size}
		b.buffers[key] = buf
	}

	if uint64(len(data)) != size {
		b.staging = append(b.staging[:0], data...)
		for uint64(len(b.staging)) < size {
			b.staging = append(b.staging, 0)
		}
		data = b.staging
	}
	b.queue.WriteBuffer(buf.buffer, 0, data)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteTexture(key string, pixels []byte, width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, ok := b.textures[key]
	if ok && (tex.width != width || tex.height != height) {
		tex.view.Release()
		tex.texture.Release()
		delete(b.textures, key)
		ok = false
	}
	if !ok {
		created, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:     key,
			Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
			Dimension: wgpu.TextureDimension2D,
			Size: wgpu.Extent3D{
				Width:              width,
				Height:             height,
				DepthOrArrayLayers: 1,
			},
			Format:        wgpu.TextureFormatRGBA8UnormSrgb,
			MipLevelCount: 1,
			SampleCount:   1,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to create texture %q", key)
		}
		view, err := created.CreateView(nil)
		if err != nil {
			created.Release()
			return errors.Wrapf(err, "failed to create view for texture %q", key)
		}
		tex = &wgpuTexture{texture: created, view: view, width: width, height: height}
		b.textures[key] = tex
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, buf := range b.buffers {
		buf.buffer.Release()
		delete(b.buffers, key)
	}
	for key, tex := range b.textures {
		tex.view.Release()
		tex.texture.Release()
		delete(b.textures, key)
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	log.Printf("[Renderer] released wgpu resources")
}

// --- Helper Functions ---

// alignTo4 rounds n up to the 4-byte copy alignment of wgpu buffer writes.
func alignTo4(n uint64) uint64 {
	return (n + 3) &^ 3
}
