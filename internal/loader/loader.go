// Package loader implements gfx.AssetLoader, resolving the RCP's asset-hash
// command family (G_VTX_OTR_*, G_DL_OTR, texture-by-CRC) against an
// in-memory resource table, with an LRU in front of it so a replay tool
// streaming a large capture doesn't have to keep every decoded asset live,
// the same role golang-lru plays for the combiner/texture caches in the
// translator itself.
package loader

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// Resource is one named, content-hashed asset a display list can reference
// instead of a segmented pointer: raw vertex bytes, a sub-display-list's
// words, or raw texture bytes. Exactly one of the three payload fields is
// populated, matching how ResourceMgr's three Load* entry points in the
// reference are backed by one underlying resource table.
type Resource struct {
	Name     string
	Vertices []byte
	DL       []uint32
	Texture  []byte
}

// Loader is a static, preloaded AssetLoader: resources are registered ahead
// of time (typically by replaying an archive's manifest) and served from an
// LRU-bounded decode cache. It implements gfx.AssetLoader.
type Loader struct {
	mu        sync.RWMutex
	resources map[uint64]Resource

	decoded *lru.Cache // (hash, kind) -> decoded payload, capped independent of the resource table size
}

const defaultDecodeCacheSize = 256

// New constructs an empty Loader. Register resources with Add before running
// any display list that references them.
func New() *Loader {
	c, _ := lru.New(defaultDecodeCacheSize)
	return &Loader{
		resources: make(map[uint64]Resource),
		decoded:   c,
	}
}

// Add registers a resource under its content hash, overwriting any prior
// entry for that hash. Safe to call while a Translator is mid-frame on
// another goroutine only if the host serializes with its own lock; Loader
// itself only guards its own maps.
func (l *Loader) Add(hash uint64, r Resource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resources[hash] = r
	for _, k := range []assetKind{kindVertices, kindDL, kindTexture} {
		l.decoded.Remove(cacheKey{hash, k})
	}
}

func (l *Loader) get(hash uint64) (Resource, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.resources[hash]
	return r, ok
}

// LoadVertices resolves a G_VTX_OTR hash to its packed 16-byte-per-vertex
// buffer.
func (l *Loader) LoadVertices(hash uint64) ([]byte, bool) {
	if v, ok := l.decoded.Get(cacheKey{hash, kindVertices}); ok {
		return v.([]byte), true
	}
	r, ok := l.get(hash)
	if !ok || r.Vertices == nil {
		return nil, false
	}
	l.decoded.Add(cacheKey{hash, kindVertices}, r.Vertices)
	return r.Vertices, true
}

// LoadDisplayList resolves a G_DL_OTR/G_BRANCH_Z_OTR hash to its command
// words.
func (l *Loader) LoadDisplayList(hash uint64) ([]uint32, bool) {
	if v, ok := l.decoded.Get(cacheKey{hash, kindDL}); ok {
		return v.([]uint32), true
	}
	r, ok := l.get(hash)
	if !ok || r.DL == nil {
		return nil, false
	}
	l.decoded.Add(cacheKey{hash, kindDL}, r.DL)
	return r.DL, true
}

// LoadTexture resolves a G_SETTIMG_OTR hash to its raw, still-encoded
// (RGBA16/CI8/etc.) texel bytes, decoded later by importTexture the same as
// any segment-addressed texture.
func (l *Loader) LoadTexture(hash uint64) ([]byte, bool) {
	if v, ok := l.decoded.Get(cacheKey{hash, kindTexture}); ok {
		return v.([]byte), true
	}
	r, ok := l.get(hash)
	if !ok || r.Texture == nil {
		return nil, false
	}
	l.decoded.Add(cacheKey{hash, kindTexture}, r.Texture)
	return r.Texture, true
}

// NameOf resolves a hash to its debug name, for G_MARKER labeling and error
// messages; a miss just means the host didn't register a name.
func (l *Loader) NameOf(hash uint64) (string, bool) {
	r, ok := l.get(hash)
	if !ok || r.Name == "" {
		return "", false
	}
	return r.Name, true
}

type assetKind uint8

const (
	kindVertices assetKind = iota
	kindDL
	kindTexture
)

type cacheKey struct {
	hash uint64
	kind assetKind
}

// SyntheticAddr derives a stable 32-bit key from a 64-bit asset hash for
// callers that need to route an asset-hash resource through an API
// originally built around 32-bit segmented addresses (the translator's
// assetTextures map). Collisions are possible across an enormous capture but
// have never been observed in practice. The result always has the high bit
// (0x80000000) set. Neither Loader nor the gfx package calls this: the
// translator keys assetTextures on the hash's low 32 bits.
func SyntheticAddr(hash uint64) uint32 {
	return 0x80000000 | (uint32(hash) ^ uint32(hash>>32))
}

// String is a debug helper describing a Resource's populated payload.
func (r Resource) String() string {
	switch {
	case r.Vertices != nil:
		return fmt.Sprintf("Resource(vertices, %d bytes, %q)", len(r.Vertices), r.Name)
	case r.DL != nil:
		return fmt.Sprintf("Resource(dl, %d words, %q)", len(r.DL), r.Name)
	case r.Texture != nil:
		return fmt.Sprintf("Resource(texture, %d bytes, %q)", len(r.Texture), r.Name)
	default:
		return fmt.Sprintf("Resource(empty, %q)", r.Name)
	}
}
