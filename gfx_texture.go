// gfx_texture.go - 512-entry / 1024-bucket hashed texture cache

package gfx

// textureCacheEntry is the Go analogue of TextureHashmapNode: a singly
// linked hash-chain node owned by a fixed-size pool.
type textureCacheEntry struct {
	next *textureCacheEntry

	addr          uint32
	fmt, siz      uint8
	paletteIndex  uint8

	handle        TextureHandle
	cms, cmt      uint8
	linearFilter  bool
	invalid       bool
}

type textureCache struct {
	hashmap [textureCacheSlots]*textureCacheEntry
	pool    [textureCacheSize]textureCacheEntry
	poolPos int
}

func newTextureCache() *textureCache {
	return &textureCache{}
}

func (c *textureCache) clear() {
	c.poolPos = 0
	for i := range c.hashmap {
		c.hashmap[i] = nil
	}
}

func textureCacheHash(addr uint32) int {
	return int((addr >> 5) & 0x3ff)
}

// lookup walks the hash chain for addr/fmt/siz/palette. If found it returns
// the cached entry and true. If the pool is full it evicts everything
// (pool_pos reset to 0) before allocating the new slot, exactly the
// reference's evict-all-on-full policy; existing hashmap chain pointers
// past the new pool_pos are left dangling but never followed again because
// every lookup bounds its chain walk by pool_pos.
func (c *textureCache) lookup(addr uint32, fmt, siz, palette uint8) (entry *textureCacheEntry, hit bool) {
	hash := textureCacheHash(addr)
	slot := &c.hashmap[hash]
	for n := *slot; n != nil; n = n.next {
		if c.indexOf(n) >= c.poolPos {
			break
		}
		if !n.invalid && n.addr == addr && n.fmt == fmt && n.siz == siz && n.paletteIndex == palette {
			return n, true
		}
	}

	if c.poolPos == textureCacheSize {
		c.poolPos = 0
		c.hashmap[hash] = nil
	}

	n := &c.pool[c.poolPos]
	c.poolPos++
	*n = textureCacheEntry{addr: addr, fmt: fmt, siz: siz, paletteIndex: palette, next: c.hashmap[hash]}
	c.hashmap[hash] = n
	return n, false
}

func (c *textureCache) indexOf(n *textureCacheEntry) int {
	for i := range c.pool {
		if &c.pool[i] == n {
			return i
		}
	}
	return c.poolPos // never matched: treat as current, i.e. always valid
}

// invalidate marks the chain head for addr as stale without freeing the
// pool slot, matching gfx_texture_cache_delete.
func (c *textureCache) invalidate(addr uint32) {
	hash := textureCacheHash(addr)
	if n := c.hashmap[hash]; n != nil {
		n.invalid = true
	}
}

// loadTileTexture resolves tile's backing pixels (decoding from the cached
// TMEM load if needed) and uploads them to the backend the first time this
// (addr, fmt, siz, palette) combination is seen, the Go analogue of
// import_texture dispatching into import_texture_rgba16 etc. An RGBA/8b tile
// is skipped: nothing is uploaded or selected and no error is returned.
func (t *translator) loadTileTexture(slot, tileIdx int, isRect bool) *CommandError {
	tl := &t.rdp.textureTile[tileIdx]
	if tl.fmt == fmtRGBA && tl.siz == siz8b {
		return nil
	}
	lt := t.rdp.loadedTexture[tl.tmemIndex]

	entry, hit := t.textures.lookup(lt.addr, tl.fmt, tl.siz, tl.palette)
	if !hit {
		src := t.segmentBytes(lt.addr, lt.sizeBytes)
		lineSize := tl.lineSizeBytes
		if lineSize == 0 {
			lineSize = 1
		}
		h := int(lt.sizeBytes / lineSize)
		w := int(lineSize)
		switch tl.siz {
		case siz4b:
			w *= 2
		case siz16b:
			w /= 2
		case siz32b:
			w /= 4
			h /= 2
		}

		var tlut []rgba
		if tl.fmt == fmtCI && t.rdp.palette != nil {
			if tl.siz == siz8b {
				// CI8 always indexes the unshifted base palette.
				tlut = decodeRGBA16(t.rdp.palette, 256, 1)
			} else {
				// CI4 selects one of several 16-entry sub-palettes by bank:
				// palette = rdp.palette + tile.palette * 16*2 bytes.
				off := int(tl.palette) * 16 * 2
				if off < len(t.rdp.palette) {
					tlut = decodeRGBA16(t.rdp.palette[off:], 16, 1)
				}
			}
		}

		pixels, cmdErr := importTexture(tl.fmt, tl.siz, src, w, h, tlut)
		if cmdErr != nil {
			return cmdErr
		}
		if isRect && (tl.fmt == fmtI || tl.fmt == fmtIA) {
			// Only the rect-draw path resamples the backing bitmap: ordinary
			// triangles already apply shiftS/shiftT to their UV coordinates
			// in emitVertex, and doing both here would scale twice.
			pixels, w, h = resampleForTileShift(pixels, w, h, tl.shiftS, tl.shiftT)
		}
		raw := make([]byte, len(pixels)*4)
		for i, p := range pixels {
			raw[i*4], raw[i*4+1], raw[i*4+2], raw[i*4+3] = p.R, p.G, p.B, p.A
		}

		h2, err := t.backend.UploadTexture(raw, w, h)
		if err != nil {
			t.logf("texture upload failed: %v", err)
			return nil
		}
		entry.handle = h2
	}
	t.backend.SelectTexture(slot, entry.handle)
	return nil
}

// segmentBytes resolves a logical address into the host-supplied backing
// buffer for its segment, returning a short read-only slice on a miss
// instead of panicking. Asset-hash textures are resolved by loadTImgOTR
// into a synthetic address recorded in assetTextures and are served from
// there directly, since they never live in a real segment.
func (t *translator) segmentBytes(addr uint32, size uint32) []byte {
	if raw, ok := t.assetTextures[addr]; ok {
		return raw
	}
	seg := (addr >> 24) & 0xf
	base, ok := t.segmentBase[seg]
	if !ok {
		t.logf("unresolved segment %d for address 0x%08x", seg, addr)
		return make([]byte, size)
	}
	off := addr & 0x00ffffff
	if int(off) > len(base) {
		t.logf("segment %d read out of range: addr 0x%08x size %d", seg, addr, size)
		return make([]byte, size)
	}
	if size == 0 {
		// Unbounded read (a sub-display-list): hand back everything from
		// addr onward, the caller stops at G_ENDDL rather than a length.
		return base[off:]
	}
	end := off + size
	if int(end) > len(base) {
		t.logf("segment %d read out of range: addr 0x%08x size %d", seg, addr, size)
		return make([]byte, size)
	}
	return base[off:end]
}
