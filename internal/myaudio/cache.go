package myaudio

import (
	"context"
	"sync"
)

type decodeCacheKey struct{}

type decodeKey struct {
	data       *byte
	size       int
	format     string
	sampleRate int // 0 is the native rate
}

// decodeCache memoizes successful decodes of one clip so the transcription
// and feature stages share a single ffmpeg run.
type decodeCache struct {
	mu      sync.Mutex
	entries map[decodeKey]*PCM
}

// WithDecodeCache returns a context under which Decode and DecodeAt reuse
// earlier results for the same bytes. Scope it to one clip. Cached PCM is
// shared, so callers must not modify Samples.
func WithDecodeCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, decodeCacheKey{}, &decodeCache{entries: make(map[decodeKey]*PCM)})
}

func cacheFrom(ctx context.Context) *decodeCache {
	c, _ := ctx.Value(decodeCacheKey{}).(*decodeCache)
	return c
}

func keyFor(data []byte, format string, sampleRate int) decodeKey {
	return decodeKey{data: &data[0], size: len(data), format: format, sampleRate: sampleRate}
}

func (c *decodeCache) get(k decodeKey) *PCM {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[k]
}

func (c *decodeCache) put(k decodeKey, pcm *PCM) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = pcm
}
