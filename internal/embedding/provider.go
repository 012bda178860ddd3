package embedding

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("embedding provider closed")

// Provider lazily constructs one shared Embedder. The model is loaded on the
// first Get; later calls return the same instance, or the same error.
type Provider struct {
	build func() (Embedder, error)

	once   sync.Once
	mu     sync.Mutex
	emb    Embedder
	err    error
	closed bool
}

// NewProvider creates a provider around a constructor.
func NewProvider(build func() (Embedder, error)) *Provider {
	return &Provider{build: build}
}

// Get returns the shared embedder, building it on first use.
func (p *Provider) Get() (Embedder, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	p.once.Do(func() {
		emb, err := p.build()
		p.mu.Lock()
		p.emb, p.err = emb, err
		p.mu.Unlock()
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		if p.emb != nil {
			// Close raced with the build; release what was built.
			_ = p.emb.Close()
			p.emb = nil
		}
		return nil, ErrClosed
	}
	return p.emb, p.err
}

// EmbedTexts embeds through the shared embedder, loading it on first use.
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	emb, err := p.Get()
	if err != nil {
		return nil, err
	}
	return emb.EmbedTexts(ctx, texts)
}

// Loaded reports whether the embedder has been built successfully.
func (p *Provider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.emb != nil
}

// Close closes the embedder if it was built. Get returns ErrClosed
// afterwards, whether or not the embedder was ever loaded.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.emb == nil {
		p.err = ErrClosed
		return nil
	}
	err := p.emb.Close()
	p.emb, p.err = nil, ErrClosed
	return err
}
