package ranking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"filoc/internal/paths"
)

// Document is a candidate path with the text that is scored for it.
type Document struct {
	Path string
	Text string
}

// Representation builds the scored text for each candidate path. Builders
// may drop candidates; the returned documents keep input order.
type Representation interface {
	Name() string
	Build(ctx context.Context, paths []string) ([]Document, error)
}

// PathOnly represents each candidate by its path.
func PathOnly() Representation {
	return pathOnly{}
}

type pathOnly struct{}

func (pathOnly) Name() string { return "path" }

func (pathOnly) Build(_ context.Context, paths []string) ([]Document, error) {
	docs := make([]Document, len(paths))
	for i, p := range paths {
		docs[i] = Document{Path: p, Text: p}
	}
	return docs, nil
}

// ContentOption configures PathWithContent.
type ContentOption func(*pathWithContent)

// WithContentLogger logs dropped files at debug level.
func WithContentLogger(logger *slog.Logger) ContentOption {
	return func(p *pathWithContent) { p.logger = logger }
}

// WithReadConcurrency bounds parallel file reads.
func WithReadConcurrency(n int) ContentOption {
	return func(p *pathWithContent) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// PathWithContent represents each candidate by "path\ncontent", reading
// files relative to root. Files that cannot be read, are larger than
// maxBytes (when maxBytes > 0) or are not valid UTF-8 are dropped.
func PathWithContent(root string, maxBytes int64, opts ...ContentOption) Representation {
	p := &pathWithContent{
		root:        root,
		maxBytes:    maxBytes,
		concurrency: 8,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type pathWithContent struct {
	root        string
	maxBytes    int64
	concurrency int
	logger      *slog.Logger
}

func (p *pathWithContent) Name() string { return "content" }

func (p *pathWithContent) Build(ctx context.Context, paths []string) ([]Document, error) {
	texts := make([]string, len(paths))
	ok := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := p.read(rel)
			if err != nil {
				p.logger.Debug("Dropping candidate", "path", rel, "reason", err.Error())
				return nil
			}
			texts[i] = rel + "\n" + content
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(paths))
	for i, rel := range paths {
		if ok[i] {
			docs = append(docs, Document{Path: rel, Text: texts[i]})
		}
	}
	return docs, nil
}

func (p *pathWithContent) read(rel string) (string, error) {
	if !paths.IsWithinRepo(rel) {
		return "", fmt.Errorf("path escapes repository root")
	}
	f, err := os.Open(paths.JoinRepoPath(p.root, rel))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var r io.Reader = f
	if p.maxBytes > 0 {
		r = io.LimitReader(f, p.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return "", fmt.Errorf("larger than %d bytes", p.maxBytes)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8")
	}
	return string(data), nil
}

// RepresentationByName returns the builder for "path" or "content".
func RepresentationByName(name, root string, maxBytes int64, opts ...ContentOption) (Representation, error) {
	switch name {
	case "path", "":
		return PathOnly(), nil
	case "content":
		return PathWithContent(root, maxBytes, opts...), nil
	default:
		return nil, fmt.Errorf("unknown representation %q", name)
	}
}
