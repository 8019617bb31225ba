// Package parser turns (header, tail) pairs into declaration sets, running
// the external front end only when neither the in-process cache nor the
// interface's cache file holds a result for the same header content and
// tail.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/teranos/cxxbind/cache"
	"github.com/teranos/cxxbind/decl"
	"github.com/teranos/cxxbind/errors"
	"github.com/teranos/cxxbind/export"
	"github.com/teranos/cxxbind/gccxml"
	"github.com/teranos/cxxbind/version"
)

// Options configures a Parser
type Options struct {
	// Includes are searched for headers given relative to them
	Includes []string
	// CacheDir holds one cache file per interface; empty disables them
	CacheDir string
	// DebugDir, when set, receives <header-base>.xml for each front-end run
	DebugDir string
	// MemoryEntries bounds the in-process cache of front-end output
	MemoryEntries int
	// Format is the declaration format version stamped on cache entries
	Format string
}

type digestEntry struct {
	modTime time.Time
	size    int64
	digest  string
}

// Parser resolves declarations for headers
type Parser struct {
	frontend Frontend
	opts     Options
	logger   *zap.SugaredLogger

	stores  map[string]*cache.Store
	xml     *lru.Cache[cache.Key, []byte]
	digests *lru.Cache[string, digestEntry]
}

// New creates a parser. logger may be nil.
func New(frontend Frontend, opts Options, logger *zap.SugaredLogger) (*Parser, error) {
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = 32
	}
	if opts.Format == "" {
		opts.Format = version.DeclFormat
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	xmlCache, err := lru.New[cache.Key, []byte](opts.MemoryEntries)
	if err != nil {
		return nil, errors.Wrap(err, "create front-end output cache")
	}
	digests, err := lru.New[string, digestEntry](opts.MemoryEntries * 8)
	if err != nil {
		return nil, errors.Wrap(err, "create header digest cache")
	}
	return &Parser{
		frontend: frontend,
		opts:     opts,
		logger:   logger,
		stores:   map[string]*cache.Store{},
		xml:      xmlCache,
		digests:  digests,
	}, nil
}

// ParseWithGCCXML always runs the front end
func (p *Parser) ParseWithGCCXML(ctx context.Context, header, tail string) (*decl.Set, error) {
	key, path, err := p.key(header, tail)
	if err != nil {
		return nil, err
	}
	xml, err := p.run(ctx, header, path, tail, key)
	if err != nil {
		return nil, err
	}
	return p.decode(header, xml)
}

// CreateCache writes the front-end output behind set into iface's cache
// file and returns the file's path. set must come from ParseWithGCCXML or
// Parse for the same header and tail.
func (p *Parser) CreateCache(ctx context.Context, header, iface, tail string, set *decl.Set) (string, error) {
	if p.opts.CacheDir == "" {
		return "", errors.NewUsageError("no cache directory configured")
	}
	key, path, err := p.key(header, tail)
	if err != nil {
		return "", err
	}
	xml, ok := p.xml.Get(key)
	if !ok {
		// Evicted from memory; compile again rather than guess
		if xml, err = p.run(ctx, header, path, tail, key); err != nil {
			return "", err
		}
	}
	store, err := p.store(iface)
	if err != nil {
		return "", err
	}
	if err := store.Put(ctx, key, xml); err != nil {
		return "", err
	}
	if n, err := store.Prune(ctx, key); err == nil && n > 0 {
		p.logger.Debugw("Pruned stale cache entries", "header", header, "count", n)
	}
	p.logger.Debugw("Cache entry written", "header", header, "cache_file", store.Path(), "declarations", set.Len())
	return store.Path(), nil
}

// Parse returns the declarations for header as compiled with tail, served
// from cache when possible. Each call returns a new Set.
func (p *Parser) Parse(ctx context.Context, header, iface, tail string) (*decl.Set, *export.ParsedHeader, error) {
	key, path, err := p.key(header, tail)
	if err != nil {
		return nil, nil, err
	}
	parsed := &export.ParsedHeader{Path: header, Digest: key.HeaderDigest}

	xml, ok := p.xml.Get(key)
	if ok {
		parsed.FromCache = true
		p.logger.Debugw("Front-end output served from memory", "header", header)
	} else if p.opts.CacheDir != "" {
		store, err := p.store(iface)
		if err != nil {
			return nil, nil, err
		}
		xml, err = store.Get(ctx, key)
		switch {
		case err == nil:
			parsed.FromCache = true
			p.xml.Add(key, xml)
			p.logger.Debugw("Cache hit", "header", header, "cache_file", store.Path())
		case errors.IsNotFoundError(err):
			p.logger.Debugw("Cache miss", "header", header, "cache_file", store.Path())
		default:
			return nil, nil, err
		}
	}

	if !parsed.FromCache {
		if xml, err = p.run(ctx, header, path, tail, key); err != nil {
			return nil, nil, err
		}
		if p.opts.CacheDir != "" {
			store, err := p.store(iface)
			if err != nil {
				return nil, nil, err
			}
			if err := store.Put(ctx, key, xml); err != nil {
				return nil, nil, err
			}
		}
	}

	set, err := p.decode(header, xml)
	if err != nil {
		return nil, nil, err
	}
	return set, parsed, nil
}

// Close closes every open cache file
func (p *Parser) Close() error {
	var errs error
	for iface, s := range p.stores {
		if err := s.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "close cache for %s", iface))
		}
	}
	p.stores = map[string]*cache.Store{}
	p.xml.Purge()
	p.digests.Purge()
	return errs
}

// run compiles path, the resolved form of header, with tail
func (p *Parser) run(ctx context.Context, header, path, tail string, key cache.Key) ([]byte, error) {
	start := time.Now()
	xml, err := p.frontend.Run(ctx, header, Source(path, tail))
	if err != nil {
		return nil, err
	}
	p.logger.Infow("Parsed header", "header", header, "duration_ms", time.Since(start).Milliseconds())
	p.xml.Add(key, xml)
	if p.opts.DebugDir != "" {
		p.dump(header, xml)
	}
	return xml, nil
}

func (p *Parser) decode(header string, xml []byte) (*decl.Set, error) {
	set, err := gccxml.Decode(xml)
	if err != nil {
		return nil, errors.WrapParse(err, header)
	}
	return set, nil
}

// dump writes the front-end output next to the working directory for --debug
func (p *Parser) dump(header string, xml []byte) {
	base := strings.TrimSuffix(filepath.Base(header), filepath.Ext(header))
	path := filepath.Join(p.opts.DebugDir, base+".xml")
	if err := os.WriteFile(path, xml, 0o644); err != nil {
		p.logger.Warnw("Could not write debug XML", "file", path, "error", err)
		return
	}
	p.logger.Infow("Wrote debug XML", "file", path)
}

func (p *Parser) store(iface string) (*cache.Store, error) {
	if s, ok := p.stores[iface]; ok {
		return s, nil
	}
	s, err := cache.OpenStore(cache.FileFor(p.opts.CacheDir, iface), p.opts.Format, p.logger)
	if err != nil {
		return nil, err
	}
	p.stores[iface] = s
	return s, nil
}

// key identifies the front-end run for header and tail, and returns the path
// handed to the front end. The digest and the compiled file are always the
// same file.
func (p *Parser) key(header, tail string) (cache.Key, string, error) {
	path, found := p.resolve(header)
	digest := cache.Digest([]byte(header))
	if found {
		var err error
		if digest, err = p.fileDigest(path); err != nil {
			return cache.Key{}, "", err
		}
	}
	return cache.Key{Header: header, HeaderDigest: digest, TailDigest: cache.Digest([]byte(tail))}, path, nil
}

// resolve returns the absolute path of header so the front end finds it
// from its own work directory. Headers that cannot be found (system headers
// reached through the compiler's search path) come back unchanged.
func (p *Parser) resolve(header string) (string, bool) {
	path, ok := p.locate(header)
	if !ok {
		return header, false
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(path), true
}

// fileDigest hashes the contents of the header at path
func (p *Parser) fileDigest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "stat header %s", path)
	}
	if e, ok := p.digests.Get(path); ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e.digest, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read header %s", path)
	}
	digest := cache.Digest(data)
	p.digests.Add(path, digestEntry{modTime: info.ModTime(), size: info.Size(), digest: digest})
	return digest, nil
}

func (p *Parser) locate(header string) (string, bool) {
	if _, err := os.Stat(header); err == nil {
		return header, true
	}
	if filepath.IsAbs(header) {
		return "", false
	}
	for _, dir := range p.opts.Includes {
		candidate := filepath.Join(dir, header)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
