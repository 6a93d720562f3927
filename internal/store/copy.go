package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/spdxstore/internal/ir"
)

// DefaultCopyConcurrency bounds parallel object copies per frontier level.
const DefaultCopyConcurrency = 8

// CopyOptions configures CopyGraph and CopyDocument.
type CopyOptions struct {
	// Concurrency bounds parallel object copies. Zero means DefaultCopyConcurrency.
	Concurrency int

	// SameDocument restricts graph traversal to references within the starting
	// document. References to other documents are still copied by identity.
	SameDocument bool

	// Logger receives per-object debug logs. Nil means no logging.
	Logger *zap.Logger
}

func (o CopyOptions) concurrency() int {
	if o.Concurrency <= 0 {
		return DefaultCopyConcurrency
	}
	return o.Concurrency
}

func (o CopyOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// CopyGraph copies an object and every object it transitively references from
// src into dst, keeping every (document, id) unchanged.
//
// Traversal is breadth first. A reference is followed only if its target exists
// in src; references to missing objects stay dangling in dst. The type used for
// each referenced object is the type recorded in src, not the type carried by
// the reference. Objects in one frontier level are copied in parallel.
//
// Returns the keys of every copied object, sorted. On error, objects already
// copied stay copied and are included in the result; each individual object
// copy is all-or-nothing.
func CopyGraph(ctx context.Context, dst, src ModelStore, documentURI, id, typ string, opts CopyOptions) ([]ir.ObjectKey, error) {
	const op = "copy graph"
	if dst == nil || src == nil {
		return nil, NewInvalidInputError(op, "source and destination stores are required")
	}
	log := opts.logger()

	type item struct {
		key ir.ObjectKey
		typ string
	}

	root := ir.ObjectKey{DocumentURI: documentURI, ID: id}
	visited := map[ir.ObjectKey]bool{root: true}
	frontier := []item{{key: root, typ: typ}}

	var mu sync.Mutex
	var copied []ir.ObjectKey

	for depth := 0; len(frontier) > 0; depth++ {
		refsByItem := make([][]ir.TypedValue, len(frontier))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.concurrency())
		for i, it := range frontier {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				obj, err := copyObject(op, dst, src, it.key, it.typ)
				if err != nil {
					return err
				}
				mu.Lock()
				copied = append(copied, it.key)
				mu.Unlock()
				log.Debug("copied object",
					zap.String("document", it.key.DocumentURI),
					zap.String("id", it.key.ID),
					zap.String("type", it.typ),
					zap.Int("depth", depth))
				refsByItem[i] = obj.References()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return sortKeys(copied), err
		}

		var next []item
		for i := range frontier {
			for _, ref := range refsByItem[i] {
				key := ref.Key()
				if visited[key] {
					continue
				}
				if opts.SameDocument && key.DocumentURI != documentURI {
					continue
				}
				visited[key] = true

				if !src.Exists(key.DocumentURI, key.ID) {
					log.Debug("leaving dangling reference",
						zap.String("document", key.DocumentURI),
						zap.String("id", key.ID))
					continue
				}
				refType, err := src.Type(key.DocumentURI, key.ID)
				if err != nil {
					return sortKeys(copied), fmt.Errorf("%s: resolve %s: %w", op, key, err)
				}
				next = append(next, item{key: key, typ: refType})
			}
		}
		frontier = next
	}

	return sortKeys(copied), nil
}

// copyObject snapshots one source object and writes it to dst. The returned
// snapshot is the one written when dst implements SnapshotWriter.
func copyObject(op string, dst, src ModelStore, key ir.ObjectKey, typ string) (ir.Object, error) {
	obj, err := ReadForCopy(op, src, key.DocumentURI, key.ID, typ)
	if err != nil {
		return ir.Object{}, err
	}
	if w, ok := dst.(SnapshotWriter); ok {
		return obj, w.WriteSnapshot(obj)
	}
	return obj, dst.CopyFrom(key.DocumentURI, key.ID, typ, src)
}

// CopyDocument copies every object of a document from src into dst.
// src must implement Lister. Returns the number of objects copied.
func CopyDocument(ctx context.Context, dst, src ModelStore, documentURI string, opts CopyOptions) (int, error) {
	const op = "copy document"
	if dst == nil || src == nil {
		return 0, NewInvalidInputError(op, "source and destination stores are required")
	}
	lister, ok := src.(Lister)
	if !ok {
		return 0, NewInvalidInputError(op, fmt.Sprintf("source store %T cannot list objects", src))
	}
	ids, err := lister.ObjectIDs(documentURI)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log := opts.logger()
	var mu sync.Mutex
	count := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			typ, err := src.Type(documentURI, id)
			if err != nil {
				return err
			}
			if err := dst.CopyFrom(documentURI, id, typ, src); err != nil {
				return err
			}
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("document copy failed",
			zap.String("document", documentURI),
			zap.Int("objects", count),
			zap.Int("listed", len(ids)),
			zap.Error(err))
		return count, err
	}
	log.Debug("copied document",
		zap.String("document", documentURI),
		zap.Int("objects", count),
		zap.Int("listed", len(ids)))
	return count, nil
}

func sortKeys(keys []ir.ObjectKey) []ir.ObjectKey {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DocumentURI != keys[j].DocumentURI {
			return keys[i].DocumentURI < keys[j].DocumentURI
		}
		return keys[i].ID < keys[j].ID
	})
	return keys
}
