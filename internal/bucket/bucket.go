// Package bucket reads match exports and lookup tables from object storage.
// A Google Cloud Storage bucket is the usual source; a local directory with
// the same layout works for offline imports.
package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pable/lol-custom-rating/internal/parser"
)

// Object describes one stored file.
type Object struct {
	Name    string
	Size    int64
	Updated time.Time
}

// Store lists and reads objects.
type Store interface {
	List(ctx context.Context) ([]Object, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// GCS is a Store over a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS connects to bucket. With an empty credentialsFile the client uses
// Application Default Credentials.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// List returns every object in the bucket sorted by name.
func (g *GCS) List(ctx context.Context) ([]Object, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, nil)
	var out []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s: %w", g.bucket, err)
		}
		out = append(out, Object{Name: attrs.Name, Size: attrs.Size, Updated: attrs.Updated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read downloads one object.
func (g *GCS) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", g.bucket, name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", g.bucket, name, err)
	}
	return data, nil
}

// Close releases the client.
func (g *GCS) Close() error { return g.client.Close() }

// Dir is a Store over the regular files directly inside a local directory.
type Dir string

// List returns the directory's files sorted by name.
func (d Dir) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(string(d))
	if err != nil {
		return nil, err
	}
	var out []Object
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, Object{Name: e.Name(), Size: info.Size(), Updated: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read returns the file's contents.
func (d Dir) Read(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), name))
}

// File is a downloaded match export.
type File struct {
	Object
	Data []byte
}

// Snapshot is everything a Store holds, classified.
type Snapshot struct {
	Files    []File // match exports in name order
	Aliases  []byte // raw players_name.json, nil when absent
	Priority []byte // raw position_priority.json, nil when absent
	Ignored  []string
}

// Options controls Download.
type Options struct {
	// Parallel bounds concurrent reads; values below 1 mean 4.
	Parallel int
	// Skip, when set, is consulted per match export; skipped files are not read.
	Skip func(Object) bool
}

// Download lists s and reads the lookup tables and every match export not
// skipped. Reads run concurrently but Files keeps name order, which is the
// replay order for new imports.
func Download(ctx context.Context, s Store, opts Options) (*Snapshot, error) {
	objs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	var matches []Object
	for _, o := range objs {
		switch {
		case o.Name == parser.AliasFile || o.Name == parser.PriorityFile:
			data, err := s.Read(ctx, o.Name)
			if err != nil {
				return nil, err
			}
			if o.Name == parser.AliasFile {
				snap.Aliases = data
			} else {
				snap.Priority = data
			}
		case parser.IsMatchFile(o.Name):
			if opts.Skip != nil && opts.Skip(o) {
				continue
			}
			matches = append(matches, o)
		default:
			snap.Ignored = append(snap.Ignored, o.Name)
		}
	}

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 4
	}
	snap.Files = make([]File, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, o := range matches {
		g.Go(func() error {
			data, err := s.Read(gctx, o.Name)
			if err != nil {
				return err
			}
			snap.Files[i] = File{Object: o, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
