// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package io

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// blobFileIO represents a file system backed by a bucket in object store.
// Names passed to it are full URIs ("scheme://host/key"); the bucket key is
// everything after the authority.
type blobFileIO struct {
	ctx    context.Context
	bucket *blob.Bucket
	base   *url.URL
}

// NewBlobFileIO wraps an opened bucket as a WriteFileIO. The base URL
// supplies the scheme and authority that prefix every name.
func NewBlobFileIO(ctx context.Context, bucket *blob.Bucket, base *url.URL) WriteFileIO {
	return &blobFileIO{ctx: ctx, bucket: bucket, base: base}
}

func (b *blobFileIO) key(name string) string {
	prefix := b.base.Scheme + "://" + b.base.Host + "/"

	return strings.TrimPrefix(strings.TrimPrefix(name, prefix), "/")
}

func (b *blobFileIO) uri(key string) string {
	return b.base.Scheme + "://" + b.base.Host + "/" + key
}

func (b *blobFileIO) Open(name string) (File, error) {
	key := b.key(name)
	attrs, err := b.bucket.Attributes(b.ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, name)
		}

		return nil, err
	}

	return &blobOpenFile{
		ctx:     b.ctx,
		bucket:  b.bucket,
		key:     key,
		size:    attrs.Size,
		modTime: attrs.ModTime,
	}, nil
}

func (b *blobFileIO) Create(name string) (FileWriter, error) {
	return b.bucket.NewWriter(b.ctx, b.key(name), nil)
}

func (b *blobFileIO) WriteFile(name string, content []byte) error {
	return b.bucket.WriteAll(b.ctx, b.key(name), content, nil)
}

func (b *blobFileIO) Remove(name string) error {
	return b.bucket.Delete(b.ctx, b.key(name))
}

func (b *blobFileIO) List(ctx context.Context, prefix string) iter.Seq2[FileEntry, error] {
	return func(yield func(FileEntry, error) bool) {
		it := b.bucket.List(&blob.ListOptions{Prefix: b.key(prefix)})
		for {
			obj, err := it.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(FileEntry{}, err)

				return
			}
			if obj.IsDir {
				continue
			}
			if !yield(FileEntry{Path: b.uri(obj.Key), Size: obj.Size}, nil) {
				return
			}
		}
	}
}

// blobOpenFile adapts a bucket object to the File interface. Sequential
// reads share one range reader; ReadAt opens an independent one, so the
// parquet reader's random access does not disturb the read position.
type blobOpenFile struct {
	ctx     context.Context
	bucket  *blob.Bucket
	key     string
	size    int64
	modTime time.Time

	mu  sync.Mutex
	off int64
	r   io.ReadCloser
}

func (f *blobOpenFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.off >= f.size {
		return 0, io.EOF
	}
	if f.r == nil {
		r, err := f.bucket.NewRangeReader(f.ctx, f.key, f.off, -1, nil)
		if err != nil {
			return 0, err
		}
		f.r = r
	}

	n, err := f.r.Read(p)
	f.off += int64(n)

	return n, err
}

func (f *blobOpenFile) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.off + offset
	case io.SeekEnd:
		abs = f.size + offset
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", fs.ErrInvalid, whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("%w: negative position", fs.ErrInvalid)
	}

	if abs != f.off && f.r != nil {
		f.r.Close()
		f.r = nil
	}
	f.off = abs

	return abs, nil
}

func (f *blobOpenFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.size {
		return 0, io.EOF
	}

	length := int64(len(p))
	if off+length > f.size {
		length = f.size - off
	}

	r, err := f.bucket.NewRangeReader(f.ctx, f.key, off, length, nil)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, p[:length])
	if err == nil && int64(n) < int64(len(p)) {
		err = io.EOF
	}

	return n, err
}

func (f *blobOpenFile) Stat() (fs.FileInfo, error) {
	return &blobFileInfo{name: path.Base(f.key), size: f.size, modTime: f.modTime}, nil
}

func (f *blobOpenFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.r != nil {
		err := f.r.Close()
		f.r = nil

		return err
	}

	return nil
}

type blobFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (f *blobFileInfo) Name() string       { return f.name }
func (f *blobFileInfo) Size() int64        { return f.size }
func (f *blobFileInfo) Mode() fs.FileMode  { return fs.ModeIrregular }
func (f *blobFileInfo) ModTime() time.Time { return f.modTime }
func (f *blobFileInfo) IsDir() bool        { return false }
func (f *blobFileInfo) Sys() any           { return nil }

// In-memory buckets persist per authority for the life of the process, so
// separate LoadFS calls against the same "mem://name/..." location observe
// the same table.
var (
	memBucketsMu sync.Mutex
	memBuckets   = map[string]*blob.Bucket{}
)

func memBucketFactory(ctx context.Context, parsed *url.URL, props map[string]string) (IO, error) {
	memBucketsMu.Lock()
	defer memBucketsMu.Unlock()

	bucket, ok := memBuckets[parsed.Host]
	if !ok {
		bucket = memblob.OpenBucket(nil)
		memBuckets[parsed.Host] = bucket
	}

	return NewBlobFileIO(ctx, bucket, &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}), nil
}
