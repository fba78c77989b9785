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

// Package io provides the file system abstraction the table writer and
// reader operate against, keyed by URI scheme. Implementations exist for
// the local file system and for gocloud.dev blob buckets.
package io

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
)

// File is the interface for readable data files. Besides plain reads, the
// parquet reader requires random access and seeking.
type File interface {
	fs.File
	io.ReadSeekCloser
	io.ReaderAt
}

// FileWriter is a write handle for a new file; nothing is visible to
// readers until Close returns.
type FileWriter interface {
	io.Writer
	io.Closer
}

// IO is the minimal interface for reading files from storage.
type IO interface {
	Open(name string) (File, error)
	Remove(name string) error
}

// WriteFileIO is the interface for storage that can also create files.
type WriteFileIO interface {
	IO
	Create(name string) (FileWriter, error)
	WriteFile(name string, content []byte) error
}

// ConditionalWriteFileIO is an optional capability: atomically create a
// file only if it does not already exist, failing with an error matching
// fs.ErrExist otherwise. Storage without this capability is probed once by
// the commit path, which then falls back to check-then-put.
type ConditionalWriteFileIO interface {
	WriteFileIfNotExists(name string, content []byte) error
}

// FileEntry is one object in a storage listing.
type FileEntry struct {
	Path string
	Size int64
}

// ListFileIO is an optional capability: enumerate files under a prefix.
type ListFileIO interface {
	List(ctx context.Context, prefix string) iter.Seq2[FileEntry, error]
}

// ErrIONotFound is returned when no IO implementation is registered for a
// path's scheme.
var ErrIONotFound = errors.New("no IO implementation registered for scheme")

// LoadFS infers an IO implementation for the given location from its URI
// scheme. A scheme of "file://" or an empty string yields LocalFS; "mem://"
// yields an in-memory bucket shared per bucket name.
func LoadFS(ctx context.Context, props map[string]string, location string) (IO, error) {
	return inferFileIOFromScheme(ctx, location, props)
}
