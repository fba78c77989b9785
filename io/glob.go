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
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
)

// FileMeta is one row of a glob listing: the object's path, its size in
// bytes, and for parquet objects the total row count (nil otherwise).
type FileMeta struct {
	Path    string
	Size    int64
	NumRows *int64
}

// FromGlobPath lists the files matching the given glob patterns.
//
// Wildcards: `*` matches any run of characters within one path segment,
// `?` a single character, `[...]` a character class, and `**` any number
// of directory levels. Fails with an error matching fs.ErrNotExist when no
// file matches any pattern.
func FromGlobPath(ctx context.Context, fsio IO, patterns ...string) ([]FileMeta, error) {
	lister, ok := fsio.(ListFileIO)
	if !ok {
		return nil, fmt.Errorf("%w: storage does not support listing", ErrIONotFound)
	}

	var (
		out  []FileMeta
		seen = map[string]struct{}{}
	)

	for _, pattern := range patterns {
		re, err := translateGlob(pattern)
		if err != nil {
			return nil, err
		}

		for entry, err := range lister.List(ctx, globPrefix(pattern)) {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					break
				}

				return nil, err
			}

			if !re.MatchString(entry.Path) {
				continue
			}
			if _, dup := seen[entry.Path]; dup {
				continue
			}
			seen[entry.Path] = struct{}{}

			meta := FileMeta{Path: entry.Path, Size: entry.Size}
			if strings.HasSuffix(entry.Path, ".parquet") {
				rows, err := parquetNumRows(fsio, entry.Path)
				if err == nil {
					meta.NumRows = &rows
				}
			}
			out = append(out, meta)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no files found matching %s",
			fs.ErrNotExist, strings.Join(patterns, ", "))
	}

	return out, nil
}

// GlobRecord renders a glob listing as an arrow record with the columns
// path (utf8), size (int64) and rows (int64, null for non-parquet).
func GlobRecord(mem memory.Allocator, metas []FileMeta) arrow.RecordBatch {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "path", Type: arrow.BinaryTypes.String},
		{Name: "size", Type: arrow.PrimitiveTypes.Int64},
		{Name: "rows", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)

	bldr := array.NewRecordBuilder(mem, schema)
	defer bldr.Release()

	pathBldr := bldr.Field(0).(*array.StringBuilder)
	sizeBldr := bldr.Field(1).(*array.Int64Builder)
	rowsBldr := bldr.Field(2).(*array.Int64Builder)

	for _, m := range metas {
		pathBldr.Append(m.Path)
		sizeBldr.Append(m.Size)
		if m.NumRows != nil {
			rowsBldr.Append(*m.NumRows)
		} else {
			rowsBldr.AppendNull()
		}
	}

	return bldr.NewRecordBatch()
}

func parquetNumRows(fsio IO, path string) (_ int64, err error) {
	f, err := fsio.Open(path)
	if err != nil {
		return 0, err
	}

	rdr, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()

		return 0, err
	}
	defer func() {
		err = errors.Join(err, rdr.Close())
	}()

	return rdr.NumRows(), nil
}

// globPrefix returns the literal leading portion of a glob pattern, cut at
// the last path separator before the first wildcard, for use as a listing
// prefix.
func globPrefix(pattern string) string {
	end := len(pattern)
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		end = i
	}

	if slash := strings.LastIndex(pattern[:end], "/"); slash >= 0 {
		return pattern[:slash+1]
	}

	return ""
}

func translateGlob(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				sb.WriteString(".*")
				i++
				// collapse "**/" so it also matches zero directories
				if i+1 < len(runes) && runes[i+1] == '/' {
					sb.WriteString("/?")
					i++
				}
			} else {
				sb.WriteString("[^/]*")
			}
		case '?':
			sb.WriteString("[^/]")
		case '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j == len(runes) {
				return nil, fmt.Errorf("unterminated character class in glob %q", pattern)
			}
			sb.WriteString(string(runes[i : j+1]))
			i = j
		default:
			sb.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	sb.WriteString("$")

	return regexp.Compile(sb.String())
}
