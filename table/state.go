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

package table

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/deltalog/deltalog-go"
	deltaio "github.com/deltalog/deltalog-go/io"
)

// CommitRecord pairs a committed version with its commitInfo provenance.
type CommitRecord struct {
	Version int64
	Info    deltalog.CommitInfo
}

// TableState is the materialized view of a table's transaction log: the
// current schema, partition columns, the set of active data files, and the
// accumulated commit history. A state with Version < 0 describes a
// location with no table.
//
// The writer borrows a TableState for the duration of one commit; it is
// not safe for concurrent mutation.
type TableState struct {
	Location string
	Version  int64

	Metadata         *deltalog.MetaData
	Schema           *deltalog.Schema
	PartitionColumns []string

	files   []deltalog.AddFile
	history []CommitRecord
}

func newTableState(location string) *TableState {
	return &TableState{Location: location, Version: -1}
}

// Exists reports whether any version has been committed at the location.
func (s *TableState) Exists() bool { return s.Version >= 0 }

// ActiveFiles returns the data files visible at the current version, in
// the order the log added them.
func (s *TableState) ActiveFiles() []deltalog.AddFile {
	return slices.Clone(s.files)
}

// History returns up to n commit records, newest first. n <= 0 returns
// everything.
func (s *TableState) History(n int) []CommitRecord {
	out := slices.Clone(s.history)
	slices.Reverse(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}

	return out
}

func (s *TableState) applyEntry(e deltalog.LogEntry) error {
	switch {
	case e.MetaData != nil:
		schema, err := e.MetaData.Schema()
		if err != nil {
			return fmt.Errorf("version %d: %w", s.Version, err)
		}
		s.Metadata = e.MetaData
		s.Schema = schema
		s.PartitionColumns = e.MetaData.PartitionColumns
	case e.Add != nil:
		s.files = append(s.files, *e.Add)
	case e.Remove != nil:
		s.files = slices.DeleteFunc(s.files, func(f deltalog.AddFile) bool {
			return f.Path == e.Remove.Path
		})
	}

	return nil
}

func (s *TableState) applyCommit(version int64, entries []deltalog.LogEntry) error {
	s.Version = version
	for _, e := range entries {
		if e.CommitInfo != nil {
			s.history = append(s.history, CommitRecord{Version: version, Info: e.CommitInfo})

			continue
		}
		if err := s.applyEntry(e); err != nil {
			return err
		}
	}

	return nil
}

// ReadTableState replays the transaction log at the given location.
// Returns an error matching deltalog.ErrNoSuchTable when the location
// holds no log at all.
func ReadTableState(ctx context.Context, fsio deltaio.IO, location string) (*TableState, error) {
	state := newTableState(location)
	provider := LoadLocationProvider(location, nil)

	for version := int64(0); ; version++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := readCommitFile(fsio, provider.NewCommitLocation(version))
		if errors.Is(err, fs.ErrNotExist) {
			if version == 0 {
				return nil, fmt.Errorf("%w: no transaction log at %s",
					deltalog.ErrNoSuchTable, location)
			}

			return state, nil
		}
		if err != nil {
			return nil, err
		}

		if err := state.applyCommit(version, entries); err != nil {
			return nil, err
		}
	}
}

// readTableStateOrNew is the write-path variant: a missing table is not an
// error, it is a fresh state at version -1.
func readTableStateOrNew(ctx context.Context, fsio deltaio.IO, location string) (*TableState, error) {
	state, err := ReadTableState(ctx, fsio, location)
	if errors.Is(err, deltalog.ErrNoSuchTable) {
		return newTableState(location), nil
	}

	return state, err
}
