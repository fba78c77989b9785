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
	"errors"
	"fmt"
	"io/fs"

	"github.com/deltalog/deltalog-go"
	deltaio "github.com/deltalog/deltalog-go/io"
)

func readCommitFile(fsio deltaio.IO, path string) (_ []deltalog.LogEntry, err error) {
	f, err := fsio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return deltalog.DecodeLog(f)
}

// logStore publishes commit files. The durable write is the table's
// single-writer critical section: claiming a version file that another
// writer already claimed fails with ErrConcurrentModification and is
// never retried here.
type logStore struct {
	fsio     deltaio.WriteFileIO
	provider LocationProvider

	// conditional is probed once at construction: storage that can
	// create-if-absent atomically gets true CAS semantics, the rest get
	// check-then-put.
	conditional deltaio.ConditionalWriteFileIO
}

func newLogStore(fsio deltaio.WriteFileIO, provider LocationProvider) *logStore {
	ls := &logStore{fsio: fsio, provider: provider}
	if cond, ok := fsio.(deltaio.ConditionalWriteFileIO); ok {
		ls.conditional = cond
	}

	return ls
}

// commit durably records the entries as the given version. All entries
// land in one file write, so readers observe either the previous version
// or the complete new one, never a partial commit.
func (ls *logStore) commit(version int64, entries []deltalog.LogEntry) error {
	payload, err := deltalog.EncodeLog(entries)
	if err != nil {
		return fmt.Errorf("%w: %w", deltalog.ErrCommitFailed, err)
	}

	path := ls.provider.NewCommitLocation(version)

	if ls.conditional != nil {
		err := ls.conditional.WriteFileIfNotExists(path, payload)
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: version %d was committed by another writer",
				deltalog.ErrConcurrentModification, version)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", deltalog.ErrCommitFailed, err)
		}

		return nil
	}

	if f, err := ls.fsio.Open(path); err == nil {
		f.Close()

		return fmt.Errorf("%w: version %d was committed by another writer",
			deltalog.ErrConcurrentModification, version)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", deltalog.ErrCommitFailed, err)
	}

	if err := ls.fsio.WriteFile(path, payload); err != nil {
		return fmt.Errorf("%w: %w", deltalog.ErrCommitFailed, err)
	}

	return nil
}
