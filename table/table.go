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
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/deltalog/deltalog-go"
	"github.com/deltalog/deltalog-go/internal"
	deltaio "github.com/deltalog/deltalog-go/io"
)

// Table is a read-only handle on a committed table version. It never sees
// commits that happen after Open; re-open to observe them.
type Table struct {
	fsio  deltaio.IO
	state *TableState
}

// Open replays the transaction log at the location and returns a handle on
// the latest version.
func Open(ctx context.Context, fsio deltaio.IO, location string) (*Table, error) {
	state, err := ReadTableState(ctx, fsio, location)
	if err != nil {
		return nil, err
	}

	return &Table{fsio: fsio, state: state}, nil
}

func (t *Table) Location() string { return t.state.Location }
func (t *Table) Version() int64   { return t.state.Version }

func (t *Table) Schema() *deltalog.Schema { return t.state.Schema }

// ArrowSchema converts the table schema to its arrow equivalent, the shape
// ReadAll returns data in.
func (t *Table) ArrowSchema() (*arrow.Schema, error) {
	return deltalog.SchemaToArrow(t.state.Schema)
}

func (t *Table) PartitionColumns() []string { return t.state.PartitionColumns }

// Files returns the data files active at this version.
func (t *Table) Files() []deltalog.AddFile { return t.state.ActiveFiles() }

// History returns up to n commit provenance records, newest first; n <= 0
// returns all of them.
func (t *Table) History(n int) []CommitRecord { return t.state.History(n) }

// resolve maps a log path to a storage location. The log stores paths
// relative to the table root unless the file lives elsewhere.
func (t *Table) resolve(path string) string {
	if strings.Contains(path, "://") || strings.HasPrefix(path, "/") {
		return path
	}

	return strings.TrimSuffix(t.state.Location, "/") + "/" + path
}

// ReadAll materializes every active data file into a single arrow table.
// Row order follows the log's file order; rows within a file keep their
// written order. The caller owns the returned table.
func (t *Table) ReadAll(ctx context.Context) (arrow.Table, error) {
	schema, err := t.ArrowSchema()
	if err != nil {
		return nil, err
	}

	var recs []arrow.RecordBatch
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()

	for _, f := range t.state.ActiveFiles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileRecs, err := ReadDataFile(ctx, t.fsio, t.resolve(f.Path))
		if err != nil {
			return nil, err
		}
		recs = append(recs, fileRecs...)
	}

	return array.NewTableFromRecords(schema, recs), nil
}

// ReadDataFile reads one parquet file into arrow record batches. The
// caller owns the returned batches.
func ReadDataFile(ctx context.Context, fsio deltaio.IO, location string) (_ []arrow.RecordBatch, err error) {
	f, err := fsio.Open(location)
	if err != nil {
		return nil, err
	}

	// the parquet reader owns the file and closes it
	rdr, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()

		return nil, err
	}
	defer internal.CheckedClose(rdr, &err)

	arrRdr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: 1 << 16},
		compute.GetAllocator(ctx))
	if err != nil {
		return nil, err
	}

	rr, err := arrRdr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	defer rr.Release()

	var recs []arrow.RecordBatch
	for rr.Next() {
		rec := rr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rr.Err(); err != nil {
		for _, r := range recs {
			r.Release()
		}

		return nil, err
	}

	return recs, nil
}
