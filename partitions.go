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

package deltalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
)

// HiveDefaultPartition is the distinguished partition value used for null,
// following the hive directory-layout convention.
const HiveDefaultPartition = "__HIVE_DEFAULT_PARTITION__"

// PartitionKey is the ordered (column, encoded value) tuple identifying the
// partition a row belongs to. Null column values encode as
// HiveDefaultPartition, so two rows with null in the same partition column
// are co-partitioned.
type PartitionKey struct {
	cols []string
	vals []string
}

// NewPartitionKey builds a key from parallel column/value slices. Values
// must already be encoded; use HiveDefaultPartition for null.
func NewPartitionKey(cols, vals []string) PartitionKey {
	return PartitionKey{cols: cols, vals: vals}
}

func (k PartitionKey) IsEmpty() bool { return len(k.cols) == 0 }

func (k PartitionKey) Columns() []string { return k.cols }

func (k PartitionKey) Values() []string { return k.vals }

// Path renders the key as a hive-style directory path, e.g.
// "year=2024/month=2". Values are path-escaped, which also makes Path a
// canonical identity for null-aware key equality.
func (k PartitionKey) Path() string {
	if k.IsEmpty() {
		return ""
	}

	parts := make([]string, len(k.cols))
	for i, c := range k.cols {
		parts[i] = c + "=" + url.PathEscape(k.vals[i])
	}

	return strings.Join(parts, "/")
}

func (k PartitionKey) String() string { return k.Path() }

func (k PartitionKey) Equals(other PartitionKey) bool {
	return k.Path() == other.Path()
}

// PartitionValues returns the key in the shape the log's add/remove actions
// store: column name to value, nil for null.
func (k PartitionKey) PartitionValues() map[string]*string {
	out := make(map[string]*string, len(k.cols))
	for i, c := range k.cols {
		if k.vals[i] == HiveDefaultPartition {
			out[c] = nil
		} else {
			v := k.vals[i]
			out[c] = &v
		}
	}

	return out
}

// PartitionGroup is one partition's slice of an input record batch.
type PartitionGroup struct {
	Key   PartitionKey
	Batch arrow.RecordBatch
}

// Partition splits a record batch into disjoint groups keyed by the value
// tuple of the partition columns, in first-appearance order. Every input
// row lands in exactly one group. With no partition columns the whole
// batch is returned as a single group under the empty key.
//
// The returned batches are retained; callers release them.
func Partition(ctx context.Context, rec arrow.RecordBatch, cols []string) ([]PartitionGroup, error) {
	if len(cols) == 0 {
		rec.Retain()

		return []PartitionGroup{{Key: PartitionKey{}, Batch: rec}}, nil
	}

	columns := make([]arrow.Array, len(cols))
	for i, name := range cols {
		indices := rec.Schema().FieldIndices(name)
		if len(indices) == 0 {
			return nil, fmt.Errorf("%w: column %q not found in schema",
				ErrInvalidPartitionColumn, name)
		}
		field := rec.Schema().Field(indices[0])
		if err := checkPartitionType(field.Type); err != nil {
			return nil, fmt.Errorf("%w: column %q", err, name)
		}
		columns[i] = rec.Column(indices[0])
	}

	type groupAcc struct {
		key  PartitionKey
		rows []int64
	}

	var order []string
	groups := make(map[string]*groupAcc)

	vals := make([]string, len(cols))
	for row := range int(rec.NumRows()) {
		for i, col := range columns {
			if col.IsNull(row) {
				vals[i] = HiveDefaultPartition
			} else {
				vals[i] = col.ValueStr(row)
			}
		}

		key := NewPartitionKey(cols, append([]string(nil), vals...))
		id := key.Path()
		acc, ok := groups[id]
		if !ok {
			acc = &groupAcc{key: key}
			groups[id] = acc
			order = append(order, id)
		}
		acc.rows = append(acc.rows, int64(row))
	}

	out := make([]PartitionGroup, 0, len(order))
	for _, id := range order {
		acc := groups[id]
		if int64(len(acc.rows)) == rec.NumRows() {
			// single partition, no need to copy rows out
			rec.Retain()
			out = append(out, PartitionGroup{Key: acc.key, Batch: rec})

			continue
		}

		batch, err := takeRows(ctx, rec, acc.rows)
		if err != nil {
			for _, g := range out {
				g.Batch.Release()
			}

			return nil, err
		}
		out = append(out, PartitionGroup{Key: acc.key, Batch: batch})
	}

	return out, nil
}

func takeRows(ctx context.Context, rec arrow.RecordBatch, rows []int64) (arrow.RecordBatch, error) {
	mem := compute.GetAllocator(ctx)

	bldr := array.NewInt64Builder(mem)
	defer bldr.Release()

	bldr.AppendValues(rows, nil)
	indices := bldr.NewInt64Array()
	defer indices.Release()

	taken, err := compute.Take(
		ctx,
		*compute.DefaultTakeOptions(),
		compute.NewDatumWithoutOwning(rec),
		compute.NewDatumWithoutOwning(indices),
	)
	if err != nil {
		return nil, err
	}

	return taken.(*compute.RecordDatum).Value, nil
}

func checkPartitionType(dt arrow.DataType) error {
	switch dt.ID() {
	case arrow.BOOL, arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.FLOAT32, arrow.FLOAT64, arrow.STRING, arrow.LARGE_STRING,
		arrow.DATE32, arrow.TIMESTAMP, arrow.DECIMAL128:
		return nil
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		// binary partitioning is a declared limitation, not a fallback
		return fmt.Errorf("%w: binary partitioning is not supported",
			ErrInvalidPartitionColumn)
	default:
		return fmt.Errorf("%w: type %s is not supported for partitioning",
			ErrInvalidPartitionColumn, dt)
	}
}

// CheckPartitionColumns validates the requested partition columns against a
// table schema without touching any data.
func CheckPartitionColumns(schema *Schema, cols []string) error {
	seen := make(map[string]struct{}, len(cols))
	for _, name := range cols {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: column %q listed twice",
				ErrInvalidPartitionColumn, name)
		}
		seen[name] = struct{}{}

		f, ok := schema.FindField(name)
		if !ok {
			return fmt.Errorf("%w: column %q not found in schema",
				ErrInvalidPartitionColumn, name)
		}
		if f.Type.Equals(Binary) {
			return fmt.Errorf("%w: binary partitioning is not supported (column %q)",
				ErrInvalidPartitionColumn, name)
		}
	}

	return nil
}
