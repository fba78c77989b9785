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

package deltalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltalog/deltalog-go"
)

func buildBatch(t *testing.T, mem memory.Allocator, sc *arrow.Schema, data string) arrow.RecordBatch {
	t.Helper()

	rec, _, err := array.RecordFromJSON(mem, sc, strings.NewReader(data))
	require.NoError(t, err)

	return rec
}

func TestPartitionNoColumns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sc := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	rec := buildBatch(t, mem, sc, `[{"id": 1}, {"id": 2}]`)
	defer rec.Release()

	groups, err := deltalog.Partition(context.Background(), rec, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	defer groups[0].Batch.Release()

	assert.True(t, groups[0].Key.IsEmpty())
	assert.Equal(t, "", groups[0].Key.Path())
	assert.EqualValues(t, 2, groups[0].Batch.NumRows())
}

func TestPartitionGroupsWithNull(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sc := arrow.NewSchema([]arrow.Field{
		{Name: "part", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "value", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	rec := buildBatch(t, mem, sc, `[
		{"part": 1, "value": "a"},
		{"part": 1, "value": "b"},
		{"part": 2, "value": "c"},
		{"part": null, "value": "d"}
	]`)
	defer rec.Release()

	ctx := compute.WithAllocator(context.Background(), mem)
	groups, err := deltalog.Partition(ctx, rec, []string{"part"})
	require.NoError(t, err)
	require.Len(t, groups, 3)
	defer func() {
		for _, g := range groups {
			g.Batch.Release()
		}
	}()

	assert.Equal(t, "part=1", groups[0].Key.Path())
	assert.Equal(t, "part=2", groups[1].Key.Path())
	assert.Equal(t, "part="+deltalog.HiveDefaultPartition, groups[2].Key.Path())

	assert.EqualValues(t, 2, groups[0].Batch.NumRows())
	assert.EqualValues(t, 1, groups[1].Batch.NumRows())
	assert.EqualValues(t, 1, groups[2].Batch.NumRows())

	var total int64
	for _, g := range groups {
		total += g.Batch.NumRows()
	}
	assert.Equal(t, rec.NumRows(), total)
}

func TestPartitionMultipleColumns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sc := arrow.NewSchema([]arrow.Field{
		{Name: "region", Type: arrow.BinaryTypes.String},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean},
	}, nil)
	rec := buildBatch(t, mem, sc, `[
		{"region": "eu", "active": true},
		{"region": "eu", "active": false},
		{"region": "us", "active": true},
		{"region": "eu", "active": true}
	]`)
	defer rec.Release()

	ctx := compute.WithAllocator(context.Background(), mem)
	groups, err := deltalog.Partition(ctx, rec, []string{"region", "active"})
	require.NoError(t, err)
	require.Len(t, groups, 3)
	defer func() {
		for _, g := range groups {
			g.Batch.Release()
		}
	}()

	assert.Equal(t, "region=eu/active=true", groups[0].Key.Path())
	assert.Equal(t, "region=eu/active=false", groups[1].Key.Path())
	assert.Equal(t, "region=us/active=true", groups[2].Key.Path())
	assert.EqualValues(t, 2, groups[0].Batch.NumRows())
}

func TestPartitionUnknownColumn(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sc := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	rec := buildBatch(t, mem, sc, `[{"id": 1}]`)
	defer rec.Release()

	_, err := deltalog.Partition(context.Background(), rec, []string{"missing"})
	assert.ErrorIs(t, err, deltalog.ErrInvalidPartitionColumn)
}

func TestPartitionBinaryColumnRejected(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	sc := arrow.NewSchema([]arrow.Field{
		{Name: "blob", Type: arrow.BinaryTypes.Binary},
	}, nil)

	bldr := array.NewRecordBuilder(mem, sc)
	bldr.Field(0).(*array.BinaryBuilder).Append([]byte{0x01})
	rec := bldr.NewRecordBatch()
	bldr.Release()
	defer rec.Release()

	_, err := deltalog.Partition(context.Background(), rec, []string{"blob"})
	require.ErrorIs(t, err, deltalog.ErrInvalidPartitionColumn)
	assert.ErrorContains(t, err, "binary partitioning is not supported")
}

func TestPartitionKeyPathEscaping(t *testing.T) {
	key := deltalog.NewPartitionKey([]string{"name"}, []string{"a/b c"})
	assert.Equal(t, "name=a%2Fb%20c", key.Path())
}

func TestPartitionKeyEquality(t *testing.T) {
	a := deltalog.NewPartitionKey([]string{"x"}, []string{"1"})
	b := deltalog.NewPartitionKey([]string{"x"}, []string{"1"})
	c := deltalog.NewPartitionKey([]string{"x"}, []string{"2"})

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.True(t, deltalog.PartitionKey{}.IsEmpty())
}

func TestPartitionValuesNullSentinel(t *testing.T) {
	key := deltalog.NewPartitionKey(
		[]string{"a", "b"}, []string{"1", deltalog.HiveDefaultPartition})

	values := key.PartitionValues()
	require.NotNil(t, values["a"])
	assert.Equal(t, "1", *values["a"])
	assert.Nil(t, values["b"])

	back := deltalog.KeyFromPartitionValues([]string{"a", "b"}, values)
	assert.True(t, key.Equals(back))
}

func TestCheckPartitionColumns(t *testing.T) {
	schema := deltalog.NewSchema(
		deltalog.Field{Name: "id", Type: deltalog.Long},
		deltalog.Field{Name: "blob", Type: deltalog.Binary, Nullable: true},
	)

	assert.NoError(t, deltalog.CheckPartitionColumns(schema, []string{"id"}))
	assert.NoError(t, deltalog.CheckPartitionColumns(schema, nil))
	assert.ErrorIs(t, deltalog.CheckPartitionColumns(schema, []string{"id", "id"}),
		deltalog.ErrInvalidPartitionColumn)
	assert.ErrorIs(t, deltalog.CheckPartitionColumns(schema, []string{"missing"}),
		deltalog.ErrInvalidPartitionColumn)
	assert.ErrorIs(t, deltalog.CheckPartitionColumns(schema, []string{"blob"}),
		deltalog.ErrInvalidPartitionColumn)
}
