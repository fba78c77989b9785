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
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/deltalog/deltalog-go"
)

// WriteResult summarizes one commit: one entry per physical action, ADD
// actions first in discovery order, DELETE actions after.
type WriteResult struct {
	Version int64
	Actions []deltalog.Action
}

func newWriteResult(version int64, actions []deltalog.Action) *WriteResult {
	ordered := make([]deltalog.Action, 0, len(actions))
	for _, a := range actions {
		if a.Op == deltalog.OpAdd {
			ordered = append(ordered, a)
		}
	}
	for _, a := range actions {
		if a.Op != deltalog.OpAdd {
			ordered = append(ordered, a)
		}
	}

	return &WriteResult{Version: version, Actions: ordered}
}

// Operations returns the operation kind of each action, parallel to Rows.
func (r *WriteResult) Operations() []string {
	out := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		out[i] = string(a.Op)
	}

	return out
}

// Rows returns the row count of each action, parallel to Operations.
func (r *WriteResult) Rows() []int64 {
	out := make([]int64, len(r.Actions))
	for i, a := range r.Actions {
		out[i] = a.Rows
	}

	return out
}

// Record renders the result the way callers consume it: a record with
// exactly the columns operation (utf8) and rows (int64).
func (r *WriteResult) Record(mem memory.Allocator) arrow.RecordBatch {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "operation", Type: arrow.BinaryTypes.String},
		{Name: "rows", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	bldr := array.NewRecordBuilder(mem, schema)
	defer bldr.Release()

	opBldr := bldr.Field(0).(*array.StringBuilder)
	rowsBldr := bldr.Field(1).(*array.Int64Builder)
	for _, a := range r.Actions {
		opBldr.Append(string(a.Op))
		rowsBldr.Append(a.Rows)
	}

	return bldr.NewRecordBatch()
}
