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
	"fmt"
	"slices"
	"strings"

	"github.com/deltalog/deltalog-go"
)

// reconciledWrite is the outcome of validating an incoming write against
// the existing table: the schema and partition columns the commit will
// carry, and whether the table's metadata (and therefore every previously
// active file) is being replaced.
type reconciledWrite struct {
	schema        *deltalog.Schema
	partitionCols []string

	// replaceTable is set when the commit invalidates all prior data:
	// a schema replacement or a partition layout change under overwrite.
	replaceTable bool
}

// reconcile gates the planner: any error here aborts the write before a
// single byte of data is materialized.
func reconcile(state *TableState, incoming *deltalog.Schema, cfg WriteConfig) (*reconciledWrite, error) {
	if cfg.SchemaMode == SchemaModeOverwrite && cfg.Mode != ModeOverwrite {
		return nil, fmt.Errorf("%w: schema_mode=overwrite requires mode=overwrite",
			deltalog.ErrInvalidConfiguration)
	}

	out := &reconciledWrite{schema: incoming, partitionCols: cfg.PartitionCols}

	if !state.Exists() {
		if err := deltalog.CheckPartitionColumns(incoming, cfg.PartitionCols); err != nil {
			return nil, err
		}

		return out, nil
	}

	colsChanged := len(cfg.PartitionCols) > 0 &&
		!slices.Equal(cfg.PartitionCols, state.PartitionColumns)

	switch {
	case colsChanged && cfg.SchemaMode == SchemaModeOverwrite:
		// changing both the schema and the partition layout in one call is
		// ambiguous, reject rather than guess
		return nil, fmt.Errorf("%w: cannot combine schema_mode=overwrite with a partition column change (have [%s], requested [%s])",
			deltalog.ErrInvalidConfiguration,
			strings.Join(state.PartitionColumns, ", "),
			strings.Join(cfg.PartitionCols, ", "))
	case colsChanged && cfg.Mode != ModeOverwrite:
		return nil, fmt.Errorf("%w: table is partitioned by [%s], write requested [%s]; overwrite the table to repartition it",
			deltalog.ErrPartitionColumnMismatch,
			strings.Join(state.PartitionColumns, ", "),
			strings.Join(cfg.PartitionCols, ", "))
	case colsChanged:
		out.replaceTable = true
	case len(cfg.PartitionCols) == 0:
		// appends and overwrites inherit the table's partitioning
		out.partitionCols = state.PartitionColumns
	}

	switch cfg.SchemaMode {
	case SchemaModeOverwrite:
		if !incoming.Equals(state.Schema) {
			out.replaceTable = true
		}
	default:
		if !incoming.Equals(state.Schema) {
			return nil, fmt.Errorf("%w: incoming schema %s does not match table schema %s",
				deltalog.ErrSchemaMismatch, incoming, state.Schema)
		}
	}

	if err := deltalog.CheckPartitionColumns(incoming, out.partitionCols); err != nil {
		return nil, err
	}

	return out, nil
}
