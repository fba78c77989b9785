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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltalog/deltalog-go"
)

func twoColSchema() *deltalog.Schema {
	return deltalog.NewSchema(
		deltalog.Field{Name: "part", Type: deltalog.Long, Nullable: true},
		deltalog.Field{Name: "value", Type: deltalog.String, Nullable: true},
	)
}

func existingState(partitionCols []string) *TableState {
	state := newTableState("mem://t")
	state.Version = 0
	state.Schema = twoColSchema()
	state.PartitionColumns = partitionCols

	return state
}

func TestReconcileFreshTable(t *testing.T) {
	rec, err := reconcile(newTableState("mem://t"), twoColSchema(),
		WriteConfig{Mode: ModeAppend, SchemaMode: SchemaModeStrict, PartitionCols: []string{"part"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"part"}, rec.partitionCols)
	assert.False(t, rec.replaceTable)
}

func TestReconcileFreshTableBadPartitionColumn(t *testing.T) {
	_, err := reconcile(newTableState("mem://t"), twoColSchema(),
		WriteConfig{Mode: ModeAppend, SchemaMode: SchemaModeStrict, PartitionCols: []string{"nope"}})
	assert.ErrorIs(t, err, deltalog.ErrInvalidPartitionColumn)
}

func TestReconcileInheritsPartitioning(t *testing.T) {
	rec, err := reconcile(existingState([]string{"part"}), twoColSchema(),
		WriteConfig{Mode: ModeAppend, SchemaMode: SchemaModeStrict})
	require.NoError(t, err)

	assert.Equal(t, []string{"part"}, rec.partitionCols)
	assert.False(t, rec.replaceTable)
}

func TestReconcileMatchingExplicitColumns(t *testing.T) {
	rec, err := reconcile(existingState([]string{"part"}), twoColSchema(),
		WriteConfig{Mode: ModeAppend, SchemaMode: SchemaModeStrict, PartitionCols: []string{"part"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"part"}, rec.partitionCols)
	assert.False(t, rec.replaceTable)
}

func TestReconcilePartitionChange(t *testing.T) {
	state := existingState([]string{"part"})
	cfg := WriteConfig{SchemaMode: SchemaModeStrict, PartitionCols: []string{"value"}}

	cfg.Mode = ModeAppend
	_, err := reconcile(state, twoColSchema(), cfg)
	assert.ErrorIs(t, err, deltalog.ErrPartitionColumnMismatch)

	cfg.Mode = ModeOverwrite
	rec, err := reconcile(state, twoColSchema(), cfg)
	require.NoError(t, err)
	assert.True(t, rec.replaceTable)
	assert.Equal(t, []string{"value"}, rec.partitionCols)
}

func TestReconcilePartitionChangeWithSchemaOverwrite(t *testing.T) {
	_, err := reconcile(existingState([]string{"part"}), twoColSchema(), WriteConfig{
		Mode:          ModeOverwrite,
		SchemaMode:    SchemaModeOverwrite,
		PartitionCols: []string{"value"},
	})
	assert.ErrorIs(t, err, deltalog.ErrInvalidConfiguration)
}

func TestReconcileSchemaMismatch(t *testing.T) {
	incoming := deltalog.NewSchema(
		deltalog.Field{Name: "part", Type: deltalog.Long, Nullable: true},
	)

	_, err := reconcile(existingState(nil), incoming,
		WriteConfig{Mode: ModeAppend, SchemaMode: SchemaModeStrict})
	assert.ErrorIs(t, err, deltalog.ErrSchemaMismatch)

	rec, err := reconcile(existingState(nil), incoming,
		WriteConfig{Mode: ModeOverwrite, SchemaMode: SchemaModeOverwrite})
	require.NoError(t, err)
	assert.True(t, rec.replaceTable)
}

func TestReconcileSchemaOverwriteIdenticalSchema(t *testing.T) {
	rec, err := reconcile(existingState(nil), twoColSchema(),
		WriteConfig{Mode: ModeOverwrite, SchemaMode: SchemaModeOverwrite})
	require.NoError(t, err)

	// a matching schema under schema_mode=overwrite is an ordinary overwrite
	assert.False(t, rec.replaceTable)
}

func TestWriteConfigNormalize(t *testing.T) {
	cfg := WriteConfig{}
	require.NoError(t, cfg.normalize())
	assert.Equal(t, ModeAppend, cfg.Mode)
	assert.Equal(t, SchemaModeStrict, cfg.SchemaMode)
	assert.Equal(t, WriteTargetWorkersDefault, cfg.Workers)

	cfg = WriteConfig{Properties: deltalog.Properties{WriteTargetWorkersKey: "9"}}
	require.NoError(t, cfg.normalize())
	assert.Equal(t, 9, cfg.Workers)

	cfg = WriteConfig{Mode: "upsert"}
	assert.ErrorIs(t, cfg.normalize(), deltalog.ErrInvalidConfiguration)

	cfg = WriteConfig{SchemaMode: SchemaModeOverwrite, Mode: ModeAppend}
	assert.ErrorIs(t, cfg.normalize(), deltalog.ErrInvalidConfiguration)
}
