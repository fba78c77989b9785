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
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/deltalog/deltalog-go"
	deltaio "github.com/deltalog/deltalog-go/io"
)

// WriteMode governs how a write interacts with pre-existing table content.
// It is chosen per call and never persists in the table.
type WriteMode string

const (
	// ModeAppend adds the incoming data to whatever is already there.
	ModeAppend WriteMode = "append"
	// ModeOverwrite replaces prior data under the partitions the incoming
	// data touches (the whole table when unpartitioned).
	ModeOverwrite WriteMode = "overwrite"
	// ModeErrorIfExists fails when the table already has any version.
	ModeErrorIfExists WriteMode = "error"
	// ModeIgnore turns the write into a successful no-op when the table
	// already exists.
	ModeIgnore WriteMode = "ignore"
)

// SchemaMode governs whether a schema mismatch is a hard failure or a
// schema replacement. Replacement is only legal together with ModeOverwrite.
type SchemaMode string

const (
	SchemaModeStrict    SchemaMode = "strict"
	SchemaModeOverwrite SchemaMode = "overwrite"
)

// WriteConfig is the full set of recognized write options.
type WriteConfig struct {
	Mode          WriteMode
	PartitionCols []string
	SchemaMode    SchemaMode

	// CustomMetadata is recorded verbatim on the commit's provenance
	// record and surfaced by Table.History.
	CustomMetadata deltalog.Properties

	// Properties tunes physical layout and encoding (see properties.go).
	Properties deltalog.Properties

	// Workers bounds the fanout writer's parallelism; 0 means the
	// write.workers property, or its default.
	Workers int
}

func (c *WriteConfig) normalize() error {
	if c.Mode == "" {
		c.Mode = ModeAppend
	}
	if c.SchemaMode == "" {
		c.SchemaMode = SchemaModeStrict
	}

	switch c.Mode {
	case ModeAppend, ModeOverwrite, ModeErrorIfExists, ModeIgnore:
	default:
		return fmt.Errorf("%w: unknown write mode %q",
			deltalog.ErrInvalidConfiguration, c.Mode)
	}

	switch c.SchemaMode {
	case SchemaModeStrict, SchemaModeOverwrite:
	default:
		return fmt.Errorf("%w: unknown schema mode %q",
			deltalog.ErrInvalidConfiguration, c.SchemaMode)
	}

	if c.SchemaMode == SchemaModeOverwrite && c.Mode != ModeOverwrite {
		return fmt.Errorf("%w: schema_mode=overwrite requires mode=overwrite",
			deltalog.ErrInvalidConfiguration)
	}

	if c.Workers <= 0 {
		c.Workers = c.Properties.GetInt(WriteTargetWorkersKey, WriteTargetWorkersDefault)
	}

	return nil
}

// Write partitions the incoming batches, writes their data files, and
// commits the resulting actions as the table's next version.
//
// Validation (configuration, schema reconciliation, partition columns)
// happens before any data file is materialized; storage failures and
// version races surface as ErrCommitFailed and ErrConcurrentModification
// respectively, with no internal retry. Cancelling the context aborts the
// write up until the durable commit step; a commit that returned
// successfully can no longer be cancelled.
func Write(ctx context.Context, fsio deltaio.WriteFileIO, location string,
	schema *arrow.Schema, batches iter.Seq2[arrow.RecordBatch, error], cfg WriteConfig,
) (*WriteResult, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	incoming, err := deltalog.SchemaFromArrow(schema)
	if err != nil {
		return nil, err
	}

	state, err := readTableStateOrNew(ctx, fsio, location)
	if err != nil {
		return nil, err
	}

	mode := cfg.Mode
	switch mode {
	case ModeErrorIfExists:
		if state.Exists() {
			return nil, fmt.Errorf("%w: %s is at version %d",
				deltalog.ErrTableAlreadyExists, location, state.Version)
		}
		mode = ModeAppend
	case ModeIgnore:
		if state.Exists() {
			// the sole mode where leaving the table untouched is the
			// correct observable outcome
			return newWriteResult(state.Version, nil), nil
		}
		mode = ModeAppend
	}

	rec, err := reconcile(state, incoming, cfg)
	if err != nil {
		return nil, err
	}

	fileSchema, err := deltalog.SchemaToArrow(rec.schema)
	if err != nil {
		return nil, err
	}

	provider := LoadLocationProvider(location, cfg.Properties)
	writer := newFanoutWriter(fsio, provider, location, fileSchema, rec.partitionCols, cfg.Properties)

	plan, err := writer.write(ctx, batches, cfg.Workers)
	if err != nil {
		return nil, err
	}

	actions := planActions(plan, state, mode, rec.replaceTable)

	entries, err := buildCommitEntries(state, rec, cfg, plan, actions)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	version := state.Version + 1
	if err := newLogStore(fsio, provider).commit(version, entries); err != nil {
		return nil, err
	}

	return newWriteResult(version, actions), nil
}

func buildCommitEntries(state *TableState, rec *reconciledWrite, cfg WriteConfig,
	plan *writePlan, actions []deltalog.Action,
) ([]deltalog.LogEntry, error) {
	params := map[string]string{
		"mode":        string(cfg.Mode),
		"partitionBy": "[" + strings.Join(rec.partitionCols, ", ") + "]",
	}

	entries := []deltalog.LogEntry{
		{CommitInfo: deltalog.NewCommitInfo("WRITE", params, cfg.CustomMetadata)},
	}

	if !state.Exists() || rec.replaceTable {
		meta, err := deltalog.NewMetaData(rec.schema, rec.partitionCols, cfg.Properties)
		if err != nil {
			return nil, err
		}
		entries = append(entries,
			deltalog.LogEntry{Protocol: deltalog.DefaultProtocol()},
			deltalog.LogEntry{MetaData: meta},
		)
	}

	for i := range plan.adds {
		entries = append(entries, deltalog.LogEntry{Add: &plan.adds[i].file})
	}

	now := time.Now().UnixMilli()
	for _, a := range actions {
		if a.Op != deltalog.OpDelete {
			continue
		}

		entries = append(entries, deltalog.LogEntry{Remove: &deltalog.RemoveFile{
			Path:              a.Path,
			DeletionTimestamp: now,
			DataChange:        true,
			PartitionValues:   a.Key.PartitionValues(),
		}})
	}

	return entries, nil
}
