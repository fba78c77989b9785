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
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deltalog/deltalog-go"
	"github.com/deltalog/deltalog-go/internal"
	deltaio "github.com/deltalog/deltalog-go/io"
)

// fanoutWriter distributes record batches across partitions, writing one
// parquet data file per batch and partition with configurable parallelism.
// Each worker accumulates its own partial write plan; the partials are
// merged after the workers drain, so the final plan is independent of
// scheduling order.
type fanoutWriter struct {
	fsio          deltaio.WriteFileIO
	provider      LocationProvider
	tableLoc      string
	fileSchema    *arrow.Schema
	partitionCols []string
	props         deltalog.Properties

	commitUUID uuid.UUID
	fileCount  atomic.Int32
}

func newFanoutWriter(fsio deltaio.WriteFileIO, provider LocationProvider, tableLoc string,
	fileSchema *arrow.Schema, partitionCols []string, props deltalog.Properties,
) *fanoutWriter {
	return &fanoutWriter{
		fsio:          fsio,
		provider:      provider,
		tableLoc:      strings.TrimSuffix(tableLoc, "/"),
		fileSchema:    fileSchema,
		partitionCols: partitionCols,
		props:         props,
		commitUUID:    uuid.New(),
	}
}

func (w *fanoutWriter) newDataFileName() string {
	return fmt.Sprintf("part-%05d-%s-c000.snappy.parquet",
		w.fileCount.Add(1)-1, w.commitUUID)
}

// write consumes the batch iterator with the given number of workers and
// returns the merged write plan. Zero-row batches and zero-row partition
// groups produce no data files.
func (w *fanoutWriter) write(ctx context.Context, itr iter.Seq2[arrow.RecordBatch, error], workers int) (*writePlan, error) {
	if workers < 1 {
		workers = 1
	}

	input := make(chan arrow.RecordBatch, workers)
	partials := make([]*writePlan, workers)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(input)

		for batch, err := range itr {
			if err != nil {
				return err
			}

			batch.Retain()
			select {
			case <-ctx.Done():
				batch.Release()

				return context.Cause(ctx)
			case input <- batch:
			}
		}

		return nil
	})

	for i := range workers {
		plan := newWritePlan()
		partials[i] = plan

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return context.Cause(ctx)
				case batch, ok := <-input:
					if !ok {
						return nil
					}

					err := w.fanout(ctx, batch, plan)
					batch.Release()
					if err != nil {
						return err
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := newWritePlan()
	for _, p := range partials {
		merged.merge(p)
	}

	return merged, nil
}

func (w *fanoutWriter) fanout(ctx context.Context, batch arrow.RecordBatch, plan *writePlan) error {
	if batch.NumRows() == 0 {
		return nil
	}

	groups, err := deltalog.Partition(ctx, batch, w.partitionCols)
	if err != nil {
		return err
	}

	for _, group := range groups {
		if group.Batch.NumRows() == 0 {
			group.Batch.Release()

			continue
		}

		file, err := w.writeDataFile(ctx, group)
		group.Batch.Release()
		if err != nil {
			return err
		}

		plan.addFile(group.Key, file)
	}

	return nil
}

// castToFileSchema rewrites a batch's columns to the exact arrow shape of
// the data files. Reconciliation compares logical types, so an accepted
// batch can still arrive with a different physical one (a nanosecond
// timestamp bound for a microsecond column). Timestamps truncate to the
// file's resolution; every other cast must be lossless.
func (w *fanoutWriter) castToFileSchema(ctx context.Context, batch arrow.RecordBatch) (arrow.RecordBatch, error) {
	if batch.Schema().Equal(w.fileSchema) {
		batch.Retain()

		return batch, nil
	}

	cols := make([]arrow.Array, batch.NumCols())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	for i, field := range w.fileSchema.Fields() {
		col := batch.Column(i)
		if arrow.TypeEqual(col.DataType(), field.Type) {
			col.Retain()
			cols[i] = col

			continue
		}

		opts := compute.SafeCastOptions(field.Type)
		if _, ok := field.Type.(*arrow.TimestampType); ok {
			opts = compute.UnsafeCastOptions(field.Type)
		}

		cast, err := compute.CastArray(ctx, col, opts)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", field.Name, err)
		}
		cols[i] = cast
	}

	return array.NewRecordBatch(w.fileSchema, cols, batch.NumRows()), nil
}

func (w *fanoutWriter) writeDataFile(ctx context.Context, group deltalog.PartitionGroup) (_ deltalog.AddFile, err error) {
	batch, err := w.castToFileSchema(ctx, group.Batch)
	if err != nil {
		return deltalog.AddFile{}, err
	}
	defer batch.Release()

	location := w.provider.NewDataLocation(group.Key, w.newDataFileName())

	out, err := w.fsio.Create(location)
	if err != nil {
		return deltalog.AddFile{}, err
	}
	defer internal.CheckedClose(out, &err)

	counter := &internal.CountingWriter{W: out}
	mem := compute.GetAllocator(ctx)

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.props)),
		parquet.WithAllocator(mem),
	)
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem), pqarrow.WithStoreSchema())

	pqw, err := pqarrow.NewFileWriter(w.fileSchema, counter, writerProps, arrProps)
	if err != nil {
		return deltalog.AddFile{}, err
	}

	if err := pqw.WriteBuffered(batch); err != nil {
		return deltalog.AddFile{}, err
	}
	if err := pqw.Close(); err != nil {
		return deltalog.AddFile{}, err
	}

	return deltalog.NewAddFile(w.relativize(location), group.Key,
		counter.Count, batch.NumRows()), nil
}

// relativize stores log paths relative to the table root when the file
// lives under it; files placed elsewhere keep their absolute location.
func (w *fanoutWriter) relativize(location string) string {
	return strings.TrimPrefix(location, w.tableLoc+"/")
}

func compressionCodec(props deltalog.Properties) compress.Compression {
	switch props.Get(ParquetCompressionKey, ParquetCompressionDefault) {
	case "zstd":
		return compress.Codecs.Zstd
	case "gzip":
		return compress.Codecs.Gzip
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}
