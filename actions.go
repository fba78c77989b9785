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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Operation is the kind of change an Action records.
type Operation string

const (
	OpAdd    Operation = "ADD"
	OpDelete Operation = "DELETE"
)

// Action is one recorded unit of change in a commit: a data file added to
// or removed from the table, with its partition key and row count. The
// Path is opaque to planning; it only matters to the storage layer.
type Action struct {
	Op   Operation
	Key  PartitionKey
	Rows int64
	Path string
}

// fileStats is the subset of per-file statistics the log tracks.
type fileStats struct {
	NumRecords int64 `json:"numRecords"`
}

// AddFile records a data file joining the table.
type AddFile struct {
	Path             string             `json:"path"`
	PartitionValues  map[string]*string `json:"partitionValues"`
	Size             int64              `json:"size"`
	ModificationTime int64              `json:"modificationTime"`
	DataChange       bool               `json:"dataChange"`
	Stats            string             `json:"stats,omitempty"`
}

// NewAddFile builds an add action for a freshly written data file.
func NewAddFile(path string, key PartitionKey, size, rows int64) AddFile {
	stats, _ := json.Marshal(fileStats{NumRecords: rows})

	return AddFile{
		Path:             path,
		PartitionValues:  key.PartitionValues(),
		Size:             size,
		ModificationTime: time.Now().UnixMilli(),
		DataChange:       true,
		Stats:            string(stats),
	}
}

// NumRecords returns the file's row count from its stats, or -1 if the
// stats are absent or unreadable.
func (a AddFile) NumRecords() int64 {
	if a.Stats == "" {
		return -1
	}

	var st fileStats
	if err := json.Unmarshal([]byte(a.Stats), &st); err != nil {
		return -1
	}

	return st.NumRecords
}

// RemoveFile records a data file leaving the table.
type RemoveFile struct {
	Path              string             `json:"path"`
	DeletionTimestamp int64              `json:"deletionTimestamp"`
	DataChange        bool               `json:"dataChange"`
	PartitionValues   map[string]*string `json:"partitionValues,omitempty"`
}

// Format describes the encoding of a table's data files.
type Format struct {
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options"`
}

// MetaData carries the table's schema and partitioning; it is present in
// the first commit and in any commit that replaces the schema.
type MetaData struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Format           Format            `json:"format"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	CreatedTime      int64             `json:"createdTime"`
	Configuration    map[string]string `json:"configuration"`
}

// NewMetaData builds the metaData action for a schema and partition layout.
func NewMetaData(schema *Schema, partitionCols []string, config Properties) (*MetaData, error) {
	schemaStr, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	if partitionCols == nil {
		partitionCols = []string{}
	}
	if config == nil {
		config = Properties{}
	}

	return &MetaData{
		ID:               uuid.New().String(),
		Format:           Format{Provider: "parquet", Options: map[string]string{}},
		SchemaString:     string(schemaStr),
		PartitionColumns: partitionCols,
		CreatedTime:      time.Now().UnixMilli(),
		Configuration:    config,
	}, nil
}

// Schema decodes the metaData's schema string.
func (m *MetaData) Schema() (*Schema, error) {
	var s Schema
	if err := json.Unmarshal([]byte(m.SchemaString), &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// Protocol pins the minimum reader/writer versions a client needs to
// interact with the table.
type Protocol struct {
	MinReaderVersion int `json:"minReaderVersion"`
	MinWriterVersion int `json:"minWriterVersion"`
}

func DefaultProtocol() *Protocol {
	return &Protocol{MinReaderVersion: 1, MinWriterVersion: 2}
}

// CommitInfo is the free-form provenance record of a commit. Caller
// supplied custom metadata is merged into it at the top level, alongside
// the standard timestamp/operation keys.
type CommitInfo map[string]any

// NewCommitInfo builds the commitInfo action for a write operation,
// merging custom metadata into the record.
func NewCommitInfo(operation string, parameters map[string]string, custom Properties) CommitInfo {
	ci := CommitInfo{
		"timestamp": time.Now().UnixMilli(),
		"operation": operation,
	}
	if parameters != nil {
		ci["operationParameters"] = parameters
	}
	for k, v := range custom {
		ci[k] = v
	}

	return ci
}

// LogEntry is one line of a commit file. Exactly one member is set.
type LogEntry struct {
	CommitInfo CommitInfo  `json:"commitInfo,omitempty"`
	Protocol   *Protocol   `json:"protocol,omitempty"`
	MetaData   *MetaData   `json:"metaData,omitempty"`
	Add        *AddFile    `json:"add,omitempty"`
	Remove     *RemoveFile `json:"remove,omitempty"`
}

// EncodeLog serializes commit entries as line-delimited JSON, the on-disk
// layout of a commit file.
func EncodeLog(entries []LogEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// DecodeLog parses a commit file back into its entries.
func DecodeLog(r io.Reader) ([]LogEntry, error) {
	var entries []LogEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var e LogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("malformed log entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, scanner.Err()
}

// KeyFromPartitionValues rebuilds a PartitionKey from the map shape stored
// in add/remove actions, ordered by the table's partition columns.
func KeyFromPartitionValues(cols []string, values map[string]*string) PartitionKey {
	if len(cols) == 0 {
		return PartitionKey{}
	}

	vals := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := values[c]; ok && v != nil {
			vals[i] = *v
		} else {
			vals[i] = HiveDefaultPartition
		}
	}

	return NewPartitionKey(cols, vals)
}
