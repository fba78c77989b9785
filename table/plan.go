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
	"github.com/deltalog/deltalog-go"
)

type plannedAdd struct {
	key  deltalog.PartitionKey
	file deltalog.AddFile
}

// writePlan accumulates the per-partition outcome of writing data files.
// Workers build independent partial plans which are merged by key, so the
// final plan does not depend on execution order: row counts sum, and the
// touched-partition set is a union.
type writePlan struct {
	adds    []plannedAdd
	touched map[string]struct{}
}

func newWritePlan() *writePlan {
	return &writePlan{touched: make(map[string]struct{})}
}

func (p *writePlan) addFile(key deltalog.PartitionKey, file deltalog.AddFile) {
	p.adds = append(p.adds, plannedAdd{key: key, file: file})
	p.touched[key.Path()] = struct{}{}
}

// merge folds another partial plan into this one. The operation is
// commutative and associative up to the ordering of adds, which only
// affects reporting order, never membership or counts.
func (p *writePlan) merge(other *writePlan) *writePlan {
	p.adds = append(p.adds, other.adds...)
	for k := range other.touched {
		p.touched[k] = struct{}{}
	}

	return p
}

func (p *writePlan) rowsAdded() int64 {
	var total int64
	for _, a := range p.adds {
		total += a.file.NumRecords()
	}

	return total
}

// planActions turns the accumulated plan plus the prior table state into
// the commit's action list: every planned ADD in discovery order, then the
// DELETEs the write mode calls for.
//
// Overwrite semantics are partition scoped: only files under partitions
// the incoming data touched are removed, unless the table is unpartitioned
// or the whole table is being replaced. Each prior file is removed at most
// once per commit.
func planActions(p *writePlan, state *TableState, mode WriteMode, replaceTable bool) []deltalog.Action {
	actions := make([]deltalog.Action, 0, len(p.adds))
	for _, a := range p.adds {
		actions = append(actions, deltalog.Action{
			Op:   deltalog.OpAdd,
			Key:  a.key,
			Rows: a.file.NumRecords(),
			Path: a.file.Path,
		})
	}

	if mode != ModeOverwrite || !state.Exists() {
		return actions
	}

	removeAll := replaceTable || len(state.PartitionColumns) == 0

	for _, f := range state.ActiveFiles() {
		key := deltalog.KeyFromPartitionValues(state.PartitionColumns, f.PartitionValues)
		if !removeAll {
			if _, hit := p.touched[key.Path()]; !hit {
				continue
			}
		}

		actions = append(actions, deltalog.Action{
			Op:   deltalog.OpDelete,
			Key:  key,
			Rows: f.NumRecords(),
			Path: f.Path,
		})
	}

	return actions
}
