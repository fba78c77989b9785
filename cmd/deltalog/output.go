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

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/deltalog/deltalog-go"
	deltaio "github.com/deltalog/deltalog-go/io"
	"github.com/deltalog/deltalog-go/table"
)

type Output interface {
	DescribeTable(tbl *table.Table)
	Schema(*deltalog.Schema)
	Version(int64)
	History([]table.CommitRecord)
	Files([]deltalog.AddFile)
	Globbed([]deltaio.FileMeta)
	Written(*table.WriteResult)
	Text(string)
	Error(error)
}

type textOutput struct{}

func (t textOutput) DescribeTable(tbl *table.Table) {
	pterm.DefaultTable.
		WithData(pterm.TableData{
			{"Location", tbl.Location()},
			{"Version", strconv.FormatInt(tbl.Version(), 10)},
			{"Partitioned by", "[" + strings.Join(tbl.PartitionColumns(), ", ") + "]"},
			{"Active files", strconv.Itoa(len(tbl.Files()))},
		}).Render()

	t.Schema(tbl.Schema())
}

func (textOutput) Schema(schema *deltalog.Schema) {
	schemaTree := pterm.LeveledList{}
	for _, f := range schema.Fields() {
		nullable := ""
		if f.Nullable {
			nullable = ", nullable"
		}

		schemaTree = append(schemaTree, pterm.LeveledListItem{
			Level: 0, Text: fmt.Sprintf("%s: %s%s", f.Name, f.Type, nullable),
		})
	}

	schemaTreeNode := putils.TreeFromLeveledList(schemaTree)
	schemaTreeNode.Text = "Schema"
	pterm.DefaultTree.WithRoot(schemaTreeNode).Render()
}

func (textOutput) Version(v int64) {
	fmt.Println(v)
}

func (textOutput) History(records []table.CommitRecord) {
	data := pterm.TableData{{"Version", "Operation", "Timestamp"}}
	for _, r := range records {
		op, _ := r.Info["operation"].(string)
		ts := fmt.Sprint(r.Info["timestamp"])
		data = append(data, []string{strconv.FormatInt(r.Version, 10), op, ts})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Files(files []deltalog.AddFile) {
	data := pterm.TableData{{"Path", "Size", "Rows"}}
	for _, f := range files {
		data = append(data, []string{
			f.Path,
			strconv.FormatInt(f.Size, 10),
			strconv.FormatInt(f.NumRecords(), 10),
		})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Globbed(metas []deltaio.FileMeta) {
	data := pterm.TableData{{"Path", "Size", "Rows"}}
	for _, m := range metas {
		rows := ""
		if m.NumRows != nil {
			rows = strconv.FormatInt(*m.NumRows, 10)
		}
		data = append(data, []string{m.Path, strconv.FormatInt(m.Size, 10), rows})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Written(result *table.WriteResult) {
	data := pterm.TableData{{"Operation", "Rows"}}
	for _, a := range result.Actions {
		data = append(data, []string{string(a.Op), strconv.FormatInt(a.Rows, 10)})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
	fmt.Println("committed version", result.Version)
}

func (textOutput) Text(val string) {
	fmt.Println(val)
}

func (textOutput) Error(err error) {
	log.Fatal(err)
}

type jsonOutput struct{}

func (jsonOutput) write(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}

func (j jsonOutput) DescribeTable(tbl *table.Table) {
	j.write(map[string]any{
		"location":         tbl.Location(),
		"version":          tbl.Version(),
		"partitionColumns": tbl.PartitionColumns(),
		"schema":           tbl.Schema(),
		"files":            len(tbl.Files()),
	})
}

func (j jsonOutput) Schema(schema *deltalog.Schema) {
	j.write(schema)
}

func (j jsonOutput) Version(v int64) {
	j.write(map[string]int64{"version": v})
}

func (j jsonOutput) History(records []table.CommitRecord) {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, map[string]any{"version": r.Version, "commitInfo": r.Info})
	}
	j.write(out)
}

func (j jsonOutput) Files(files []deltalog.AddFile) {
	j.write(files)
}

func (j jsonOutput) Globbed(metas []deltaio.FileMeta) {
	type row struct {
		Path string `json:"path"`
		Size int64  `json:"size"`
		Rows *int64 `json:"rows"`
	}

	out := make([]row, 0, len(metas))
	for _, m := range metas {
		out = append(out, row{Path: m.Path, Size: m.Size, Rows: m.NumRows})
	}
	j.write(out)
}

func (j jsonOutput) Written(result *table.WriteResult) {
	j.write(map[string]any{
		"version":   result.Version,
		"operation": result.Operations(),
		"rows":      result.Rows(),
	})
}

func (j jsonOutput) Text(val string) {
	j.write(map[string]string{"result": val})
}

func (jsonOutput) Error(err error) {
	j := map[string]string{"error": err.Error()}
	enc := json.NewEncoder(os.Stderr)
	_ = enc.Encode(j)
	os.Exit(1)
}
