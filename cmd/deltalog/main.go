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
	"context"
	"fmt"
	"iter"
	"log"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/docopt/docopt-go"

	"github.com/deltalog/deltalog-go"
	"github.com/deltalog/deltalog-go/config"
	deltaio "github.com/deltalog/deltalog-go/io"
	"github.com/deltalog/deltalog-go/table"
)

const usage = `deltalog.

Usage:
  deltalog describe [options] LOCATION
  deltalog (schema | version) [options] LOCATION
  deltalog history [options] LOCATION [--limit N]
  deltalog files [options] LOCATION
  deltalog write [options] LOCATION PATTERN...
  deltalog glob [options] PATTERN...
  deltalog -h | --help | --version

Commands:
  describe    Describe a table: version, schema, partitioning, files.
  schema      Print the schema of the table.
  version     Print the current version of the table.
  history     Show the table's commit history, newest first.
  files       List the data files active at the current version.
  write       Write parquet files matching glob patterns into the table.
  glob        List files matching glob patterns, with parquet row counts.

Arguments:
  LOCATION    table root location (path or URI)
  PATTERN     glob pattern; * ? [...] match within a path segment, ** spans segments

Options:
  -h --help             show this help message and exit
  --output TYPE         output type (json/text) [default: text]
  --limit N             maximum number of history entries to show [default: 0]
  --mode TYPE           write mode (append/overwrite/error/ignore) [default: append]
  --partition-by COLS   comma separated partition columns for the write
  --config TEXT         specify the path to the configuration file`

type Config struct {
	Describe   bool `docopt:"describe"`
	Schema     bool `docopt:"schema"`
	Version    bool `docopt:"version"`
	History    bool `docopt:"history"`
	Files      bool `docopt:"files"`
	WriteTable bool `docopt:"write"`
	Glob       bool `docopt:"glob"`

	Location string   `docopt:"LOCATION"`
	Patterns []string `docopt:"PATTERN"`

	Output      string `docopt:"--output"`
	Limit       int    `docopt:"--limit"`
	Mode        string `docopt:"--mode"`
	PartitionBy string `docopt:"--partition-by"`
	Config      string `docopt:"--config"`
}

func main() {
	ctx := context.Background()
	args, err := docopt.ParseArgs(usage, os.Args[1:], deltalog.Version())
	if err != nil {
		log.Fatal(err)
	}

	cfg := Config{}
	if err := args.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	fileCfg := config.ParseConfig(config.LoadConfig(cfg.Config), config.EnvConfig.DefaultTable)
	if fileCfg != nil {
		mergeConf(fileCfg, &cfg)
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "text":
		output = textOutput{}
	case "json":
		output = jsonOutput{}
	default:
		log.Fatal("unimplemented output type")
	}

	if cfg.Glob {
		fsio, err := deltaio.LoadFS(ctx, nil, firstPattern(cfg.Patterns))
		if err != nil {
			output.Error(err)
		}

		metas, err := deltaio.FromGlobPath(ctx, fsio, cfg.Patterns...)
		if err != nil {
			output.Error(err)
		}
		output.Globbed(metas)

		return
	}

	if cfg.WriteTable {
		runWrite(ctx, cfg, fileCfg, output)

		return
	}

	fsio, err := deltaio.LoadFS(ctx, nil, cfg.Location)
	if err != nil {
		output.Error(err)
	}

	tbl, err := table.Open(ctx, fsio, cfg.Location)
	if err != nil {
		output.Error(err)
	}

	switch {
	case cfg.Describe:
		output.DescribeTable(tbl)
	case cfg.Schema:
		output.Schema(tbl.Schema())
	case cfg.Version:
		output.Version(tbl.Version())
	case cfg.History:
		output.History(tbl.History(cfg.Limit))
	case cfg.Files:
		output.Files(tbl.Files())
	}
}

// runWrite reads the parquet files matching the patterns and writes their
// rows into the table as one commit.
func runWrite(ctx context.Context, cfg Config, fileCfg *config.TableConfig, output Output) {
	srcFS, err := deltaio.LoadFS(ctx, nil, firstPattern(cfg.Patterns))
	if err != nil {
		output.Error(err)
	}

	metas, err := deltaio.FromGlobPath(ctx, srcFS, cfg.Patterns...)
	if err != nil {
		output.Error(err)
	}

	var recs []arrow.RecordBatch
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()

	for _, m := range metas {
		if !strings.HasSuffix(m.Path, ".parquet") {
			continue
		}

		batches, err := table.ReadDataFile(ctx, srcFS, m.Path)
		if err != nil {
			output.Error(err)
		}
		recs = append(recs, batches...)
	}
	if len(recs) == 0 {
		output.Error(fmt.Errorf("no parquet data matched %s", strings.Join(cfg.Patterns, " ")))
	}

	destFS, err := deltaio.LoadFS(ctx, nil, cfg.Location)
	if err != nil {
		output.Error(err)
	}
	wfs, ok := destFS.(deltaio.WriteFileIO)
	if !ok {
		output.Error(fmt.Errorf("%s: storage does not support writes", cfg.Location))
	}

	result, err := table.Write(ctx, wfs, cfg.Location, recs[0].Schema(),
		sequence(recs), writeConfigFor(fileCfg, cfg.Mode, cfg.PartitionBy))
	if err != nil {
		output.Error(err)
	}
	output.Written(result)
}

// writeConfigFor seeds the write options from the CLI flags, the configured
// table's properties, and the configured worker bound.
func writeConfigFor(tc *config.TableConfig, mode, partitionBy string) table.WriteConfig {
	out := table.WriteConfig{
		Mode:    table.WriteMode(mode),
		Workers: config.EnvConfig.MaxWorkers,
	}

	for _, col := range strings.Split(partitionBy, ",") {
		if col = strings.TrimSpace(col); col != "" {
			out.PartitionCols = append(out.PartitionCols, col)
		}
	}

	if tc != nil {
		out.Properties = deltalog.Properties(tc.Properties)
	}

	return out
}

func sequence(recs []arrow.RecordBatch) iter.Seq2[arrow.RecordBatch, error] {
	return func(yield func(arrow.RecordBatch, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func firstPattern(patterns []string) string {
	if len(patterns) == 0 {
		return ""
	}

	return patterns[0]
}

func mergeConf(fileConf *config.TableConfig, resConfig *Config) {
	if len(resConfig.Output) == 0 {
		resConfig.Output = fileConf.Output
	}
	if len(resConfig.Location) == 0 {
		resConfig.Location = fileConf.Location
	}
}
