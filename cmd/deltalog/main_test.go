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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deltalog/deltalog-go"
	"github.com/deltalog/deltalog-go/config"
	"github.com/deltalog/deltalog-go/table"
)

func TestWriteConfigFor(t *testing.T) {
	cfg := writeConfigFor(nil, "append", "")
	assert.Equal(t, table.ModeAppend, cfg.Mode)
	assert.Empty(t, cfg.PartitionCols)
	assert.Nil(t, cfg.Properties)
	assert.Equal(t, config.EnvConfig.MaxWorkers, cfg.Workers)

	cfg = writeConfigFor(nil, "overwrite", "region, day")
	assert.Equal(t, table.ModeOverwrite, cfg.Mode)
	assert.Equal(t, []string{"region", "day"}, cfg.PartitionCols)

	tc := &config.TableConfig{
		Location: "mem://warehouse/events",
		Properties: map[string]string{
			table.ParquetCompressionKey: "zstd",
		},
	}
	cfg = writeConfigFor(tc, "append", "")
	assert.Equal(t, deltalog.Properties{table.ParquetCompressionKey: "zstd"}, cfg.Properties)
}

func TestMergeConf(t *testing.T) {
	cfg := Config{}
	mergeConf(&config.TableConfig{Location: "mem://warehouse/events", Output: "json"}, &cfg)
	assert.Equal(t, "mem://warehouse/events", cfg.Location)
	assert.Equal(t, "json", cfg.Output)

	// explicit flags win over the config file
	cfg = Config{Location: "/var/tbl", Output: "text"}
	mergeConf(&config.TableConfig{Location: "mem://warehouse/events", Output: "json"}, &cfg)
	assert.Equal(t, "/var/tbl", cfg.Location)
	assert.Equal(t, "text", cfg.Output)
}
