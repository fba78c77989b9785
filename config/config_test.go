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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testArgs = []struct {
	file      []byte
	tableName string
	expected  *TableConfig
}{
	// config file does not exist
	{nil, "default", nil},
	// config does not have the default table
	{[]byte(`
table:
  events:
    location: mem://warehouse/events
    output: text
`), "default", nil},
	// default table
	{
		[]byte(`
table:
  default:
    location: file:///var/warehouse/events
    output: json
    properties:
      write.parquet.compression-codec: zstd
`), "default",
		&TableConfig{
			Location: "file:///var/warehouse/events",
			Output:   "json",
			Properties: map[string]string{
				"write.parquet.compression-codec": "zstd",
			},
		},
	},
	// named table
	{
		[]byte(`
table:
  events:
    location: mem://warehouse/events
    output: text
`), "events",
		&TableConfig{
			Location: "mem://warehouse/events",
			Output:   "text",
		},
	},
}

func TestParseConfig(t *testing.T) {
	for _, tt := range testArgs {
		actual := ParseConfig([]byte(tt.file), tt.tableName)

		assert.Equal(t, tt.expected, actual)
	}
}
