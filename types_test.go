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

package deltalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltalog/deltalog-go"
)

func TestTypeFromString(t *testing.T) {
	tests := []struct {
		str      string
		expected deltalog.Type
	}{
		{"boolean", deltalog.Boolean},
		{"byte", deltalog.Byte},
		{"short", deltalog.Short},
		{"integer", deltalog.Integer},
		{"long", deltalog.Long},
		{"float", deltalog.Float},
		{"double", deltalog.Double},
		{"string", deltalog.String},
		{"binary", deltalog.Binary},
		{"date", deltalog.Date},
		{"timestamp", deltalog.Timestamp},
		{"decimal(10,2)", deltalog.DecimalTypeOf(10, 2)},
		{"decimal( 38 , 18 )", deltalog.DecimalTypeOf(38, 18)},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			typ, err := deltalog.TypeFromString(tt.str)
			require.NoError(t, err)
			assert.True(t, typ.Equals(tt.expected))
		})
	}
}

func TestTypeFromStringInvalid(t *testing.T) {
	for _, str := range []string{"", "varchar", "decimal", "decimal(10)", "decimal(a,b)"} {
		t.Run(str, func(t *testing.T) {
			_, err := deltalog.TypeFromString(str)
			assert.ErrorIs(t, err, deltalog.ErrInvalidArgument)
		})
	}
}

func TestDecimalTypeString(t *testing.T) {
	assert.Equal(t, "decimal(10,2)", deltalog.DecimalTypeOf(10, 2).String())
	assert.False(t, deltalog.DecimalTypeOf(10, 2).Equals(deltalog.DecimalTypeOf(10, 3)))
	assert.False(t, deltalog.DecimalTypeOf(10, 2).Equals(deltalog.String))
}

func TestProperties(t *testing.T) {
	props := deltalog.Properties{
		"write.workers":            "8",
		"write.object-storage":     "true",
		"parquet.compression":      "zstd",
		"write.workers.bad-int":    "lots",
		"write.object-storage.bad": "maybe",
	}

	assert.Equal(t, "zstd", props.Get("parquet.compression", "snappy"))
	assert.Equal(t, "snappy", props.Get("missing", "snappy"))
	assert.Equal(t, 8, props.GetInt("write.workers", 4))
	assert.Equal(t, 4, props.GetInt("write.workers.bad-int", 4))
	assert.Equal(t, 4, props.GetInt("missing", 4))
	assert.True(t, props.GetBool("write.object-storage", false))
	assert.False(t, props.GetBool("write.object-storage.bad", false))
}
