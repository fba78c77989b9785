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
	"encoding/json"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltalog/deltalog-go"
)

func tableSchema() *deltalog.Schema {
	return deltalog.NewSchema(
		deltalog.Field{Name: "id", Type: deltalog.Long, Nullable: false},
		deltalog.Field{Name: "name", Type: deltalog.String, Nullable: true},
		deltalog.Field{Name: "price", Type: deltalog.DecimalTypeOf(10, 2), Nullable: true},
	)
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	original := tableSchema()

	data, err := json.Marshal(original)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "struct",
		"fields": [
			{"name": "id", "type": "long", "nullable": false, "metadata": {}},
			{"name": "name", "type": "string", "nullable": true, "metadata": {}},
			{"name": "price", "type": "decimal(10,2)", "nullable": true, "metadata": {}}
		]
	}`, string(data))

	var decoded deltalog.Schema
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equals(&decoded))
}

func TestSchemaUnmarshalRejectsNonStruct(t *testing.T) {
	var s deltalog.Schema
	err := json.Unmarshal([]byte(`{"type":"map","fields":[]}`), &s)
	assert.ErrorIs(t, err, deltalog.ErrInvalidArgument)
}

func TestSchemaFindField(t *testing.T) {
	s := tableSchema()

	f, ok := s.FindField("name")
	require.True(t, ok)
	assert.True(t, f.Type.Equals(deltalog.String))

	_, ok = s.FindField("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"id", "name", "price"}, s.FieldNames())
	assert.Equal(t, 3, s.NumFields())
}

func TestSchemaEquals(t *testing.T) {
	s := tableSchema()

	assert.True(t, s.Equals(tableSchema()))
	assert.False(t, s.Equals(nil))

	reordered := deltalog.NewSchema(
		deltalog.Field{Name: "name", Type: deltalog.String, Nullable: true},
		deltalog.Field{Name: "id", Type: deltalog.Long, Nullable: false},
		deltalog.Field{Name: "price", Type: deltalog.DecimalTypeOf(10, 2), Nullable: true},
	)
	assert.False(t, s.Equals(reordered))

	widened := deltalog.NewSchema(
		deltalog.Field{Name: "id", Type: deltalog.Long, Nullable: true},
		deltalog.Field{Name: "name", Type: deltalog.String, Nullable: true},
		deltalog.Field{Name: "price", Type: deltalog.DecimalTypeOf(10, 2), Nullable: true},
	)
	assert.False(t, s.Equals(widened))
}

func TestSchemaArrowRoundTrip(t *testing.T) {
	original := tableSchema()

	arrSchema, err := deltalog.SchemaToArrow(original)
	require.NoError(t, err)

	back, err := deltalog.SchemaFromArrow(arrSchema)
	require.NoError(t, err)
	assert.True(t, original.Equals(back))
}

func TestSchemaFromArrowTimestampUnits(t *testing.T) {
	for _, unit := range []arrow.TimeUnit{arrow.Second, arrow.Millisecond, arrow.Microsecond, arrow.Nanosecond} {
		arrSchema := arrow.NewSchema([]arrow.Field{
			{Name: "ts", Type: &arrow.TimestampType{Unit: unit, TimeZone: "UTC"}, Nullable: true},
		}, nil)

		s, err := deltalog.SchemaFromArrow(arrSchema)
		require.NoError(t, err)

		f, ok := s.FindField("ts")
		require.True(t, ok)
		assert.True(t, f.Type.Equals(deltalog.Timestamp), "unit %s", unit)
	}
}
