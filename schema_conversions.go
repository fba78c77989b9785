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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// SchemaFromArrow converts an Arrow schema into a table schema. Only flat
// schemas of the supported logical types convert; nested and unsigned
// types are rejected.
func SchemaFromArrow(sc *arrow.Schema) (*Schema, error) {
	fields := make([]Field, sc.NumFields())
	for i, f := range sc.Fields() {
		typ, err := typeFromArrow(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		fields[i] = Field{Name: f.Name, Type: typ, Nullable: f.Nullable}
	}

	return NewSchema(fields...), nil
}

// SchemaToArrow converts a table schema to the Arrow schema used for the
// parquet data files.
func SchemaToArrow(s *Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, s.NumFields())
	for i, f := range s.Fields() {
		dt, err := typeToArrow(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: f.Nullable}
	}

	return arrow.NewSchema(fields, nil), nil
}

func typeFromArrow(dt arrow.DataType) (Type, error) {
	switch dt := dt.(type) {
	case *arrow.BooleanType:
		return Boolean, nil
	case *arrow.Int8Type:
		return Byte, nil
	case *arrow.Int16Type:
		return Short, nil
	case *arrow.Int32Type:
		return Integer, nil
	case *arrow.Int64Type:
		return Long, nil
	case *arrow.Float32Type:
		return Float, nil
	case *arrow.Float64Type:
		return Double, nil
	case *arrow.StringType, *arrow.LargeStringType:
		return String, nil
	case *arrow.BinaryType, *arrow.LargeBinaryType:
		return Binary, nil
	case *arrow.Date32Type:
		return Date, nil
	case *arrow.TimestampType:
		return Timestamp, nil
	case *arrow.Decimal128Type:
		return DecimalTypeOf(int(dt.Precision), int(dt.Scale)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported arrow type %s",
			ErrInvalidArgument, dt)
	}
}

func typeToArrow(t Type) (arrow.DataType, error) {
	switch t := t.(type) {
	case PrimitiveType:
		switch t {
		case Boolean:
			return arrow.FixedWidthTypes.Boolean, nil
		case Byte:
			return arrow.PrimitiveTypes.Int8, nil
		case Short:
			return arrow.PrimitiveTypes.Int16, nil
		case Integer:
			return arrow.PrimitiveTypes.Int32, nil
		case Long:
			return arrow.PrimitiveTypes.Int64, nil
		case Float:
			return arrow.PrimitiveTypes.Float32, nil
		case Double:
			return arrow.PrimitiveTypes.Float64, nil
		case String:
			return arrow.BinaryTypes.String, nil
		case Binary:
			return arrow.BinaryTypes.Binary, nil
		case Date:
			return arrow.FixedWidthTypes.Date32, nil
		case Timestamp:
			return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
		}
	case DecimalType:
		return &arrow.Decimal128Type{
			Precision: int32(t.Precision()),
			Scale:     int32(t.Scale()),
		}, nil
	}

	return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidArgument, t)
}
