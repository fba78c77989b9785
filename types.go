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
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

var decimalRegex = regexp.MustCompile(`^decimal\(\s*(\d+)\s*,\s*(\d+)\s*\)$`)

type Properties map[string]string

// Get returns the value of the key if it exists, otherwise it returns the default value.
func (p Properties) Get(key, defVal string) string {
	if v, ok := p[key]; ok {
		return v
	}

	return defVal
}

func (p Properties) GetBool(key string, defVal bool) bool {
	if v, ok := p[key]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return defVal
		}

		return b
	}

	return defVal
}

func (p Properties) GetInt(key string, defVal int) int {
	if v, ok := p[key]; ok {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return defVal
		}

		return int(i)
	}

	return defVal
}

// Type is an interface representing any of the logical column types the
// table format can store: the primitives plus parameterized decimals.
type Type interface {
	fmt.Stringer
	Equals(Type) bool
}

// PrimitiveType is a logical type with no parameters, named the way the
// log's schema string names it.
type PrimitiveType string

const (
	Boolean   PrimitiveType = "boolean"
	Byte      PrimitiveType = "byte"
	Short     PrimitiveType = "short"
	Integer   PrimitiveType = "integer"
	Long      PrimitiveType = "long"
	Float     PrimitiveType = "float"
	Double    PrimitiveType = "double"
	String    PrimitiveType = "string"
	Binary    PrimitiveType = "binary"
	Date      PrimitiveType = "date"
	Timestamp PrimitiveType = "timestamp"
)

func (p PrimitiveType) String() string { return string(p) }

func (p PrimitiveType) Equals(other Type) bool {
	o, ok := other.(PrimitiveType)

	return ok && o == p
}

// DecimalTypeOf returns a DecimalType with the given precision and scale.
func DecimalTypeOf(precision, scale int) DecimalType {
	return DecimalType{precision: precision, scale: scale}
}

type DecimalType struct {
	precision, scale int
}

func (d DecimalType) Precision() int { return d.precision }
func (d DecimalType) Scale() int     { return d.scale }

func (d DecimalType) String() string {
	return fmt.Sprintf("decimal(%d,%d)", d.precision, d.scale)
}

func (d DecimalType) Equals(other Type) bool {
	o, ok := other.(DecimalType)

	return ok && o == d
}

// TypeFromString parses a schema-string type name into a Type.
func TypeFromString(s string) (Type, error) {
	switch PrimitiveType(s) {
	case Boolean, Byte, Short, Integer, Long, Float, Double,
		String, Binary, Date, Timestamp:
		return PrimitiveType(s), nil
	}

	if m := decimalRegex.FindStringSubmatch(s); m != nil {
		prec, _ := strconv.Atoi(m[1])
		scale, _ := strconv.Atoi(m[2])

		return DecimalTypeOf(prec, scale), nil
	}

	return nil, fmt.Errorf("%w: unrecognized type %q", ErrInvalidArgument, s)
}

func marshalType(t Type) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: cannot marshal nil type", ErrInvalidArgument)
	}

	return json.Marshal(t.String())
}

func unmarshalType(b []byte) (Type, error) {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return nil, err
	}

	return TypeFromString(name)
}
