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
	"strings"
)

// Field is a single named, typed column of a table schema.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
}

func (f Field) String() string {
	nullable := ""
	if !f.Nullable {
		nullable = " not null"
	}

	return fmt.Sprintf("%s: %s%s", f.Name, f.Type, nullable)
}

func (f Field) Equals(other Field) bool {
	return f.Name == other.Name &&
		f.Nullable == other.Nullable &&
		f.Type.Equals(other.Type)
}

// Schema is an ordered collection of fields. It is immutable after
// construction; the log stores it as the metaData action's schema string.
type Schema struct {
	fields []Field

	index map[string]int
}

// NewSchema constructs a schema from the given fields, preserving order.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Name] = i
	}

	return s
}

func (s *Schema) Fields() []Field { return s.fields }

func (s *Schema) NumFields() int { return len(s.fields) }

func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}

	return names
}

// FindField looks up a field by name, reporting whether it exists.
func (s *Schema) FindField(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}

	return s.fields[i], true
}

// Equals reports whether two schemas have identical field names, order,
// types and nullability.
func (s *Schema) Equals(other *Schema) bool {
	if other == nil {
		return false
	}
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i, f := range s.fields {
		if !f.Equals(other.fields[i]) {
			return false
		}
	}

	return true
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("table {")
	for _, f := range s.fields {
		b.WriteString("\n\t")
		b.WriteString(f.String())
	}
	b.WriteString("\n}")

	return b.String()
}

type schemaJSON struct {
	Type   string      `json:"type"`
	Fields []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name     string          `json:"name"`
	Type     json.RawMessage `json:"type"`
	Nullable bool            `json:"nullable"`
	Metadata map[string]any  `json:"metadata"`
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	out := schemaJSON{Type: "struct", Fields: make([]fieldJSON, len(s.fields))}
	for i, f := range s.fields {
		typ, err := marshalType(f.Type)
		if err != nil {
			return nil, err
		}
		out.Fields[i] = fieldJSON{
			Name:     f.Name,
			Type:     typ,
			Nullable: f.Nullable,
			Metadata: map[string]any{},
		}
	}

	return json.Marshal(out)
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	var raw schemaJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if raw.Type != "struct" {
		return fmt.Errorf("%w: schema root must be a struct, got %q",
			ErrInvalidArgument, raw.Type)
	}

	fields := make([]Field, len(raw.Fields))
	for i, f := range raw.Fields {
		typ, err := unmarshalType(f.Type)
		if err != nil {
			return err
		}
		fields[i] = Field{Name: f.Name, Type: typ, Nullable: f.Nullable}
	}

	*s = *NewSchema(fields...)

	return nil
}
