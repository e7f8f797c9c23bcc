/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/dgraph-io/gqlgen/graphql"
	"github.com/dgraph-io/gqlgen/graphql/introspection"
	"github.com/dgraph-io/gqlparser/v2/ast"
)

// Introspect resolves one of the introspection fields (__schema, __type or
// __typename) of an operation and returns the JSON value for it.
func Introspect(q Query) (json.RawMessage, error) {
	qry, ok := q.(*query)
	if !ok {
		return nil, errors.New("couldn't convert query to internal type")
	}

	sch := qry.op.inSchema.schema
	in := &introspector{opCtx: qry.op.opCtx}

	switch qry.QueryType() {
	case SchemaQuery:
		in.writeSchema(qry.field.SelectionSet, introspection.WrapSchema(sch))
	case TypeQuery:
		name := cast.ToString(qry.ArgValue("name"))
		in.writeType(qry.field.SelectionSet, introspection.WrapTypeFromDef(sch, sch.Types[name]))
	case TypenameQuery:
		in.writeString(qry.op.RootTypeName())
	default:
		return nil, errors.Errorf("%s is not an introspection field", q.Name())
	}

	return in.w.Bytes(), nil
}

// RootTypeName is the name of the schema type the operation's top level
// fields are selected from.
func (o *operation) RootTypeName() string {
	if o.IsMutation() && o.inSchema.schema.Mutation != nil {
		return o.inSchema.schema.Mutation.Name
	}
	if o.inSchema.schema.Query != nil {
		return o.inSchema.schema.Query.Name
	}
	return "Query"
}

// introspector writes the JSON for an introspection selection set into w.
// Objects are written with their keys in selection order.
type introspector struct {
	opCtx *graphql.OperationContext
	w     bytes.Buffer
}

func (in *introspector) writeKey(k string) {
	in.writeString(k)
	in.w.WriteRune(':')
}

func (in *introspector) writeString(s string) {
	// json.Marshal of a string can't fail.
	b, _ := json.Marshal(s)
	in.w.Write(b)
}

func (in *introspector) writeOptionalString(s *string) {
	if s == nil {
		in.w.WriteString("null")
		return
	}
	in.writeString(*s)
}

// writeDescription writes an empty description as null.
func (in *introspector) writeDescription(s string) {
	if s == "" {
		in.w.WriteString("null")
		return
	}
	in.writeString(s)
}

func (in *introspector) writeBool(b bool) {
	if b {
		in.w.WriteString("true")
	} else {
		in.w.WriteString("false")
	}
}

// writeObject writes {"k1":v1,...} for the fields of sel that apply to typeName,
// calling writeField to write the value of each one.
func (in *introspector) writeObject(sel ast.SelectionSet, typeName string,
	writeField func(f graphql.CollectedField)) {

	in.w.WriteRune('{')
	for i, f := range graphql.CollectFields(in.opCtx, sel, []string{typeName}) {
		if i != 0 {
			in.w.WriteRune(',')
		}
		in.writeKey(f.Alias)
		if f.Name == typenameField {
			in.writeString(typeName)
			continue
		}
		writeField(f)
	}
	in.w.WriteRune('}')
}

func (in *introspector) writeList(n int, writeItem func(i int)) {
	in.w.WriteRune('[')
	for i := 0; i < n; i++ {
		if i != 0 {
			in.w.WriteRune(',')
		}
		writeItem(i)
	}
	in.w.WriteRune(']')
}

func (in *introspector) writeSchema(sel ast.SelectionSet, s *introspection.Schema) {
	if s == nil {
		in.w.WriteString("null")
		return
	}

	in.writeObject(sel, "__Schema", func(f graphql.CollectedField) {
		switch f.Name {
		case "types":
			in.writeTypes(f.Selections, s.Types())
		case "queryType":
			in.writeType(f.Selections, s.QueryType())
		case "mutationType":
			in.writeType(f.Selections, s.MutationType())
		case "subscriptionType":
			in.writeType(f.Selections, s.SubscriptionType())
		case "directives":
			dirs := s.Directives()
			in.writeList(len(dirs), func(i int) {
				in.writeDirective(f.Selections, &dirs[i])
			})
		default:
			in.w.WriteString("null")
		}
	})
}

func (in *introspector) writeTypes(sel ast.SelectionSet, types []introspection.Type) {
	if types == nil {
		in.w.WriteString("null")
		return
	}
	in.writeList(len(types), func(i int) {
		in.writeType(sel, &types[i])
	})
}

func (in *introspector) writeType(sel ast.SelectionSet, t *introspection.Type) {
	if t == nil {
		in.w.WriteString("null")
		return
	}

	in.writeObject(sel, "__Type", func(f graphql.CollectedField) {
		switch f.Name {
		case "kind":
			in.writeString(t.Kind())
		case "name":
			in.writeOptionalString(t.Name())
		case "description":
			in.writeDescription(t.Description())
		case "fields":
			// gqlgen hands back empty slices for every kind, only objects and
			// interfaces have fields.
			if k := t.Kind(); k != "OBJECT" && k != "INTERFACE" {
				in.w.WriteString("null")
				return
			}
			fields := t.Fields(in.includeDeprecated(f))
			if fields == nil {
				in.w.WriteString("null")
				return
			}
			in.writeList(len(fields), func(i int) {
				in.writeField(f.Selections, &fields[i])
			})
		case "interfaces":
			in.writeTypes(f.Selections, t.Interfaces())
		case "possibleTypes":
			in.writeTypes(f.Selections, t.PossibleTypes())
		case "enumValues":
			if t.Kind() != "ENUM" {
				in.w.WriteString("null")
				return
			}
			vals := t.EnumValues(in.includeDeprecated(f))
			if vals == nil {
				in.w.WriteString("null")
				return
			}
			in.writeList(len(vals), func(i int) {
				in.writeEnumValue(f.Selections, &vals[i])
			})
		case "inputFields":
			if t.Kind() != "INPUT_OBJECT" {
				in.w.WriteString("null")
				return
			}
			inputs := t.InputFields()
			if inputs == nil {
				in.w.WriteString("null")
				return
			}
			in.writeInputValues(f.Selections, inputs)
		case "ofType":
			in.writeType(f.Selections, t.OfType())
		default:
			in.w.WriteString("null")
		}
	})
}

func (in *introspector) includeDeprecated(f graphql.CollectedField) bool {
	return cast.ToBool(f.ArgumentMap(in.opCtx.Variables)["includeDeprecated"])
}

func (in *introspector) writeField(sel ast.SelectionSet, fld *introspection.Field) {
	in.writeObject(sel, "__Field", func(f graphql.CollectedField) {
		switch f.Name {
		case "name":
			in.writeString(fld.Name)
		case "description":
			in.writeDescription(fld.Description)
		case "args":
			in.writeInputValues(f.Selections, fld.Args)
		case "type":
			in.writeType(f.Selections, fld.Type)
		case "isDeprecated":
			in.writeBool(fld.IsDeprecated())
		case "deprecationReason":
			in.writeOptionalString(fld.DeprecationReason())
		default:
			in.w.WriteString("null")
		}
	})
}

func (in *introspector) writeInputValues(sel ast.SelectionSet, vals []introspection.InputValue) {
	if vals == nil {
		// args is non-null
		in.w.WriteString("[]")
		return
	}
	in.writeList(len(vals), func(i int) {
		in.writeInputValue(sel, &vals[i])
	})
}

func (in *introspector) writeInputValue(sel ast.SelectionSet, val *introspection.InputValue) {
	in.writeObject(sel, "__InputValue", func(f graphql.CollectedField) {
		switch f.Name {
		case "name":
			in.writeString(val.Name)
		case "description":
			in.writeDescription(val.Description)
		case "type":
			in.writeType(f.Selections, val.Type)
		case "defaultValue":
			in.writeOptionalString(val.DefaultValue)
		default:
			in.w.WriteString("null")
		}
	})
}

func (in *introspector) writeEnumValue(sel ast.SelectionSet, val *introspection.EnumValue) {
	in.writeObject(sel, "__EnumValue", func(f graphql.CollectedField) {
		switch f.Name {
		case "name":
			in.writeString(val.Name)
		case "description":
			in.writeDescription(val.Description)
		case "isDeprecated":
			in.writeBool(val.IsDeprecated())
		case "deprecationReason":
			in.writeOptionalString(val.DeprecationReason())
		default:
			in.w.WriteString("null")
		}
	})
}

func (in *introspector) writeDirective(sel ast.SelectionSet, dir *introspection.Directive) {
	in.writeObject(sel, "__Directive", func(f graphql.CollectedField) {
		switch f.Name {
		case "name":
			in.writeString(dir.Name)
		case "description":
			in.writeDescription(dir.Description)
		case "locations":
			in.writeList(len(dir.Locations), func(i int) {
				in.writeString(dir.Locations[i])
			})
		case "args":
			in.writeInputValues(f.Selections, dir.Args)
		default:
			in.w.WriteString("null")
		}
	})
}
