/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/dgraph-io/gqlgen/graphql"
	"github.com/dgraph-io/gqlparser/v2/ast"

	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

// The types below wrap the gqlparser ast so resolvers only see fields, types and
// argument values, never the parser's structures.
//
// A field carries its operation, so argument values are computed against the
// request's variables without resolvers having to pass them around.

// QueryType is the kind of a query field.
type QueryType string

// MutationType is the kind of a mutation field.
type MutationType string

const (
	StandardQuery QueryType = "standard"
	SchemaQuery   QueryType = "schema"
	TypeQuery     QueryType = "type"
	TypenameQuery QueryType = "typename"
	NotFoundQuery QueryType = "notfound"
)

const (
	StandardMutation MutationType = "standard"
	TypenameMutation MutationType = "typename"
	NotFoundMutation MutationType = "notfound"
)

const typenameField = "__typename"

// Schema is a loaded and validated GraphQL schema.
type Schema interface {
	Operation(r *Request) (Operation, error)
	Queries(t QueryType) []string
	Mutations(t MutationType) []string
}

// An Operation is a single valid GraphQL operation.  It contains either
// Queries or Mutations, but not both.  Subscriptions are not supported.
type Operation interface {
	Queries() []Query
	Mutations() []Mutation
	Schema() Schema
	Name() string
	RootTypeName() string
	IsQuery() bool
	IsMutation() bool
	IsSubscription() bool
}

// A Field is one field from an Operation.
type Field interface {
	Name() string
	Alias() string
	ResponseName() string
	ArgValue(name string) interface{}
	IntArgValue(name string) (int32, error)
	Type() Type
	SelectionSet() []Field
	Location() x.Location
	Operation() Operation
}

// A Mutation is a field (from the schema's Mutation type) from an Operation
type Mutation interface {
	Field
	MutationType() MutationType
}

// A Query is a field (from the schema's Query type) from an Operation
type Query interface {
	Field
	QueryType() QueryType
}

// A Type is a GraphQL type like: Float, String, [Float!]!.
type Type interface {
	Name() string
	Nullable() bool
	ListType() Type
	String() string
}

type schema struct {
	schema *ast.Schema
}

type operation struct {
	op   *ast.OperationDefinition
	vars map[string]interface{}

	inSchema *schema
	// opCtx carries the parsed document and variables for collecting fields
	// and for introspection.
	opCtx *graphql.OperationContext
}

type field struct {
	field *ast.Field
	op    *operation
	// arguments are the field's argument values with variables substituted.
	arguments map[string]interface{}
}

type mutation field
type query field

type astType struct {
	typ *ast.Type
}

// AsSchema wraps a github.com/dgraph-io/gqlparser/v2/ast.Schema.
func AsSchema(s *ast.Schema) Schema {
	return &schema{schema: s}
}

func (s *schema) Queries(t QueryType) []string {
	if s.schema.Query == nil {
		return nil
	}
	var result []string
	for _, fld := range s.schema.Query.Fields {
		if queryType(fld.Name) == t {
			result = append(result, fld.Name)
		}
	}
	return result
}

func (s *schema) Mutations(t MutationType) []string {
	if s.schema.Mutation == nil {
		return nil
	}
	var result []string
	for _, fld := range s.schema.Mutation.Fields {
		if mutationType(fld.Name) == t {
			result = append(result, fld.Name)
		}
	}
	return result
}

func (o *operation) IsQuery() bool {
	return o.op.Operation == ast.Query
}

func (o *operation) IsMutation() bool {
	return o.op.Operation == ast.Mutation
}

func (o *operation) IsSubscription() bool {
	return o.op.Operation == ast.Subscription
}

func (o *operation) Name() string {
	return o.op.Name
}

func (o *operation) Schema() Schema {
	return o.inSchema
}

func (o *operation) Queries() (qs []Query) {
	if o.IsMutation() {
		return
	}

	for _, f := range o.rootFields() {
		qs = append(qs, &query{field: f, op: o})
	}
	return
}

func (o *operation) Mutations() (ms []Mutation) {
	if !o.IsMutation() {
		return
	}

	for _, f := range o.rootFields() {
		ms = append(ms, &mutation{field: f, op: o})
	}
	return
}

func (o *operation) rootFields() []*ast.Field {
	return collectFields(o.opCtx, o.op.SelectionSet, []string{o.RootTypeName()})
}

// collectFields flattens sel into the fields that apply to an object satisfying
// one of the satisfies types.  Fragment spreads and inline fragments are expanded,
// @skip and @include are applied, and fields sharing a response name are merged
// into one field whose selection set is the union of theirs.
func collectFields(opCtx *graphql.OperationContext, sel ast.SelectionSet,
	satisfies []string) []*ast.Field {

	collected := graphql.CollectFields(opCtx, sel, satisfies)
	result := make([]*ast.Field, 0, len(collected))
	for _, cf := range collected {
		// Copy, so that merging selections doesn't rewrite the parsed document.
		f := *cf.Field
		f.SelectionSet = cf.Selections
		result = append(result, &f)
	}
	return result
}

func responseName(f *ast.Field) string {
	if f.Alias == "" {
		return f.Name
	}
	return f.Alias
}

func queryType(name string) QueryType {
	switch name {
	case "__schema":
		return SchemaQuery
	case "__type":
		return TypeQuery
	case typenameField:
		return TypenameQuery
	default:
		return StandardQuery
	}
}

func mutationType(name string) MutationType {
	if name == typenameField {
		return TypenameMutation
	}
	return StandardMutation
}

func (f *field) Name() string {
	return f.field.Name
}

func (f *field) Alias() string {
	return f.field.Alias
}

func (f *field) ResponseName() string {
	return responseName(f.field)
}

func (f *field) ArgValue(name string) interface{} {
	if f.arguments == nil {
		// Computed lazily, once per field.
		f.arguments = f.field.ArgumentMap(f.op.vars)
	}
	return f.arguments[name]
}

// IntArgValue returns the value of the Int argument name.  Literal arguments
// arrive as int64 and variables as json.Number, so both are normalised here.
// Missing values, non-integers and values that don't fit GraphQL's 32 bit Int
// are reported as errors naming the argument.
func (f *field) IntArgValue(name string) (int32, error) {
	val := f.ArgValue(name)
	if val == nil {
		return 0, x.GqlErrorf("Argument %s of %s is required but was not provided.",
			name, f.Name()).WithLocations(f.Location())
	}

	notInt := func() error {
		return x.GqlErrorf("Argument %s of %s: Int cannot represent non-integer value: %v",
			name, f.Name(), val).WithLocations(f.Location())
	}
	notInt32 := func(v interface{}) error {
		return x.GqlErrorf("Argument %s of %s: Int cannot represent non 32-bit signed "+
			"integer value: %v", name, f.Name(), v).WithLocations(f.Location())
	}

	switch v := val.(type) {
	case json.Number:
		// cast would truncate "1.5" to 1, so numbers are parsed here.
		if i, err := v.Int64(); err == nil {
			val = i
			break
		}
		fl, err := v.Float64()
		if err != nil || fl != math.Trunc(fl) {
			return 0, notInt()
		}
		if fl < math.MinInt32 || fl > math.MaxInt32 {
			return 0, notInt32(v)
		}
		val = fl
	case bool, string:
		// json.Number carries JSON numbers, a plain string was quoted by the client.
		return 0, notInt()
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return 0, notInt()
		}
	case float64:
		if v != math.Trunc(v) {
			return 0, notInt()
		}
	}

	i, err := cast.ToInt64E(val)
	if err != nil {
		return 0, notInt()
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, notInt32(i)
	}
	return int32(i), nil
}

func (f *field) Type() Type {
	if f.field.Definition == nil {
		return nil
	}
	return &astType{typ: f.field.Definition.Type}
}

func (f *field) SelectionSet() (flds []Field) {
	satisfies := []string{}
	if f.field.Definition != nil {
		satisfies = append(satisfies, f.field.Definition.Type.Name())
	}
	for _, fld := range collectFields(f.op.opCtx, f.field.SelectionSet, satisfies) {
		flds = append(flds, &field{field: fld, op: f.op})
	}
	return
}

func (f *field) Location() x.Location {
	if f.field.Position == nil {
		return x.Location{}
	}
	return x.Location{
		Line:   f.field.Position.Line,
		Column: f.field.Position.Column}
}

func (f *field) Operation() Operation {
	return f.op
}

func (q *query) Name() string {
	return (*field)(q).Name()
}

func (q *query) Alias() string {
	return (*field)(q).Alias()
}

func (q *query) ResponseName() string {
	return (*field)(q).ResponseName()
}

func (q *query) ArgValue(name string) interface{} {
	return (*field)(q).ArgValue(name)
}

func (q *query) IntArgValue(name string) (int32, error) {
	return (*field)(q).IntArgValue(name)
}

func (q *query) Type() Type {
	return (*field)(q).Type()
}

func (q *query) SelectionSet() []Field {
	return (*field)(q).SelectionSet()
}

func (q *query) Location() x.Location {
	return (*field)(q).Location()
}

func (q *query) Operation() Operation {
	return (*field)(q).Operation()
}

func (q *query) QueryType() QueryType {
	if q.field.Definition == nil && q.Name() != typenameField {
		return NotFoundQuery
	}
	return queryType(q.Name())
}

func (m *mutation) Name() string {
	return (*field)(m).Name()
}

func (m *mutation) Alias() string {
	return (*field)(m).Alias()
}

func (m *mutation) ResponseName() string {
	return (*field)(m).ResponseName()
}

func (m *mutation) ArgValue(name string) interface{} {
	return (*field)(m).ArgValue(name)
}

func (m *mutation) IntArgValue(name string) (int32, error) {
	return (*field)(m).IntArgValue(name)
}

func (m *mutation) Type() Type {
	return (*field)(m).Type()
}

func (m *mutation) SelectionSet() []Field {
	return (*field)(m).SelectionSet()
}

func (m *mutation) Location() x.Location {
	return (*field)(m).Location()
}

func (m *mutation) Operation() Operation {
	return (*field)(m).Operation()
}

func (m *mutation) MutationType() MutationType {
	if m.field.Definition == nil && m.Name() != typenameField {
		return NotFoundMutation
	}
	return mutationType(m.Name())
}

func (t *astType) Name() string {
	return t.typ.Name()
}

func (t *astType) Nullable() bool {
	return !t.typ.NonNull
}

func (t *astType) ListType() Type {
	if t.typ.Elem == nil {
		return nil
	}
	return &astType{typ: t.typ.Elem}
}

func (t *astType) String() string {
	if t == nil {
		return ""
	}

	var sb strings.Builder
	// room for `[Name!]!`
	sb.Grow(len(t.Name()) + 4)

	if t.ListType() == nil {
		sb.WriteString(t.Name())
	} else {
		sb.WriteRune('[')
		sb.WriteString(t.ListType().String())
		sb.WriteRune(']')
	}

	if !t.Nullable() {
		sb.WriteRune('!')
	}

	return sb.String()
}
