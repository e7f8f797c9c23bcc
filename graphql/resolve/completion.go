/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/golang/glog"
	"github.com/spf13/cast"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

const (
	errExpectedScalar = "An object was returned, but GraphQL was expecting a scalar. " +
		"This indicates an internal error - probably a resolver returning the wrong type. " +
		"The value was resolved as null (which may trigger GraphQL error propagation) " +
		"and as much other data as possible returned."

	errExpectedSingleItem = "A list was returned, but GraphQL was expecting just one item. " +
		"This indicates an internal error - probably a resolver returning the wrong type. " +
		"The value was resolved as null (which may trigger GraphQL error propagation) " +
		"and as much other data as possible returned."

	errExpectedNonNull = "Non-nullable field '%s' (type %s) was resolved as null.  " +
		"GraphQL error propagation triggered."
)

// Once a resolver has returned a value, that value needs to be worked through
// before it can be written into the response:
//
// 1) (coercion)
//    The value a resolver returns is a Go value.  It has to be checked against,
//    and coerced to, the field's declared GraphQL type.  A resolver returning a
//    int64 for an Int field is fine as long as it fits 32 bits.
//
// 2) (error propagation)
//    `f: T!` promises f is never null.  A root field that completes to null
//    instead nulls the whole data entry.
//
// Every root field here is a scalar, so only scalar completion is needed.
// See https://spec.graphql.org/June2018/#sec-Value-Completion
//
// A nil []byte result means the value completed to null for a non-null type
// and the caller must propagate that.

// completeValue completes val, the value of the scalar field at path.
func completeValue(
	path []interface{},
	field schema.Field,
	typ schema.Type,
	val interface{}) ([]byte, x.GqlErrorList) {

	switch val := val.(type) {
	case json.RawMessage:
		// Already completed JSON, e.g. an introspection result.
		if len(val) == 0 || bytes.Equal(val, []byte("null")) {
			return completeNull(path, field, typ)
		}
		return val, nil
	case nil:
		return completeNull(path, field, typ)
	case map[string]interface{}:
		return completeWrongShape(errExpectedScalar, path, field, typ)
	case []interface{}:
		return completeWrongShape(errExpectedSingleItem, path, field, typ)
	}

	coerced, gqlErr := coerceScalar(val, field, typ, path)
	if gqlErr != nil {
		return completeNullAfterError(typ, x.GqlErrorList{gqlErr})
	}

	// coerced is always a JSON compatible scalar.
	b, err := json.Marshal(coerced)
	if err != nil {
		glog.Errorf("while marshalling %v for field %s: %v", coerced, field.Name(), err)
		return completeNullAfterError(typ, x.GqlErrorList{x.GqlErrorf(
			"Error marshalling value for field '%s' (type %s).  "+
				"Resolved as null (which may trigger GraphQL error propagation) ",
			field.Name(), typeString(typ)).
			WithLocations(field.Location()).
			WithPath(copyPath(path))})
	}
	return b, nil
}

func completeNull(path []interface{}, field schema.Field, typ schema.Type) ([]byte,
	x.GqlErrorList) {

	if nullable(typ) {
		return []byte("null"), nil
	}

	gqlErr := x.GqlErrorf(errExpectedNonNull, field.Name(), typeString(typ)).
		WithLocations(field.Location()).
		WithPath(copyPath(path))
	return nil, x.GqlErrorList{gqlErr}
}

// completeWrongShape reports a resolver that returned an object or a list.
func completeWrongShape(msg string, path []interface{}, field schema.Field,
	typ schema.Type) ([]byte, x.GqlErrorList) {

	glog.Errorf("resolving %s (Line: %v, Column: %v) of type %s: %s", field.Name(),
		field.Location().Line, field.Location().Column, typeString(typ), msg)

	return completeNullAfterError(typ, x.GqlErrorList{&x.GqlError{
		Message:   msg,
		Locations: []x.Location{field.Location()},
		Path:      copyPath(path),
	}})
}

// completeNullAfterError nulls a value whose error is already in errs.
func completeNullAfterError(typ schema.Type, errs x.GqlErrorList) ([]byte, x.GqlErrorList) {
	if nullable(typ) {
		return []byte("null"), errs
	}
	return nil, errs
}

// coerceScalar coerces a scalar value to typ if possible according to the coercion
// rules defined in the GraphQL spec. If this is not possible, then it returns an error.
func coerceScalar(val interface{}, field schema.Field, typ schema.Type,
	path []interface{}) (interface{}, *x.GqlError) {

	coercionError := func() *x.GqlError {
		return x.GqlErrorf("Error coercing value '%v' for field '%s' to type %s.",
			val, field.Name(), typeString(typ)).
			WithLocations(field.Location()).
			WithPath(copyPath(path))
	}

	if typ == nil {
		return val, nil
	}

	switch typ.Name() {
	case "String":
		s, ok := val.(string)
		if !ok {
			return nil, coercionError()
		}
		return s, nil
	case "ID":
		switch val.(type) {
		case string, int, int32, int64, json.Number:
			return cast.ToString(val), nil
		}
		return nil, coercionError()
	case "Boolean":
		b, ok := val.(bool)
		if !ok {
			return nil, coercionError()
		}
		return b, nil
	case "Int":
		switch v := val.(type) {
		case bool, string:
			return nil, coercionError()
		case json.Number:
			// cast would truncate "1.5" to 1.
			n, err := v.Int64()
			if err != nil {
				return nil, coercionError()
			}
			val = n
		}
		i, err := cast.ToInt64E(val)
		if err != nil || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, coercionError()
		}
		if f, ok := val.(float64); ok && f != math.Trunc(f) {
			return nil, coercionError()
		}
		return int32(i), nil
	case "Float":
		switch val.(type) {
		case bool, string:
			return nil, coercionError()
		}
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return nil, coercionError()
		}
		return f, nil
	default:
		return val, nil
	}
}

// nullable reports whether typ allows null.  A field without a definition
// is treated as nullable.
func nullable(typ schema.Type) bool {
	return typ == nil || typ.Nullable()
}

func typeString(typ schema.Type) string {
	if typ == nil {
		return ""
	}
	return typ.String()
}

func copyPath(path []interface{}) []interface{} {
	result := make([]interface{}, len(path))
	copy(result, path)
	return result
}
