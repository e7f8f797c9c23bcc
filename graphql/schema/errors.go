/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/gqlparser/v2/gqlerror"

	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

type gqlableError struct {
	gqlErr *x.GqlError
	cause  error
}

func (gqlable *gqlableError) Error() string {
	var buf bytes.Buffer
	buf.WriteString(gqlable.gqlErr.Message)
	buf.WriteString(" because ")
	switch cause := gqlable.cause.(type) {
	case *x.GqlError:
		// Avoid writing locations into the error string.
		buf.WriteString(cause.Message)
	default:
		buf.WriteString(cause.Error())
	}
	return buf.String()
}

func (gqlable *gqlableError) Unwrap() error {
	return gqlable.cause
}

func (gqlable *gqlableError) locations() []x.Location {
	switch cause := gqlable.cause.(type) {
	case *gqlableError:
		return append(cause.locations(), gqlable.gqlErr.Locations...)
	case *x.GqlError:
		return append(cause.Locations, gqlable.gqlErr.Locations...)
	default:
		return gqlable.gqlErr.Locations
	}
}

// AsGQLErrors converts err into the errors list of a response.  GraphQL and
// gqlparser errors keep their locations and paths, GQLWrapf chains are flattened
// into one message and anything else becomes a bare message.  nil gives nil.
func AsGQLErrors(err error) x.GqlErrorList {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case *gqlerror.Error:
		return x.GqlErrorList{toGqlError(e)}
	case *x.GqlError:
		return x.GqlErrorList{e}
	case gqlerror.List:
		return toGqlErrorList(e)
	case x.GqlErrorList:
		return e
	case *gqlableError:
		return x.GqlErrorList{&x.GqlError{
			Message:   e.Error(),
			Locations: e.locations(),
			Path:      e.gqlErr.Path,
		}}
	default:
		return x.GqlErrorList{&x.GqlError{Message: e.Error()}}
	}
}

func toGqlError(err *gqlerror.Error) *x.GqlError {
	gqlErr := &x.GqlError{
		Message:    err.Message,
		Locations:  convertLocations(err.Locations),
		Extensions: err.Extensions,
	}
	for _, p := range err.Path {
		gqlErr.Path = append(gqlErr.Path, p)
	}
	return gqlErr
}

func toGqlErrorList(errs gqlerror.List) x.GqlErrorList {
	var result x.GqlErrorList
	for _, err := range errs {
		result = append(result, toGqlError(err))
	}
	return result
}

func convertLocations(locs []gqlerror.Location) []x.Location {
	var result []x.Location
	for _, loc := range locs {
		result = append(result, x.Location{Line: loc.Line, Column: loc.Column})
	}
	return result
}

// GQLWrapf prefixes err with a formatted message, keeping any locations err
// already carries.  A nil err stays nil.
func GQLWrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	return &gqlableError{
		gqlErr: &x.GqlError{Message: fmt.Sprintf(format, args...)},
		cause:  err,
	}
}

// GQLWrapLocationf is GQLWrapf that also records loc.
func GQLWrapLocationf(err error, loc x.Location, format string, args ...interface{}) error {
	wrapped := GQLWrapf(err, format, args...)
	if wrapped == nil {
		return nil
	}

	gqlable := wrapped.(*gqlableError)
	gqlable.gqlErr.Locations = append(gqlable.gqlErr.Locations, loc)
	return gqlable
}

// SetPathIfEmpty sets the path of every error in errs that doesn't yet have one.
func SetPathIfEmpty(errs x.GqlErrorList, path []interface{}) x.GqlErrorList {
	for _, err := range errs {
		if len(err.Path) == 0 {
			err.Path = path
		}
	}
	return errs
}

// AppendGQLErrs builds a list of GraphQL errors from err1 and err2, if both
// are nil, the result is nil.
func AppendGQLErrs(err1, err2 error) error {
	if err1 == nil && err2 == nil {
		return nil
	}
	if err1 == nil {
		return AsGQLErrors(err2)
	}
	if err2 == nil {
		return AsGQLErrors(err1)
	}
	return append(AsGQLErrors(err1), AsGQLErrors(err2)...)
}
