/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"encoding/json"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

// A QueryResolver can resolve a single query.
type QueryResolver interface {
	Resolve(ctx context.Context, query schema.Query) *Resolved
}

// QueryResolverFunc is an adapter that allows to build a QueryResolver from
// a function.  Based on the http.HandlerFunc pattern.
type QueryResolverFunc func(ctx context.Context, query schema.Query) *Resolved

// Resolve calls qr(ctx, query)
func (qr QueryResolverFunc) Resolve(ctx context.Context, query schema.Query) *Resolved {
	return qr(ctx, query)
}

// QueryNotFound is the resolver used for a query field that has no entry in
// the dispatch table.
func QueryNotFound(ctx context.Context, query schema.Query) *Resolved {
	return &Resolved{
		Field: query,
		Err: x.GqlErrorf("Query %s not found: no resolver is registered for it.",
			query.Name()).WithLocations(query.Location()),
	}
}

func resolveIntrospection(ctx context.Context, q schema.Query) *Resolved {
	data, err := schema.Introspect(q)
	if err != nil {
		return EmptyResult(q, err)
	}

	return &Resolved{
		Data:  json.RawMessage(data),
		Field: q,
	}
}
