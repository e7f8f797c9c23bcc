/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

// A MutationResolver can resolve a single mutation.  The bool result reports
// whether the mutation succeeded; mutations after a failed one in the same
// operation are not executed.
type MutationResolver interface {
	Resolve(ctx context.Context, mutation schema.Mutation) (*Resolved, bool)
}

// MutationResolverFunc is an adapter that allows to build a MutationResolver from
// a function.  Based on the http.HandlerFunc pattern.
type MutationResolverFunc func(ctx context.Context, m schema.Mutation) (*Resolved, bool)

// Resolve calls mr(ctx, mutation)
func (mr MutationResolverFunc) Resolve(ctx context.Context, m schema.Mutation) (*Resolved, bool) {
	return mr(ctx, m)
}

// MutationNotFound is the resolver used for a mutation field that has no entry
// in the dispatch table.
func MutationNotFound(ctx context.Context, m schema.Mutation) (*Resolved, bool) {
	return &Resolved{
		Field: m,
		Err: x.GqlErrorf("Mutation %s not found: no resolver is registered for it.",
			m.Name()).WithLocations(m.Location()),
	}, resolverFailed
}

// resolveMutationTypename answers __typename asked directly of the mutation type.
func resolveMutationTypename(ctx context.Context, m schema.Mutation) (*Resolved, bool) {
	return &Resolved{
		Data:  m.Operation().RootTypeName(),
		Field: m,
	}, resolverSucceeded
}
