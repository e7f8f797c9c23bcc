/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
)

// QueryMiddleware represents a middleware for queries
type QueryMiddleware func(resolver QueryResolver) QueryResolver

// MutationMiddleware represents a middleware for mutations
type MutationMiddleware func(resolver MutationResolver) MutationResolver

// QueryMiddlewares represents a list of middlewares for queries, that get applied in the order
// they are present in the list.
// Inspired from: https://github.com/justinas/alice
type QueryMiddlewares []QueryMiddleware

// MutationMiddlewares represents a list of middlewares for mutations, that get applied in the order
// they are present in the list.
// Inspired from: https://github.com/justinas/alice
type MutationMiddlewares []MutationMiddleware

var errIntrospectionDisabled = errors.New("Introspection is disabled on this server.")

// Then chains the middlewares and returns the final QueryResolver.
//
//	QueryMiddlewares{m1, m2, m3}.Then(r)
//
// is equivalent to:
//
//	m1(m2(m3(r)))
//
// When the request comes in, it will be passed to m1, then m2, then m3
// and finally, the given resolver
// (assuming every middleware calls the following one).
//
// A chain can be safely reused by calling Then() several times.
// Note that constructors are called on every call to Then()
// and thus several instances of the same middleware will be created
// when a chain is reused in this way.
// For proper middleware, this should cause no problems.
//
// Then() treats nil as a QueryResolverFunc that resolves to &Resolved{Field: query}
func (mws QueryMiddlewares) Then(resolver QueryResolver) QueryResolver {
	if len(mws) == 0 {
		return resolver
	}
	if resolver == nil {
		resolver = QueryResolverFunc(func(ctx context.Context, query schema.Query) *Resolved {
			return &Resolved{Field: query}
		})
	}
	for i := len(mws) - 1; i >= 0; i-- {
		resolver = mws[i](resolver)
	}
	return resolver
}

// Then chains the middlewares and returns the final MutationResolver.
//
//	MutationMiddlewares{m1, m2, m3}.Then(r)
//
// is equivalent to:
//
//	m1(m2(m3(r)))
//
// Then() treats nil as a MutationResolverFunc that resolves to (&Resolved{Field: mutation}, true)
func (mws MutationMiddlewares) Then(resolver MutationResolver) MutationResolver {
	if len(mws) == 0 {
		return resolver
	}
	if resolver == nil {
		resolver = MutationResolverFunc(func(ctx context.Context,
			mutation schema.Mutation) (*Resolved, bool) {
			return &Resolved{Field: mutation}, true
		})
	}
	for i := len(mws) - 1; i >= 0; i-- {
		resolver = mws[i](resolver)
	}
	return resolver
}

// IntrospectionGuardMW rejects the query without calling the next resolver.
// It's configured for __schema and __type when introspection is turned off.
func IntrospectionGuardMW(resolver QueryResolver) QueryResolver {
	return QueryResolverFunc(func(ctx context.Context, query schema.Query) *Resolved {
		return EmptyResult(query, errIntrospectionDisabled)
	})
}

// LoggingMWQuery logs the query name and how long it took to resolve, at -v=2.
func LoggingMWQuery(resolver QueryResolver) QueryResolver {
	return QueryResolverFunc(func(ctx context.Context, query schema.Query) *Resolved {
		start := time.Now()
		resolved := resolver.Resolve(ctx, query)
		if glog.V(2) {
			glog.Infof("Resolved query %s in %s (error: %v)", query.ResponseName(),
				time.Since(start), resolved.Err)
		}
		return resolved
	})
}

// LoggingMWMutation logs the mutation name and how long it took to resolve, at -v=2.
func LoggingMWMutation(resolver MutationResolver) MutationResolver {
	return MutationResolverFunc(func(ctx context.Context, mutation schema.Mutation) (*Resolved,
		bool) {
		start := time.Now()
		resolved, success := resolver.Resolve(ctx, mutation)
		if glog.V(2) {
			glog.Infof("Resolved mutation %s in %s (success: %v)", mutation.ResponseName(),
				time.Since(start), success)
		}
		return resolved, success
	})
}

// QueryMiddlewareConfig returns the middlewares for every query of s.  Standard
// queries are logged; __schema and __type are guarded when introspection is off.
func QueryMiddlewareConfig(s schema.Schema, introspection bool) map[string]QueryMiddlewares {
	config := make(map[string]QueryMiddlewares)
	for _, q := range s.Queries(schema.StandardQuery) {
		config[q] = QueryMiddlewares{LoggingMWQuery}
	}
	if !introspection {
		for _, q := range []string{"__schema", "__type"} {
			config[q] = QueryMiddlewares{IntrospectionGuardMW}
		}
	}
	return config
}

// MutationMiddlewareConfig returns the middlewares for every mutation of s.
func MutationMiddlewareConfig(s schema.Schema) map[string]MutationMiddlewares {
	config := make(map[string]MutationMiddlewares)
	for _, m := range s.Mutations(schema.StandardMutation) {
		config[m] = MutationMiddlewares{LoggingMWMutation}
	}
	return config
}
