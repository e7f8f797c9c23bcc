/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
)

func TestQueryMiddlewares_Then_ExecutesMiddlewaresInOrder(t *testing.T) {
	array := make([]int, 0)
	addToArray := func(num int) {
		array = append(array, num)
	}
	m1 := QueryMiddleware(func(resolver QueryResolver) QueryResolver {
		return QueryResolverFunc(func(ctx context.Context, query schema.Query) *Resolved {
			addToArray(1)
			defer addToArray(5)
			return resolver.Resolve(ctx, query)
		})
	})
	m2 := QueryMiddleware(func(resolver QueryResolver) QueryResolver {
		return QueryResolverFunc(func(ctx context.Context, query schema.Query) *Resolved {
			addToArray(2)
			resolved := resolver.Resolve(ctx, query)
			addToArray(4)
			return resolved
		})
	})
	mws := QueryMiddlewares{m1, m2}

	resolver := mws.Then(QueryResolverFunc(func(ctx context.Context, query schema.Query) *Resolved {
		addToArray(3)
		return &Resolved{
			Field: query,
			Data:  HelloMessage,
		}
	}))
	resolved := resolver.Resolve(context.Background(), nil)

	require.Equal(t, &Resolved{Data: HelloMessage}, resolved)
	require.Equal(t, []int{1, 2, 3, 4, 5}, array)
}

func TestMutationMiddlewares_Then_ExecutesMiddlewaresInOrder(t *testing.T) {
	array := make([]int, 0)
	addToArray := func(num int) {
		array = append(array, num)
	}
	m1 := MutationMiddleware(func(resolver MutationResolver) MutationResolver {
		return MutationResolverFunc(func(ctx context.Context, mutation schema.Mutation) (*Resolved, bool) {
			addToArray(1)
			defer addToArray(5)
			return resolver.Resolve(ctx, mutation)
		})
	})
	m2 := MutationMiddleware(func(resolver MutationResolver) MutationResolver {
		return MutationResolverFunc(func(ctx context.Context,
			mutation schema.Mutation) (*Resolved, bool) {
			addToArray(2)
			resolved, success := resolver.Resolve(ctx, mutation)
			addToArray(4)
			return resolved, success
		})
	})
	mws := MutationMiddlewares{m1, m2}

	resolver := mws.Then(MutationResolverFunc(func(ctx context.Context, mutation schema.Mutation) (*Resolved, bool) {
		addToArray(3)
		return &Resolved{
			Field: mutation,
			Data:  int32(7),
		}, true
	}))
	resolved, success := resolver.Resolve(context.Background(), nil)

	require.True(t, success)
	require.Equal(t, &Resolved{Data: int32(7)}, resolved)
	require.Equal(t, []int{1, 2, 3, 4, 5}, array)
}

func TestMiddlewares_Then_NilResolver(t *testing.T) {
	qr := QueryMiddlewares{LoggingMWQuery}.Then(nil)
	require.Equal(t, &Resolved{}, qr.Resolve(context.Background(), nil))

	mr := MutationMiddlewares{LoggingMWMutation}.Then(nil)
	resolved, success := mr.Resolve(context.Background(), nil)
	require.True(t, success)
	require.Equal(t, &Resolved{}, resolved)
}

func TestMiddlewares_Then_Empty(t *testing.T) {
	var called bool
	r := QueryResolverFunc(func(ctx context.Context, query schema.Query) *Resolved {
		called = true
		return &Resolved{}
	})

	QueryMiddlewares{}.Then(r).Resolve(context.Background(), nil)
	require.True(t, called)
}

func TestQueryMiddlewareConfig(t *testing.T) {
	s := schema.MustLoad()

	withIntrospection := QueryMiddlewareConfig(s, true)
	require.Len(t, withIntrospection["hello"], 1)
	require.Len(t, withIntrospection["version"], 1)
	require.NotContains(t, withIntrospection, "__schema")
	require.NotContains(t, withIntrospection, "__type")

	withoutIntrospection := QueryMiddlewareConfig(s, false)
	require.Len(t, withoutIntrospection["__schema"], 1)
	require.Len(t, withoutIntrospection["__type"], 1)
	require.NotContains(t, withoutIntrospection, "__typename")

	require.Len(t, MutationMiddlewareConfig(s)["add"], 1)
}
