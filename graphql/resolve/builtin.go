/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"math"

	"github.com/Masterminds/semver/v3"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

// HelloMessage is the value of the hello query.
const HelloMessage = "Hello, world!"

// APIVersion is the value of the version query.  It's the version of the
// GraphQL API, not of the binary serving it.
var APIVersion = semver.MustParse("1.0.0")

func (rf *resolverFactory) WithBuiltinResolvers() ResolverFactory {
	return rf.
		WithQueryResolver("hello",
			func(q schema.Query) QueryResolver {
				return QueryResolverFunc(resolveHello)
			}).
		WithQueryResolver("version",
			func(q schema.Query) QueryResolver {
				return QueryResolverFunc(resolveVersion)
			}).
		WithMutationResolver("add",
			func(m schema.Mutation) MutationResolver {
				return MutationResolverFunc(resolveAdd)
			})
}

func resolveHello(ctx context.Context, q schema.Query) *Resolved {
	return &Resolved{Data: HelloMessage, Field: q}
}

func resolveVersion(ctx context.Context, q schema.Query) *Resolved {
	return &Resolved{Data: APIVersion.String(), Field: q}
}

// resolveAdd sums the a and b arguments.  The sum is computed in 64 bits so an
// overflow of the 32 bit Int type is reported rather than wrapped.
func resolveAdd(ctx context.Context, m schema.Mutation) (*Resolved, bool) {
	a, err := m.IntArgValue("a")
	if err != nil {
		return EmptyResult(m, err), resolverFailed
	}
	b, err := m.IntArgValue("b")
	if err != nil {
		return EmptyResult(m, err), resolverFailed
	}

	sum := int64(a) + int64(b)
	if sum < math.MinInt32 || sum > math.MaxInt32 {
		return EmptyResult(m, x.GqlErrorf(
			"Int cannot represent non 32-bit signed integer value: %d", sum)), resolverFailed
	}

	return &Resolved{Data: int32(sum), Field: m}, resolverSucceeded
}
