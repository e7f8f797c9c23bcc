/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

type QueryCase struct {
	Name        string                 `yaml:"name"`
	GQLQuery    string                 `yaml:"gqlquery"`
	Operation   string                 `yaml:"operation"`
	Variables   map[string]interface{} `yaml:"variables"`
	Explanation string                 `yaml:"explanation"`
	Expected    string                 `yaml:"expected"`
	Errors      x.GqlErrorList         `yaml:"errors"`
}

func newResolver(s schema.Schema) *RequestResolver {
	return New(s, NewResolverFactory(QueryNotFound, MutationNotFound).
		WithSchemaIntrospection().
		WithBuiltinResolvers())
}

func resolve(r *RequestResolver, req *schema.Request) *schema.Response {
	return r.Resolve(context.Background(), req)
}

// dataOf is the data entry as it will be written.
func dataOf(resp *schema.Response) string {
	if resp.DataIsNull() {
		return "null"
	}
	return resp.Data.String()
}

// Tests in resolver_test.yaml are about what gets into a completed result: the
// values, inserted nulls, errors and error propagation.  Exact JSON layout
// doesn't matter there; ordering is tested by TestResponseOrder().
func TestResolver(t *testing.T) {
	b, err := os.ReadFile("resolver_test.yaml")
	require.NoError(t, err, "Unable to read test file")

	var tests []QueryCase
	err = yaml.Unmarshal(b, &tests)
	require.NoError(t, err, "Unable to unmarshal tests to yaml.")

	resolver := newResolver(schema.MustLoad())

	for _, tcase := range tests {
		t.Run(tcase.Name, func(t *testing.T) {
			resp := resolve(resolver, &schema.Request{
				Query:         tcase.GQLQuery,
				OperationName: tcase.Operation,
				Variables:     tcase.Variables,
			})

			if diff := cmp.Diff(tcase.Errors, resp.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			require.JSONEq(t, tcase.Expected, dataOf(resp), tcase.Explanation)
		})
	}
}

// Ordering of results matters in GraphQL:
// https://graphql.github.io/graphql-spec/June2018/#sec-Serialized-Map-Ordering
func TestResponseOrder(t *testing.T) {
	tests := []QueryCase{
		{Name: "Response is in same order as GQL query",
			GQLQuery: `{ hello version }`,
			Expected: `{"hello":"Hello, world!","version":"1.0.0"}`},
		{Name: "Response order follows the query not the schema",
			GQLQuery: `{ version hello }`,
			Expected: `{"version":"1.0.0","hello":"Hello, world!"}`},
		{Name: "Aliases keep their position",
			GQLQuery: `{ b: version a: hello c: version }`,
			Expected: `{"b":"1.0.0","a":"Hello, world!","c":"1.0.0"}`},
		{Name: "Mutations are in order",
			GQLQuery: `mutation { z: add(a: 1, b: 0) y: add(a: 2, b: 0) }`,
			Expected: `{"z":1,"y":2}`},
	}

	resolver := newResolver(schema.MustLoad())

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			resp := resolve(resolver, &schema.Request{Query: test.GQLQuery})

			require.Nil(t, resp.Errors)
			require.Equal(t, test.Expected, resp.Data.String())
		})
	}
}

func TestResolve_OperationErrors(t *testing.T) {
	tests := map[string]struct {
		req *schema.Request
		err string
	}{
		"unknown field": {
			req: &schema.Request{Query: `{ goodbye }`},
			err: `Cannot query field "goodbye" on type "Query".`},
		"parse error": {
			req: &schema.Request{Query: `mutation { add(a: 1, b: 2) `},
			err: "Expected Name, found <EOF>"},
		"missing variable": {
			req: &schema.Request{Query: `mutation M($a: Int!) { add(a: $a, b: 1) }`}},
		"variable of the wrong type": {
			req: &schema.Request{
				Query:     `mutation M($a: Int!) { add(a: $a, b: 1) }`,
				Variables: map[string]interface{}{"a": true}}},
	}

	resolver := newResolver(schema.MustLoad())
	for name, tcase := range tests {
		t.Run(name, func(t *testing.T) {
			resp := resolve(resolver, tcase.req)

			require.NotEmpty(t, resp.Errors)
			if tcase.err != "" {
				assert.Contains(t, resp.Errors.Error(), tcase.err)
			}
			// No field was executed, so there's no data entry at all.
			assert.Zero(t, resp.Data.Len())
			assert.False(t, resp.DataIsNull())
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	resolver := New(schema.MustLoad(), NewResolverFactory(QueryNotFound, MutationNotFound))

	resp := resolve(resolver, &schema.Request{Query: `{ hello }`})
	require.Equal(t, x.GqlErrorList{{
		Message:   "Query hello not found: no resolver is registered for it.",
		Locations: []x.Location{{Line: 1, Column: 3}},
		Path:      []interface{}{"hello"},
	}}, resp.Errors)
	require.True(t, resp.DataIsNull())

	resp = resolve(resolver, &schema.Request{Query: `mutation { add(a: 1, b: 1) }`})
	require.Equal(t, x.GqlErrorList{{
		Message:   "Mutation add not found: no resolver is registered for it.",
		Locations: []x.Location{{Line: 1, Column: 12}},
		Path:      []interface{}{"add"},
	}}, resp.Errors)
	require.True(t, resp.DataIsNull())
}

func TestResolve_PanicIsRecovered(t *testing.T) {
	resolver := New(schema.MustLoad(),
		NewResolverFactory(QueryNotFound, MutationNotFound).
			WithBuiltinResolvers().
			WithQueryResolver("version", func(q schema.Query) QueryResolver {
				return QueryResolverFunc(func(ctx context.Context, q schema.Query) *Resolved {
					panic("version exploded")
				})
			}))

	resp := resolve(resolver, &schema.Request{Query: `{ hello version }`})

	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, "a panic was trapped")
	assert.Equal(t, []interface{}{"version"}, resp.Errors[0].Path)
	assert.True(t, resp.DataIsNull())
}

func TestResolve_QueriesRunConcurrently(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	counting := func(q schema.Query) QueryResolver {
		return QueryResolverFunc(func(ctx context.Context, q schema.Query) *Resolved {
			// Every query has to be started before any of them can finish.
			if atomic.AddInt32(&calls, 1) == 3 {
				close(release)
			}
			<-release
			return &Resolved{Data: q.ResponseName(), Field: q}
		})
	}
	resolver := New(schema.MustLoad(),
		NewResolverFactory(QueryNotFound, MutationNotFound).
			WithQueryResolver("hello", counting))

	resp := resolve(resolver, &schema.Request{Query: `{ a: hello b: hello c: hello }`})

	require.Nil(t, resp.Errors)
	require.Equal(t, `{"a":"a","b":"b","c":"c"}`, resp.Data.String())
}

func TestResolve_IntrospectionCanBeDisabled(t *testing.T) {
	s := schema.MustLoad()
	resolver := New(s, NewResolverFactory(QueryNotFound, MutationNotFound).
		WithSchemaIntrospection().
		WithBuiltinResolvers().
		WithQueryMiddlewareConfig(QueryMiddlewareConfig(s, false)).
		WithMutationMiddlewareConfig(MutationMiddlewareConfig(s)))

	resp := resolve(resolver, &schema.Request{Query: `{ __schema { queryType { name } } }`})
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, "Introspection is disabled")
	assert.True(t, resp.DataIsNull())

	// __typename and the standard fields aren't affected.
	resp = resolve(resolver, &schema.Request{Query: `{ __typename hello }`})
	require.Nil(t, resp.Errors)
	require.JSONEq(t, `{"__typename":"Query","hello":"Hello, world!"}`, resp.Data.String())

	resp = resolve(resolver, &schema.Request{Query: `mutation { add(a: 2, b: 3) }`})
	require.Nil(t, resp.Errors)
	require.JSONEq(t, `{"add":5}`, resp.Data.String())
}

func TestResolve_Introspection(t *testing.T) {
	resolver := newResolver(schema.MustLoad())

	resp := resolve(resolver, &schema.Request{Query: `{
		__schema {
			queryType { name }
			mutationType { name }
			subscriptionType { name }
		}
		__type(name: "Mutation") {
			kind
			fields { name args { name type { kind ofType { name } } } }
		}
	}`})

	require.Nil(t, resp.Errors)
	require.JSONEq(t, `{
		"__schema": {
			"queryType": { "name": "Query" },
			"mutationType": { "name": "Mutation" },
			"subscriptionType": null
		},
		"__type": {
			"kind": "OBJECT",
			"fields": [ { "name": "add", "args": [
				{ "name": "a", "type": { "kind": "NON_NULL", "ofType": { "name": "Int" } } },
				{ "name": "b", "type": { "kind": "NON_NULL", "ofType": { "name": "Int" } } }
			] } ]
		}
	}`, resp.Data.String())
}

func TestResolve_NilResolver(t *testing.T) {
	var resolver *RequestResolver

	resp := resolver.Resolve(context.Background(), &schema.Request{Query: `{ hello }`})

	require.Len(t, resp.Errors, 1)
	require.Equal(t, errInternal, resp.Errors[0].Message)
}
