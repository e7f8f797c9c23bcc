/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"github.com/pkg/errors"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgraph-io/gqlparser/v2/validator"
	// make gql validator init() all rules
	_ "github.com/dgraph-io/gqlparser/v2/validator/rules"
)

// SDL is the GraphQL schema served by gqlhello.
const SDL = `
"""
The root query type.
"""
type Query {
	"""
	A friendly greeting.
	"""
	hello: String!

	"""
	The version of the API.
	"""
	version: String!
}

"""
The root mutation type.
"""
type Mutation {
	"""
	Adds two integers and returns their sum.
	"""
	add(a: Int!, b: Int!): Int!
}
`

// FromString builds a GraphQL Schema from input string, or returns any parsing
// or validation errors.
func FromString(sdl string) (Schema, error) {
	// validator.Prelude includes the built-in scalars and the types that help with
	// schema introspection queries, hence we include it as part of the schema.
	doc, gqlErr := parser.ParseSchemas(validator.Prelude, &ast.Source{Name: "schema.graphql", Input: sdl})
	if gqlErr != nil {
		return nil, errors.Wrap(gqlErr, "while parsing GraphQL schema")
	}

	gqlSchema, gqlErr := validator.ValidateSchemaDocument(doc)
	if gqlErr != nil {
		return nil, errors.Wrap(gqlErr, "while validating GraphQL schema")
	}

	return AsSchema(gqlSchema), nil
}

// MustLoad builds the Schema served by gqlhello and panics if it's invalid.
func MustLoad() Schema {
	s, err := FromString(SDL)
	if err != nil {
		panic(err)
	}
	return s
}
