/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"github.com/pkg/errors"

	"github.com/dgraph-io/gqlgen/graphql"
	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgraph-io/gqlparser/v2/validator"
)

// A Request represents a GraphQL request.  It makes no guarantees that the
// request is valid.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
	Extensions    map[string]interface{} `json:"extensions,omitempty"`
}

// ErrNoQuery is returned by Operation when the request carries no query text.
var ErrNoQuery = errors.New("no query string supplied in request")

// Operation finds the operation in req, if it is a valid request for GraphQL
// schema s. If the request is GraphQL valid, it must contain a single valid
// Operation.  If either the request is malformed or doesn't contain a valid
// operation, all GraphQL errors encountered are returned.
func (s *schema) Operation(req *Request) (Operation, error) {
	if req == nil || req.Query == "" {
		return nil, ErrNoQuery
	}

	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: req.Query})
	if gqlErr != nil {
		return nil, gqlErr
	}

	listErr := validator.Validate(s.schema, doc, req.Variables)
	if len(listErr) != 0 {
		return nil, listErr
	}

	if len(doc.Operations) > 1 && req.OperationName == "" {
		return nil, errors.Errorf("Operation name must by supplied when query has more " +
			"than 1 operation.")
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return nil, errors.Errorf("Supplied operation name %s isn't present in the request.",
			req.OperationName)
	}

	if op.Operation == ast.Subscription {
		return nil, errors.Errorf("Not resolving subscription because schema doesn't have any " +
			"fields defined for subscription operation.")
	}

	vars, gqlErr := validator.VariableValues(s.schema, op, req.Variables)
	if gqlErr != nil {
		return nil, gqlErr
	}

	return &operation{
		op:       op,
		vars:     vars,
		inSchema: s,
		opCtx: &graphql.OperationContext{
			RawQuery:      req.Query,
			Variables:     vars,
			OperationName: op.Name,
			Doc:           doc,
			Operation:     op,
		},
	}, nil
}

// IsMutation reports whether the operation req selects is a mutation.  It only
// parses the query; a request that can't be parsed, or whose operation can't
// be picked, isn't a mutation and is left for Operation to report.
func (req *Request) IsMutation() bool {
	if req == nil || req.Query == "" {
		return false
	}

	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: req.Query})
	if gqlErr != nil {
		return false
	}
	if len(doc.Operations) > 1 && req.OperationName == "" {
		return false
	}

	op := doc.Operations.ForName(req.OperationName)
	return op != nil && op.Operation == ast.Mutation
}
