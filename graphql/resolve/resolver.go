/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package resolve

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	otrace "go.opencensus.io/trace"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/api"
	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

const (
	methodResolve = "RequestResolver.Resolve"

	methodQuery    = "graphql.query"
	methodMutation = "graphql.mutation"

	resolverFailed    = false
	resolverSucceeded = true

	errInternal = "Internal error"
)

// A ResolverFactory is the dispatch table from root field names to resolvers.
type ResolverFactory interface {
	queryResolverFor(query schema.Query) QueryResolver
	mutationResolverFor(mutation schema.Mutation) MutationResolver

	// WithQueryResolver registers resolver for the query field name.  It's called
	// once per resolved field to build the QueryResolver.
	WithQueryResolver(name string, resolver func(schema.Query) QueryResolver) ResolverFactory

	// WithMutationResolver registers resolver for the mutation field name.
	WithMutationResolver(
		name string, resolver func(schema.Mutation) MutationResolver) ResolverFactory

	// WithBuiltinResolvers adds the hello, version and add resolvers.
	WithBuiltinResolvers() ResolverFactory

	// WithQueryMiddlewareConfig wraps query resolvers in the middlewares config
	// lists for their field name.
	WithQueryMiddlewareConfig(config map[string]QueryMiddlewares) ResolverFactory

	// WithMutationMiddlewareConfig is WithQueryMiddlewareConfig for mutations.
	WithMutationMiddlewareConfig(config map[string]MutationMiddlewares) ResolverFactory

	// WithSchemaIntrospection registers __schema and __type, and __typename on
	// the Mutation type.
	WithSchemaIntrospection() ResolverFactory
}

// RequestResolver turns a schema.Request into a schema.Response.  Every root
// field of the selected operation is dispatched through the factory and the
// results are joined, in request order, into one response.
type RequestResolver struct {
	schema    schema.Schema
	resolvers ResolverFactory
}

// resolverFactory holds the registered resolvers keyed by field name.  Unknown
// names fall back to the not-found resolvers.
type resolverFactory struct {
	queryResolvers    map[string]func(schema.Query) QueryResolver
	mutationResolvers map[string]func(schema.Mutation) MutationResolver

	queryMiddlewareConfig    map[string]QueryMiddlewares
	mutationMiddlewareConfig map[string]MutationMiddlewares

	// used for names with no registered resolver
	queryError    QueryResolverFunc
	mutationError MutationResolverFunc
}

// A Resolved is the outcome of one root field.
// Data is the field's value before completion: a Go scalar, a json.RawMessage
// holding already completed JSON, or nil.
type Resolved struct {
	Data  interface{}
	Field schema.Field
	Err   error
}

func (rf *resolverFactory) WithQueryResolver(
	name string, resolver func(schema.Query) QueryResolver) ResolverFactory {
	rf.queryResolvers[name] = resolver
	return rf
}

func (rf *resolverFactory) WithMutationResolver(
	name string, resolver func(schema.Mutation) MutationResolver) ResolverFactory {
	rf.mutationResolvers[name] = resolver
	return rf
}

func (rf *resolverFactory) WithSchemaIntrospection() ResolverFactory {
	return rf.
		WithQueryResolver("__schema",
			func(q schema.Query) QueryResolver {
				return QueryResolverFunc(resolveIntrospection)
			}).
		WithQueryResolver("__type",
			func(q schema.Query) QueryResolver {
				return QueryResolverFunc(resolveIntrospection)
			}).
		WithQueryResolver("__typename",
			func(q schema.Query) QueryResolver {
				return QueryResolverFunc(resolveIntrospection)
			}).
		WithMutationResolver("__typename",
			func(m schema.Mutation) MutationResolver {
				return MutationResolverFunc(resolveMutationTypename)
			})
}

func (rf *resolverFactory) WithQueryMiddlewareConfig(
	config map[string]QueryMiddlewares) ResolverFactory {
	if len(config) != 0 {
		rf.queryMiddlewareConfig = config
	}
	return rf
}

func (rf *resolverFactory) WithMutationMiddlewareConfig(
	config map[string]MutationMiddlewares) ResolverFactory {
	if len(config) != 0 {
		rf.mutationMiddlewareConfig = config
	}
	return rf
}

// NewResolverFactory returns a ResolverFactory with an empty dispatch table.  If
// the factory gets asked to resolve a query/mutation it has no resolver for, it
// uses the queryError/mutationError to build an error result.
func NewResolverFactory(
	queryError QueryResolverFunc, mutationError MutationResolverFunc) ResolverFactory {

	return &resolverFactory{
		queryResolvers:    make(map[string]func(schema.Query) QueryResolver),
		mutationResolvers: make(map[string]func(schema.Mutation) MutationResolver),

		queryMiddlewareConfig:    make(map[string]QueryMiddlewares),
		mutationMiddlewareConfig: make(map[string]MutationMiddlewares),

		queryError:    queryError,
		mutationError: mutationError,
	}
}

func (rf *resolverFactory) queryResolverFor(query schema.Query) QueryResolver {
	mws := rf.queryMiddlewareConfig[query.Name()]
	if resolver, ok := rf.queryResolvers[query.Name()]; ok {
		return mws.Then(resolver(query))
	}

	return rf.queryError
}

func (rf *resolverFactory) mutationResolverFor(mutation schema.Mutation) MutationResolver {
	mws := rf.mutationMiddlewareConfig[mutation.Name()]
	if resolver, ok := rf.mutationResolvers[mutation.Name()]; ok {
		return mws.Then(resolver(mutation))
	}

	return rf.mutationError
}

// New creates a new RequestResolver.
func New(s schema.Schema, resolverFactory ResolverFactory) *RequestResolver {
	return &RequestResolver{
		schema:    s,
		resolvers: resolverFactory,
	}
}

// Resolve processes gqlReq and returns a GraphQL response.  Any errors are
// recorded in the response's error field; Resolve never fails outright.
func (r *RequestResolver) Resolve(ctx context.Context, gqlReq *schema.Request) *schema.Response {
	span := otrace.FromContext(ctx)
	stop := x.SpanTimer(span, methodResolve)
	defer stop()

	if r == nil {
		glog.Errorf("Call to Resolve with nil RequestResolver")
		return schema.ErrorResponse(errors.New(errInternal))
	}

	if r.schema == nil {
		glog.Errorf("Call to Resolve with no schema")
		return schema.ErrorResponse(errors.New(errInternal))
	}

	op, err := r.schema.Operation(gqlReq)
	if err != nil {
		return schema.ErrorResponse(err)
	}

	if glog.V(3) {
		// dev tools poll introspection, keep it out of the log
		qs := op.Queries()
		if !op.IsQuery() || (len(qs) > 0 && !strings.HasPrefix(qs[0].Name(), "__")) {
			b, err := json.Marshal(gqlReq.Variables)
			if err != nil {
				glog.Infof("Failed to marshal variables for logging : %s", err)
			}
			glog.Infof("Resolving GQL request: \n%s\nWith Variables: \n%s\n",
				gqlReq.Query, string(b))
		}
	}

	startTime := time.Now()
	resp := &schema.Response{}

	// Validation guarantees an operation is one or the other.
	switch {
	case op.IsQuery():
		ctx = x.WithMethod(ctx, methodQuery)
		r.resolveQueries(ctx, gqlReq, op, resp)
		recordOperation(ctx, resp, startTime, x.NumQueries.M(1))
	case op.IsMutation():
		ctx = x.WithMethod(ctx, methodMutation)
		r.resolveMutations(ctx, gqlReq, op, resp)
		recordOperation(ctx, resp, startTime, x.NumMutations.M(1))
	}

	return resp
}

// resolveQueries resolves the queries in op concurrently.  Queries are
// independent of each other: e.g. an error in one query doesn't affect the others.
func (r *RequestResolver) resolveQueries(ctx context.Context, gqlReq *schema.Request,
	op schema.Operation, resp *schema.Response) {

	var wg sync.WaitGroup
	queries := op.Queries()
	allResolved := make([]*Resolved, len(queries))

	for i, q := range queries {
		wg.Add(1)

		go func(q schema.Query, storeAt int) {
			defer wg.Done()
			defer api.PanicHandler(ctx, gqlReq.Query,
				func(err error) {
					allResolved[storeAt] = &Resolved{
						Data:  nil,
						Field: q,
						Err:   err,
					}
				})

			ctx, span := otrace.StartSpan(ctx, "resolveQuery."+q.Name())
			defer span.End()
			allResolved[storeAt] = r.resolvers.queryResolverFor(q).Resolve(ctx, q)
		}(q, i)
	}
	wg.Wait()

	// Data is written in request order, whatever order queries finished in.
	for _, res := range allResolved {
		addResult(resp, res)
	}
}

// resolveMutations executes the mutations in op serially.
//
// The GraphQL spec is ambiguous about what to do in the case of errors during that
// serial execution.  A reasonable interpretation is to stop a list of mutations after
// the first error, which seems like the natural semantics and is what we enforce here.
func (r *RequestResolver) resolveMutations(ctx context.Context, gqlReq *schema.Request,
	op schema.Operation, resp *schema.Response) {

	allSuccessful := true
	for _, m := range op.Mutations() {
		if !allSuccessful {
			resp.WithError(x.GqlErrorf(
				"Mutation %s was not executed because of a previous error.",
				m.ResponseName()).
				WithLocations(m.Location()))

			continue
		}

		var res *Resolved
		res, allSuccessful = r.resolveMutation(ctx, gqlReq, m)
		addResult(resp, res)
	}
}

func (r *RequestResolver) resolveMutation(ctx context.Context, gqlReq *schema.Request,
	m schema.Mutation) (res *Resolved, success bool) {

	defer api.PanicHandler(ctx, gqlReq.Query,
		func(err error) {
			res = &Resolved{Data: nil, Field: m, Err: err}
			success = resolverFailed
		})

	ctx, span := otrace.StartSpan(ctx, "resolveMutation."+m.Name())
	defer span.End()
	return r.resolvers.mutationResolverFor(m).Resolve(ctx, m)
}

func recordOperation(ctx context.Context, resp *schema.Response, start time.Time,
	m stats.Measurement) {

	status := x.TagValueStatusOK
	if len(resp.Errors) > 0 {
		status = x.TagValueStatusError
	}
	x.RecordWithStatus(ctx, status, m, x.LatencyMs.M(x.SinceMs(start)))
}

// addResult completes res and writes its data and errors into resp.
// Errors without a path get the field's response name as theirs.
func addResult(resp *schema.Response, res *Resolved) {
	if res == nil {
		return
	}
	f := res.Field
	path := []interface{}{f.ResponseName()}

	var completed []byte
	if res.Err != nil {
		resp.WithError(fieldErrors(f, path, res.Err))

		// "If the field returns null because of an error which has already been
		// added to the "errors" list in the response, the "errors" list must not
		// be further affected."
		if res.Data == nil {
			if !nullable(f.Type()) {
				resp.SetDataNull()
				return
			}
			completed = []byte("null")
		}
	}

	if completed == nil {
		var gqlErrs x.GqlErrorList
		completed, gqlErrs = completeValue(path, f, f.Type(), res.Data)
		if len(gqlErrs) > 0 {
			resp.WithError(gqlErrs)
		}
		if completed == nil {
			// Non-null propagation reached the top of the response.
			resp.SetDataNull()
			return
		}
	}

	key, err := json.Marshal(f.ResponseName())
	x.Check(err)
	resp.AddData(append(append(key, ':'), completed...))
}

// fieldErrors turns err into GraphQL errors located at field f and carrying path.
func fieldErrors(f schema.Field, path []interface{}, err error) x.GqlErrorList {
	errs := schema.AsGQLErrors(err)
	for _, gqlErr := range errs {
		if len(gqlErr.Locations) == 0 {
			gqlErr.Locations = []x.Location{f.Location()}
		}
	}
	return schema.SetPathIfEmpty(errs, path)
}

// EmptyResult is the Resolved for a field that failed with err.
func EmptyResult(f schema.Field, err error) *Resolved {
	return &Resolved{
		Data:  nil,
		Field: f,
		Err:   schema.GQLWrapf(err, "resolving %s failed", f.Name()),
	}
}
