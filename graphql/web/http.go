/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/trace"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/api"
	"github.com/mohammadmehdi-rp/graphql-testing/graphql/resolve"
	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

const (
	methodTransport = "graphql.transport"

	// DefaultMaxBodySize is the request body limit used when none is configured.
	DefaultMaxBodySize = 1 << 20
)

// An IServeGraphQL can serve a GraphQL endpoint (currently only on http)
type IServeGraphQL interface {

	// After ServeGQL is called, this IServeGraphQL serves the new resolvers.
	ServeGQL(resolver *resolve.RequestResolver)

	// HTTPHandler returns a http.Handler that serves GraphQL.
	HTTPHandler() http.Handler

	// Resolve processes a GQL Request using the correct resolver and returns a GQL Response
	Resolve(ctx context.Context, gqlReq *schema.Request) *schema.Response
}

type graphqlHandler struct {
	mu       sync.RWMutex
	resolver *resolve.RequestResolver

	maxBodySize int64
	handler     http.Handler
}

// A transportError is a request that was refused before it reached a resolver.
// It's answered with status rather than 200.
type transportError struct {
	status int
	err    error
}

func (te *transportError) Error() string {
	return te.err.Error()
}

func (te *transportError) Unwrap() error {
	return te.err
}

func badRequest(err error, msg string) error {
	return &transportError{status: http.StatusBadRequest, err: errors.Wrap(err, msg)}
}

func refused(status int, msg string) error {
	return &transportError{status: status, err: errors.New(msg)}
}

// NewServer returns a new IServeGraphQL that can serve the given resolvers.
// Request bodies larger than maxBodySize bytes are refused, a maxBodySize of
// zero or less means DefaultMaxBodySize.
func NewServer(resolver *resolve.RequestResolver, maxBodySize int64) IServeGraphQL {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	gh := &graphqlHandler{resolver: resolver, maxBodySize: maxBodySize}
	gh.handler = api.WithRequestID(recoveryHandler(commonHeaders(gh)))
	return gh
}

func (gh *graphqlHandler) HTTPHandler() http.Handler {
	return gh.handler
}

func (gh *graphqlHandler) ServeGQL(resolver *resolve.RequestResolver) {
	gh.mu.Lock()
	defer gh.mu.Unlock()
	gh.resolver = resolver
}

func (gh *graphqlHandler) Resolve(ctx context.Context, gqlReq *schema.Request) *schema.Response {
	gh.mu.RLock()
	resolver := gh.resolver
	gh.mu.RUnlock()
	return resolver.Resolve(ctx, gqlReq)
}

// ServeHTTP handles GraphQL queries and mutations.  It writes a valid GraphQL
// JSON response to w: with status 200 once the request reached the resolver,
// and with a 4xx status if the request couldn't be understood.
func (gh *graphqlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "handler")
	defer span.End()

	stats.Record(ctx, x.PendingRequests.M(1))
	defer stats.Record(ctx, x.PendingRequests.M(-1))

	acceptGzip := strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")

	gqlReq, err := getRequest(w, r, gh.maxBodySize)
	if err != nil {
		status := http.StatusBadRequest
		var te *transportError
		if errors.As(err, &te) {
			status = te.status
		}
		if status == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", "GET, POST, OPTIONS")
		}
		span.Annotatef(nil, "Transport error %d: %s", status, err)
		x.RecordWithStatus(x.WithMethod(ctx, methodTransport), x.TagValueStatusError,
			x.NumTransportErrors.M(1))

		write(w, schema.ErrorResponse(err), status, acceptGzip)
		return
	}

	write(w, gh.Resolve(ctx, gqlReq), http.StatusOK, acceptGzip)
}

// write sends rr with status, gzipped if the client accepts it.
func write(w http.ResponseWriter, rr *schema.Response, status int, acceptGzip bool) {
	var out io.Writer = w

	if acceptGzip {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gzw := gzip.NewWriter(w)
		defer gzw.Close()
		out = gzw
	}

	w.WriteHeader(status)
	if _, err := rr.WriteTo(out); err != nil {
		glog.Error(err)
	}
}

type gzreadCloser struct {
	*gzip.Reader
	io.Closer
}

func (gz gzreadCloser) Close() error {
	err := gz.Reader.Close()
	if err != nil {
		return err
	}
	return gz.Closer.Close()
}

func getRequest(w http.ResponseWriter, r *http.Request,
	maxBodySize int64) (*schema.Request, error) {

	gqlReq := &schema.Request{}

	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		gqlReq.Query = query.Get("query")
		gqlReq.OperationName = query.Get("operationName")
		if variables, ok := query["variables"]; ok && variables[0] != "" {
			d := json.NewDecoder(strings.NewReader(variables[0]))
			d.UseNumber()

			if err := d.Decode(&gqlReq.Variables); err != nil {
				return nil, badRequest(err, "Not a valid GraphQL request body")
			}
		}
		// https://graphql.org/learn/serving-over-http/#get-request says mutations
		// must be sent over POST.
		if gqlReq.IsMutation() {
			return nil, refused(http.StatusMethodNotAllowed,
				"Mutations can only be sent over POST.")
		}
	case http.MethodPost:
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			return nil, &transportError{status: http.StatusUnsupportedMediaType,
				err: errors.Wrap(err, "Unable to parse media type")}
		}

		switch mediaType {
		case "application/json":
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
			if r.Header.Get("Content-Encoding") == "gzip" {
				zr, err := gzip.NewReader(r.Body)
				if err != nil {
					return nil, badRequest(err, "Unable to parse gzip")
				}
				// Limit what the body inflates to as well as what's sent.
				r.Body = gzreadCloser{zr, r.Body}
				r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
			}

			d := json.NewDecoder(r.Body)
			d.UseNumber()
			if err = d.Decode(&gqlReq); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return nil, refused(http.StatusRequestEntityTooLarge, tooLarge.Error())
				}
				return nil, badRequest(err, "Not a valid GraphQL request body")
			}
			if gqlReq == nil {
				return nil, refused(http.StatusBadRequest, "Not a valid GraphQL request body")
			}
		default:
			// See https://graphql.org/learn/serving-over-http/#post-request
			return nil, refused(http.StatusUnsupportedMediaType,
				"Unrecognised Content-Type.  Please use application/json for GraphQL requests")
		}
	default:
		return nil, refused(http.StatusMethodNotAllowed,
			"Unrecognised request method.  Please use GET or POST for GraphQL requests")
	}

	if gqlReq.Query == "" {
		return nil, &transportError{status: http.StatusBadRequest, err: schema.ErrNoQuery}
	}
	return gqlReq, nil
}

func commonHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		next.ServeHTTP(w, r)
	})
}

func recoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer api.PanicHandler(ctx, "",
			func(err error) {
				rr := schema.ErrorResponse(err)
				rr.Extensions = &schema.Extensions{RequestID: api.RequestID(ctx)}
				write(w, rr, http.StatusInternalServerError,
					strings.Contains(r.Header.Get("Accept-Encoding"), "gzip"))
			})

		next.ServeHTTP(w, r)
	})
}
