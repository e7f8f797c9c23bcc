/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

// Package graphql is a http server for the hello GraphQL API.
//
// GraphQL spec:
// https://graphql.github.io/graphql-spec/June2018
//
// GraphQL servers should serve both GET and POST
// https://graphql.org/learn/serving-over-http/
//
// GET should be like
// http://myapi/graphql?query={hello}
//
// POST should have a json content body like
//
//	{
//	  "query": "...",
//	  "operationName": "...",
//	  "variables": { "myVariable": "someValue", ... }
//	}
//
// GraphQL servers should return 200 (even on errors),
// and result body should be json:
//
//	{
//	  "data": { "query_name" : ... },
//	  "errors": [ { "message" : ..., ...} ... ]
//	}
//
// Requests that can't be understood as GraphQL at all (bad JSON, wrong content
// type or method, a body that's too large) get a 4xx status instead.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opencensus.io/trace"
	"go.opencensus.io/zpages"
	"golang.org/x/sync/errgroup"

	"github.com/mohammadmehdi-rp/graphql-testing/audit"
	"github.com/mohammadmehdi-rp/graphql-testing/graphql/resolve"
	"github.com/mohammadmehdi-rp/graphql-testing/graphql/schema"
	"github.com/mohammadmehdi-rp/graphql-testing/graphql/web"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

const (
	defaultPort = 4000

	metricsNamespace = "gqlhello"
	rootMessage      = "OK: GraphQL is at /graphql"
)

// GraphQL is the sub-command invoked when running "gqlhello graphql".
var GraphQL x.SubCommand

func init() {
	GraphQL.Cmd = &cobra.Command{
		Use:   "graphql",
		Short: "Run the GraphQL HTTP API",
		Long: `Serves the GraphQL API at /graphql.  The port is taken from --port,
then the GQL_PORT or PORT environment variables, and defaults to 4000.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(cmd.Context()); err != nil {
				if glog.V(2) {
					fmt.Printf("Error : %+v\n", err)
				} else {
					fmt.Printf("Error : %s\n", err)
				}
				os.Exit(1)
			}
		},
		Annotations: map[string]string{"group": "core"},
	}
	GraphQL.EnvPrefix = "GQL"
	GraphQL.Cmd.SetHelpTemplate(x.NonRootTemplate)

	registerFlags(GraphQL.Cmd.Flags())
}

func registerFlags(flags *pflag.FlagSet) {
	flags.IntP("port", "p", defaultPort, "Port on which to run the HTTP service")
	flags.String("max_body_size", "1MB", "Largest request body accepted, e.g. 512KB, 4MiB")
	flags.Bool("introspection", true, "Set to false for no GraphQL schema introspection")
	flags.Duration("shutdown_timeout", 10*time.Second,
		"How long to wait for in-flight requests on shutdown")
	flags.String("audit", "",
		"Write an audit log line per request to this file, or to stdout/stderr")

	// OpenCensus flags.
	flags.Float64("trace", 0.01, "The ratio of queries to trace.")
}

// Config is the resolved configuration of the graphql sub-command.
type Config struct {
	Addr            string
	MaxBodySize     int64
	Introspection   bool
	TraceRatio      float64
	Audit           string
	ShutdownTimeout time.Duration
}

// ParseConfig reads the sub-command's configuration out of conf.
func ParseConfig(conf *viper.Viper) (*Config, error) {
	// PORT is what hosting platforms set, GQL_PORT is ours and wins.
	if err := conf.BindEnv("port", "GQL_PORT", "PORT"); err != nil {
		return nil, errors.Wrap(err, "while binding port to the environment")
	}

	port := conf.GetInt("port")
	if port <= 0 || port > 65535 {
		return nil, errors.Errorf("invalid port %q", conf.GetString("port"))
	}

	maxBodySize, err := humanize.ParseBytes(conf.GetString("max_body_size"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid max_body_size %q", conf.GetString("max_body_size"))
	}
	if maxBodySize == 0 {
		return nil, errors.New("max_body_size must be more than 0 bytes")
	}

	bind := "localhost"
	if conf.GetBool("bindall") {
		bind = "0.0.0.0"
	}

	return &Config{
		Addr:            net.JoinHostPort(bind, fmt.Sprint(port)),
		MaxBodySize:     int64(maxBodySize),
		Introspection:   conf.GetBool("introspection"),
		TraceRatio:      conf.GetFloat64("trace"),
		Audit:           conf.GetString("audit"),
		ShutdownTimeout: conf.GetDuration("shutdown_timeout"),
	}, nil
}

// NewResolver builds the request resolver for the hello schema.
func NewResolver(introspection bool) (*resolve.RequestResolver, error) {
	gqlSchema, err := schema.FromString(schema.SDL)
	if err != nil {
		return nil, err
	}

	rf := resolve.NewResolverFactory(resolve.QueryNotFound, resolve.MutationNotFound).
		WithSchemaIntrospection().
		WithBuiltinResolvers().
		WithQueryMiddlewareConfig(resolve.QueryMiddlewareConfig(gqlSchema, introspection)).
		WithMutationMiddlewareConfig(resolve.MutationMiddlewareConfig(gqlSchema))
	return resolve.New(gqlSchema, rf), nil
}

// Router wires the HTTP endpoints.  metrics may be nil, then no metrics are served.
func Router(gqlServer web.IServeGraphQL, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
	}))
	r.Use(audit.AuditRequestHttp)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(rootMessage)); err != nil {
			glog.Warningf("while writing the root response: %v", err)
		}
	})
	r.Get("/health", healthCheck)
	r.Handle("/graphql", gqlServer.HTTPHandler())

	if metrics != nil {
		r.Handle("/debug/prometheus_metrics", metrics)
	}

	// Add OpenCensus z-pages.
	zmux := http.NewServeMux()
	zpages.Handle(zmux, "/debug/z")
	r.Handle("/debug/z/*", zmux)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": x.Version(),
	})
	if err != nil {
		glog.Warningf("while writing the health response: %v", err)
	}
}

func run(ctx context.Context) error {
	x.PrintVersion()

	stopper, err := x.StartProfile(GraphQL.Conf)
	if err != nil {
		return err
	}
	defer stopper.Stop()

	conf, err := ParseConfig(GraphQL.Conf)
	if err != nil {
		return err
	}

	if conf.Audit != "" {
		if err := audit.InitAuditor(&x.LoggerConf{
			Output:     conf.Audit,
			MessageKey: "endpoint",
		}); err != nil {
			return err
		}
		defer audit.Close()
	}

	resolver, err := NewResolver(conf.Introspection)
	if err != nil {
		return err
	}
	metrics, err := x.RegisterMetrics(metricsNamespace)
	if err != nil {
		return err
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler:             trace.ProbabilitySampler(conf.TraceRatio),
		MaxAnnotationEventsPerSpan: 256,
	})

	srv := &http.Server{
		Addr:              conf.Addr,
		Handler:           Router(web.NewServer(resolver, conf.MaxBodySize), metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		glog.Infof("Bringing up GraphQL HTTP API at %s/graphql", conf.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "GraphQL server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		glog.Infof("Shutting down the GraphQL HTTP API")
		sctx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(sctx), "while shutting down the GraphQL server")
	})

	return g.Wait()
}
