/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package audit

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/mohammadmehdi-rp/graphql-testing/graphql/api"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

const (
	maxReqLength = 4 << 10 // 4 KB
)

var auditEnabled uint32

var auditor = &auditLogger{}

// skipEPs are endpoints that aren't audited.
var skipEPs = map[string]bool{
	"/health": true,
	"/":       true,
}

// An AuditEvent is one audited HTTP request.
type AuditEvent struct {
	ClientHost  string
	Endpoint    string
	Method      string
	RequestID   string
	Req         string
	ReqEncoding string
	Status      string
	StatusCode  int
	LatencyMs   float64
	QueryParams map[string][]string
}

type auditLogger struct {
	log atomic.Pointer[x.Logger]
}

// InitAuditor starts writing audit lines as conf says.
func InitAuditor(conf *x.LoggerConf) error {
	l, err := x.InitLogger(conf)
	if err != nil {
		return err
	}
	enable(l)
	glog.Infof("audit logs are enabled, writing to %s", conf.Output)
	return nil
}

func enable(l *x.Logger) {
	auditor.log.Store(l)
	atomic.StoreUint32(&auditEnabled, 1)
}

// Close stops auditing and flushes the pending lines.
func Close() {
	if atomic.CompareAndSwapUint32(&auditEnabled, 1, 0) {
		if err := auditor.log.Swap(nil).Close(); err != nil {
			glog.Errorf("while closing the audit log: %v", err)
		}
		glog.Infof("audit logs are disabled")
	}
}

func (a *auditLogger) Audit(event *AuditEvent) {
	a.log.Load().AuditI(event.Endpoint,
		"method", event.Method,
		"client_host", event.ClientHost,
		"request_id", event.RequestID,
		"req_body", event.Req,
		"req_encoding", event.ReqEncoding,
		"query_param", event.QueryParams,
		"status", event.Status,
		"status_code", event.StatusCode,
		"latency_ms", event.LatencyMs)
}

func skip(path string) bool {
	return skipEPs[path] || strings.HasPrefix(path, "/debug/")
}

// AuditRequestHttp audits the requests next serves, once auditing is enabled.
func AuditRequestHttp(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadUint32(&auditEnabled) == 0 || skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := NewResponseWriter(w)
		// An encoded body would only be logged as truncated compressed bytes.
		buf := &cappedBuffer{max: maxReqLength}
		if r.Body != nil && plainBody(r) {
			r.Body = struct {
				io.Reader
				io.Closer
			}{io.TeeReader(r.Body, buf), r.Body}
		}
		next.ServeHTTP(rw, r)

		auditHttp(rw, r, buf.Bytes(), start)
	})
}

func auditHttp(w *ResponseWriter, r *http.Request, body []byte, start time.Time) {
	auditor.Audit(&AuditEvent{
		ClientHost:  r.RemoteAddr,
		Endpoint:    r.URL.Path,
		Method:      r.Method,
		RequestID:   w.Header().Get(api.RequestIDHeader),
		Req:         truncate(string(body), maxReqLength),
		ReqEncoding: r.Header.Get("Content-Encoding"),
		Status:      http.StatusText(w.statusCode),
		StatusCode:  w.statusCode,
		LatencyMs:   x.SinceMs(start),
		QueryParams: truncateParams(r.URL.Query()),
	})
}

func plainBody(r *http.Request) bool {
	enc := r.Header.Get("Content-Encoding")
	return enc == "" || strings.EqualFold(enc, "identity")
}

// cappedBuffer keeps the first max bytes written to it and drops the rest.
type cappedBuffer struct {
	bytes.Buffer
	max int
}

func (cb *cappedBuffer) Write(p []byte) (int, error) {
	if room := cb.max - cb.Len(); room > 0 {
		if len(p) > room {
			cb.Buffer.Write(p[:room])
		} else {
			cb.Buffer.Write(p)
		}
	}
	return len(p), nil
}

// ResponseWriter remembers the status code written through it.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	// WriteHeader(int) is not called if our response implicitly returns 200 OK, so
	// we default to that status code.
	return &ResponseWriter{w, http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func truncateParams(params map[string][]string) map[string][]string {
	for _, vals := range params {
		for i, v := range vals {
			vals[i] = truncate(v, maxReqLength)
		}
	}
	return params
}

func truncate(s string, l int) string {
	if len(s) > l {
		return s[:l]
	}
	return s
}
