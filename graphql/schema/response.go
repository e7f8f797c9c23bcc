/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

// Response is the JSON document answered to every GraphQL request.
// See https://spec.graphql.org/June2018/#sec-Response
type Response struct {
	Errors     x.GqlErrorList
	Data       bytes.Buffer
	Extensions *Extensions

	// nullData is set once a non-null top level field failed.  The whole data
	// entry is then null and anything added later is dropped.
	nullData bool
	mu       sync.Mutex
}

// Extensions is the free-form "extensions" entry of a response.
type Extensions struct {
	RequestID string `json:"requestID,omitempty"`
}

// ErrorResponsef is a Response with only one formatted error.
func ErrorResponsef(format string, args ...interface{}) *Response {
	return &Response{
		Errors: x.GqlErrorList{x.GqlErrorf(format, args...)},
	}
}

// ErrorResponse is a Response with err's GraphQL errors and no data.
func ErrorResponse(err error) *Response {
	return &Response{
		Errors: AsGQLErrors(err),
	}
}

// WithError generates GraphQL errors from err and records those in r.
func (r *Response) WithError(err error) {
	if err == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, AsGQLErrors(err)...)
}

// AddData appends the "key":value pair p to the data object, so {} plus p
// gives {p} and {f,g} plus p gives {f,g,p}.  An empty p is ignored.
func (r *Response) AddData(p []byte) {
	if r == nil || len(p) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nullData {
		return
	}

	if r.Data.Len() > 0 {
		// drop the closing brace
		r.Data.Truncate(r.Data.Len() - 1)
		r.Data.WriteRune(',')
	}

	if r.Data.Len() == 0 {
		r.Data.WriteRune('{')
	}

	r.Data.Write(p)
	r.Data.WriteRune('}')
}

// SetDataNull makes the response's data null.  Used when a non-null top level
// field couldn't be resolved.
func (r *Response) SetDataNull() {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nullData = true
	r.Data.Reset()
}

// DataIsNull reports whether SetDataNull was called on r.
func (r *Response) DataIsNull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nullData
}

// Output returns json interface of the response
func (r *Response) Output() interface{} {
	if r == nil {
		return struct {
			Errors json.RawMessage `json:"errors,omitempty"`
			Data   json.RawMessage `json:"data,omitempty"`
		}{
			Errors: []byte(`[{"message": "Internal error - no response to write."}]`),
			Data:   []byte("null"),
		}
	}

	res := struct {
		Errors     x.GqlErrorList  `json:"errors,omitempty"`
		Data       json.RawMessage `json:"data,omitempty"`
		Extensions *Extensions     `json:"extensions,omitempty"`
	}{
		Errors:     r.Errors,
		Data:       r.Data.Bytes(),
		Extensions: r.Extensions,
	}
	if r.nullData {
		res.Data = []byte("null")
	}
	return res
}

// WriteTo writes r to w as compact JSON.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	if r == nil {
		i, err := w.Write([]byte(
			`{ "errors": [ { "message": "Internal error - no response to write." } ], ` +
				` "data": null }`))
		return int64(i), err
	}

	// Messages quote the request, e.g. "found <EOF>", so no HTML escaping.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	r.mu.Lock()
	err := enc.Encode(r.Output())
	r.mu.Unlock()
	js := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	if err != nil {
		msg := "Internal error - failed to marshal a valid JSON response"
		glog.Errorf("%+v", errors.Wrap(err, msg))
		js = []byte(`{ "errors": [ { "message": "` + msg + `" } ], "data": null }`)
	}

	i, err := w.Write(js)
	return int64(i), err
}
