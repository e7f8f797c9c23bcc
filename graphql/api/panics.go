/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package api

import (
	"context"
	"runtime/debug"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// PanicHandler catches panics to make sure that we recover from panics during
// GraphQL request execution and return an appropriate error.
//
// If PanicHandler recovers from a panic, it logs a stack trace tagged with the
// request ID from ctx, creates an error and applies fn to the error.  query is
// the request text that caused the panic, it's only logged.
func PanicHandler(ctx context.Context, query string, fn func(error)) {
	if err := recover(); err != nil {
		reqID := RequestID(ctx)
		glog.Errorf("[%s] panic: %s.\n query: %s\n trace: %s", reqID, err, query,
			string(debug.Stack()))

		fn(errors.Errorf("[%s] Internal Server Error - a panic was trapped.  "+
			"This indicates a bug in the GraphQL server.  A stack trace was logged.",
			reqID))
	}
}
