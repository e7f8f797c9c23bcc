/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"errors"
	"strconv"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/validator"
)

func init() {
	validator.AddRule("Int literals fit 32 bits", intRangeCheck)
}

// intRangeCheck rejects Int literals outside the signed 32 bit range.  Values
// supplied through variables are range checked when the argument is read.
func intRangeCheck(observers *validator.Events, addError validator.AddErrFunc) {
	observers.OnValue(func(walker *validator.Walker, value *ast.Value) {
		if value.Definition == nil || value.ExpectedType == nil {
			return
		}

		if value.Kind != ast.IntValue || value.Definition.Name != "Int" {
			return
		}

		if _, err := strconv.ParseInt(value.Raw, 10, 32); err != nil {
			if errors.Is(err, strconv.ErrRange) {
				addError(validator.Message("Out of range value '%s', for type `%s`",
					value.Raw, value.Definition.Name), validator.At(value.Position))
				return
			}
			addError(validator.Message("%s", err), validator.At(value.Position))
		}
	})
}
