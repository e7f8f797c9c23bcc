/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGqlError_Error(t *testing.T) {
	tests := map[string]struct {
		err      *GqlError
		expected string
	}{
		"nil": {
			err:      nil,
			expected: ""},
		"message only": {
			err:      GqlErrorf("A %s error", "bad"),
			expected: "A bad error"},
		"with locations": {
			err: GqlErrorf("Oops").
				WithLocations(Location{Line: 1, Column: 2}, Location{Line: 3, Column: 4}),
			expected: "Oops (Locations: [{Line: 1, Column: 2}, {Line: 3, Column: 4}])"},
	}

	for name, tcase := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tcase.expected, tcase.err.Error())
		})
	}
}

func TestGqlErrorList_Error(t *testing.T) {
	errs := GqlErrorList{GqlErrorf("first"), GqlErrorf("second")}
	assert.Equal(t, "first\nsecond", errs.Error())
}

func TestGqlError_JSON(t *testing.T) {
	err := GqlErrorf("resolving add failed").
		WithLocations(Location{Line: 1, Column: 12}).
		WithPath([]interface{}{"add"})

	b, jsonErr := json.Marshal(err)
	require.NoError(t, jsonErr)
	assert.JSONEq(t, `{
		"message": "resolving add failed",
		"locations": [{"line": 1, "column": 12}],
		"path": ["add"]
	}`, string(b))

	b, jsonErr = json.Marshal(GqlErrorf("plain"))
	require.NoError(t, jsonErr)
	assert.JSONEq(t, `{"message": "plain"}`, string(b))
}

func TestNilGqlError_Fluent(t *testing.T) {
	var err *GqlError
	assert.Nil(t, err.WithLocations(Location{Line: 1}))
	assert.Nil(t, err.WithPath([]interface{}{"a"}))
}

func TestWrapf(t *testing.T) {
	assert.NoError(t, Wrapf(nil, "nothing"))

	err := Wrapf(errors.New("inner"), "outer %d", 1)
	require.Error(t, err)
	assert.Equal(t, "outer 1: inner", err.Error())
}
