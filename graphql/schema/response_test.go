/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

func TestAddData_AddInitial(t *testing.T) {
	resp := &Response{}

	resp.AddData([]byte(`"Some": "Data"`))
	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t, `{"data": {"Some": "Data"}}`, buf.String())
}

func TestAddData_AddNothing(t *testing.T) {
	resp := &Response{}

	resp.AddData([]byte(`"Some": "Data"`))
	resp.AddData([]byte{})
	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t, `{"data": {"Some": "Data"}}`, buf.String())
}

func TestAddData_AddMore(t *testing.T) {
	resp := &Response{}

	resp.AddData([]byte(`"Some": "Data"`))
	resp.AddData([]byte(`"And": "More"`))
	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t, `{"data": {"Some": "Data", "And": "More"}}`, buf.String())
}

func TestWriteTo_ErrorsAndData(t *testing.T) {
	resp := &Response{Errors: x.GqlErrorList{x.GqlErrorf("An Error")}}
	resp.AddData([]byte(`"Some": "Data"`))

	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"errors":[{"message":"An Error"}], "data": {"Some": "Data"}}`, buf.String())
}

func TestWriteTo_BasicError(t *testing.T) {
	resp := ErrorResponsef("An Error")

	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t, `{"errors":[{"message":"An Error"}]}`, buf.String())
}

func TestWriteTo_ErrorResponse(t *testing.T) {
	resp := ErrorResponse(GQLWrapf(errors.New("bad"), "request failed"))

	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t, `{"errors":[{"message":"request failed because bad"}]}`, buf.String())
}

func TestWriteTo_WithExtensions(t *testing.T) {
	resp := &Response{Extensions: &Extensions{RequestID: "0000-1111"}}
	resp.AddData([]byte(`"hello": "Hello, world!"`))

	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"data": {"hello": "Hello, world!"}, "extensions": {"requestID": "0000-1111"}}`,
		buf.String())
}

func TestSetDataNull(t *testing.T) {
	resp := &Response{}
	resp.AddData([]byte(`"hello": "Hello, world!"`))
	resp.WithError(x.GqlErrorf("failed").WithPath([]interface{}{"version"}))
	resp.SetDataNull()
	resp.AddData([]byte(`"after": "ignored"`))

	require.True(t, resp.DataIsNull())

	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"errors":[{"message":"failed", "path":["version"]}], "data": null}`, buf.String())
}

func TestWithError_nil(t *testing.T) {
	resp := &Response{}
	resp.WithError(nil)
	assert.Empty(t, resp.Errors)
}

func TestWriteTo_NilResponse(t *testing.T) {
	var resp *Response

	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"errors":[{"message":"Internal error - no response to write."}], "data": null}`,
		buf.String())
}

func TestWriteTo_NoHTMLEscaping(t *testing.T) {
	resp := ErrorResponse(x.GqlErrorf("Expected Name, found <EOF>"))

	buf := new(bytes.Buffer)
	_, err := resp.WriteTo(buf)
	require.NoError(t, err)

	assert.Equal(t, `{"errors":[{"message":"Expected Name, found <EOF>"}]}`, buf.String())
}
