// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string     { return e.msg }
func (e *codedError) ErrorCode() string { return e.code }

type cyclicError struct{ cause error }

func (e *cyclicError) Error() string { return "cyclic" }
func (e *cyclicError) Unwrap() error { return e.cause }

func TestNewErrorInfoNil(t *testing.T) {
	require.Nil(t, NewErrorInfo(nil))
}

func TestNewErrorInfoChain(t *testing.T) {
	root := errors.New("connection refused")
	mid := fmt.Errorf("dial upstream: %w", root)
	top := fmt.Errorf("checkout failed: %w", mid)

	info := NewErrorInfo(top)
	require.NotNil(t, info)
	require.Equal(t, "checkout failed: dial upstream: connection refused", info.Message)
	require.NotNil(t, info.Cause)
	require.Equal(t, "dial upstream: connection refused", info.Cause.Message)
	require.NotNil(t, info.Cause.Cause)
	require.Equal(t, "connection refused", info.Cause.Cause.Message)
	require.Nil(t, info.Cause.Cause.Cause)
}

func TestNewErrorInfoCode(t *testing.T) {
	info := NewErrorInfo(&codedError{msg: "card declined", code: "PAY-042"})
	require.Equal(t, "PAY-042", info.Code)
	require.Equal(t, "card declined", info.Message)
}

func TestNewErrorInfoSelfCycle(t *testing.T) {
	e := &cyclicError{}
	e.cause = e
	info := NewErrorInfo(e)
	require.NotNil(t, info)
	require.Nil(t, info.Cause)
}

func TestNewErrorInfoMutualCycle(t *testing.T) {
	a := &cyclicError{}
	b := &cyclicError{cause: a}
	a.cause = b
	info := NewErrorInfo(a)
	require.NotNil(t, info)
	require.NotNil(t, info.Cause)
	require.Nil(t, info.Cause.Cause)
}

func TestRecordCloneIndependentContext(t *testing.T) {
	rec := &Record{Level: INFO, Msg: "m", Context: Fields{"a": 1}}
	cp := rec.Clone()
	cp.Context["a"] = 2
	cp.Context["b"] = 3
	require.Equal(t, 1, rec.Context["a"])
	_, ok := rec.Context["b"]
	require.False(t, ok)
}

func TestMergeFields(t *testing.T) {
	dst := Fields{"a": 1, "b": 1}
	out := mergeFields(dst, Fields{"b": 2, "c": 3})
	require.Equal(t, 1, out["a"])
	require.Equal(t, 2, out["b"])
	require.Equal(t, 3, out["c"])

	require.Nil(t, mergeFields(nil, nil))
	require.Equal(t, Fields{"x": 1}, mergeFields(nil, Fields{"x": 1}))
}
