// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package console

import (
	"github.com/samber/oops"
)

// Error codes for front-end operations. The store codes share these string
// values, so Reason resolves errors from any layer.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeNotFound          = "NOT_FOUND"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
)

// ErrUnauthorized creates an error for a caller lacking privilege.
func ErrUnauthorized(operation string) error {
	return oops.Code(CodeUnauthorized).
		With("operation", operation).
		Errorf("administrator privilege required for %s", operation)
}

// ErrAlreadyPresent creates an error for adding a name already in a list.
func ErrAlreadyPresent(list, name string) error {
	return oops.Code(CodeAlreadyExists).
		With("list", list).
		With("name", name).
		Errorf("%s is already on the %s list", name, list)
}

// ErrNotPresent creates an error for removing a name absent from a list.
func ErrNotPresent(list, name string) error {
	return oops.Code(CodeNotFound).
		With("list", list).
		With("name", name).
		Errorf("%s is not on the %s list", name, list)
}

// ErrEmptyName creates an error for a blank name argument.
func ErrEmptyName() error {
	return oops.Code(CodeInvalidInput).Errorf("name must not be empty")
}

// Reason extracts a human-readable reason string from an operation error,
// suitable for the front-end to render. The console never renders or sends
// text itself; this string is the whole of its user-facing contract.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong. Try again."
	}

	switch oopsErr.Code() {
	case CodeUnauthorized:
		return "You don't have permission to do that."
	case CodeInvalidInput:
		return "Invalid input. Names and secrets must be non-empty and must not contain commas."
	case CodeAlreadyExists:
		if name, ok := oopsErr.Context()["name"].(string); ok && name != "" {
			return name + " is already present."
		}
		return "Already present."
	case CodeNotFound:
		if name, ok := oopsErr.Context()["name"].(string); ok && name != "" {
			return name + " is not present."
		}
		return "Not present."
	case CodePersistenceFailed:
		return "The change could not be saved. Check the server logs."
	default:
		return "Something went wrong. Try again."
	}
}
