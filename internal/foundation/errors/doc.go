// Package errors provides the classified error primitives used across fundsite.
//
// A ClassifiedError carries a category (config, content, render, filesystem,
// validation, ...), a severity and a retry hint. Errors are built with the
// fluent ErrorBuilder:
//
//	err := errors.NewError(errors.CategoryContent, "fetch funds failed").
//		Retryable().
//		WithContext("source", "http").
//		WithCause(cause).
//		Build()
//
// The CLI adapter maps categories onto process exit codes.
package errors
