// Package errors classifies the failures of a layout build.
//
// Every failure raised by the inference core is a *ClassifiedError carrying a
// Category, so callers can branch on the kind of failure without string
// matching. None of the core categories are retryable: a build either
// succeeds or aborts.
package errors

import (
	"errors"
	"fmt"
	"maps"
)

// Category is the broad class of an error.
type Category string

const (
	// CategoryStructuralMismatch is raised when documents cannot share a layout.
	CategoryStructuralMismatch Category = "structural_mismatch"
	// CategoryInsufficientInput is raised when a collection has fewer than two documents.
	CategoryInsufficientInput Category = "insufficient_input"
	// CategoryNameExhaustion is raised when unique key generation runs out of suffixes.
	CategoryNameExhaustion Category = "name_exhaustion"
	// CategoryUnsupportedNodePair is raised when a node combination has no rule.
	CategoryUnsupportedNodePair Category = "unsupported_node_pair"

	CategoryConfig     Category = "config"
	CategoryParse      Category = "parse"
	CategoryNetwork    Category = "network"
	CategoryFileSystem Category = "filesystem"
	CategoryExport     Category = "export"
	CategoryInternal   Category = "internal"
)

// Context holds structured details attached to an error.
type Context map[string]any

// ClassifiedError is an error with a category and structured context.
type ClassifiedError struct {
	category Category
	message  string
	cause    error
	context  Context
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.category, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.category, e.message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *ClassifiedError) Category() Category {
	return e.category
}

// Message returns the message without category or cause.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Context returns a copy of the attached context.
func (e *ClassifiedError) Context() Context {
	out := make(Context, len(e.context))
	maps.Copy(out, e.context)
	return out
}

// Is matches another ClassifiedError of the same category. A target without
// a message matches any error of its category.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	if !ok {
		return false
	}
	if other.category != e.category {
		return false
	}
	return other.message == "" || other.message == e.message
}

// Builder assembles a ClassifiedError.
type Builder struct {
	err ClassifiedError
}

// NewError starts a new error of the given category.
func NewError(category Category, message string) *Builder {
	return &Builder{err: ClassifiedError{category: category, message: message, context: Context{}}}
}

// WrapError starts a new error of the given category caused by err.
func WrapError(err error, category Category, message string) *Builder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

// WithContext attaches a key/value pair.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.err.context[key] = value
	return b
}

// Build returns the finished error.
func (b *Builder) Build() *ClassifiedError {
	out := b.err
	out.context = maps.Clone(b.err.context)
	return &out
}

// Sentinels usable with errors.Is.
var (
	ErrStructuralMismatch  = &ClassifiedError{category: CategoryStructuralMismatch}
	ErrInsufficientInput   = &ClassifiedError{category: CategoryInsufficientInput}
	ErrNameExhaustion      = &ClassifiedError{category: CategoryNameExhaustion}
	ErrUnsupportedNodePair = &ClassifiedError{category: CategoryUnsupportedNodePair}
)

// StructuralMismatch reports documents that cannot be aligned.
func StructuralMismatch(message string) *Builder {
	return NewError(CategoryStructuralMismatch, message)
}

// InsufficientInput reports a collection that is too small to merge.
func InsufficientInput(message string) *Builder {
	return NewError(CategoryInsufficientInput, message)
}

// NameExhaustion reports a key that could not be made unique.
func NameExhaustion(message string) *Builder {
	return NewError(CategoryNameExhaustion, message)
}

// UnsupportedNodePair reports a node combination without a rule.
func UnsupportedNodePair(message string) *Builder {
	return NewError(CategoryUnsupportedNodePair, message)
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether any error in the chain has the category.
func HasCategory(err error, category Category) bool {
	return errors.Is(err, &ClassifiedError{category: category})
}

// GetCategory returns the category of the first classified error in the
// chain, or CategoryInternal.
func GetCategory(err error) Category {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}
