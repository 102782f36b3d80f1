package domain

import "errors"

// ErrNotFound is returned when a host path does not resolve to a node.
var ErrNotFound = errors.New("node not found")

// ErrEmptyChain is returned when a chain without elements is asked for a concrete node.
var ErrEmptyChain = errors.New("empty chain")

// ErrInvalidInput is returned when an input slot holds an unsupported value.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidElement is returned when a chain element is of an unsupported kind.
var ErrInvalidElement = errors.New("invalid chain element")

// ErrInvalidParent is returned when a node definition has no usable parent reference.
var ErrInvalidParent = errors.New("invalid parent")

// ErrNameNotFound is returned when a chain lookup by name has no match.
var ErrNameNotFound = errors.New("no node with that name")

// ErrUnknownFunction is returned by the dispatch registry for unregistered functions.
var ErrUnknownFunction = errors.New("unknown function")

// ErrOutOfRange is returned when a chain index falls outside the flattened sequence.
var ErrOutOfRange = errors.New("index out of range")
