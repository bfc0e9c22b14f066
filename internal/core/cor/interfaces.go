// Copyright 2025 Muziris, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the building blocks for
// request workflows: a Command is an atomic unit of work, a Chain runs
// commands in order, and a Context is the shared state carried through
// one execution. This file defines the interfaces that govern all three.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data between commands in a
// chain: after each command runs, the value under CtxOut becomes the value
// under CtxIn for the next command.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands
// for a single workflow execution. It carries data, errors, the Go
// context, and the set of temporary artifacts that must be reclaimed
// before the request completes.
type Context interface {
	// SetContext sets the standard Go context used for cancellation,
	// deadlines, and trace propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. It returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a value by key, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// AddError records an error under the name of the command that
	// produced it.
	AddError(key string, err error)

	// GetErrors returns all errors recorded during the workflow.
	GetErrors() map[string]error

	// HasErrors reports whether any error has been recorded.
	HasErrors() bool

	// AddTempFile registers a temporary file for guaranteed cleanup when
	// Close is called.
	AddTempFile(file string)

	// GetTempFiles returns the registered temporary file paths.
	GetTempFiles() []string

	// Close removes every registered temporary artifact. It is safe to
	// call more than once and must run on both success and failure exits.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute runs the business logic, reading inputs from and writing
	// outputs to the supplied Context.
	Execute(context Context)
}

// Command is an atomic, testable unit of work within a chain.
type Command interface {
	Executable

	// GetName returns the command's unique name, used for logging,
	// tracing, and error attribution.
	GetName() string

	// GetInputParam returns the context key for the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key for the command's primary output.
	GetOutputParam() string

	// IsExecutable reports whether the command can run against the current
	// context state.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for this command.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command,
// so chains can be composed.
type Chain interface {
	Command

	// ContinueOnFailure controls whether later commands still run after an
	// earlier command records an error. The default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
