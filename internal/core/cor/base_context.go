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

// Package cor provides the building blocks for request workflows. This
// file defines BaseContext, the default Context implementation: a property
// bag for one workflow execution that also tracks the temporary artifacts
// the execution created, so they can be reclaimed no matter how the
// workflow exits.
package cor

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{}
	errs      map[string]error
	tempFiles []string
	context   context.Context
}

// NewBaseContext creates an empty context ready for use.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errs:      make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// SetContext sets the underlying standard Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying standard Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every registered temporary artifact. Failures to delete
// are logged and never propagated: cleanup must not mask the workflow's
// own result. The registered list is cleared, so repeated calls are no-ops.
func (c *BaseContext) Close() {
	for _, file := range c.tempFiles {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove temporary artifact", "path", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

// Add stores a key-value pair and returns the context for chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a file path for cleanup on Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns the registered temporary file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records an error under the producing command's name.
func (c *BaseContext) AddError(key string, err error) {
	c.errs[key] = err
}

// GetErrors returns all recorded errors keyed by command name.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errs
}

// Get retrieves a value by key, or nil when absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any error has been recorded.
func (c *BaseContext) HasErrors() bool {
	return len(c.errs) > 0
}
