// Package types contains shared types used across the script acceptance testing framework.
package types

import (
	"path/filepath"
	"strings"
)

// Role is the canonical test-framework role declared by an annotation.
type Role string

// String implements the Stringer interface for Role
func (r Role) String() string {
	return string(r)
}

// Role enum values
const (
	RoleTest       Role = "test"
	RoleSkip       Role = "test-skip"
	RoleBeforeEach Role = "before-each"
	RoleBeforeAll  Role = "before-all"
	RoleAfterEach  Role = "after-each"
	RoleAfterAll   Role = "after-all"
)

// Span is a byte-offset range into a module's raw text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Token is one ordered element of a module's static structure, produced by the
// external structural dump. Read-only to this framework.
type Token struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
	Shape   string `json:"shape"`
	Span    Span   `json:"span"`
}

// AnnotatedFunction pairs a function's declared name with the trimmed text of the
// single comment line immediately preceding its definition (empty if none).
type AnnotatedFunction struct {
	Name       string
	Annotation string
}

// Descriptor is the per-module test descriptor. Hook fields are always present
// (empty string when the module declares none) and Tests/Skips are always non-nil,
// so downstream code can treat every module uniformly without existence checks.
// A Descriptor is immutable once built for the duration of a run.
type Descriptor struct {
	File       string
	Name       string
	BeforeEach string
	BeforeAll  string
	AfterEach  string
	AfterAll   string
	Tests      []string
	Skips      []string
}

// NewDescriptor returns the fixed-shape descriptor template for a module file.
func NewDescriptor(file string) Descriptor {
	return Descriptor{
		File:  file,
		Name:  ModuleName(file),
		Tests: []string{},
		Skips: []string{},
	}
}

// HasWork reports whether the module declares anything runnable or skippable.
// Modules without work are excluded from a run entirely; that is not an error.
func (d Descriptor) HasWork() bool {
	return len(d.Tests) > 0 || len(d.Skips) > 0
}

// ModuleName derives the module name from its file path (base name without extension).
func ModuleName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
