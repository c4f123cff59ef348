// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

// Package schema defines the compiled, language-independent representation
// of a MIDL file.
//
// Values in this package are produced by the compiler and are never modified
// afterwards. Consumers must treat them as read-only, which makes a Schema safe
// to share between goroutines.
package schema

import (
	"encoding/base64"
	"fmt"
)

type Schema struct {
	Package     string
	Messages    []*Message
	Services    []*Service
	Annotations []*Annotation

	// ParserVersion and SourcePath describe how the schema was produced.
	// They do not contribute to any identifier.
	ParserVersion string
	SourcePath    string

	// ID is the identifier of the whole schema.
	ID Identifier
}

// Message returns the message with the given name, or nil.
func (s *Schema) Message(name string) *Message {
	for _, msg := range s.Messages {
		if msg.Name == name {
			return msg
		}
	}
	return nil
}

// Service returns the service with the given name, or nil.
func (s *Schema) Service(name string) *Service {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc
		}
	}
	return nil
}

// Option returns the value of a top-level `option name = value;` statement.
func (s *Schema) Option(name string) *Value {
	for _, ann := range s.Annotations {
		if ann.Name != AnnotationOption {
			continue
		}
		if v := ann.Get(name); v != nil {
			return v
		}
	}
	return nil
}

type Message struct {
	Name        string
	Fields      []*Field
	Docs        []string
	Annotations []*Annotation
	Source      Pos
}

func (m *Message) Field(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type Field struct {
	Name string
	Type *Type

	// Optional fields have no defined default value.
	Optional bool

	Number      uint32
	Docs        []string
	Annotations []*Annotation
	Source      Pos
}

type Service struct {
	Name        string
	Methods     []*Method
	Docs        []string
	Annotations []*Annotation
	Source      Pos

	// Set from `@codegen(client = ..., server = ...)`. Both default to true.
	GenerateClient bool
	GenerateServer bool

	ID        Identifier
	Canonical []byte
}

func (s *Service) Method(name string) *Method {
	for _, m := range s.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

type Method struct {
	Name string

	// Input is nil for methods without parameters, and Output is nil for
	// methods that return nothing.
	Input  *Type
	Output *Type

	Docs        []string
	Annotations []*Annotation
	Source      Pos
}

// Pos is the 1-based line and column where an entity was declared.
type Pos struct {
	Line uint32
	Col  uint32
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

func (p Pos) IsZero() bool {
	return p.Line == 0 && p.Col == 0
}

const IdentifierLen = 32

// Identifier is a SHA-256 digest of a canonical encoding.
type Identifier [IdentifierLen]byte

// String renders the identifier as unpadded standard base64.
func (id Identifier) String() string {
	return base64.RawStdEncoding.EncodeToString(id[:])
}

func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func ParseIdentifier(s string) (Identifier, error) {
	var id Identifier
	raw, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("schema: invalid identifier %q: %w", s, err)
	}
	if len(raw) != IdentifierLen {
		return id, fmt.Errorf("schema: invalid identifier %q: got %d bytes, want %d", s, len(raw), IdentifierLen)
	}
	copy(id[:], raw)
	return id, nil
}
