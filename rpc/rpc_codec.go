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

package rpc

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Codec converts method parameters and results to and from Message.Arg.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	// BSON stores the value under the key "v" of a single-element
	// document, so scalars and messages share one framing.
	BSON Codec = bsonCodec{}

	JSON Codec = jsonCodec{}
)

// DefaultCodec returns c, or BSON if c is nil.
func DefaultCodec(c Codec) Codec {
	if c == nil {
		return BSON
	}
	return c
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "bson", "":
		return BSON, nil
	case "json":
		return JSON, nil
	}
	return nil, fmt.Errorf("rpc: unknown codec %q", name)
}

type bsonCodec struct{}

func (bsonCodec) Name() string {
	return "bson"
}

func (bsonCodec) Marshal(v any) ([]byte, error) {
	buf, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return nil, fmt.Errorf("rpc: bson encode: %w", err)
	}
	return buf, nil
}

func (bsonCodec) Unmarshal(data []byte, v any) error {
	raw := bson.Raw(data)
	if err := raw.Validate(); err != nil {
		return fmt.Errorf("rpc: bson decode: %w", err)
	}
	value, err := raw.LookupErr("v")
	if err != nil {
		return fmt.Errorf("rpc: bson decode: %w", err)
	}
	if err := value.Unmarshal(v); err != nil {
		return fmt.Errorf("rpc: bson decode: %w", err)
	}
	return nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpc: json encode: %w", err)
	}
	return buf, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpc: json decode: %w", err)
	}
	return nil
}
