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

package rpc_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/frodobuf/frodobuf/internal/testutil"
	"github.com/frodobuf/frodobuf/rpc"
)

type point struct {
	X     int32   `json:"x" bson:"x"`
	Label *string `json:"label,omitempty" bson:"label,omitempty"`
	Raw   []byte  `json:"raw,omitempty" bson:"raw,omitempty"`
}

func TestCodecs(t *testing.T) {
	t.Parallel()

	label := "origin"
	for _, codec := range []rpc.Codec{rpc.BSON, rpc.JSON} {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			want := point{X: -7, Label: &label, Raw: []byte{0, 1, 2}}
			buf, err := codec.Marshal(&want)
			testutil.AssertNoError(t, err)
			var got point
			testutil.AssertNoError(t, codec.Unmarshal(buf, &got))
			testutil.ExpectDeepEq(t, want, got)

			buf, err = codec.Marshal(uint16(65535))
			testutil.AssertNoError(t, err)
			var n uint16
			testutil.AssertNoError(t, codec.Unmarshal(buf, &n))
			testutil.ExpectEq(t, uint16(65535), n)

			buf, err = codec.Marshal("hello")
			testutil.AssertNoError(t, err)
			var s string
			testutil.AssertNoError(t, codec.Unmarshal(buf, &s))
			testutil.ExpectEq(t, "hello", s)
		})
	}
}

func TestBSONRejectsGarbage(t *testing.T) {
	t.Parallel()

	var n int32
	testutil.AssertError(t, rpc.BSON.Unmarshal([]byte{1, 2, 3}, &n))

	// A valid document without the value key.
	buf, err := bson.Marshal(bson.D{{Key: "w", Value: int32(1)}})
	testutil.AssertNoError(t, err)
	testutil.AssertError(t, rpc.BSON.Unmarshal(buf, &n))
}

func TestUint64Range(t *testing.T) {
	t.Parallel()

	_, err := rpc.BSON.Marshal(uint64(math.MaxUint64))
	testutil.AssertError(t, err)

	buf, err := rpc.JSON.Marshal(uint64(math.MaxUint64))
	testutil.AssertNoError(t, err)
	var n uint64
	testutil.AssertNoError(t, rpc.JSON.Unmarshal(buf, &n))
	testutil.ExpectEq(t, uint64(math.MaxUint64), n)
}

func TestCodecByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]rpc.Codec{
		"":     rpc.BSON,
		"bson": rpc.BSON,
		"json": rpc.JSON,
	} {
		got, err := rpc.CodecByName(name)
		testutil.AssertNoError(t, err)
		testutil.ExpectEq(t, want, got)
	}
	_, err := rpc.CodecByName("xml")
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, rpc.BSON, rpc.DefaultCodec(nil))
	testutil.ExpectEq(t, rpc.JSON, rpc.DefaultCodec(rpc.JSON))
}

func echo(service string) rpc.Dispatcher {
	return rpc.DispatcherFunc(func(ctx context.Context, msg *rpc.Message) (*rpc.Message, error) {
		method := strings.TrimPrefix(msg.Method, service+".")
		if method != "Echo" {
			return nil, rpc.NotHandled(service + "." + method)
		}
		msg.Arg[0] = 'X'
		return &rpc.Message{Method: msg.Method, Arg: msg.Arg}, nil
	})
}

func TestMux(t *testing.T) {
	t.Parallel()

	mux := rpc.NewMux()
	testutil.AssertNoError(t, mux.Handle("B", echo("B")))
	testutil.AssertNoError(t, mux.Handle("A", echo("A")))
	testutil.AssertError(t, mux.Handle("A", echo("A")))
	testutil.AssertError(t, mux.Handle("A.B", echo("A")))
	testutil.AssertError(t, mux.Handle("", echo("")))
	testutil.ExpectSliceEq(t, []string{"A", "B"}, mux.Services())

	ctx := context.Background()
	resp, err := mux.Dispatch(ctx, &rpc.Message{Method: "A.Echo", Arg: []byte("abc")})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "A.Echo", resp.Method)
	testutil.ExpectEq(t, "Xbc", string(resp.Arg))

	for _, tc := range []struct {
		method string
		want   string
	}{
		{"A.Missing", "A.Missing"},
		{"C.Echo", "C.Echo"},
		{"Echo", "Echo"},
	} {
		_, err := mux.Dispatch(ctx, &rpc.Message{Method: tc.method, Arg: []byte("x")})
		testutil.AssertError(t, err)
		testutil.ExpectTrue(t, rpc.IsNotHandled(err))
		var nh *rpc.NotHandledError
		if errors.As(err, &nh) {
			testutil.ExpectEq(t, tc.want, nh.Method)
		}
	}
}

func TestLoopback(t *testing.T) {
	t.Parallel()

	mux := rpc.NewMux()
	testutil.AssertNoError(t, mux.Handle("A", echo("A")))
	lo := rpc.NewLoopback(mux)

	arg := []byte("abc")
	resp, err := lo.Send(context.Background(), &rpc.Message{Method: "A.Echo", Arg: arg})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "Xbc", string(resp.Arg))
	testutil.ExpectEq(t, "abc", string(arg))

	_, err = lo.Send(context.Background(), &rpc.Message{Method: "A.Nope", Arg: arg})
	testutil.ExpectTrue(t, rpc.IsNotHandled(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lo.Send(ctx, &rpc.Message{Method: "A.Echo", Arg: arg})
	testutil.ExpectTrue(t, errors.Is(err, context.Canceled))
}

func TestLoopbackVoidReply(t *testing.T) {
	t.Parallel()

	lo := rpc.NewLoopback(rpc.DispatcherFunc(func(context.Context, *rpc.Message) (*rpc.Message, error) {
		return nil, nil
	}))
	resp, err := lo.Send(context.Background(), &rpc.Message{Method: "S.Ping"})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "S.Ping", resp.Method)
	testutil.ExpectEq(t, 0, len(resp.Arg))
}

func TestNotHandledMessage(t *testing.T) {
	t.Parallel()

	err := rpc.NotHandled("Svc.method")
	testutil.ExpectEq(t, "rpc: method not handled: Svc.method", err.Error())
	testutil.ExpectFalse(t, rpc.IsNotHandled(errors.New("other")))
	testutil.ExpectTrue(t, rpc.IsNotHandled(errors.Join(errors.New("x"), err)))
}
