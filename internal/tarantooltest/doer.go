// Package tarantooltest provides a tarantool.Doer that answers from a
// prepared list of replies, so drivers can be tested without an instance.
package tarantooltest

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/tarantool/go-iproto"
	"github.com/tarantool/go-tarantool/v2"
	"github.com/vmihailenco/msgpack/v5"
)

var errNoReplies = errors.New("tarantooltest: no replies left")

// Reply is a prepared response body.
type Reply struct {
	data []byte
}

// NewReply encodes body as the IPROTO_DATA of a response.
func NewReply(t testing.TB, body any) *Reply {
	t.Helper()

	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)

	if err := enc.EncodeMapLen(1); err != nil {
		t.Fatalf("encode reply: %s", err)
	}

	if err := enc.EncodeUint(uint64(iproto.IPROTO_DATA)); err != nil {
		t.Fatalf("encode reply: %s", err)
	}

	if err := enc.Encode(body); err != nil {
		t.Fatalf("encode reply: %s", err)
	}

	return &Reply{data: buf.Bytes()}
}

type doerReply struct {
	reply *Reply
	err   error
}

// Doer hands out replies in order and records every request.
type Doer struct {
	t testing.TB

	mu       sync.Mutex
	requests []tarantool.Request
	replies  []doerReply
}

// NewDoer creates a Doer. Each reply is either a *Reply or an error.
func NewDoer(t testing.TB, replies ...any) *Doer {
	t.Helper()

	doer := &Doer{
		t:        t,
		mu:       sync.Mutex{},
		requests: nil,
		replies:  make([]doerReply, 0, len(replies)),
	}

	for _, reply := range replies {
		switch r := reply.(type) {
		case *Reply:
			doer.replies = append(doer.replies, doerReply{reply: r, err: nil})
		case error:
			doer.replies = append(doer.replies, doerReply{reply: nil, err: r})
		default:
			t.Fatalf("unsupported reply type: %T", reply)
		}
	}

	return doer
}

// Do implements tarantool.Doer.
func (d *Doer) Do(req tarantool.Request) *tarantool.Future {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)
	fut := tarantool.NewFuture(req)

	if len(d.replies) == 0 {
		d.t.Errorf("unexpected request %T: no replies left", req)
		fut.SetError(errNoReplies)

		return fut
	}

	next := d.replies[0]
	d.replies = d.replies[1:]

	if next.err != nil {
		fut.SetError(next.err)
		return fut
	}

	if err := fut.SetResponse(tarantool.Header{}, bytes.NewReader(next.reply.data)); err != nil { //nolint:exhaustruct
		d.t.Errorf("set response: %s", err)
	}

	return fut
}

// Requests returns the requests received so far.
func (d *Doer) Requests() []tarantool.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]tarantool.Request(nil), d.requests...)
}

// Pending reports how many replies were not consumed.
func (d *Doer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.replies)
}
