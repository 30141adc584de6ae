// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"errors"
	"io"
)

// maxDrain is the most unread body a Close drains to keep a reusable
// connection. Connections with more left unread are aborted.
const maxDrain = 256 << 10

// responseBody wires a streaming response body to the holder of the
// connection it is read from. Reading to EOF releases the connection.
// A read error, or closing with too much left unread, aborts it.
type responseBody struct {
	body   io.ReadCloser
	holder *Holder
}

func (b *responseBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if err == io.EOF {
		b.holder.ReleaseConnection()
	} else if err != nil {
		b.holder.AbortConnection()
	}
	return n, err
}

func (b *responseBody) Close() error {
	if b.holder.IsReleased() {
		return b.body.Close()
	}
	if b.holder.IsReusable() && drain(b.body) {
		err := b.body.Close()
		b.holder.ReleaseConnection()
		return err
	}
	b.holder.AbortConnection()
	_ = b.body.Close()
	return nil
}

func drain(r io.Reader) bool {
	_, err := io.CopyN(io.Discard, r, maxDrain+1)
	return errors.Is(err, io.EOF)
}
