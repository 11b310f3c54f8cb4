package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/aldrin-bus/aldrin/pkg/proto"
)

// maxFrameSize bounds a single encoded message. Larger frames are a
// protocol error and close the connection.
const maxFrameSize = 16 * 1024 * 1024

// Framed speaks length-prefixed JSON messages over a byte stream. Each frame
// is a big-endian u32 length followed by one message envelope.
type Framed struct {
	conn net.Conn

	readMu sync.Mutex
	r      *bufio.Reader

	writeMu sync.Mutex
	w       *bufio.Writer
}

// NewFramed wraps a net.Conn.
func NewFramed(conn net.Conn) *Framed {
	return &Framed{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

// Recv reads the next frame. Cancelling ctx closes the connection.
func (f *Framed) Recv(ctx context.Context) (proto.Message, error) {
	if done := ctx.Done(); done != nil {
		stop := context.AfterFunc(ctx, func() { f.conn.Close() })
		defer stop()
	}

	f.readMu.Lock()
	defer f.readMu.Unlock()

	var lenBuf [4]byte
	if _, err := io.ReadFull(f.r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(lenBuf[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	return proto.UnmarshalMessage(payload)
}

// Send writes one frame into the write buffer.
func (f *Framed) Send(msg proto.Message) error {
	payload, err := proto.MarshalMessage(msg)
	if err != nil {
		return err
	}
	if len(payload) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", len(payload))
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := f.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = f.w.Write(payload)
	return err
}

// Flush drains the write buffer to the connection.
func (f *Framed) Flush() error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return f.w.Flush()
}

// Close closes the underlying connection.
func (f *Framed) Close() error { return f.conn.Close() }
