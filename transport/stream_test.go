package transport

import (
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func TestStreamReadLineStripsTerminators(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	stream := NewStream(client)

	go func() {
		server.Write([]byte("HELLO\n"))
		server.Write([]byte("CRLF\r\n"))
	}()

	line, err := stream.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "HELLO", line)

	line, err = stream.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "CRLF", line)
}

func TestStreamWrite(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	stream := NewStream(client)

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 16)
		n, err := server.Read(buf)
		if err != nil {
			got <- err.Error()
			return
		}
		got <- string(buf[:n])
	}()

	require.NoError(t, stream.Write([]byte("PING\n")))
	require.NoError(t, stream.Flush())

	select {
	case msg := <-got:
		require.Equal(t, "PING\n", msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for write to arrive")
	}
}

func TestStreamCloseUnblocksReadLine(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { server.Close() })

	stream := NewStream(client)

	errs := make(chan error, 1)
	go func() {
		_, err := stream.ReadLine()
		errs <- err
	}()

	// Give the reader a chance to park in the blocking read.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, stream.Close())

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ReadLine to unblock after Close")
	}
}

type countingCloser struct {
	io.ReadWriter
	closes atomic.Int32
}

func (c *countingCloser) Close() error {
	c.closes.Add(1)
	return nil
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	client, _ := net.Pipe()
	cc := &countingCloser{ReadWriter: client}
	stream := NewStream(cc)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	require.Equal(t, int32(1), cc.closes.Load())
}

func TestStreamOverPTY(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	stream := NewStream(slave)

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := stream.ReadLine()
		if err != nil {
			errs <- err
			return
		}
		lines <- line
	}()

	_, err = master.Write([]byte("ping\n"))
	require.NoError(t, err)

	select {
	case line := <-lines:
		require.Equal(t, "ping", line)
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for line over pty")
	}

	// Losing the peer must surface as a read error, not a hang.
	go func() {
		_, err := stream.ReadLine()
		errs <- err
	}()
	require.NoError(t, master.Close())

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read error after peer close")
	}
}
