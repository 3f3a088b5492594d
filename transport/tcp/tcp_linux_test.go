//go:build linux

package tcp_test

import (
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/transport/tcp"
)

func listen(t *testing.T) api.Listener {
	t.Helper()
	ln, err := tcp.Network{NoDelay: true}.Listen("127.0.0.1", 0, 5)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

// acceptWithin polls Accept until a connection arrives or the deadline passes.
func acceptWithin(t *testing.T, ln api.Listener, d time.Duration) api.Conn {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		c, err := ln.Accept()
		if err == nil {
			t.Cleanup(func() { _ = c.Close() })
			return c
		}
		if !errors.Is(err, api.ErrWouldBlock) {
			t.Fatalf("accept: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("no connection accepted")
	return nil
}

func readWithin(t *testing.T, c api.Conn, buf []byte, d time.Duration) (int, error) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		n, err := c.Read(buf)
		if !errors.Is(err, api.ErrWouldBlock) {
			return n, err
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("read timed out")
	return 0, nil
}

func TestListener_AcceptWouldBlockWhenIdle(t *testing.T) {
	ln := listen(t)
	if _, err := ln.Accept(); !errors.Is(err, api.ErrWouldBlock) {
		t.Fatalf("expected ErrWouldBlock, got %v", err)
	}
}

func TestListener_AddrReportsBoundPort(t *testing.T) {
	ln := listen(t)
	host, port, err := net.SplitHostPort(ln.Addr())
	if err != nil {
		t.Fatal(err)
	}
	if host != "127.0.0.1" {
		t.Errorf("host = %q", host)
	}
	if p, _ := strconv.Atoi(port); p == 0 {
		t.Error("ephemeral port not resolved")
	}
}

func TestConn_ReadWriteAndEOF(t *testing.T) {
	ln := listen(t)
	client, err := net.Dial("tcp", ln.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	c := acceptWithin(t, ln, time.Second)
	if c.RemoteAddr() != client.LocalAddr().String() {
		t.Errorf("remote addr %q, client local %q", c.RemoteAddr(), client.LocalAddr())
	}

	if _, err := c.Read(make([]byte, 16)); !errors.Is(err, api.ErrWouldBlock) {
		t.Fatalf("expected ErrWouldBlock on empty socket, got %v", err)
	}

	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 16)
	n, err := readWithin(t, c, buf, time.Second)
	if err != nil || string(buf[:n]) != "hello" {
		t.Fatalf("read %q, %v", buf[:n], err)
	}

	if n, err := c.Write([]byte("back")); err != nil || n != 4 {
		t.Fatalf("write n=%d err=%v", n, err)
	}
	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	got := make([]byte, 4)
	if _, err := io.ReadFull(client, got); err != nil || string(got) != "back" {
		t.Fatalf("client read %q, %v", got, err)
	}

	_ = client.Close()
	if _, err := readWithin(t, c, buf, time.Second); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after client close, got %v", err)
	}
}

func TestConn_DoubleCloseReported(t *testing.T) {
	ln := listen(t)
	client, err := net.Dial("tcp", ln.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	c, err := func() (api.Conn, error) {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			c, err := ln.Accept()
			if !errors.Is(err, api.ErrWouldBlock) {
				return c, err
			}
			time.Sleep(2 * time.Millisecond)
		}
		return nil, errors.New("accept timed out")
	}()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); !errors.Is(err, api.ErrConnClosed) {
		t.Fatalf("second close: %v", err)
	}
	if _, err := c.Write([]byte("x")); !errors.Is(err, api.ErrConnClosed) {
		t.Fatalf("write after close: %v", err)
	}
}

func TestListen_BindFailures(t *testing.T) {
	ln := listen(t)
	_, port, _ := net.SplitHostPort(ln.Addr())
	p, _ := strconv.Atoi(port)

	if _, err := (tcp.Network{}).Listen("127.0.0.1", p, 5); err == nil {
		t.Error("expected bind on a busy port to fail")
	}
	if _, err := (tcp.Network{}).Listen("127.0.0.1", 70000, 5); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for port, got %v", err)
	}
	if _, err := (tcp.Network{}).Listen("127.0.0.1", 0, 0); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for backlog, got %v", err)
	}
}
