package netsock

import (
	"net"
	"testing"
	"time"
)

func TestBindConnectRoundTrip(t *testing.T) {
	server, err := Bind(0)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer server.Close()
	if !server.IsServer() {
		t.Fatalf("server socket should report IsServer")
	}

	serverPort := uint16(server.conn.LocalAddr().(*net.UDPAddr).Port)

	client, err := Connect("127.0.0.1", serverPort)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
	if client.IsServer() {
		t.Fatalf("client socket should not report IsServer")
	}

	if err := server.SetTimeout(200 * time.Millisecond); err != nil {
		t.Fatalf("server set timeout: %v", err)
	}
	if err := client.SetTimeout(200 * time.Millisecond); err != nil {
		t.Fatalf("client set timeout: %v", err)
	}

	want := []byte{0xAA, 0xBB, 0xCC}
	if _, err := client.SendToRemote(want); err != nil {
		t.Fatalf("send: %v", err)
	}

	buf := make([]byte, 16)
	n, from, err := server.RecvFrom(buf)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if from == nil {
		t.Fatalf("recv: expected sender address")
	}
	got := buf[:n]
	if len(got) != len(want) {
		t.Fatalf("recv len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recv[%d] = %#02x, want %#02x", i, got[i], want[i])
		}
	}

	server.SetRemote(from)
	if _, err := server.SendToRemote([]byte{0x01}); err != nil {
		t.Fatalf("reply send: %v", err)
	}
}

func TestRecvFromTimeout(t *testing.T) {
	sock, err := Bind(0)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer sock.Close()
	if err := sock.SetTimeout(50 * time.Millisecond); err != nil {
		t.Fatalf("set timeout: %v", err)
	}

	buf := make([]byte, 16)
	_, _, err = sock.RecvFrom(buf)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	ne, ok := err.(net.Error)
	if !ok || !ne.Timeout() {
		t.Fatalf("err = %v, want a net.Error with Timeout() true", err)
	}
}

func TestResolveIPv4Literal(t *testing.T) {
	ip, err := resolveIPv4("127.0.0.1")
	if err != nil {
		t.Fatalf("resolveIPv4: %v", err)
	}
	if ip.String() != "127.0.0.1" {
		t.Fatalf("resolveIPv4 = %v, want 127.0.0.1", ip)
	}
}

func TestSendToRemoteWithoutRemote(t *testing.T) {
	sock, err := Bind(0)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer sock.Close()
	if _, err := sock.SendToRemote([]byte{0x01}); err == nil {
		t.Fatalf("expected error sending without a remote address")
	}
}

func TestCloseIdempotent(t *testing.T) {
	sock, err := Bind(0)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := sock.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sock.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
