// Package ipc is the unix-socket control surface of the daemon. The ctl
// binary sends one JSON request per connection and reads one JSON reply.
package ipc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
)

// SocketPath is where the daemon listens.
const SocketPath = "/tmp/lucifer.sock"

// Known control commands.
const (
	CmdTrigger = "trigger"
	CmdStop    = "stop"
	CmdStatus  = "status"
	CmdConfirm = "confirm"
	CmdDismiss = "dismiss"
	CmdSet     = "set"
	CmdDevices = "devices"
	CmdReset   = "reset"
)

// Request is a control message from the ctl binary.
type Request struct {
	Cmd string `json:"cmd"`
	// Key and Value carry arguments for CmdSet.
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// Response is what the daemon answers.
type Response struct {
	OK   bool   `json:"ok"`
	Text string `json:"text,omitempty"`
}

// Handler processes one request.
type Handler func(Request) Response

// StartServer listens on SocketPath and serves requests until the process
// exits. A stale socket from a previous run is removed first.
func StartServer(handler Handler) error {
	os.Remove(SocketPath)

	ln, err := net.Listen("unix", SocketPath)
	if err != nil {
		return fmt.Errorf("listen %s: %w", SocketPath, err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	slog.Info("control socket ready", "path", SocketPath)
	return nil
}

func handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		return
	}

	resp := handler(req)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		slog.Debug("ipc reply failed", "err", err)
	}
}

// Send delivers one request to a running daemon and returns its reply.
func Send(req Request) (Response, error) {
	conn, err := net.Dial("unix", SocketPath)
	if err != nil {
		return Response{}, fmt.Errorf("dial %s: %w", SocketPath, err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}
