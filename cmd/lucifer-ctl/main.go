package main

import (
	"fmt"
	"os"

	"lucifer/internal/ipc"
)

const usage = `usage: lucifer-ctl <command>

commands:
  trigger          start listening (or stop if already listening)
  stop             stop the current recording
  status           show what the daemon is doing
  confirm          run the pending website build
  dismiss          drop the pending website build
  set <key> <on|off>
                   change a setting (real_time_speak, push_to_talk)
  devices          list registered PCs
  reset            clear the conversation history
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	req := ipc.Request{Cmd: os.Args[1]}
	if req.Cmd == ipc.CmdSet {
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "usage: lucifer-ctl set <key> <on|off>")
			os.Exit(2)
		}
		req.Key = os.Args[2]
		req.Value = os.Args[3]
	}

	resp, err := ipc.Send(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lucifer-daemon not running:", err)
		os.Exit(1)
	}

	if resp.Text != "" {
		fmt.Println(resp.Text)
	}
	if !resp.OK {
		os.Exit(1)
	}
}
