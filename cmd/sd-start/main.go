/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// sd-start starts a program and waits for it to post a systemd-style
// READY=1 notification before returning, the Go rendering of
// util/bin/sd_start/sd_start.c: a launcher that gives a supervisor a
// single "it's actually up" signal instead of guessing from the exit of
// fork().
package main

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
)

func main() {
	var (
		timeout  time.Duration
		verbose  bool
		maybeOK  bool
		pidfile  string
		selfTest bool
	)

	cmd := &cobra.Command{
		Use:   "sd-start -- <program> [args...]",
		Short: "Start a program and wait for its READY=1 notification",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if selfTest {
				ok, err := daemon.SdNotify(false, daemon.SdNotifyReady)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(os.Stderr, "sd-start: NOTIFY_SOCKET not set, nothing to notify")
				}
				return nil
			}
			return run(args, timeout, verbose, maybeOK, pidfile)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "timeout waiting for READY=1 (0 disables)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "verbose output")
	cmd.Flags().BoolVar(&maybeOK, "maybe", false, "treat a timeout as success if the child is still running")
	cmd.Flags().StringVar(&pidfile, "pidfile", "", "write the child's pid here once ready")
	cmd.Flags().BoolVar(&selfTest, "notify-self", false, "send our own READY=1 instead of launching a child (for testing)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sd-start:", err)
		os.Exit(1)
	}
}

func run(args []string, timeout time.Duration, verbose, maybeOK bool, pidfile string) error {
	sockPath := fmt.Sprintf("@sd-start/%d/%d", os.Getpid(), time.Now().UnixNano())

	addr := &net.UnixAddr{Name: sockPath, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		// abstract sockets (leading "@") are Linux-only; fall back to a
		// filesystem path elsewhere.
		sockPath = fmt.Sprintf("/tmp/sd-start.%d.%d.sock", os.Getpid(), time.Now().UnixNano())
		addr = &net.UnixAddr{Name: sockPath, Net: "unixgram"}
		conn, err = net.ListenUnixgram("unixgram", addr)
		if err != nil {
			return fmt.Errorf("sd-start: opening notify socket: %w", err)
		}
		defer os.Remove(sockPath)
	}
	defer conn.Close()

	child := exec.Command(args[0], args[1:]...)
	child.Env = append(os.Environ(), "NOTIFY_SOCKET="+sockPath)
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Start(); err != nil {
		return fmt.Errorf("sd-start: starting %s: %w", args[0], err)
	}

	if verbose {
		fmt.Printf("sd-start: waiting for READY=1 on %s (pid=%d)...\n", sockPath, child.Process.Pid)
	}

	ready := waitForReady(conn, timeout)

	if !ready && timeout > 0 {
		if maybeOK && child.Process != nil && processAlive(child.Process.Pid) {
			ready = true
			if verbose {
				fmt.Println("sd-start: timed out but child is still running, treating as success (--maybe)")
			}
		} else {
			return fmt.Errorf("sd-start: timed out waiting for READY=1")
		}
	}

	if ready && pidfile != "" {
		if err := os.WriteFile(pidfile, []byte(fmt.Sprintf("%d\n", child.Process.Pid)), 0644); err != nil {
			return fmt.Errorf("sd-start: writing pidfile: %w", err)
		}
	}

	return nil
}

func waitForReady(conn *net.UnixConn, timeout time.Duration) bool {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		_ = conn.SetReadDeadline(deadline)
	}

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return false
		}
		if strings.Contains(string(buf[:n]), daemon.SdNotifyReady) {
			return true
		}
	}
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
