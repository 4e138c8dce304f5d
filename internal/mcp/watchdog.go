package mcp

import (
	"context"
	"os"
	"time"

	"suada-mcp/internal/logging"
)

// WatchParentInterval is how often the watchdog polls the parent PID.
// Shortened in tests.
var WatchParentInterval = 2 * time.Second

// WatchParent monitors for parent process death in a background goroutine.
// Stdio MCP servers are child processes of the model host; when the host
// dies or restarts, cancelFn is called so the server does not linger as a
// zombie.
//
// This must NOT read from stdin — the SDK's StdioTransport owns stdin
// exclusively, and stealing bytes here would corrupt the JSON-RPC stream.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	logger := logging.New("watchdog")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(WatchParentInterval):
				if os.Getppid() != ppid {
					logger.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
