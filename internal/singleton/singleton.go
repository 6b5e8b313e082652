package singleton

import (
	"errors"
	"fmt"
	"net"
)

// ErrAlreadyRunning reports that the lock port is held by another
// process, i.e. another instance of the bot is live on this host.
var ErrAlreadyRunning = errors.New("another instance of the bot is already running")

// Guard holds an exclusive bind on a loopback port for the lifetime of
// the process. The bound socket is the lock: closing it (or process
// exit, clean or not) releases it.
type Guard struct {
	ln net.Listener
}

// Acquire binds the lock port. A bind failure means another instance
// holds it; there is no retry.
func Acquire(port int) (*Guard, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w (port %d locked): %v", ErrAlreadyRunning, port, err)
	}
	return &Guard{ln: ln}, nil
}

func (g *Guard) Close() error {
	return g.ln.Close()
}
