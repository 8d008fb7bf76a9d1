// Package ports provides port availability checking.
package ports

import (
	"fmt"
	"net"
	"time"
)

// Check returns an error if port cannot be bound.
func Check(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("port %d is already in use", port)
	}
	_ = ln.Close()
	return nil
}

// CheckAll returns the first port in ps that cannot be bound.
func CheckAll(ps ...int) error {
	for _, p := range ps {
		if err := Check(p); err != nil {
			return err
		}
	}
	return nil
}

// Reachable reports whether something accepts TCP connections on host:port.
func Reachable(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprint(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
