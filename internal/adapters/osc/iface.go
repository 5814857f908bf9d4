package osc

import (
	"context"
	"fmt"
	"net"

	"github.com/okian/audioquery/pkg/logger"
)

// InterfaceAddr returns the first IPv4 address of the named network interface.
func InterfaceAddr(name string) (string, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInterface, name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInterface, name, err)
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInterface, name)
}

// BindAddress picks the host to bind: listenIP when set, otherwise the
// address of iface. An unusable interface falls back to all interfaces.
func BindAddress(ctx context.Context, listenIP, iface string) string {
	if listenIP != "" {
		return listenIP
	}
	if iface == "" {
		return ""
	}
	addr, err := InterfaceAddr(iface)
	if err != nil {
		logger.Named("osc").Warn(ctx, "interface address lookup failed, listening on all interfaces",
			logger.String("interface", iface), logger.Error(err))
		return ""
	}
	return addr
}
