package main

import (
	"context"
	"fmt"
	"net"
	"time"
)

// addrLookup lists the addresses of the named interface, or of every
// interface when name is empty.
type addrLookup func(name string) ([]net.Addr, error)

func systemAddrs(name string) ([]net.Addr, error) {
	if name == "" {
		return net.InterfaceAddrs()
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return iface.Addrs()
}

// waitForNetwork blocks until the interface has a usable IPv4 address,
// polling every retry.  Association itself (Wi-Fi credentials and so on) is
// left to the operating system; nothing else can work without it, so there
// is no give-up path other than ctx.
func waitForNetwork(ctx context.Context, cfg NetworkConfig, lookup addrLookup, logger *EventLogger) (net.IP, error) {
	if lookup == nil {
		lookup = systemAddrs
	}
	for attempt := 1; ; attempt++ {
		addrs, err := lookup(cfg.Interface)
		if err == nil {
			if ip := firstIPv4(addrs); ip != nil {
				return ip, nil
			}
		}
		if attempt == 1 {
			logger.Log("waiting for network on %s...", ifaceName(cfg.Interface))
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("network wait on %s: %w", ifaceName(cfg.Interface), ctx.Err())
		case <-time.After(cfg.Retry):
		}
	}
}

// firstIPv4 returns the first non-loopback IPv4 address in addrs.
func firstIPv4(addrs []net.Addr) net.IP {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}

func ifaceName(name string) string {
	if name == "" {
		return "any interface"
	}
	return name
}
