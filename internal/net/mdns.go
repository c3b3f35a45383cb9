package net

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"DrawStudio/internal/logging"
)

// ServiceType is the mDNS service a DrawStudio host advertises.
const ServiceType = "_drawstudio._tcp"

// Advertise announces a host on port. An empty name uses the host name.
// Shut the returned server down to withdraw the announcement.
func Advertise(name string, port int) (*mdns.Server, error) {
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		name = host
	}

	service, err := mdns.NewMDNSService(
		name,
		ServiceType,
		"", // .local
		"", // OS host name
		port,
		nil, // all interface addresses
		[]string{"DrawStudio", "path=" + Path},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse queries the LAN for hosts for up to timeout and calls found with
// the host:port of each one answering.
func Browse(timeout time.Duration, found func(addr string), l *slog.Logger) error {
	l = logging.Or(l, "net")
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			if !strings.Contains(e.Name, ServiceType) {
				continue
			}
			l.Debug("host found", "name", e.Name, "addr", e.AddrV4, "port", e.Port)
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("mdns query: %w", err)
	}
	return nil
}

// FindHost browses for up to timeout and returns the share link of the
// first host found.
func FindHost(timeout time.Duration, l *slog.Logger) (string, error) {
	var first string
	err := Browse(timeout, func(addr string) {
		if first == "" {
			first = addr
		}
	}, l)
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", fmt.Errorf("no %s host found within %s", ServiceType, timeout)
	}
	return ShareLink(first), nil
}
