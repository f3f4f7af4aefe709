package net

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service under which mirrors announce themselves.
const ServiceType = "_rosette._tcp"

// Peer is a mirror found on the local network.
type Peer struct {
	Name string
	Addr string
}

// Advertise registers a mirror named name on port. The returned server must
// be shut down to withdraw the announcement.
func Advertise(name string, port int) (*mdns.Server, error) {
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		name = host
	}
	service, err := mdns.NewMDNSService(name, ServiceType, "", "", port, nil, []string{"RosetteBoard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse queries the network for mirrors for up to timeout.
func Browse(timeout time.Duration) ([]Peer, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan []Peer)
	go func() {
		var peers []Peer
		for e := range entries {
			if p, ok := peerOf(e); ok {
				peers = append(peers, p)
			}
		}
		done <- peers
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	err := mdns.Query(params)
	close(entries)
	peers := <-done
	if err != nil {
		return peers, fmt.Errorf("mDNS lookup failed: %w", err)
	}
	return peers, nil
}

func peerOf(e *mdns.ServiceEntry) (Peer, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Peer{}, false
	}
	return Peer{Name: e.Name, Addr: net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port))}, true
}
