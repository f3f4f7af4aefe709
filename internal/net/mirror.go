package net

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/mdns"
)

// MirrorOptions configures the read-only viewer endpoint.
type MirrorOptions struct {
	// Port to listen on; 0 picks a free port.
	Port      int
	Advertise bool
	Name      string
}

// Mirror serves a Hub over HTTP at /ws and optionally announces it.
type Mirror struct {
	Hub      *Hub
	server   *http.Server
	listener net.Listener
	mdns     *mdns.Server
}

// StartMirror begins serving src. It returns once the listener is bound.
func StartMirror(src Source, opts MirrorOptions) (*Mirror, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", opts.Port, err)
	}
	hub := NewHub(src)
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	m := &Mirror{
		Hub:      hub,
		listener: l,
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}
	go func() {
		if err := m.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[mirror] server stopped: %v", err)
		}
	}()

	if opts.Advertise {
		if m.mdns, err = Advertise(opts.Name, m.Port()); err != nil {
			log.Printf("[mirror] not advertising: %v", err)
		}
	}
	log.Printf("[mirror] serving %s", m.URL())
	return m, nil
}

func (m *Mirror) Port() int {
	return m.listener.Addr().(*net.TCPAddr).Port
}

// URL is the websocket address viewers on other machines should dial.
func (m *Mirror) URL() string {
	ip, err := OutgoingIP()
	if err != nil {
		ip = "127.0.0.1"
	}
	return fmt.Sprintf("ws://%s/ws", net.JoinHostPort(ip, fmt.Sprint(m.Port())))
}

// Close withdraws the announcement, disconnects viewers and stops serving.
func (m *Mirror) Close() error {
	if m.mdns != nil {
		if err := m.mdns.Shutdown(); err != nil {
			log.Printf("[mirror] mDNS shutdown: %v", err)
		}
	}
	m.Hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.server.Shutdown(ctx)
}
