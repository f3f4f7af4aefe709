package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"RosetteBoard/internal/config"
	"RosetteBoard/internal/engine"
	"RosetteBoard/internal/net"
	"RosetteBoard/internal/ui"
)

// mirrorSwitch starts and stops the viewer endpoint as the config changes.
type mirrorSwitch struct {
	e      *engine.Engine
	mu     sync.Mutex
	mirror *net.Mirror
}

func (m *mirrorSwitch) apply(c config.Mirror) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !c.Enabled {
		if m.mirror != nil {
			if err := m.mirror.Close(); err != nil {
				log.Printf("[mirror] close: %v", err)
			}
			m.mirror = nil
			log.Println("[mirror] stopped")
		}
		return ""
	}
	if m.mirror != nil {
		return m.mirror.URL()
	}
	mirror, err := net.StartMirror(m.e, net.MirrorOptions{Port: c.Port, Advertise: c.Advertise})
	if err != nil {
		log.Printf("[mirror] not started: %v", err)
		return ""
	}
	m.mirror = mirror
	return mirror.URL()
}

func main() {
	configPath := flag.String("config", "", "config file (default $XDG_CONFIG_HOME/rosetteboard/config.toml)")
	loadPath := flag.String("load", "", "drawing to open at startup")
	mirror := flag.Bool("mirror", false, "serve a read-only live mirror of the drawing")
	browse := flag.Bool("browse", false, "list mirrors on the local network and exit")
	flag.Parse()

	if *browse {
		peers, err := net.Browse(3 * time.Second)
		if err != nil {
			log.Fatalf("[mirror] %v", err)
		}
		for _, p := range peers {
			fmt.Printf("%s\tws://%s/ws\n", p.Name, p.Addr)
		}
		return
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			log.Printf("[config] %v; using defaults", err)
		}
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadOrCreate(path); err != nil {
			log.Printf("[config] %v; using defaults", err)
		}
	}
	if *mirror {
		cfg.Mirror.Enabled = true
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	e := engine.New(opts)

	if *loadPath != "" {
		f, err := os.Open(*loadPath)
		if err != nil {
			log.Fatalf("failed to open %s: %v", *loadPath, err)
		}
		loaded, err := e.Load(f)
		f.Close()
		if err != nil {
			log.Fatalf("failed to load %s: %v", *loadPath, err)
		}
		log.Printf("loaded %d actions from %s", len(loaded.Actions), *loadPath)
	}

	mirrors := &mirrorSwitch{e: e}
	status := ""
	if url := mirrors.apply(cfg.Mirror); url != "" {
		status = "Mirroring at " + url
	}

	var watcher *config.Watcher
	if path != "" {
		watcher, err = config.Watch(path, func(next config.Config) {
			if *mirror {
				next.Mirror.Enabled = true
			}
			mirrors.apply(next.Mirror)
		})
		if err != nil {
			log.Printf("[config] not watching: %v", err)
		}
	}

	ui.RunApp(ui.Options{
		Engine:         e,
		FPS:            cfg.Preview.FPS,
		ResizeDebounce: cfg.Preview.ResizeDebounce.Duration,
		Status:         status,
		OnClose: func() {
			if watcher != nil {
				watcher.Close()
			}
			mirrors.apply(config.Mirror{})
		},
	})
}
