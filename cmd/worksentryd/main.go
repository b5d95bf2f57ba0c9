// Command worksentryd is the long-running daemon: it opens the store,
// the watcher, and every other subsystem once, then serves the HTTP
// transport until killed.
package main

import (
	"flag"
	"log"
	"net/http"

	"worksentry/internal/api"
	"worksentry/internal/config"
	"worksentry/internal/core"
	"worksentry/internal/logging"
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:7714", "listen address")
		dataDir = flag.String("data", "", "data directory (defaults to the OS user-config directory)")
		logDir  = flag.String("log-dir", "", "log directory (defaults alongside data dir)")
		level   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	dir := *dataDir
	if dir == "" {
		var err error
		dir, err = config.UserDir()
		if err != nil {
			log.Fatalf("failed to resolve data directory: %v", err)
		}
	}

	lDir := *logDir
	if lDir == "" {
		lDir = dir
	}
	logging.Init(logging.Config{LogDir: lDir, Level: *level})
	defer logging.Close()

	svc, err := core.New(dir)
	if err != nil {
		log.Fatalf("failed to start worksentry: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	srv := api.NewServer(svc)

	log.Printf("worksentryd listening on %s (data=%s)", *addr, dir)
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
