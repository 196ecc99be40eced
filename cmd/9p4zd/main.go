// Command 9p4zd runs a 9p4z file server over TCP, backed by the
// reference in-memory filesystem. It exists to give the framework a
// runnable shape; real deployments wire their own transport (UART,
// Bluetooth L2CAP) and backend (sysfs-style control tree, sensor
// tree) through the same config/pool/ramfs packages.
package main

import (
	"flag"
	"log"
	"net"
	"os"

	"github.com/jrsharp/9p4z-sub001/config"
	"github.com/jrsharp/9p4z-sub001/pool"
	"github.com/jrsharp/9p4z-sub001/ramfs"
)

func main() {
	addr := flag.String("addr", ":5640", "address to listen on")
	msize := flag.Uint("msize", 8192, "maximum negotiable message size")
	maxSessions := flag.Int("sessions", 4, "maximum concurrent sessions")
	maxFids := flag.Int("fids", 32, "per-session fid table capacity")
	owner := flag.String("owner", "glenda", "uid/gid attached to files created at the root")
	flag.Parse()

	cfg := config.Default()
	cfg.MaxMessageSize = uint32(*msize)
	cfg.MaxSessions = *maxSessions
	cfg.MaxFids = *maxFids
	if err := cfg.Validate(); err != nil {
		log.Fatalf("9p4zd: invalid configuration: %v", err)
	}

	logger := log.New(os.Stderr, "9p4zd: ", log.LstdFlags)

	backend := ramfs.New(*owner)
	ctl := ramfs.New(*owner)
	tree := ramfs.NewUnion(backend)
	tree.Mount("/ctl", ctl)
	seedCtlTree(ctl, logger)

	l, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("9p4zd: listen: %v", err)
	}
	logger.Printf("listening on %s (msize=%d sessions=%d)", *addr, cfg.MaxMessageSize, cfg.MaxSessions)

	p := pool.New(cfg, tree, logger)
	if err := p.Serve(l); err != nil {
		log.Fatalf("9p4zd: serve: %v", err)
	}
}
