package main

import (
	"log"

	"github.com/jrsharp/9p4z-sub001/fs"
	"github.com/jrsharp/9p4z-sub001/ramfs"
	"github.com/jrsharp/9p4z-sub001/wire"
)

// seedCtlTree populates the control tree mounted at /ctl with a
// handful of append-only files a client can write commands to, the
// way original_source's sysfs.h exposes device actions as files
// rather than RPCs. A real deployment would back these with its own
// fs.FS that interprets writes instead of just storing them; ramfs's
// plain append semantics are enough to demonstrate the mount.
func seedCtlTree(ctl *ramfs.FS, logger *log.Logger) {
	root, _, err := ctl.Root()
	if err != nil {
		logger.Printf("ctl: root: %v", err)
		return
	}
	for _, name := range []string{"reset", "log-level"} {
		if _, _, err := ctl.Create(root, name, ramfs.DMAPPEND|0644, fs.OpenFlags{Mode: wire.ORDWR}); err != nil {
			logger.Printf("ctl: create %q: %v", name, err)
		}
	}
}
