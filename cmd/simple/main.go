// Command simple demonstrates the package-level API: initialize from an
// optional YAML file plus overrides, log through named handles, shut down.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prismworks/prismlog"
)

func main() {
	configFile := flag.String("config", "", "optional YAML/JSON config file")
	dir := flag.String("dir", "./logs", "log directory")
	flag.Parse()

	err := prismlog.Initialize(*configFile,
		"directory="+*dir,
		"level=DEBUG",
		"colored_console=true",
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
	}

	log := prismlog.GetLogger("simple")
	dbLog := prismlog.GetLogger("simple.db")

	log.Debug("starting up", "pid", os.Getpid())
	log.Info("listening on %s", "127.0.0.1:8080")
	dbLog.Warning("slow query", "elapsed", 1250*time.Millisecond)
	log.Error("upstream unreachable", fmt.Errorf("dial tcp: connection refused"))

	if err := prismlog.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		os.Exit(1)
	}

	stats := prismlog.Default().Logger().Stats()
	fmt.Printf("processed=%d dropped=%d\n", stats.Processed, stats.Dropped)
}
