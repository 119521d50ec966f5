// Command stress hammers one shared log file from many goroutines and,
// optionally, many processes, then reports delivery counters. With -procs
// above 1 it re-executes itself so rotation runs under real cross-process
// contention.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/prismworks/prismlog"
)

const childEnv = "PRISMLOG_STRESS_CHILD"

func main() {
	dir := flag.String("dir", "./stress-logs", "log directory shared by all processes")
	workers := flag.Int("workers", 8, "emitting goroutines per process")
	records := flag.Int("records", 10000, "records per goroutine")
	procs := flag.Int("procs", 1, "total processes contending for the file")
	maxSizeKB := flag.Int64("max-size-kb", 64, "rotation threshold")
	buffer := flag.Int64("buffer", 4096, "queue capacity")
	flag.Parse()

	var children []*exec.Cmd
	if os.Getenv(childEnv) == "" && *procs > 1 {
		var err error
		children, err = spawnChildren(*procs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stress: %v\n", err)
			os.Exit(1)
		}
	}

	runErr := run(*dir, *workers, *records, *maxSizeKB, *buffer)

	for i, cmd := range children {
		if err := cmd.Wait(); err != nil {
			fmt.Fprintf(os.Stderr, "stress: child %d: %v\n", i+1, err)
			runErr = err
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "stress: %v\n", runErr)
		os.Exit(1)
	}
}

// spawnChildren starts procs-1 copies of this binary with the same
// arguments; the parent contributes its own load alongside them.
func spawnChildren(procs int) ([]*exec.Cmd, error) {
	children := make([]*exec.Cmd, 0, procs-1)
	for i := 1; i < procs; i++ {
		cmd := exec.Command(os.Args[0], os.Args[1:]...)
		cmd.Env = append(os.Environ(), childEnv+"="+strconv.Itoa(i))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return children, fmt.Errorf("spawning child %d: %w", i, err)
		}
		children = append(children, cmd)
	}
	return children, nil
}

func run(dir string, workers, records int, maxSizeKB, buffer int64) error {
	logger, err := prismlog.NewBuilder().
		Directory(dir).
		Name("stress").
		Level(prismlog.LevelDebug).
		MaxSizeKB(maxSizeKB).
		BackupCount(5).
		BufferSize(buffer).
		SyncEveryWrite(false).
		EnableConsole(false).
		TimestampFormat(prismlog.TimestampNumeric).
		ShutdownGrace(10 * time.Second).
		Build()
	if err != nil {
		return err
	}

	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < records; i++ {
				logger.Info("worker record", "worker", id, "seq", i)
			}
		}(w)
	}
	wg.Wait()

	if err := logger.Shutdown(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	stats := logger.Stats()
	total := uint64(workers * records)
	fmt.Printf("pid=%d emitted=%d processed=%d dropped=%d rotations=%d lock_timeouts=%d elapsed=%s rate=%.0f/s\n",
		os.Getpid(), total, stats.Processed, stats.Dropped,
		stats.Rotations, stats.RotationLockTimeouts,
		elapsed, float64(total)/elapsed.Seconds())

	if stats.Processed+stats.Dropped < total {
		return fmt.Errorf("accounting hole: emitted %d, processed %d, dropped %d",
			total, stats.Processed, stats.Dropped)
	}
	return nil
}
