// Command inspector-recorder drains a shared trace-event queue into a
// sequence of JSON-lines block files on disk, rotating once a block
// reaches --block-size-bytes, until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inspectortrace/inspector/inspector"
)

// ringBufferSize is the shared-memory record buffer's size; independent
// of --block-size-bytes, which governs the recorder's own output files.
const ringBufferSize = 64 << 20

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "inspector-recorder:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	fileCfg, err := loadFileConfig(flags.configPath)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(fileCfg, flags)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("creating --out directory %q: %w", cfg.Out, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := inspector.OpenOrCreate("", ringBufferSize)
	if err != nil {
		return fmt.Errorf("opening event queue: %w", err)
	}
	defer q.Close()

	reader, err := q.Reader(inspector.ReaderConfig{
		NumConsumers:    4,
		PollingInterval: cfg.Tick,
		IdleTimeout:     365 * 24 * time.Hour, // only Close()d via shutdown signal
		MinWindow:       0,
		MaxWindow:       int64(time.Second),
		QueueCapacity:   1024,
	})
	if err != nil {
		return fmt.Errorf("opening reader: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = reader.Close()
	}()

	bw := newBlockWriter(cfg.Out, cfg.BlockSizeBytes)
	for {
		rec, err := reader.Next()
		if err != nil {
			if errors.Is(err, inspector.ErrClosed) {
				break
			}
			return fmt.Errorf("reading record: %w", err)
		}
		if err := bw.Append(rec); err != nil {
			return err
		}
	}

	return bw.Flush()
}
