// cataloger is the thin application bootstrap: it loads settings, opens the
// catalog, wires the preview service to its sinks, and warms the configured
// roots. Everything interesting lives in pkg/; this binary only wires it
// together.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
	"github.com/ChrisCarter22/Cataloger/pkg/catalog"
	"github.com/ChrisCarter22/Cataloger/pkg/config"
	clog "github.com/ChrisCarter22/Cataloger/pkg/log"
	"github.com/ChrisCarter22/Cataloger/pkg/service"
	"github.com/ChrisCarter22/Cataloger/pkg/sink"
)

// barSink drives an mpb progress bar one tick per cache event: WarmRoot
// schedules exactly one job per scanned file, and processJob emits exactly
// one event per job, so the bar's total (set to the scanned file count)
// always reaches completion exactly once every job has been handled.
type barSink struct {
	bar *mpb.Bar
}

func (b barSink) Handle(v1.CacheEvent) { b.bar.Increment() }

func main() {
	var settingsPath string
	var logLevel string

	root := &cobra.Command{
		Use:   "cataloger",
		Short: "Warm the preview cache for every configured photo root",
		Long: `cataloger loads a settings document, opens (or creates) the sqlite
catalog, scans every configured root, and drives the preview pipeline to
completion: extraction, ICC color management, GPU upload attempt, and
catalog/cache updates. When stdout is a terminal it prints a one-line
summary of all roots on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settingsPath, logLevel)
		},
	}

	root.Flags().StringVar(&settingsPath, "settings", "settings.yaml", "path to the settings document")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(settingsPath, logLevel string) error {
	logger := clog.New(logLevel)

	settings, err := config.Load(settingsPath)
	if err != nil {
		return fmt.Errorf("cataloger: %w", err)
	}

	store := catalog.NewStore(logger)
	if err := store.ConfigureDatabase(settings.CatalogPath); err != nil {
		return fmt.Errorf("cataloger: %w", err)
	}
	defer store.Close()
	if err := store.InitializeSchema(); err != nil {
		return fmt.Errorf("cataloger: %w", err)
	}

	logRecorder := sink.NewEventLogger(logger)
	multicast := sink.NewMulticast(logRecorder)
	if settings.MetricsEnabled {
		multicast.Add(sink.NewMetricsRecorder(prometheus.DefaultRegisterer))
	}
	if settings.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
		defer redisClient.Close()
		multicast.Add(sink.NewRedisRelay(redisClient, settings.RedisChannel, logger))
	}

	svc := service.New(service.Config{
		RamCapacity:     settings.RamCapacity,
		PreloadCapacity: settings.PreloadCapacity,
		WorkerCount:     settings.WorkerCount,
	}, logger)
	defer svc.Close()
	svc.SetCatalogService(store)
	svc.PrimeCaches(settings.PrefetchWindow)

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	startTime := time.Now()

	type pendingRoot struct {
		id   int64
		path string
	}
	var pending []pendingRoot
	totalFiles := 0

	for _, rootPath := range settings.Roots {
		rootID, err := store.RegisterRoot(rootPath)
		if err != nil {
			logger.Error("cataloger: register root %s: %s", rootPath, err.Error())
			continue
		}

		records, err := store.ScanRoot(rootPath)
		if err != nil {
			logger.Error("cataloger: scan root %s: %s", rootPath, err.Error())
			continue
		}
		if _, err := store.IngestRecords(rootID, records); err != nil {
			logger.Error("cataloger: ingest root %s: %s", rootPath, err.Error())
			continue
		}

		pending = append(pending, pendingRoot{id: rootID, path: rootPath})
		totalFiles += len(records)
	}

	progress := mpb.New(mpb.ContainerOptional(mpb.WithOutput(io.Discard), !interactive))
	bar := progress.AddBar(int64(totalFiles),
		mpb.PrependDecorators(decor.Name("warming previews")),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d"), decor.Percentage()),
	)
	svc.SetEventSink(sink.NewMulticast(multicast, barSink{bar: bar}))

	for _, r := range pending {
		if err := svc.WarmRoot(r.id, r.path); err != nil {
			logger.Error("cataloger: warm root %s: %s", r.path, err.Error())
		}
	}
	svc.WaitUntilIdle()
	progress.Wait()

	summary := logRecorder.Summarize()
	if interactive {
		fmt.Printf("warmed %d root(s) in %s: %d hits, %d misses, %d errors, avg gpu upload %.2fms\n",
			len(settings.Roots), time.Since(startTime).Round(time.Millisecond),
			summary.Hits, summary.Misses, summary.Errors, summary.AvgGpuMs)
	}
	return nil
}
