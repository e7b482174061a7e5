package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ironrain.gg/internal/persistence/indexdb"
	persistlog "ironrain.gg/internal/persistence/log"
	"ironrain.gg/internal/sim/tuning"
	"ironrain.gg/internal/sim/worker"
	"ironrain.gg/internal/sim/world"
	"ironrain.gg/internal/transport/observer"
	"ironrain.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed (0: use tuning seed)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite telemetry index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	effSeed := *seed
	if effSeed == 0 {
		effSeed = tune.Seed
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	pool := worker.NewPool(tune.Workers, effSeed)
	defer pool.Close()
	backend := worker.NewBackend(pool)
	defer backend.Close()

	w := world.New(world.WorldConfig{
		ID:            *worldID,
		TickRateHz:    tune.TickRateHz,
		Seed:          effSeed,
		StartAltitude: tune.StartAltitude,
	}, backend)

	// Optional: read-model index backend (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if tune.Telemetry.Index && !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"), effSeed)
		if err != nil {
			logger.Fatalf("open index backend: %v", err)
		}
		defer idx.Close()
	}

	if tune.Telemetry.TickLog {
		tickLog := persistlog.NewTickLogger(worldDir)
		defer tickLog.Close()
		w.SetTickLogger(multiTickLogger{a: tickLog, b: tickIndexOrNil(idx)})
	} else if idx != nil {
		w.SetTickLogger(idx)
	}
	if tune.Telemetry.EventLog {
		eventLog := persistlog.NewEventLogger(worldDir)
		defer eventLog.Close()
		w.SetEventSink(multiEventSink{a: eventLog, b: eventIndexOrNil(idx)})
	} else if idx != nil {
		w.SetEventSink(idx)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP ironrain_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE ironrain_world_tick gauge\n")
		fmt.Fprintf(rw, "ironrain_world_tick{world=%q} %d\n", *worldID, w.CurrentTick())
	})

	obsSrv := observer.NewServer(w, logger)
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	if envBool("IR_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (IR_ENABLE_PPROF_HTTP=false)")
	}

	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (seed=%d tick_rate=%d workers=%d)", *addr, effSeed, tune.TickRateHz, tune.Workers)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Typed-nil guards: a nil *SQLiteIndex must become a nil interface so the
// multi loggers skip it.
func tickIndexOrNil(idx *indexdb.SQLiteIndex) world.TickLogger {
	if idx == nil {
		return nil
	}
	return idx
}

func eventIndexOrNil(idx *indexdb.SQLiteIndex) world.EventSink {
	if idx == nil {
		return nil
	}
	return idx
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiEventSink struct {
	a world.EventSink
	b world.EventSink
}

func (m multiEventSink) WriteEvent(e world.Event) error {
	if m.a != nil {
		_ = m.a.WriteEvent(e)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(e)
	}
	return nil
}
