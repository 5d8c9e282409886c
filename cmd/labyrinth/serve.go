package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tiltlab/arlabyrinth/internal/bridge"
	"github.com/tiltlab/arlabyrinth/internal/config"
	"github.com/tiltlab/arlabyrinth/internal/scenario"
	"github.com/tiltlab/arlabyrinth/internal/transport/ws"
	"github.com/tiltlab/arlabyrinth/internal/world"
)

// runServer serves the engine bridge over WebSocket until ctx is done.
func runServer(ctx context.Context, svc *services, cfg config.ServerConfig) error {
	loop := ws.NewLoop(svc.game.Dispatcher.Dispatch, 0)
	srv := ws.NewServer(loop, svc.logger)
	svc.game.World.SetSink(srv.Broadcast)
	srv.SetSnapshot(svc.game.World.Snapshot)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go loop.Run(loopCtx)

	registry := svc.game.Spawner.Registry()
	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Routes(cfg.Path, func() any { return registry.Names() }),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		svc.logger.Info("Engine bridge listening", "addr", cfg.Listen, "path", cfg.Path)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("engine bridge: %w", err)
	case <-ctx.Done():
	}

	svc.logger.Info("Shutting down engine bridge")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// runStdio reads "COMMAND|arg|..." lines from r and answers each on w.
// The current world is written first as effects. After that, effects are
// written as they happen, before the response of the command that caused
// them. It returns when r is exhausted or ctx is done.
func runStdio(ctx context.Context, svc *services, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	defer out.Flush()

	writeEffect := func(e world.Effect) {
		fmt.Fprintln(out, bridge.FormatEffect(e))
	}
	svc.game.World.SetSink(writeEffect)
	defer svc.game.World.SetSink(nil)

	for _, e := range svc.game.World.Snapshot() {
		writeEffect(e)
	}
	if err := out.Flush(); err != nil {
		return err
	}

	// The scanner blocks in Read, so it runs on its own goroutine and the
	// dispatch below stays on this one.
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	svc.logger.Info("Engine bridge on stdio")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return scanErr
			}
			e, ok := bridge.ParseLine(line)
			if !ok {
				continue
			}
			result, err := svc.game.Dispatcher.Dispatch(e)
			fmt.Fprintln(out, bridge.FormatResponse(e.Command, result, err))
			if err := out.Flush(); err != nil {
				return err
			}
		}
	}
}

// runScenario replays a scenario file and prints one line per step.
func runScenario(svc *services, path string, w io.Writer) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	results, err := scenario.NewRunner(svc.game.Dispatcher, svc.gameConf.TargetMarker, svc.logger).Run(sc)
	for _, r := range results {
		fmt.Fprintf(w, "%3d %-12s %s\n", r.Index, r.Action, bridge.FormatResponse(r.Command, r.Result, r.Err))
	}
	if err != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	fmt.Fprintf(w, "scenario %q passed (%d steps)\n", sc.Name, len(results))
	return nil
}
