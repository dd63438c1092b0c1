// Package nserve starts and stops an application built from an
// nctl.Manifest and serves its routes.
package nserve

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/muir/nctl"
	"github.com/muir/nctl/nguard"
	"github.com/muir/nctl/nlog"
	"github.com/muir/nctl/nroute"
	"github.com/pkg/errors"
)

const readHeaderTimeout = 30 * time.Second

// App ties a Registry, a Router, and lifecycle hooks together.  It is
// expected that an App corresponds to a service and that the libraries
// the service uses register start and stop callbacks on it.
type App struct {
	Name     string
	Config   Config
	Registry *nctl.Registry
	Router   *nroute.Router
	Metrics  *Metrics
	Log      nlog.BasicLogger

	ctx     context.Context
	lock    sync.Mutex // held when adding hooks
	runLock sync.Mutex // held when running hooks
	hooks   map[hookID][]func(*App) error
}

// CreateApp builds the application.  Before the manifest is loaded the
// Registry is given the *App, the Config, the nlog.BasicLogger, the
// *Metrics, and an nguard.JWTConfig so that components can depend on
// them.  After the manifest is loaded, each controller is registered
// with the Router in the order given and the Router itself is added to
// the Registry.
//
// A partially built App is returned along with any error so that
// callbacks that were registered can still be run.
func CreateApp(name string, cfg Config, manifest nctl.Manifest, controllers ...nctl.Token) (*App, error) {
	log, err := nlog.NewZap(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "create logger")
	}
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Name:    name,
		Config:  cfg,
		Log:     log,
		Metrics: NewMetrics(),
		ctx:     ctx,
		hooks:   make(map[hookID][]func(*App) error),
	}
	app.On(Shutdown, func(*App) error {
		cancel()
		return nil
	})

	reg := nctl.NewRegistry(nctl.WithLogger(log))
	app.Registry = reg
	nctl.Provide(reg, app)
	nctl.Provide(reg, cfg)
	nctl.Provide(reg, log)
	nctl.Provide(reg, app.Metrics)
	nctl.Provide(reg, nguard.JWTConfig{Secret: cfg.JWTSecret})

	if err := reg.Load(manifest); err != nil {
		return app, err
	}

	opts := []nroute.RouterOpt{
		nroute.WithLogger(log),
		nroute.WithFallback(app.fallback()),
		nroute.WithObserver(app.Metrics.Observe),
	}
	if cfg.MaxBodyBytes > 0 {
		opts = append(opts, nroute.WithMaxBodyBytes(cfg.MaxBodyBytes))
	}
	app.Router = nroute.NewRouter(reg, opts...)
	for _, token := range controllers {
		if err := app.Router.Register(token); err != nil {
			return app, err
		}
	}
	nctl.Provide(reg, app.Router)
	log.Debug("app created", map[string]interface{}{
		"app":    name,
		"routes": len(app.Router.Routes()),
	})
	return app, nil
}

// Context is cancelled when the Shutdown hook runs
func (app *App) Context() context.Context {
	return app.ctx
}

// fallback handles requests that match no route: prometheus metrics
// at the configured path and a plain 404 for everything else.
func (app *App) fallback() http.Handler {
	metrics := app.Metrics.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.Config.MetricsPath != "" && r.URL.Path == app.Config.MetricsPath {
			metrics.ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Not found")
	})
}

// Handler is the http.Handler for the whole application
func (app *App) Handler() http.Handler {
	return app.Router
}

// On registers callbacks to be invoked when the hook is run.  This can
// be called from inside callbacks: a start callback can register a
// stop callback.
func (app *App) On(h *Hook, callbacks ...func(*App) error) {
	app.lock.Lock()
	defer app.lock.Unlock()
	app.hooks[h.ID] = append(app.hooks[h.ID], callbacks...)
}

// Do invokes the callbacks for a hook.  It returns only the first error
// reported unless the hook has an error combiner.
func (app *App) Do(h *Hook) error {
	app.runLock.Lock()
	defer app.runLock.Unlock()
	return app.do(h)
}

func (app *App) do(h *Hook) error {
	order, continuePast, ec, onError := h.settings()
	if ec == nil {
		ec = func(err, _ error) error { return err }
	}
	combine := func(e1, e2 error) error {
		if e1 == nil {
			return e2
		}
		if e2 == nil {
			return e1
		}
		return ec(e1, e2)
	}
	app.lock.Lock()
	callbacks := make([]func(*App) error, len(app.hooks[h.ID]))
	copy(callbacks, app.hooks[h.ID])
	app.lock.Unlock()

	if order == ReverseOrder {
		for i, j := 0, len(callbacks)-1; i < j; i, j = i+1, j-1 {
			callbacks[i], callbacks[j] = callbacks[j], callbacks[i]
		}
	}
	var err error
	for _, callback := range callbacks {
		err = combine(err, callback(app))
		if err != nil && !continuePast {
			break
		}
	}
	if err != nil {
		app.Log.Warn("hook failed", map[string]interface{}{
			"app":   app.Name,
			"hook":  h.Name,
			"error": err.Error(),
		})
		for _, oe := range onError {
			err = combine(err, app.do(oe))
		}
	}
	return err
}

// ListenAndServe listens on Config.Addr and calls Serve
func (app *App) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.Config.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", app.Config.Addr)
	}
	return app.Serve(ctx, ln)
}

// Serve runs the Start hook and then serves HTTP on ln until ctx is
// cancelled.  The server is then shut down gracefully, waiting at most
// Config.ShutdownTimeout for requests in flight, and the Stop hook is
// run.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := app.Do(Start); err != nil {
		_ = ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ln)
	}()
	app.Log.Debug("serving", map[string]interface{}{
		"app":  app.Name,
		"addr": ln.Addr().String(),
	})

	var err error
	select {
	case err = <-served:
	case <-ctx.Done():
		timeout := app.Config.ShutdownTimeout
		if timeout <= 0 {
			timeout = DefaultConfig().ShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
		<-served
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	if stopErr := app.Do(Stop); stopErr != nil {
		if err == nil {
			return stopErr
		}
		app.Log.Error("stop failed after serve error", map[string]interface{}{
			"error": stopErr.Error(),
		})
	}
	return err
}
