package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/omeyang/xtsdict/pkg/collections/xobsmap"
	"github.com/omeyang/xtsdict/pkg/collections/xtsmap"
	"github.com/omeyang/xtsdict/pkg/config/xconf"
	"github.com/omeyang/xtsdict/pkg/observability/xlog"
	"github.com/omeyang/xtsdict/pkg/observability/xmetrics"
)

// session 是一次命令运行期间的存储及其依赖。
type session struct {
	id     string
	store  *xobsmap.Store[string, string]
	logger xlog.LoggerWithLevel    // 用于热更新级别
	log    xlog.Logger             // 带 session_id 的派生 logger
	reader *sdkmetric.ManualReader // 未启用指标时为 nil
	src    *xconf.Source           // 未指定配置文件时为 nil
	out    io.Writer

	closers []func(context.Context) error
}

// loadConfig 读取配置文件并用全局选项覆盖。
func loadConfig(cmd *cli.Command) (xconf.StoreConfig, *xconf.Source, error) {
	cfg := xconf.DefaultStoreConfig()
	var src *xconf.Source
	if path := cmd.String("config"); path != "" {
		var err error
		cfg, src, err = xconf.LoadFile(path)
		if err != nil {
			return cfg, nil, err
		}
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := cmd.String("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, &usageError{msg: err.Error()}
	}
	return cfg, src, nil
}

// resolveCapacity 优先使用 --capacity，否则使用配置文件。
func resolveCapacity(cmd *cli.Command, cfg xconf.StoreConfig) (xtsmap.Capacity, error) {
	if cmd.IsSet("capacity") {
		c, err := xtsmap.ParseCapacity(cmd.String("capacity"))
		if err != nil {
			return xtsmap.Capacity{}, usagef("--capacity: %v", err)
		}
		return c, nil
	}
	c, err := cfg.StoreCapacity()
	if err != nil {
		return xtsmap.Capacity{}, &usageError{msg: err.Error()}
	}
	return c, nil
}

func newLogger(cfg xconf.LogConfig, stderr io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().SetOutput(stderr).SetLevelString(cfg.Level).SetFormat(cfg.Format)
	if cfg.File != "" {
		b = b.SetRotation(cfg.File)
	}
	return b.Build()
}

// newSession 按全局选项创建存储，并订阅事件输出到 out。
func newSession(cmd *cli.Command) (*session, error) {
	root := cmd.Root()
	cfg, src, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	capacity, err := resolveCapacity(cmd, cfg)
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := newLogger(cfg.Log, root.ErrWriter)
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	id := uuid.NewString()
	s := &session{
		id:     id,
		logger: logger,
		log:    logger.With(xlog.Component("xtsctl"), slog.String("session_id", id)),
		src:    src,
		out:    root.Writer,
	}
	s.closers = append(s.closers, func(context.Context) error { return cleanup() })

	recorder := xmetrics.Recorder(xmetrics.NoopRecorder{})
	if cfg.Metrics.Enabled {
		s.reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(s.reader))
		s.closers = append(s.closers, mp.Shutdown)
		if recorder, err = xmetrics.NewOTelRecorder(xmetrics.WithMeterProvider(mp)); err != nil {
			return nil, errors.Join(err, s.close(context.Background()))
		}
	}

	store, err := xobsmap.New(capacity,
		xobsmap.WithLogger[string, string](s.log),
		xobsmap.WithStoreOptions(xtsmap.WithRecorder[string, string](recorder)),
	)
	if err != nil {
		return nil, errors.Join(&usageError{msg: err.Error()}, s.close(context.Background()))
	}
	s.store = store
	s.subscribe()

	s.log.Debug(context.Background(), "session started",
		xlog.Operation("start"), slog.String("capacity", capacity.String()))
	return s, nil
}

// subscribe 把所有事件打印到 out。
func (s *session) subscribe() {
	s.store.ObserveRemove(func(e xobsmap.RemoveEvent[string, string]) {
		fmt.Fprintf(s.out, "  - remove %s=%s\n", e.Entry.Key(), e.Entry.Value())
	})
	s.store.ObserveAdd(func(e xobsmap.AddEvent[string, string]) {
		fmt.Fprintf(s.out, "  + add %s=%s\n", e.Entry.Key(), e.Entry.Value())
	})
	s.store.ObserveUpdate(func(e xobsmap.UpdateEvent[string, string]) {
		fmt.Fprintf(s.out, "  ~ update %s: %s -> %s\n", e.New.Key(), e.Old.Value(), e.New.Value())
	})
	s.store.ObserveClear(func(n int) {
		fmt.Fprintf(s.out, "  * clear %d\n", n)
	})
	s.store.ObserveCountChange(func(n int) {
		fmt.Fprintf(s.out, "  # count %d\n", n)
	})
}

func (s *session) close(ctx context.Context) error {
	if s.store != nil {
		s.store.Close()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	s.closers = nil
	return errors.Join(errs...)
}
