package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xtsdict/internal/runner"
	"github.com/omeyang/xtsdict/pkg/config/xconf"
	"github.com/omeyang/xtsdict/pkg/observability/xlog"
)

// createCommands 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createReplayCommand(),
		createInteractiveCommand(),
	}
}

func createReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Aliases:   []string{"r"},
		Usage:     "逐行执行脚本文件（- 表示标准输入）",
		ArgsUsage: "<script>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return usagef("replay 需要且只需要一个脚本路径")
			}
			return cmdReplay(ctx, cmd, cmd.Args().First())
		},
	}
}

func createInteractiveCommand() *cli.Command {
	return &cli.Command{
		Name:    "interactive",
		Aliases: []string{"i"},
		Usage:   "交互模式（REPL）",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdInteractive(ctx, cmd)
		},
	}
}

// cmdReplay 执行脚本，遇到第一个错误即停止。
func cmdReplay(ctx context.Context, cmd *cli.Command, path string) (err error) {
	var in io.Reader = cmd.Root().Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("打开脚本: %w", err)
		}
		defer f.Close()
		in = f
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close(context.WithoutCancel(ctx))) }()

	scanner := bufio.NewScanner(in)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintf(s.out, "> %s\n", line)
		if err := s.execLine(ctx, line); err != nil {
			var ue *usageError
			if errors.As(err, &ue) {
				return usagef("第 %d 行: %s", n, ue.msg)
			}
			return fmt.Errorf("第 %d 行: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取脚本: %w", err)
	}
	return nil
}

// cmdInteractive 从 Reader 读取命令，单条命令出错只打印不退出。
// 指定了配置文件时，文件变更后重新加载日志级别。
func cmdInteractive(ctx context.Context, cmd *cli.Command) (err error) {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close(context.WithoutCancel(ctx))) }()

	g, _ := runner.NewGroup(ctx, runner.WithName("interactive"), runner.WithLogger(s.log))
	if s.src != nil {
		w, err := xconf.Watch(s.src, s.applyConfig)
		if err != nil {
			g.Cancel(nil)
			return err
		}
		g.Go("config-watch", w.Run)
	}

	root := cmd.Root()
	fmt.Fprintf(s.out, "xtsctl 交互模式，容量 %s\n", s.store.Capacity())
	fmt.Fprintln(s.out, "输入 'help' 查看可用命令，'quit' 或 'exit' 退出")

	g.GoMain("repl", func(ctx context.Context) error {
		return runREPL(ctx, s, root.Reader, root.ErrWriter)
	})
	return g.Wait()
}

// applyConfig 是配置文件监视回调。
func (s *session) applyConfig(src *xconf.Source, err error) {
	ctx := context.Background()
	if err != nil {
		s.log.Warn(ctx, "config reload failed", xlog.Err(err))
		return
	}
	cfg, err := xconf.Load(src)
	if err != nil {
		s.log.Warn(ctx, "config invalid, keeping previous settings", xlog.Err(err))
		return
	}
	if cfg.Log.Level == "" {
		return
	}
	level, err := xlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		s.log.Warn(ctx, "config log level invalid, keeping previous level", xlog.Err(err))
		return
	}
	s.logger.SetLevel(level)
	s.log.Info(ctx, "log level updated", slog.String("level", level.String()))
}

// startInputReader 在后台读取输入行。读取失败时先写入 errCh 再关闭 inputCh，
// inputCh 关闭且 errCh 为空表示 EOF。
func startInputReader(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	inputCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(inputCh)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
		}
	}()
	return inputCh, errCh
}

func runREPL(ctx context.Context, s *session, in io.Reader, errOut io.Writer) error {
	inputCh, errCh := startInputReader(ctx, in)
	for {
		fmt.Fprint(s.out, "xts> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case err := <-errCh:
			return fmt.Errorf("读取输入: %w", err)
		case line, ok := <-inputCh:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-errCh:
					return fmt.Errorf("读取输入: %w", err)
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "quit" || line == "exit" {
				return nil
			}
			if err := s.execLine(ctx, line); err != nil {
				fmt.Fprintf(errOut, "错误: %v\n", err)
			}
		}
	}
}
