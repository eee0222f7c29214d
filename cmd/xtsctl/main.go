// xtsctl 驱动一个可观察的 xtsdict 存储，用于演示与排查淘汰、清理和事件顺序。
//
// 用法:
//
//	xtsctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件路径（yaml/json）
//	    --capacity    存储容量，正整数或 unbounded，覆盖配置文件
//	    --log-level   日志级别 debug/info/warn/error，覆盖配置文件
//	    --log-format  日志格式 text/json，覆盖配置文件
//
// 命令:
//
//	replay <script>   逐行执行脚本文件，"-" 表示标准输入
//	interactive       交互模式，带 --config 时监视配置文件并热更新日志级别
//
// 脚本命令:
//
//	add k v               键不存在时插入
//	update k v [cmp]      键存在时替换，给出 cmp 时要求当前值等于 cmp
//	upsert k v            插入或替换
//	remove k              删除
//	get k                 读取
//	purge <duration>      移除早于 now-duration 的条目
//	purge-ms <unixms>     移除时间戳早于 unixms 的条目
//	clear [capacity]      清空，可同时设置新容量
//	keys | dump | oldest  查看顺序索引
//	len | capacity        查看数量与容量
//	stats                 打印指标
//	check                 校验内部一致性
//	sleep <duration>      暂停
//
// 退出码:
//
//	0: 成功
//	1: 命令执行失败
//	130: 被 SIGINT/SIGTERM 中断
//	2: 参数错误（未知命令、参数缺失或格式错误）
//
// 示例:
//
//	xtsctl --capacity 2 replay testdata/evict.txt
//	echo "add a 1" | xtsctl replay -
//	xtsctl -c store.yaml interactive
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xtsdict/internal/runner"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args))
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xtsctl",
		Usage:   "带时间戳、按触碰顺序淘汰的并发字典命令行工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（yaml/json）",
			},
			&cli.StringFlag{
				Name:  "capacity",
				Usage: "存储容量：正整数或 unbounded",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别：debug/info/warn/error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式：text/json",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 退出码由 run 统一映射，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(cmd.Root().ErrWriter, err)
			}
		},
	}
}

// run 在收到 SIGINT/SIGTERM 时取消命令的 ctx。
func run(ctx context.Context, args []string) int {
	g, _ := runner.NewGroup(ctx, runner.WithName("xtsctl"))
	g.WatchSignals(syscall.SIGINT, syscall.SIGTERM)
	g.GoMain("app", func(ctx context.Context) error {
		return createApp().Run(ctx, args)
	})
	return exitCode(g.Wait())
}

// exitCode 把命令错误映射为退出码。
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, runner.ErrSignal) {
		return 130
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		return 2
	}
	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}
