// flowbench 是 flowkit 限流/批处理栈的负载演练工具。
//
// 用法:
//
//	flowbench [全局选项] run [命令参数]
//
// 全局选项:
//
//	--log-file     日志输出文件（带轮转），默认输出到 stderr
//	--log-level    日志级别 (debug/info/warn/error)，默认 info
//
// run 命令参数:
//
//	--config       层级限流配置文件 (yaml/json)，省略时使用内置默认层级
//	--watch        监听配置文件变更并热更新各层级速率
//	--items        合成操作数量 (默认 100)
//	--fail-rate    每个操作的失败概率 0~1 (默认 0.1)
//	--batch-size   批大小 (默认 10)
//	--concurrency  批内并发上限，0 表示不限制
//	--breaker-threshold  熔断器连续失败阈值 (默认 5)，0 表示禁用熔断
//	--tier         目标层级名称 (默认 "default")
//	--seed         随机种子，0 表示使用当前时间
//
// 退出码:
//
//	0: 全部操作完成（允许部分条目失败）
//	1: 运行被取消或初始化失败
//	2: 参数错误
//
// 示例:
//
//	flowbench run --items 500 --fail-rate 0.3
//	flowbench run --config flow.yaml --tier inference --watch
//	flowbench --log-file bench.log run --items 1000 --concurrency 8
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/flowkit/pkg/observability/xrotate"
)

// 版本信息（可通过 -ldflags 注入）
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	app := createApp()

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "运行被取消")
			return 1
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// usageError 表示参数校验失败，映射到退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "flowbench",
		Usage:   "flowkit 限流/批处理栈负载演练工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志输出文件（带轮转），默认输出到 stderr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			createRunCommand(),
		},
		DefaultCommand: "help",
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "运行一轮合成负载",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "层级限流配置文件 (yaml/json)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "监听配置文件变更并热更新",
			},
			&cli.IntFlag{
				Name:    "items",
				Aliases: []string{"n"},
				Usage:   "合成操作数量",
				Value:   100,
			},
			&cli.Float64Flag{
				Name:  "fail-rate",
				Usage: "每个操作的失败概率 (0~1)",
				Value: 0.1,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "批大小",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "批内并发上限，0 表示不限制",
			},
			&cli.IntFlag{
				Name:  "breaker-threshold",
				Usage: "熔断器连续失败阈值，0 表示禁用熔断",
				Value: 5,
			},
			&cli.StringFlag{
				Name:  "tier",
				Usage: "目标层级名称",
				Value: "default",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "随机种子，0 表示使用当前时间",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := benchOptions{
				configPath:       cmd.String("config"),
				watch:            cmd.Bool("watch"),
				items:            cmd.Int("items"),
				failRate:         cmd.Float64("fail-rate"),
				batchSize:        cmd.Int("batch-size"),
				concurrency:      cmd.Int("concurrency"),
				breakerThreshold: cmd.Int("breaker-threshold"),
				tier:             cmd.String("tier"),
				seed:             cmd.Int64("seed"),
			}
			if err := opts.validate(); err != nil {
				return err
			}

			logger, cleanup, err := buildLogger(
				cmd.String("log-file"), cmd.String("log-level"))
			if err != nil {
				return err
			}
			defer cleanup()

			return runBench(ctx, logger, opts)
		},
	}
}

func (o *benchOptions) validate() error {
	if o.items < 1 {
		return &usageError{msg: "--items 必须 >= 1"}
	}
	if o.failRate < 0 || o.failRate > 1 {
		return &usageError{msg: "--fail-rate 必须在 0~1 之间"}
	}
	if o.batchSize < 1 {
		return &usageError{msg: "--batch-size 必须 >= 1"}
	}
	if o.concurrency < 0 {
		return &usageError{msg: "--concurrency 不能为负"}
	}
	if o.breakerThreshold < 0 {
		return &usageError{msg: "--breaker-threshold 不能为负"}
	}
	if o.tier == "" {
		return &usageError{msg: "--tier 不能为空"}
	}
	if o.watch && o.configPath == "" {
		return &usageError{msg: "--watch 需要同时指定 --config"}
	}
	return nil
}

// buildLogger 构建 slog 日志器。
// 指定 --log-file 时输出到轮转文件，否则输出到 stderr。
func buildLogger(logFile, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, &usageError{msg: fmt.Sprintf("无效的日志级别 %q", level)}
	}

	var out io.Writer = os.Stderr
	cleanup := func() {}
	if logFile != "" {
		rot, err := xrotate.NewLumberjack(logFile,
			xrotate.WithMaxSizeMB(100),
			xrotate.WithMaxBackups(5),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("初始化日志轮转失败: %w", err)
		}
		out = rot
		cleanup = func() { _ = rot.Close() }
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), cleanup, nil
}

// effectiveSeed 把 0 种子替换为当前时间。
func effectiveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
