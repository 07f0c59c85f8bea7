// xinferscan 是宿主源码扫描与注册代码生成工具，在构建阶段运行。
//
// 用法:
//
//	xinferscan [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	--log-level    工具自身的日志级别 (默认: warn)
//
// 命令:
//
//	scan           扫描宿主 module，写出产物 JSON
//	gen <产物>     由产物生成宿主注册 Go 文件
//	diff <旧> <新> 比较两个产物
//	show <产物>    打印产物
//	help           显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功（diff 命令: 无差异）
//	1: 命令执行失败或产物存在差异（diff 命令）
//	2: 参数错误（缺少参数、未知 flag、未知命令等）
//
// 示例:
//
//	xinferscan scan --root ./vllm --out ./artifacts
//	xinferscan scan --root ./vllm --name vllm --version 0.8.5
//	xinferscan gen --out ./hostreg/hostreg.go ./artifacts/vllm__v0_8_5.json
//	xinferscan diff ./artifacts/vllm__v0_8_4.json ./artifacts/vllm__v0_8_5.json
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xinferscan",
		Usage:   "宿主源码扫描与注册代码生成",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "warn",
			},
		},
		Commands: createCommands(),
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码。
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr(cmd), err)
			}
		},
	}
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return exitCode(createApp().Run(ctx, args))
}

// exitCode 错误 → 退出码
func exitCode(err error) int {
	if err == nil {
		return 0
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
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}

// cliUsageMessages urfave/cli 与 flag 包产生的参数错误前缀
var cliUsageMessages = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"invalid boolean",
	"No help topic for",
	"Required flag",
	"Required flags",
}

// isCLIUsageError CLI 框架在解析阶段返回的参数错误
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, m := range cliUsageMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
