package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xinfer/pkg/observability/xlog"
	"github.com/omeyang/xinfer/pkg/scan/xartifact"
	"github.com/omeyang/xinfer/pkg/scan/xscan"
	"github.com/omeyang/xinfer/pkg/util/xfile"
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 命令参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createScanCommand(),
		createGenCommand(),
		createDiffCommand(),
		createShowCommand(),
	}
}

func createScanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "扫描宿主 module，写出产物 JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "宿主 module 根目录",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "宿主包名（默认取 module 路径）",
			},
			&cli.StringFlag{
				Name:  "version",
				Usage: "宿主版本（默认取 module 版本，仍为空时为 unknown）",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "产物输出目录",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:  "logger-type",
				Usage: "额外的 logger 类型（types.TypeString 形式），可重复",
			},
			&cli.StringFlag{
				Name:  "tags",
				Usage: "构建标签，逗号分隔",
			},
			&cli.BoolFlag{
				Name:  "include-unexported",
				Usage: "同时扫描未导出类型与方法",
			},
			&cli.BoolFlag{
				Name:  "include-init",
				Usage: "不忽略 Init 方法",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			opts := []xscan.Option{
				xscan.WithLogger(logger),
				xscan.WithExportedOnly(!cmd.Bool("include-unexported")),
				xscan.WithIgnoreInit(!cmd.Bool("include-init")),
			}
			if extra := cmd.StringSlice("logger-type"); len(extra) > 0 {
				opts = append(opts, xscan.WithLoggerTypes(slices.Concat(xscan.DefaultLoggerTypes, extra)...))
			}
			if tags := strings.TrimSpace(cmd.String("tags")); tags != "" {
				opts = append(opts, xscan.WithBuildFlags("-tags="+tags))
			}
			return cmdScan(ctx, stdout(cmd), scanArgs{
				root:    cmd.String("root"),
				name:    cmd.String("name"),
				version: cmd.String("version"),
				out:     cmd.String("out"),
			}, opts)
		},
	}
}

func createGenCommand() *cli.Command {
	return &cli.Command{
		Name:      "gen",
		Usage:     "由产物生成宿主注册 Go 文件",
		ArgsUsage: "<artifact>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "输出文件（为空时写到标准输出）",
			},
			&cli.StringFlag{
				Name:  "package",
				Usage: "生成文件的包名",
				Value: xartifact.DefaultGenPackage,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return newUsageError("gen 需要一个产物路径")
			}
			return cmdGen(stdout(cmd), cmd.Args().First(), cmd.String("out"), cmd.String("package"))
		},
	}
}

func createDiffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "比较两个产物，存在差异时退出码为 1",
		ArgsUsage: "<old> <new>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return newUsageError("diff 需要两个产物路径")
			}
			return cmdDiff(stdout(cmd), cmd.Args().Get(0), cmd.Args().Get(1))
		},
	}
}

func createShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "打印产物",
		ArgsUsage: "<artifact>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "loggers-under",
				Usage: "只列出该根模块下的 logger 模块名",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return newUsageError("show 需要一个产物路径")
			}
			return cmdShow(stdout(cmd), cmd.Args().First(), cmd.String("loggers-under"))
		},
	}
}

// =============================================================================
// 命令实现
// =============================================================================

type scanArgs struct {
	root    string
	name    string
	version string
	out     string
}

func cmdScan(ctx context.Context, w io.Writer, args scanArgs, opts []xscan.Option) error {
	res, err := xscan.New(opts...).Scan(ctx, args.root)
	if err != nil {
		return err
	}
	name := args.name
	if name == "" {
		name = res.ModulePath
	}
	if name == "" {
		return newUsageError("无法确定宿主包名，请使用 --name")
	}
	version := args.version
	if version == "" {
		version = res.ModuleVersion
	}

	record := xartifact.FromScan(name, version, res)
	path, err := xartifact.Save(args.out, record)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "artifact: %s\n", path)
	fmt.Fprintf(w, "packages: %d, loggers: %d, methods: %d, skipped: %d\n",
		res.Packages, len(record.ModulesWithLogger), len(record.MethodsWithRequestID), len(res.Skipped))
	for _, p := range res.Skipped {
		fmt.Fprintf(w, "skipped: %s\n", p)
	}
	return nil
}

func cmdGen(w io.Writer, artifact, out, pkg string) error {
	record, err := xartifact.Load(artifact)
	if err != nil {
		return err
	}
	src, err := xartifact.GenerateGo(record,
		xartifact.WithGenPackage(pkg),
		xartifact.WithSource(filepath.Base(artifact)),
	)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = w.Write(src)
		return err
	}
	if err := xfile.EnsureDir(out); err != nil {
		return err
	}
	if err := xfile.WriteFileAtomic(out, src, xfile.DefaultFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(w, "generated: %s\n", out)
	return nil
}

// cmdDiff 有差异时返回 exitError{1}，便于 CI 检测宿主升级带来的漂移
func cmdDiff(w io.Writer, oldPath, newPath string) error {
	oldRec, err := xartifact.Load(oldPath)
	if err != nil {
		return err
	}
	newRec, err := xartifact.Load(newPath)
	if err != nil {
		return err
	}
	delta := xartifact.Diff(oldRec, newRec)
	if delta.Empty() {
		fmt.Fprintln(w, "no changes")
		return nil
	}
	fmt.Fprint(w, delta.String())
	return &exitError{code: 1}
}

func cmdShow(w io.Writer, artifact, root string) error {
	record, err := xartifact.Load(artifact)
	if err != nil {
		return err
	}
	if root == "" {
		return record.Encode(w)
	}
	for _, name := range record.LoggersUnder(root) {
		fmt.Fprintln(w, name)
	}
	return nil
}

// =============================================================================
// 辅助
// =============================================================================

// newLogger 工具自身日志写到 ErrWriter，不污染标准输出
func newLogger(cmd *cli.Command) (xlog.Logger, error) {
	logger, _, err := xlog.New().
		SetOutput(stderr(cmd)).
		SetLevelString(cmd.String("log-level")).
		SetEnrich(false).
		Build()
	if err != nil {
		return nil, newUsageError("--log-level: %v", err)
	}
	return logger, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
