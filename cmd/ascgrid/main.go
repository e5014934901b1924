package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	cfgpkg "ascgrid/internal/config"
	"ascgrid/internal/diag"
	"ascgrid/internal/pipeline"
	"ascgrid/pkg/contract"
)

var pipelineRun = pipeline.Run

// 退出码：0 成功；2 用法/校验错误；1 其他失败。
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

const (
	defaultConfigName = "ascgrid.yaml"
	envConfigFile     = cfgpkg.EnvPrefix + "CONFIG_FILE"
)

// 单一命令：位置参数为源容器路径（其中含计算条件）。
func main() {
	os.Exit(run(os.Args[1:], afero.NewOsFs(), os.Stderr))
}

func run(args []string, fs afero.Fs, stderr io.Writer) int {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV；文件缺失忽略）。
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("ascgrid", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		flagConfig    = flags.String("config", "", "工具配置文件（YAML）；缺省读取 ./"+defaultConfigName+"（若存在）")
		flagLogLevel  = flags.String("log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
		flagContainer = flags.String("container", "", "容器后端 yaml|memory（覆盖配置）")
		flagMetrics   = flags.String("metrics-file", "", "退出前写出 Prometheus 文本格式指标")
		flagStatus    = flags.Bool("status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
		flagInitDir   = flags.String("init-config", "", "在指定目录生成默认 "+defaultConfigName+" 与 .env 模板（已存在则跳过）；不带值时为当前目录")
	)
	flags.Lookup("init-config").NoOptDefVal = "."
	flags.Usage = func() {
		fprintf(stderr, "用法: ascgrid [flags] <container>\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	// --init-config: 生成模板并退出
	if dir := strings.TrimSpace(*flagInitDir); dir != "" {
		if err := writeTemplates(fs, dir); err != nil {
			fprintf(stderr, "生成默认配置失败: %v\n", err)
			return exitFail
		}
		return exitOK
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return exitUsage
	}
	containerPath := flags.Arg(0)

	// 配置：默认 → YAML → ENV → CLI
	cfg := cfgpkg.Defaults()
	cfgPath := *flagConfig
	if cfgPath == "" {
		cfgPath = os.Getenv(envConfigFile)
	}
	if cfgPath == "" {
		if ok, _ := afero.Exists(fs, defaultConfigName); ok {
			cfgPath = defaultConfigName
		}
	}
	if cfgPath != "" {
		base, err := cfgpkg.LoadYAML(fs, cfgPath, nil)
		if err != nil {
			fprintf(stderr, "配置解析失败: %v\n", err)
			return exitUsage
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		fprintf(stderr, "环境变量解析失败: %v\n", err)
		return exitUsage
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	var overCLI cfgpkg.Config
	overCLI.Logging.Level = *flagLogLevel
	overCLI.Components.Container = *flagContainer
	overCLI.MetricsFile = *flagMetrics
	if flags.Changed("status") {
		overCLI.Status = flagStatus
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		dumpConfig(stderr, cfg)
		return exitUsage
	}

	logger := diag.NewLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir)
	defer logger.Close()
	if cfg.MetricsFile != "" {
		defer func() {
			if err := diag.WriteTextfile(cfg.MetricsFile); err != nil {
				fprintf(stderr, "指标写出失败: %v\n", err)
			}
		}()
	}

	// 源容器必须是已存在的文件
	if st, err := fs.Stat(containerPath); err != nil || st.IsDir() {
		fprintf(stderr, "源容器不存在: %s\n", containerPath)
		logger.Error("main", string(diag.CodeInput), "container missing: "+containerPath, &start)
		return exitUsage
	}

	comp, err := cfgpkg.Assemble(cfg, fs)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("main", string(diag.Classify(err)), "assemble failed", &start)
		return exitUsage
	}

	// 终端信息提示（非日志）：默认开启
	status := cfg.Status == nil || *cfg.Status
	term := diag.NewTerminal(stderr, status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	logger.DebugStart("config", "effective", cfgPath, map[string]string{
		"reader":    cfg.Components.Reader,
		"writer":    cfg.Components.Writer,
		"condition": cfg.Components.Condition,
		"container": cfg.Components.Container,
		"log_dir":   cfg.Logging.Dir,
	})

	t := logger.StartWith("main", "run", containerPath, nil)
	res, err := pipelineRun(context.Background(), comp, pipeline.Settings{ContainerPath: containerPath}, logger)
	if err != nil {
		code := diag.Classify(err)
		logger.Error("main", string(code), "first error: "+err.Error(), &start)
		diag.IncOp("main", diag.StageError, "error")
		if code != diag.CodeUnknown {
			diag.IncError("main", string(code))
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, time.Since(start))
		return exitCode(err)
	}
	t.Finish(fmt.Sprintf("groups=%d", len(res.Written)), int64(len(res.Written)))
	diag.IncOp("main", diag.StageFinish, "success")
	term.RunFinish(true, time.Since(start))
	return exitOK
}

// exitCode 把运行错误映射为退出码。
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, contract.ErrNoVariables),
		errors.Is(err, contract.ErrInvalidSettings),
		errors.Is(err, contract.ErrConditionMissing):
		return exitUsage
	default:
		return exitFail
	}
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) {
	b, err := cfgpkg.Dump(c)
	if err != nil {
		return
	}
	fprintf(w, "有效配置:\n%s", b)
}

// writeTemplates 在 dir 下生成 ascgrid.yaml 与 .env（均不覆盖已存在文件）。
func writeTemplates(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeNew(fs, filepath.Join(dir, defaultConfigName), cfgpkg.TemplateYAML()); err != nil {
		return err
	}
	return writeNew(fs, filepath.Join(dir, ".env"), []byte(cfgpkg.EnvTemplate()))
}

func writeNew(fs afero.Fs, path string, data []byte) error {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
