package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ByLCY/wordslides/config"
	"github.com/ByLCY/wordslides/deck"
	"github.com/ByLCY/wordslides/layout"
	"github.com/ByLCY/wordslides/logging"
	"github.com/ByLCY/wordslides/manifest"
	"github.com/ByLCY/wordslides/renderer"
	canvasrenderer "github.com/ByLCY/wordslides/renderer/canvas"
	"github.com/ByLCY/wordslides/renderer/pptx"
	"github.com/ByLCY/wordslides/session"
	"github.com/ByLCY/wordslides/web"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "wordslides",
	Short:         "Build presentations that pair each image with a word",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP form flow and deck API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

type buildFlags struct {
	output      string
	format      string
	mode        string
	debug       string
	data        string
	concurrency int
}

var bf buildFlags

var buildCmd = &cobra.Command{
	Use:   "build <manifest>",
	Short: "Render a deck manifest to PPTX or PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(logging.Config{Level: logLevel, Format: "console", Output: os.Stderr})
		// --config 的 deck 段作为默认值，清单与命令行参数覆盖它
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		base, err := cfg.Deck.Options()
		if err != nil {
			return err
		}
		out, err := runBuild(cmd.Context(), args[0], bf, base, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已生成 %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	buildCmd.Flags().StringVarP(&bf.output, "output", "o", "", "output path (default: <manifest>.<format>)")
	buildCmd.Flags().StringVarP(&bf.format, "format", "f", "pptx", "output format: pptx or pdf")
	buildCmd.Flags().StringVar(&bf.mode, "mode", "", "pair failure handling: strict or lenient (default: config deck.mode)")
	buildCmd.Flags().StringVar(&bf.debug, "debug", "", "write the computed layout as JSON to this path")
	buildCmd.Flags().StringVar(&bf.data, "data", "", "YAML/JSON file bound to ${...} placeholders")
	buildCmd.Flags().IntVar(&bf.concurrency, "concurrency", 0, "parallel image reads and decodes (default: config deck.concurrency)")

	rootCmd.AddCommand(serveCmd, buildCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	store, err := session.Open(cfg.Session)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	srv, err := web.NewServer(cfg, logger, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("session_driver", cfg.Session.Driver).
		Str("mode", cfg.Deck.Mode).
		Msg("starting wordslides")
	return srv.Run(ctx, cfg.Addr())
}

func newRenderer(format string) (renderer.Renderer, error) {
	switch strings.ToLower(format) {
	case "pptx":
		return pptx.NewRenderer(), nil
	case "pdf":
		return canvasrenderer.NewRenderer(), nil
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q（可选 pptx、pdf）", format)
	}
}

// runBuild 串联清单解析、数据绑定、组装与渲染，返回输出路径。
// base 提供清单与参数都未指定时的组装选项。
func runBuild(ctx context.Context, manifestPath string, f buildFlags, base deck.Options, logger *logging.Logger) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	r, err := newRenderer(f.format)
	if err != nil {
		return "", err
	}
	mode := base.Mode
	if f.mode != "" {
		if mode, err = deck.ParseMode(f.mode); err != nil {
			return "", err
		}
	}
	concurrency := base.Concurrency
	if f.concurrency > 0 {
		concurrency = f.concurrency
	}

	m, err := manifest.LoadWith(manifestPath, base)
	if err != nil {
		return "", err
	}
	if f.data != "" {
		data, err := manifest.LoadData(f.data)
		if err != nil {
			return "", err
		}
		if err := m.Bind(data); err != nil {
			return "", fmt.Errorf("绑定数据失败: %w", err)
		}
	}

	blobs, err := m.Blobs(ctx, concurrency)
	if err != nil {
		return "", err
	}
	opts := m.Options(mode)
	opts.Concurrency = concurrency
	d, err := deck.ComposeBlobs(ctx, blobs, m.Words(), opts)
	if err != nil {
		return "", fmt.Errorf("组装失败: %w", err)
	}
	if d.Pairing.Truncated {
		logger.Warn().Int("images", d.Pairing.Images).Int("words", d.Pairing.Words).Msg("image and word counts differ, extra items dropped")
	}
	for _, sk := range d.Skipped {
		logger.Warn().Int("index", sk.Index).Str("word", sk.Word).Str("reason", sk.Reason).Msg("pair skipped")
	}

	if f.debug != "" {
		if err := writeDebug(d, f.debug); err != nil {
			return "", err
		}
	}

	out := f.output
	if out == "" {
		out = strings.TrimSuffix(manifestPath, filepath.Ext(manifestPath)) + "." + r.Extension()
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	data, err := r.Render(d)
	if err != nil {
		return "", fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("写入输出文件失败: %w", err)
	}
	logger.Info().Str("output", out).Int("slides", len(d.Slides)).Msg("deck written")
	return out, nil
}

func writeDebug(d *layout.Deck, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(d, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
