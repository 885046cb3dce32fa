package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ByLCY/papyrus-label/config"
	"github.com/ByLCY/papyrus-label/document"
	"github.com/ByLCY/papyrus-label/dsl"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/fonts"
	"github.com/ByLCY/papyrus-label/layout"
	"github.com/ByLCY/papyrus-label/logger"
	"github.com/ByLCY/papyrus-label/record"
	"github.com/ByLCY/papyrus-label/renderer"
	canvasrenderer "github.com/ByLCY/papyrus-label/renderer/canvas"
	"github.com/ByLCY/papyrus-label/renderer/preview"
	"github.com/ByLCY/papyrus-label/session"
	"github.com/ByLCY/papyrus-label/udi"
)

// options 汇总命令行参数。
type options struct {
	configPath    string
	templatePath  string
	recordsPath   string
	output        string
	svgDir        string
	previewPath   string
	debugPath     string
	debugRawUnits bool
	sessionPath   string
	exportPath    string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "TOML 配置文件路径")
	flag.StringVar(&opts.templatePath, "template", "", "标签模板路径；为空时从会话恢复")
	flag.StringVar(&opts.recordsPath, "records", "", "记录数据 JSON（{fields, records}）")
	flag.StringVar(&opts.output, "out", "output/label.pdf", "PDF 输出路径")
	flag.StringVar(&opts.svgDir, "svg-dir", "", "逐页 SVG 与条码 SVG 输出目录")
	flag.StringVar(&opts.previewPath, "preview", "", "PNG 预览输出路径")
	flag.StringVar(&opts.debugPath, "debug", "", "布局调试 JSON 输出路径")
	flag.BoolVar(&opts.debugRawUnits, "debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")
	flag.StringVar(&opts.sessionPath, "session", "", "会话数据库路径，覆盖配置中的 session.path")
	flag.StringVar(&opts.exportPath, "export", "", "将当前元素与纸张导出为标签模板")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		log.Fatalf("生成标签失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", opts.output)
}

// run 串联配置、模板、记录、布局与渲染。
func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.sessionPath != "" {
		cfg.Session.Path = opts.sessionPath
	}
	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer lg.Sync()

	fontBlobs, err := fonts.ReadFiles(cfg.Fonts.Paths())
	if err != nil {
		return fmt.Errorf("加载字体失败: %w", err)
	}

	codec := udi.NewCodec(udi.WithLogger(lg))
	docOpts := []document.Option{
		document.WithConfig(cfg),
		document.WithLogger(lg),
		document.WithCodec(codec),
	}
	var src *record.StaticSource
	if opts.recordsPath != "" {
		if src, err = loadRecords(opts.recordsPath); err != nil {
			return err
		}
		docOpts = append(docOpts, document.WithDataSource(src))
	}
	doc := document.New(docOpts...)

	store, err := openSession(cfg.Session.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	title, err := loadDocument(ctx, doc, store, opts.templatePath)
	if err != nil {
		return err
	}
	if src != nil {
		if err := doc.LoadTable(ctx); err != nil {
			return fmt.Errorf("加载记录失败: %w", err)
		}
	}

	records, err := collectRecords(ctx, src)
	if err != nil {
		return err
	}
	lg.Info("开始排版", "title", title, "elements", len(doc.All()), "records", len(records))

	if opts.exportPath != "" {
		if err := exportTemplate(doc, title, opts.exportPath); err != nil {
			return err
		}
	}

	pdfRenderer := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Fonts: fontResources(fontBlobs)})
	result, err := layout.Build(layout.Input{
		Title:    title,
		Paper:    doc.Paper(),
		Elements: doc.All(),
		Records:  records,
	}, layout.BuildOptions{
		Typesetter: pdfRenderer,
		Codec:      codec,
		Scale:      cfg.Barcode.Scale,
		Debug:      layout.DebugOptions{RawUnits: opts.debugRawUnits},
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if opts.debugPath != "" {
		if err := writeDebug(result, opts.debugPath); err != nil {
			return err
		}
	}
	if err := writeRendered(pdfRenderer, result, opts.output); err != nil {
		return err
	}
	if opts.previewPath != "" {
		if err := writeRendered(preview.New(preview.DefaultDPMM, preview.WithFonts(fontBlobs)), result, opts.previewPath); err != nil {
			return err
		}
	}
	if opts.svgDir != "" {
		if err := writeSVGs(pdfRenderer, result, opts.svgDir); err != nil {
			return err
		}
	}

	if err := doc.Save(ctx, store); err != nil {
		return fmt.Errorf("保存会话失败: %w", err)
	}
	hits, misses := codec.Cache().Stats()
	lg.Info("排版完成", "pages", len(result.Pages), "barcodeCacheHits", hits, "barcodeCacheMisses", misses)
	return nil
}

// loadDocument 从模板导入元素；未给出模板时从会话恢复。返回标签标题。
func loadDocument(ctx context.Context, doc *document.Document, store session.Storage, templatePath string) (string, error) {
	if templatePath == "" {
		if err := doc.Restore(ctx, store); err != nil {
			return "", fmt.Errorf("恢复会话失败: %w", err)
		}
		if len(doc.All()) == 0 {
			return "", errors.New("未指定模板，且会话中没有元素")
		}
		return "label", nil
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("无法打开模板文件 %s: %w", templatePath, err)
	}
	label, err := dsl.CompileString(string(data), doc.Paper())
	if err != nil {
		return "", fmt.Errorf("解析模板失败: %w", err)
	}
	doc.SetPaper(label.Paper)
	base, table := label.Split()
	if err := doc.Import(element.SourceBase, base); err != nil {
		return "", err
	}
	if err := doc.Import(element.SourceTable, table); err != nil {
		return "", err
	}
	return label.Name, nil
}

// exportTemplate 将文档当前的纸张与元素写回模板格式。
func exportTemplate(doc *document.Document, title, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建模板文件 %s 失败: %w", path, err)
	}
	defer f.Close()
	label := &dsl.Label{Name: title, Paper: doc.Paper(), Elements: doc.All()}
	if err := dsl.Write(f, label); err != nil {
		return fmt.Errorf("导出模板失败: %w", err)
	}
	return f.Close()
}

func fontResources(blobs map[string][]byte) map[string]canvasrenderer.Resource {
	out := make(map[string]canvasrenderer.Resource, len(blobs))
	for name, data := range blobs {
		out[name] = canvasrenderer.Resource{Bytes: data}
	}
	return out
}

func loadRecords(path string) (*record.StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取记录文件 %s 失败: %w", path, err)
	}
	var src record.StaticSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("解析记录 JSON 失败: %w", err)
	}
	return &src, nil
}

func openSession(path string) (session.Storage, error) {
	if path == "" {
		return session.NewMemory(), nil
	}
	s, err := session.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("打开会话数据库失败: %w", err)
	}
	return s, nil
}

// collectRecords 并发读取所有记录的全部字段。
func collectRecords(ctx context.Context, src *record.StaticSource) ([]layout.Record, error) {
	if src == nil {
		return nil, nil
	}
	ids, err := src.RecordIDs(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := src.Fields(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := record.FetchAll(ctx, src, ids, fields, record.DefaultFetchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]layout.Record, len(ids))
	for i, id := range ids {
		out[i] = layout.Record{ID: id, Values: rows[i]}
	}
	return out, nil
}

func writeRendered(r renderer.Renderer, result *layout.Result, path string) error {
	data, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 %s 失败: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

// writeSVGs 输出 page-N.svg，以及每个有效条码的独立 SVG。
func writeSVGs(r *canvasrenderer.Renderer, result *layout.Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建 SVG 目录失败: %w", err)
	}
	for i, page := range result.Pages {
		data, err := r.RenderPageSVG(page, result.Resources)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("page-%d.svg", i+1)), data, 0o644); err != nil {
			return err
		}
		for _, box := range page.Barcodes {
			if box.Symbol == nil {
				continue
			}
			name := fmt.Sprintf("page-%d-%s.svg", i+1, safeName(box.Element))
			if err := os.WriteFile(filepath.Join(dir, name), box.Symbol.SVG(), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// safeName 将元素 id 转为可用作文件名的形式。
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, id)
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
