package site

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"go-campaign-site/internal/logx"
	"go-campaign-site/internal/richtext"
)

//go:embed templates static
var assets embed.FS

const (
	layoutFile   = "layout.html"
	partialsFile = "partials.html"
	reloadDelay  = 300 * time.Millisecond
)

// Views 实现 fiber.Views：每个页面模板与 layout/partials 组成独立的模板集。
// dir 为空时使用嵌入模板；否则从磁盘读取，Watch 可在文件变化后重新加载。
type Views struct {
	mu    sync.RWMutex
	dir   string
	funcs template.FuncMap
	pages map[string]*template.Template
}

func NewViews(dir string, funcs template.FuncMap) *Views {
	return &Views{dir: dir, funcs: funcs}
}

func (v *Views) source() (fs.FS, error) {
	if v.dir != "" {
		return os.DirFS(v.dir), nil
	}
	return fs.Sub(assets, "templates")
}

// Load 解析全部页面模板；出错时保留上一次成功加载的结果。
func (v *Views) Load() error {
	fsys, err := v.source()
	if err != nil {
		return fmt.Errorf("open templates: %w", err)
	}
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	sort.Strings(names)
	pages := make(map[string]*template.Template, len(names))
	for _, n := range names {
		if n == layoutFile || n == partialsFile {
			continue
		}
		t, err := template.New(n).Funcs(v.funcs).ParseFS(fsys, layoutFile, partialsFile, n)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", n, err)
		}
		pages[strings.TrimSuffix(n, ".html")] = t
	}
	v.mu.Lock()
	v.pages = pages
	v.mu.Unlock()
	return nil
}

// Render 执行页面 name 的模板集；layout 缺省为 "layout"，局部刷新时传入片段名。
func (v *Views) Render(w io.Writer, name string, binding interface{}, layout ...string) error {
	v.mu.RLock()
	t, ok := v.pages[name]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	entry := "layout"
	if len(layout) > 0 && layout[0] != "" {
		entry = layout[0]
	}
	if err := t.ExecuteTemplate(w, entry, binding); err != nil {
		return fmt.Errorf("render %s/%s: %w", name, entry, err)
	}
	return nil
}

// Watch 监听模板目录，文件变化合并在 reloadDelay 内后重新加载；ctx 取消时返回。
// 使用嵌入模板时直接返回。
func (v *Views) Watch(ctx context.Context) error {
	if v.dir == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(v.dir); err != nil {
		return fmt.Errorf("watch %s: %w", v.dir, err)
	}
	logx.Infof("模板热加载已开启：%s", v.dir)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		if err := v.Load(); err != nil {
			logx.Warnf("模板重新加载失败：%v", err)
			return
		}
		logx.Infof("模板已重新加载")
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".html" {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, reload)
			timerMu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logx.Warnf("模板监听出错：%v", err)
		}
	}
}

// templateFuncs 为模板函数；时间按参考时区格式化。
func templateFuncs(loc *time.Location) template.FuncMap {
	inLoc := func(t time.Time) time.Time {
		if loc == nil {
			return t
		}
		return t.In(loc)
	}
	return template.FuncMap{
		"rich": richtext.HTML,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return inLoc(t).Format("Jan 2, 2006")
		},
		"isodate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return inLoc(t).Format(time.RFC3339)
		},
		"when": func(t time.Time, allDay bool) string {
			if allDay {
				return inLoc(t).Format("Mon, Jan 2")
			}
			return inLoc(t).Format("Mon, Jan 2 · 3:04 PM")
		},
		"attrs": func(m map[string]string) template.HTMLAttr {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var sb strings.Builder
			for i, k := range keys {
				if i > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(template.HTMLEscapeString(k))
				sb.WriteString(`="`)
				sb.WriteString(template.HTMLEscapeString(m[k]))
				sb.WriteByte('"')
			}
			return template.HTMLAttr(sb.String())
		},
		"pct": func(f float64) string { return fmt.Sprintf("%.4f%%", f) },
	}
}
