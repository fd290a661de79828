// 包 richtext 处理富文本块（与内容仓库的 block 结构一致）：
// - FromMarkdown：用 goldmark 解析 markdown，转换为块（兜底数据作者用 markdown 书写）
// - HTML：把块渲染为安全的 HTML 片段
// - PlainText / Paragraph：纯文本提取与单段落构造
package richtext

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"go-campaign-site/internal/model"
)

const (
	StyleNormal     = "normal"
	StyleBlockquote = "blockquote"

	ListBullet = "bullet"
	ListNumber = "number"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))

// FromMarkdown 把 markdown 源文本转换为块。空文本返回空切片（非 nil）。
func FromMarkdown(src []byte) []model.Block {
	doc := md.Parser().Parse(text.NewReader(src))
	c := &converter{src: src, out: []model.Block{}}
	c.blocks(doc, StyleNormal, "", 0)
	return c.out
}

type converter struct {
	src   []byte
	out   []model.Block
	links int
}

func (c *converter) blocks(parent ast.Node, style, list string, level int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch b := n.(type) {
		case *ast.Heading:
			c.emit(fmt.Sprintf("h%d", b.Level), "", 0, b)
		case *ast.Paragraph, *ast.TextBlock:
			c.emit(style, list, level, b)
		case *ast.Blockquote:
			c.blocks(b, StyleBlockquote, list, level)
		case *ast.List:
			kind := ListBullet
			if b.IsOrdered() {
				kind = ListNumber
			}
			for item := b.FirstChild(); item != nil; item = item.NextSibling() {
				c.blocks(item, style, kind, level+1)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			var sb strings.Builder
			lines := b.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(c.src))
			}
			c.out = append(c.out, model.Block{
				Key:      c.key(),
				Style:    style,
				Children: []model.Span{{Text: strings.TrimRight(sb.String(), "\n"), Marks: []string{"code"}}},
			})
		}
	}
}

func (c *converter) key() string { return fmt.Sprintf("b%d", len(c.out)) }

func (c *converter) emit(style, list string, level int, n ast.Node) {
	blk := model.Block{Key: c.key(), Style: style, ListItem: list, Level: level}
	c.inline(n, nil, &blk)
	blk.Children = mergeSpans(blk.Children)
	if len(blk.Children) == 0 {
		return
	}
	c.out = append(c.out, blk)
}

func (c *converter) inline(parent ast.Node, marks []string, blk *model.Block) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch t := n.(type) {
		case *ast.Text:
			s := string(t.Segment.Value(c.src))
			if t.HardLineBreak() {
				s += "\n"
			} else if t.SoftLineBreak() {
				s += " "
			}
			blk.Children = append(blk.Children, model.Span{Text: s, Marks: marks})
		case *ast.String:
			blk.Children = append(blk.Children, model.Span{Text: string(t.Value), Marks: marks})
		case *ast.Emphasis:
			m := "em"
			if t.Level >= 2 {
				m = "strong"
			}
			c.inline(t, withMark(marks, m), blk)
		case *ast.CodeSpan:
			c.inline(t, withMark(marks, "code"), blk)
		case *ast.Link:
			k := c.linkDef(string(t.Destination), blk)
			c.inline(t, withMark(marks, k), blk)
		case *ast.AutoLink:
			k := c.linkDef(string(t.URL(c.src)), blk)
			blk.Children = append(blk.Children, model.Span{Text: string(t.Label(c.src)), Marks: withMark(marks, k)})
		default:
			c.inline(n, marks, blk)
		}
	}
}

func (c *converter) linkDef(href string, blk *model.Block) string {
	c.links++
	k := fmt.Sprintf("l%d", c.links)
	blk.MarkDefs = append(blk.MarkDefs, model.MarkDef{Key: k, Type: "link", Href: href})
	return k
}

func withMark(marks []string, m string) []string {
	out := make([]string, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

// mergeSpans 合并标注相同的相邻片段。
func mergeSpans(in []model.Span) []model.Span {
	out := make([]model.Span, 0, len(in))
	for _, s := range in {
		if s.Text == "" {
			continue
		}
		if n := len(out); n > 0 && sameMarks(out[n-1].Marks, s.Marks) {
			out[n-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	if n := len(out); n > 0 {
		out[n-1].Text = strings.TrimRight(out[n-1].Text, " ")
	}
	return out
}

func sameMarks(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Paragraph 构造只含一个普通段落的块切片。
func Paragraph(s string) []model.Block {
	return []model.Block{{
		Key:      "b0",
		Style:    StyleNormal,
		Children: []model.Span{{Text: s}},
	}}
}

// PlainText 提取纯文本，块之间以换行分隔。
func PlainText(blocks []model.Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, s := range b.Children {
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// HTML 渲染块为 HTML。列表项按 listItem/level 分组为 ul/ol，链接仅允许安全协议。
func HTML(blocks []model.Block) template.HTML {
	var sb strings.Builder
	var open []string // 当前打开的列表标签栈
	closeTo := func(depth int) {
		for len(open) > depth {
			sb.WriteString("</" + open[len(open)-1] + ">")
			open = open[:len(open)-1]
		}
	}
	for _, b := range blocks {
		if b.ListItem == "" {
			closeTo(0)
			tag := blockTag(b.Style)
			sb.WriteString("<" + tag + ">")
			writeSpans(&sb, b)
			sb.WriteString("</" + tag + ">")
			continue
		}
		tag := "ul"
		if b.ListItem == ListNumber {
			tag = "ol"
		}
		level := b.Level
		if level < 1 {
			level = 1
		}
		closeTo(level)
		if len(open) == level && open[level-1] != tag {
			closeTo(level - 1)
		}
		for len(open) < level {
			sb.WriteString("<" + tag + ">")
			open = append(open, tag)
		}
		sb.WriteString("<li>")
		writeSpans(&sb, b)
		sb.WriteString("</li>")
	}
	closeTo(0)
	return template.HTML(sb.String())
}

func blockTag(style string) string {
	switch style {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return style
	case StyleBlockquote:
		return "blockquote"
	default:
		return "p"
	}
}

func writeSpans(sb *strings.Builder, b model.Block) {
	defs := make(map[string]string, len(b.MarkDefs))
	for _, d := range b.MarkDefs {
		if d.Type == "link" && safeHref(d.Href) {
			defs[d.Key] = d.Href
		}
	}
	for _, s := range b.Children {
		var closers []string
		for _, m := range s.Marks {
			switch m {
			case "strong", "em", "code":
				sb.WriteString("<" + m + ">")
				closers = append(closers, "</"+m+">")
			case "strike-through", "del":
				sb.WriteString("<del>")
				closers = append(closers, "</del>")
			default:
				if href, ok := defs[m]; ok {
					sb.WriteString(`<a href="` + html.EscapeString(href) + `">`)
					closers = append(closers, "</a>")
				}
			}
		}
		sb.WriteString(strings.ReplaceAll(html.EscapeString(s.Text), "\n", "<br>"))
		for i := len(closers) - 1; i >= 0; i-- {
			sb.WriteString(closers[i])
		}
	}
}

func safeHref(h string) bool {
	l := strings.ToLower(strings.TrimSpace(h))
	return strings.HasPrefix(l, "https://") || strings.HasPrefix(l, "http://") ||
		strings.HasPrefix(l, "mailto:") || strings.HasPrefix(l, "/") || strings.HasPrefix(l, "#")
}
