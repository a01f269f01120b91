// Package views 内嵌的页面模板
package views

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// FuncMap 模板函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"fecha": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
	}
}

// Load 解析全部模板
func Load() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(files, "templates/*.html")
}
