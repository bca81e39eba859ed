package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/gearhub/gearhub/web"
)

// Engine renders the embedded document templates.
type Engine struct {
	templates *template.Template
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"upper": strings.ToUpper,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/documents/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Execute writes the named template to w.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

// String renders the named template into a string.
func (e *Engine) String(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
