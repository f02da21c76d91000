package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutName = "layout"

var pages = []string{
	"index.html",
	"login.html",
	"register.html",
	"task_form.html",
	"error.html",
}

// Renderer pairs each page template with the shared layout. It satisfies
// gin's render.HTMLRender so handlers can call c.HTML(status, "index.html", data).
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Renderer{templates: templates}, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.templates[name]
	if !ok {
		tmpl = r.templates["error.html"]
	}
	return render.HTML{Template: tmpl, Name: layoutName, Data: data}
}
