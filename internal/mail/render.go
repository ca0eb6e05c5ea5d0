package mail

import (
	"fmt"
	"html/template"
	"strings"

	"feedmailer/internal/model"
)

// DefaultRenderer renders mail bodies with a built-in template. It satisfies
// the Renderer contract; callers may substitute their own implementation.
type DefaultRenderer struct{}

var bodyTmpl = template.Must(template.New("body").Parse(`<!DOCTYPE html>
<html>
<body>
{{- if .Label}}
<p class="label">{{.Label}}</p>
{{- end}}
{{- range .Entries}}
<div class="entry">
<h2><a href="{{.Link}}">{{.Title}}</a></h2>
{{- if .Author}}
<p class="author">by {{.Author}}</p>
{{- end}}
{{- if .Body}}
<div class="content">{{.Body}}</div>
{{- end}}
</div>
{{- end}}
</body>
</html>
`))

type entryView struct {
	Title  string
	Link   string
	Author string
	Body   template.HTML
}

// Render produces the HTML and plain-text bodies for a set of entries.
func (DefaultRenderer) Render(_ model.Feed, entries []model.Entry, sender, label string) (string, string) {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		body := e.Content
		if body == "" {
			body = e.Summary
		}
		views = append(views, entryView{
			Title:  e.Title,
			Link:   e.Link,
			Author: e.Author,
			Body:   template.HTML(body), //nolint:gosec // feed-supplied markup is passed through on purpose
		})
	}

	var html strings.Builder
	if err := bodyTmpl.Execute(&html, struct {
		Label   string
		Entries []entryView
	}{Label: label, Entries: views}); err != nil {
		// the template is static and the data contains no functions; an
		// execute failure here means a programming error
		return "", renderText(entries, sender, label)
	}

	return html.String(), renderText(entries, sender, label)
}

func renderText(entries []model.Entry, sender, label string) string {
	var b strings.Builder
	header := sender
	if label != "" {
		header = fmt.Sprintf("%s (%s)", sender, label)
	}
	fmt.Fprintf(&b, "[%s]\n", header)
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(e.Title)
		if e.Summary != "" {
			b.WriteString("\n")
			b.WriteString(e.Summary)
		}
		if e.Link != "" {
			b.WriteString("\n")
			b.WriteString(e.Link)
		}
		b.WriteString("\n")
	}
	return b.String()
}
