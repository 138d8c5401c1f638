package web

import (
	"embed"
	"html/template"
	"strings"

	"imageprompt/internal/application"
	"imageprompt/internal/domain"
)

//go:embed templates/index.html
var templateFS embed.FS

type panelLabel struct {
	Language domain.Language `json:"language"`
	Label    string          `json:"label"`
}

type promptPanel struct {
	Language domain.Language
	Label    string
	Text     string
}

type pageData struct {
	View           application.WorkspaceView
	Preview        template.URL
	Accept         string
	MaxMegabytes   int64
	FeedbackMillis int64
	Labels         []panelLabel
	Panels         []promptPanel
}

func parsePage() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/index.html")
}

func newPageData(view application.WorkspaceView, workspace *application.Workspace) pageData {
	data := pageData{
		View: view,
		// プレビューは自前で生成したdata URLのみ
		Preview:        template.URL(view.PreviewURL),
		Accept:         strings.Join(domain.SupportedMIMETypes, ","),
		MaxMegabytes:   workspace.MaxImageBytes() >> 20,
		FeedbackMillis: workspace.CopyFeedback().Milliseconds(),
	}

	for _, lang := range domain.Languages() {
		data.Labels = append(data.Labels, panelLabel{Language: lang, Label: lang.Label()})
		if view.Prompts != nil {
			text, _ := view.Prompts.Text(lang)
			data.Panels = append(data.Panels, promptPanel{Language: lang, Label: lang.Label(), Text: text})
		}
	}

	return data
}
