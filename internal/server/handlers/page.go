package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	"github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
	"github.com/mamadbah2/dairy-dashboard/internal/service/reporting"
)

// PageTemplate is the name registered with the gin engine.
const PageTemplate = "dashboard.html"

const pageSource = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-bottom: 1rem; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
.info { color: #055160; background: #cff4fc; padding: 0.5rem; }
.success { color: #0f5132; background: #d1e7dd; padding: 0.5rem; }
.error { color: #842029; background: #f8d7da; padding: 0.5rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<hr>
<h2>Upload Data Files</h2>
{{if .Uploaded}}<p class="success">{{.Uploaded}}</p>{{end}}
{{if .UploadError}}<p class="error">{{.UploadError}}</p>{{end}}
{{range .Uploads}}
<form method="post" action="/api/v1/datasets/{{.Kind}}" enctype="multipart/form-data">
<input type="hidden" name="return_to" value="/">
<label>Upload {{.Label}} (CSV/Excel) <input type="file" name="file" accept=".csv,.xlsx"></label>
<button type="submit">Upload</button>
</form>
{{end}}
<h2>Data Overview &amp; KPI Analysis</h2>
{{if .NeedCenters}}
<p class="info">{{.NeedCentersMsg}}</p>
{{else}}
<details>
<summary>Show Raw Data Previews</summary>
{{range .Previews}}
{{if .Loaded}}
<h3>{{.Label}}</h3>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
</table>
{{else}}
<p class="info">{{.Label}} not uploaded.</p>
{{end}}
{{end}}
</details>
<hr>
<h2>KPI Performance Analysis</h2>
{{if .Error}}
<p class="error">{{.Error}}</p>
{{else}}
{{if .AllPassing}}
<p class="success">{{.AllPassingMsg}}</p>
{{else}}
<h3>Low Performing BMCs Identified:</h3>
{{range .Concerns}}
<h4>{{.Title}} KPI Concerns:</h4>
<table>
<tr><th>BMC_ID</th><th>BMC_Name</th><th>District</th><th>Reason</th></tr>
{{range .Failures}}<tr><td>{{.Center.BMCID}}</td><td>{{.Center.BMCName}}</td><td>{{.Center.District}}</td><td>{{.Reason}}</td></tr>{{end}}
</table>
<hr>
{{end}}
{{end}}
<h2>Actionable Insights &amp; Targets for Field Team</h2>
{{if .Actions}}
<ul>{{range .Actions}}<li>{{.}}</li>{{end}}</ul>
{{else}}
<p class="info">{{.NoActionsMsg}}</p>
{{end}}
{{end}}
{{end}}
</body>
</html>
`

// NewPageTemplate parses the dashboard page.
func NewPageTemplate() *template.Template {
	return template.Must(template.New(PageTemplate).Parse(pageSource))
}

type uploadView struct {
	Kind  models.DatasetKind
	Label string
}

type previewView struct {
	Label  string
	Loaded bool
	Header []string
	Rows   [][]string
}

type pageView struct {
	Title          string
	Uploads        []uploadView
	NeedCenters    bool
	NeedCentersMsg string
	Previews       []previewView
	Uploaded       string
	UploadError    string
	Error          string
	AllPassing     bool
	AllPassingMsg  string
	Concerns       []kpiView
	Actions        []string
	NoActionsMsg   string
}

// Index renders the HTML dashboard.
func (h *DashboardHandler) Index(c *gin.Context) {
	view := pageView{
		Title:          reporting.ReportTitle,
		NeedCentersMsg: dashboard.MsgNeedCenterData,
		AllPassingMsg:  dashboard.MsgAllPassing,
		NoActionsMsg:   dashboard.MsgNoActions,
		UploadError:    c.Query(uploadErrorParam),
	}
	if kind, err := models.ParseDatasetKind(c.Query(uploadedParam)); err == nil {
		view.Uploaded = kind.Label() + " uploaded successfully."
	}
	for _, kind := range models.DatasetKinds {
		view.Uploads = append(view.Uploads, uploadView{Kind: kind, Label: kind.Label()})

		preview := previewView{Label: kind.Label()}
		if table, ok := h.dashboard.Preview(kind, defaultPreview); ok {
			preview.Loaded = true
			preview.Header = table.Header
			preview.Rows = table.Rows
		}
		view.Previews = append(view.Previews, preview)
	}

	analysis, err := h.dashboard.Analyze()
	switch {
	case errors.Is(err, dashboard.ErrNoCenterData):
		view.NeedCenters = true
	case err != nil:
		h.logger.Warn("dashboard analysis failed", zap.Error(err))
		view.Error = err.Error()
	default:
		view.AllPassing = analysis.AllPassing()
		view.Actions = analysis.Actions
		for _, v := range kpiViews(analysis) {
			if len(v.Failures) > 0 {
				view.Concerns = append(view.Concerns, v)
			}
		}
	}

	c.HTML(http.StatusOK, PageTemplate, view)
}
