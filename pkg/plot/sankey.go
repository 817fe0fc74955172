package plot

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/connection"
)

const plotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var sankeyPage = template.Must(template.New("sankey").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Diagram.Title}}</title>
<script src="{{.Script}}"></script>
</head>
<body>
<div id="sankey" style="width:100%;height:95vh;"></div>
<script>
var diagram = {{.Diagram}};
Plotly.newPlot("sankey", [{
  type: "sankey",
  node: {
    pad: 15,
    thickness: 20,
    line: {color: "black", width: 0.5},
    label: diagram.labels,
    color: "blue"
  },
  link: {
    source: diagram.source,
    target: diagram.target,
    value: diagram.value
  }
}], {title: {text: diagram.title}, font: {size: 10}});
</script>
</body>
</html>
`))

// Sankey writes an HTML page showing d as an interactive Plotly Sankey
// diagram. The Plotly library is loaded from its CDN.
func Sankey(path string, d connection.Sankey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sankey page: %w", err)
	}
	data := struct {
		Script  string
		Diagram connection.Sankey
	}{plotlyCDN, d}
	if err := sankeyPage.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write sankey page: %w", err)
	}
	return f.Close()
}
