package templates

const header = `% Generated on {{.GeneratedDate}}
%
% Experiment: {{.Experiment}} ({{.Variant}})
% Checksum: {{.Checksum}}
% Baseline round trip: {{.BaselineSummary}} ({{.BaselineSamples}} samples)
% Trials: {{.Trials}}
%
{{range .ColorDefinitions}}{{.}}
{{end}}`

// BreakdownTemplate draws cumulative stage areas from the top layer down,
// so each lower layer covers the one above it, and overlays the error bars
// of every layer at its cumulative height.
const BreakdownTemplate = header + `\begin{tikzpicture}
	\begin{axis}[
		% title={ {{.Title}} },
		xlabel={ {{.XLabel}} },
		ylabel={ {{.YLabel}} },
		width=\textwidth,
		height=0.83\textwidth,
		xmin={{.XMin}}, xmax={{.XMax}},
		ymin={{.YMin}}, ymax={{.YMax}},
		xtick={ {{.XTicks}} },
		ymajorgrids,
		xmajorgrids,
		grid style=dashed,
		reverse legend,
		legend pos=north west,
		legend cell align=left,
	]

{{range .Areas}}
% stage: {{.Stage}}
\addplot[{{.Style}}]
  coordinates {
{{range .Coordinates}}    {{.}}
{{end}}  } \closedcycle;
\addlegendentry{ {{.LegendEntry}} }
{{end}}
{{range .ErrorBars}}
% error bars: {{.Stage}}
\addplot[black, only marks, mark=none, forget plot, error bars/.cd, y dir=both, y explicit]
  coordinates {
{{range .Coordinates}}    {{.}}
{{end}}  };
{{end}}
	\end{axis}
\end{tikzpicture}
`

// TotalsTemplate plots summary stages as lines with error bars.
const TotalsTemplate = header + `\begin{tikzpicture}
	\begin{axis}[
		% title={ {{.Title}} },
		xlabel={ {{.XLabel}} },
		ylabel={ {{.YLabel}} },
		width=\textwidth,
		height=0.83\textwidth,
		xmin={{.XMin}}, xmax={{.XMax}},
		ymin={{.YMin}}, ymax={{.YMax}},
		xtick={ {{.XTicks}} },
		ymajorgrids,
		grid style=dashed,
		legend pos=north west,
	]

{{range .Lines}}
% stage: {{.Stage}}
\addplot+[{{.Style}}, error bars/.cd, y dir=both, y explicit]
  coordinates {
{{range .Coordinates}}    {{.}}
{{end}}  };
\addlegendentry{ {{.LegendEntry}} }
{{end}}
	\end{axis}
\end{tikzpicture}
`

type PlotData struct {
	GeneratedDate    string
	Experiment       string
	Variant          string
	Checksum         string
	BaselineSummary  string
	BaselineSamples  int
	Trials           int
	ColorDefinitions []string
	Title            string
	XLabel           string
	YLabel           string
	XMin             string
	XMax             string
	YMin             string
	YMax             string
	XTicks           string
	Areas            []PlotSeries
	ErrorBars        []PlotSeries
	Lines            []PlotSeries
}

type PlotSeries struct {
	Stage       string
	Style       string
	LegendEntry string
	Coordinates []string
}
