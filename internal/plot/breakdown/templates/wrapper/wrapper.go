package templates

const WrapperTemplate = `% Generated on {{.GeneratedDate}}
% Experiment: {{.Experiment}}
% Direction: {{.Direction}}
\begin{center}
    \begin{figure}[H]
    \centering
    \resizebox{1\linewidth}{!}{\input{./{{.PlotFileName}} }}
    \caption[{{.ShortCaption}}]{ {{.Caption}} }
    \label{fig:{{.Experiment}}-{{.Direction}}-{{.Kind}}}
    \end{figure}
\end{center}
`

type WrapperData struct {
	GeneratedDate string
	Experiment    string
	Direction     string
	Kind          string
	PlotFileName  string
	ShortCaption  string
	Caption       string
}
