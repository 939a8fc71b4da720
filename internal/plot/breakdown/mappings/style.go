package mappings

import (
	"loopback-bench/internal/stages"
)

type PlotStyle struct {
	Color       string
	Hex         string
	LineStyle   string
	LineWidth   string
	Mark        string
	MarkOptions string
	Opacity     string
}

// StageStyles gives every stage kind a fixed color so the same component
// looks the same in the RX and TX figures.
var StageStyles = map[stages.Kind]PlotStyle{
	stages.Queue:         {Color: "tabblue", Hex: "1f77b4", LineWidth: "thin", Opacity: "0.85"},
	stages.StreamBuf:     {Color: "taborange", Hex: "ff7f0e", LineWidth: "thin", Opacity: "0.85"},
	stages.WaitHost:      {Color: "tabgreen", Hex: "2ca02c", LineWidth: "thin", Opacity: "0.85"},
	stages.IssueCmd:      {Color: "tabred", Hex: "d62728", LineWidth: "thin", Opacity: "0.85"},
	stages.ReadPacket:    {Color: "tabpurple", Hex: "9467bd", LineWidth: "thin", Opacity: "0.85"},
	stages.ProcessCommit: {Color: "tabbrown", Hex: "8c564b", LineWidth: "thin", Opacity: "0.85"},
	stages.WritePacket:   {Color: "tabpink", Hex: "e377c2", LineWidth: "thin", Opacity: "0.85"},
}

var totalStyles = map[stages.Direction]PlotStyle{
	stages.RX: {Color: "tabblue", Hex: "1f77b4", LineStyle: "solid", LineWidth: "thick", Mark: "*", MarkOptions: "scale=0.6,fill=tabblue"},
	stages.TX: {Color: "tabred", Hex: "d62728", LineStyle: "densely dashed", LineWidth: "thick", Mark: "square*", MarkOptions: "scale=0.5,fill=tabred"},
}

var fallbackStyle = PlotStyle{Color: "gray", Hex: "7f7f7f", LineWidth: "thin", Opacity: "0.85"}

// ColorDefinitions lists the \definecolor lines the styles refer to.
var ColorDefinitions = []string{
	`\definecolor{tabblue}{HTML}{1F77B4}`,
	`\definecolor{taborange}{HTML}{FF7F0E}`,
	`\definecolor{tabgreen}{HTML}{2CA02C}`,
	`\definecolor{tabred}{HTML}{D62728}`,
	`\definecolor{tabpurple}{HTML}{9467BD}`,
	`\definecolor{tabbrown}{HTML}{8C564B}`,
	`\definecolor{tabpink}{HTML}{E377C2}`,
}

func GetStageStyle(stage stages.Stage) PlotStyle {
	if stage.Summary() {
		if s, ok := totalStyles[stage.Direction]; ok {
			return s
		}
	}
	if s, ok := StageStyles[stage.Kind]; ok {
		return s
	}
	return fallbackStyle
}

// ToTikzAreaOptions styles a filled area.
func (ps PlotStyle) ToTikzAreaOptions() string {
	options := "fill=" + ps.Color
	if ps.Opacity != "" {
		options += ",fill opacity=" + ps.Opacity
	}
	options += ",draw=" + ps.Color + "!70!black"
	if ps.LineWidth != "" {
		options += "," + ps.LineWidth
	}
	return options
}

func (ps PlotStyle) ToTikzOptions() string {
	options := ps.Color
	if ps.LineStyle != "" {
		options += "," + ps.LineStyle
	}
	if ps.LineWidth != "" {
		options += "," + ps.LineWidth
	}
	if ps.Mark != "none" && ps.Mark != "" {
		options += ",mark=" + ps.Mark
		if ps.MarkOptions != "" {
			options += ",mark options={" + ps.MarkOptions + "}"
		}
	}
	return options
}
