package stages

import (
	"fmt"
	"strings"
)

// Direction of a packet transfer through the loopback path.
type Direction int

const (
	RX Direction = iota
	TX
)

var Directions = []Direction{RX, TX}

func (d Direction) String() string {
	switch d {
	case RX:
		return "rx"
	case TX:
		return "tx"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rx":
		return RX, nil
	case "tx":
		return TX, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want rx or tx)", s)
	}
}

// Kind is the attributable phase of a stage, independent of direction.
type Kind int

const (
	Queue Kind = iota
	StreamBuf
	WaitHost
	IssueCmd
	ReadPacket
	ProcessCommit
	WritePacket
	Total
)

var kindLabels = map[Kind]string{
	Queue:         "queue",
	StreamBuf:     "stream buf",
	WaitHost:      "wait host",
	IssueCmd:      "issue cmd",
	ReadPacket:    "read packet",
	ProcessCommit: "process commit",
	WritePacket:   "write packet",
	Total:         "total",
}

func (k Kind) String() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Stage identifies one latency component.
type Stage struct {
	Direction Direction
	Kind      Kind
}

// String gives the combined name, e.g. "rx queue".
func (s Stage) String() string {
	return s.Direction.String() + " " + s.Kind.String()
}

// Label is the display name within a direction's plot.
func (s Stage) Label() string {
	return s.Kind.String()
}

// Summary stages span the whole path and are kept out of stacked views.
func (s Stage) Summary() bool {
	return s.Kind == Total
}

// Intermittent stages are only emitted for some trials of a size.
func (s Stage) Intermittent() bool {
	return s.Kind == WaitHost
}

// Stacked reports whether the stage belongs in an additive breakdown.
func (s Stage) Stacked() bool {
	return !s.Summary() && !s.Intermittent()
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseStage(name string) (Stage, error) {
	dir, rest, ok := strings.Cut(strings.TrimSpace(name), " ")
	if !ok {
		return Stage{}, fmt.Errorf("invalid stage name %q", name)
	}
	d, err := ParseDirection(dir)
	if err != nil {
		return Stage{}, err
	}
	for k, l := range kindLabels {
		if l == rest {
			return Stage{Direction: d, Kind: k}, nil
		}
	}
	return Stage{}, fmt.Errorf("invalid stage kind %q", rest)
}
