package stages

// Checkpoint is a named instant in the loopback pipeline at which the NIC
// snapshots its cycle counter.
type Checkpoint int

const (
	Acquire Checkpoint = iota
	HostGotTxBuf
	AfterTxCommit
	AfterDMARead
	Exit
	Entry
	AfterRxQueue
	AfterDMAWrite
	ReadStart
	AfterRead
	HostReadComplete
	AfterRxCommit
)

// Checkpoints lists every checkpoint in loopback.csv column order.
var Checkpoints = []Checkpoint{
	Acquire,
	AfterTxCommit,
	AfterDMARead,
	Exit,
	HostGotTxBuf,
	Entry,
	AfterRxQueue,
	AfterDMAWrite,
	ReadStart,
	AfterRead,
	AfterRxCommit,
	HostReadComplete,
}

var checkpointNames = map[Checkpoint]string{
	Acquire:          "acquire",
	HostGotTxBuf:     "host_got_tx_buf",
	AfterTxCommit:    "after_tx_commit",
	AfterDMARead:     "after_dma_read",
	Exit:             "exit",
	Entry:            "entry",
	AfterRxQueue:     "after_rx_queue",
	AfterDMAWrite:    "after_dma_write",
	ReadStart:        "read_start",
	AfterRead:        "after_read",
	HostReadComplete: "host_read_complete",
	AfterRxCommit:    "after_rx_commit",
}

const (
	CycleSuffix = "_cyc"
	SizeColumn  = "size"
)

func (c Checkpoint) String() string {
	return checkpointNames[c]
}

// Column is the CSV header for the checkpoint.
func (c Checkpoint) Column() string {
	return checkpointNames[c] + CycleSuffix
}

// RequiredFields is the populated field count of a complete loopback row.
func RequiredFields() int {
	return len(Checkpoints) + 1
}

// RawTrial is one packet transfer: payload size and checkpoint cycle counts.
type RawTrial struct {
	Size   int                  `json:"size"`
	Cycles map[Checkpoint]int64 `json:"-"`
	// Line is the source line, 0 when the trial was built in memory.
	Line int `json:"line,omitempty"`
}
