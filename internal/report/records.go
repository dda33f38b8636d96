package report

import "time"

// Action names the kind of run a record describes.
type Action string

const (
	ActionWatermark    Action = "watermark"
	ActionDeletion     Action = "deletion_attack"
	ActionModification Action = "modification_attack"
	ActionInsertion    Action = "insertion_attack"
	ActionFastDeletion Action = "deletion_attack_fast"
)

// Header holds the fields shared by every record.
type Header struct {
	Action    Action    `json:"action"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	// Duration is the wall time of the run in seconds.
	Duration float64 `json:"duration"`

	// Error is set when the run ended on a store or configuration failure.
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Head returns the shared header. Every record type embeds Header.
func (h *Header) Head() *Header { return h }

// Fail marks the record as failed with err.
func (h *Header) Fail(err error) {
	if err == nil {
		return
	}
	h.Error = true
	h.ErrorMessage = err.Error()
}

// Record is any results log entry.
type Record interface {
	Head() *Header
}

// WatermarkSummary describes one injection run.
type WatermarkSummary struct {
	Header
	DocumentsIntroduced int    `json:"documents_introduced"`
	Groups              int    `json:"groups"`
	EdgesCreated        int    `json:"edges_created"`
	NodesBefore         int    `json:"nodes_before"`
	NodesAfter          int    `json:"nodes_after"`
	MinGroupSize        int    `json:"min_group_size"`
	MaxGroupSize        int    `json:"max_group_size"`
	DocType             string `json:"doc_type"`
	Visible             bool   `json:"visible"`
}

// DeletionSummary describes one deletion attack.
type DeletionSummary struct {
	Header
	BatchSize            int    `json:"batch_size"`
	Iterations           int    `json:"iterations"`
	NodesBefore          int    `json:"nodes_before"`
	NodesAfter           int    `json:"nodes_after"`
	NodesDeleted         int    `json:"nodes_deleted"`
	NumWatermarkedNodes  int    `json:"num_watermarked_nodes"`
	WatermarkedNodesLeft int    `json:"watermarked_nodes_left"`
	State                string `json:"state"`
}

// ModificationSummary describes one modification attack.
type ModificationSummary struct {
	Header
	BatchSize           int    `json:"batch_size"`
	Iterations          int    `json:"iterations"`
	FieldsDeleted       int    `json:"fields_deleted"`
	NodesBefore         int    `json:"nodes_before"`
	NodesAfter          int    `json:"nodes_after"`
	NumWatermarkedNodes int    `json:"num_watermarked_nodes"`
	State               string `json:"state"`
}

// InsertionSummary describes one insertion attack.
type InsertionSummary struct {
	Header
	RecordsInserted     int `json:"records_inserted"`
	EdgesCreated        int `json:"edges_created"`
	NodesBefore         int `json:"nodes_before"`
	NodesAfter          int `json:"nodes_after"`
	NumWatermarkedNodes int `json:"num_watermarked_nodes"`
}

// FastDeletionSummary describes one simulated deletion estimate.
// Overlaps[i] holds one overlap count per iteration for Percentages[i].
type FastDeletionSummary struct {
	Header
	Percentages         []float64 `json:"percentages"`
	Iterations          int       `json:"iterations"`
	NodesTotal          int       `json:"nodes_total"`
	NumWatermarkedNodes int       `json:"num_watermarked_nodes"`
	Overlaps            [][]int   `json:"overlaps"`
	AverageOverlaps     []float64 `json:"average_overlaps"`
}
