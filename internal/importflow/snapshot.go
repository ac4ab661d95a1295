package importflow

import "github.com/xxxsen/importdash/internal/model"

// Snapshot is the read model of a run as served to the dashboard.
type Snapshot struct {
	ID          string               `json:"id"`
	Step        Step                 `json:"step"`
	Busy        bool                 `json:"busy"`
	CanPreview  bool                 `json:"can_preview"`
	CanCommit   bool                 `json:"can_commit"`
	HeaderFile  *model.FileRef       `json:"header_file"`
	ItemsFile   *model.FileRef       `json:"items_file"`
	ImportedBy  string               `json:"imported_by"`
	ForceRun    bool                 `json:"force_run"`
	Preview     *model.PreviewResult `json:"preview"`
	IssueCounts map[string]int       `json:"issue_counts,omitempty"`
	Result      *model.UploadResult  `json:"result"`
	Error       string               `json:"error,omitempty"`
}

func NewSnapshot(id string, r Run) Snapshot {
	s := Snapshot{
		ID:         id,
		Step:       r.Step(),
		Busy:       r.Busy(),
		CanPreview: r.CanPreview(),
		CanCommit:  r.CanCommit(),
		HeaderFile: r.Header,
		ItemsFile:  r.Items,
		ImportedBy: r.ImportedBy,
		ForceRun:   r.ForceRun(),
		Preview:    r.Preview(),
		Result:     r.Result(),
		Error:      r.Err,
	}
	if s.Preview != nil && len(s.Preview.Issues) > 0 {
		s.IssueCounts = s.Preview.IssueCounts()
	}
	return s
}
