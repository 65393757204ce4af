package models

// Label represents a task label. A nil ProjectID marks a label shared by
// every project.
type Label struct {
	ProjectID *string `json:"projectId"`
	ID        string  `json:"id"`
	Name      string  `json:"name"`
}

// Shared reports whether the label belongs to no single project.
func (l Label) Shared() bool {
	return l.ProjectID == nil
}
