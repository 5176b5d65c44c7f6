package model

const (
	ModelSourceBuiltin = "builtin"
	ModelSourceCodex   = "codex"
)

type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
}

type ModelList struct {
	Models []ModelInfo `json:"models"`
	Source string      `json:"source,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type RecommendRequest struct {
	Message    string   `json:"message"`
	Candidates []string `json:"candidates"`
}

type Recommendation struct {
	Recommended *string `json:"recommended"`
	Reason      string  `json:"reason"`
}
