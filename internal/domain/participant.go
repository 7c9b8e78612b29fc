package domain

// ParticipantInfo is a read-only view of one session member.
// Identity is unique per session.
type ParticipantInfo struct {
	Identity string `json:"identity"`
	Name     string `json:"name,omitempty"`
	Metadata string `json:"metadata,omitempty"`
	IsLocal  bool   `json:"isLocal"`
}
