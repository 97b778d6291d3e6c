package domain

import "time"

// StepOp names a journaled navigation primitive.
type StepOp string

const (
	StepOutput StepOp = "output"
	StepInput  StepOp = "input"
	StepBack   StepOp = "back"
)

// Step is one state-changing navigation call.
type Step struct {
	Op    StepOp `json:"op"`
	Value string `json:"value,omitempty"`
}

// Snapshot is the durable form of a session.
// Restoring a session builds a fresh tree from Entry and replays Journal.
// Sealed holds an encrypted snapshot; its Journal is then empty.
type Snapshot struct {
	ID        string    `json:"id"`
	Entry     string    `json:"entry"`
	Journal   []Step    `json:"journal"`
	Submitted bool      `json:"submitted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Sealed    string    `json:"sealed,omitempty"`
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Journal = append([]Step(nil), s.Journal...)
	return &out
}
