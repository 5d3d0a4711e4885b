package models

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job is one asynchronous attempt to transform, render and distribute a
// single document. Once a job leaves processing, exactly one of Artifact
// or Error is set.
type Job struct {
	ID           string    `json:"jobId" firestore:"jobId"`
	Status       JobStatus `json:"status" firestore:"status"`
	Progress     int       `json:"progress" firestore:"progress"`
	Phase        string    `json:"phase,omitempty" firestore:"phase"`
	Message      string    `json:"message,omitempty" firestore:"message"`
	DocumentType string    `json:"documentType,omitempty" firestore:"documentType"`
	Artifact     *Artifact `json:"artifact,omitempty" firestore:"artifact"`
	Error        string    `json:"error,omitempty" firestore:"error"`
	RetryCount   int       `json:"retryCount" firestore:"retryCount"`
	CreatedAt    string    `json:"createdAt" firestore:"createdAt"`
	CompletedAt  string    `json:"completedAt,omitempty" firestore:"completedAt"`
	FailedAt     string    `json:"failedAt,omitempty" firestore:"failedAt"`
}

// Terminal reports whether the job has left the processing state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone returns a deep copy so registry readers never share mutable state
// with the orchestration goroutine.
func (j *Job) Clone() *Job {
	c := *j
	if j.Artifact != nil {
		c.Artifact = j.Artifact.Clone()
	}
	return &c
}
