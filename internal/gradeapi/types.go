package api

import "time"

// SubmissionStatus is the lifecycle state of a Submission (§3).
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionRunning   SubmissionStatus = "running"
	SubmissionCompleted SubmissionStatus = "completed"
	SubmissionFailed    SubmissionStatus = "failed"
	SubmissionCancelled SubmissionStatus = "cancelled"
)

// SubmissionFile is one named file of a submission. Files are carried as a
// slice rather than a bare map so that deterministic iteration order is
// available to callers that want it (e.g. PRE_FLIGHT file-presence logging);
// lookups still go through Submission.File.
type SubmissionFile struct {
	Name    string
	Content []byte
}

// Submission is the unit of work accepted by the coordinator (§3).
type Submission struct {
	ID                  string
	ExternalAssignmentID string
	ExternalUserID      string
	Username            string
	Language            string
	Files               []SubmissionFile
	Status              SubmissionStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// File returns the content of the named file, if present.
func (s *Submission) File(name string) ([]byte, bool) {
	for _, f := range s.Files {
		if f.Name == name {
			return f.Content, true
		}
	}
	return nil, false
}

// FileNames returns the declared filenames of the submission, in submission order.
func (s *Submission) FileNames() []string {
	names := make([]string, len(s.Files))
	for i, f := range s.Files {
		names[i] = f.Name
	}
	return names
}

// GradingConfig is the rubric bound to an assignment (§3).
type GradingConfig struct {
	ID                    string
	ExternalAssignmentID  string
	TemplateName          string
	SupportedLanguages    []string
	CriteriaConfig        map[string]interface{}
	SetupConfig           map[string]interface{}
	Version               int
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsMultiLanguage reports whether this config declares more than one
// supported language, which governs how program_command parameters and
// setup_config are resolved (§4.2, §6).
func (c *GradingConfig) IsMultiLanguage() bool {
	return len(c.SupportedLanguages) > 1
}

// TestStatus is the outcome of a single executed test (§3).
type TestStatus string

const (
	TestPass    TestStatus = "PASS"
	TestPartial TestStatus = "PARTIAL"
	TestFail    TestStatus = "FAIL"
	TestError   TestStatus = "ERROR"
)

// TestParameter is one (name, value) pair of a test's declared parameters.
// Order is preserved end to end so tests can be invoked positionally (§3).
type TestParameter struct {
	Name  string
	Value interface{}
}

// Telemetry carries optional per-test execution detail (§3).
type Telemetry struct {
	Stdout   string
	Stderr   string
	ExitCode int
}
