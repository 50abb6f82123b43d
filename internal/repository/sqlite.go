package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	api "github.com/webtech-network/autograder-sub001/internal/gradeapi"
	"github.com/webtech-network/autograder-sub001/pkg/logging"
)

// schema matches §6's persisted state layout: one row per GradingConfig
// version (only one active per assignment), one row per Submission, and one
// row per SubmissionResult keyed by submission id. Structured fields that
// have no natural SQL shape (criteria_config, files, result tree, focus,
// pipeline execution) are stored as JSON text, following the teacher
// pack's JSONB-as-TEXT pattern for sqlite (no native JSON column type).
const schema = `
CREATE TABLE IF NOT EXISTS grading_configs (
	id TEXT PRIMARY KEY,
	external_assignment_id TEXT NOT NULL,
	template_name TEXT NOT NULL,
	supported_languages TEXT NOT NULL,
	criteria_config TEXT NOT NULL,
	setup_config TEXT NOT NULL,
	version INTEGER NOT NULL,
	is_active INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(external_assignment_id, version)
);

CREATE INDEX IF NOT EXISTS idx_grading_configs_active
	ON grading_configs(external_assignment_id, is_active);

CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	external_assignment_id TEXT NOT NULL,
	external_user_id TEXT NOT NULL,
	username TEXT NOT NULL,
	language TEXT NOT NULL,
	files TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS submission_results (
	submission_id TEXT PRIMARY KEY REFERENCES submissions(id),
	final_score REAL NOT NULL,
	result_tree TEXT,
	focus TEXT,
	feedback TEXT,
	degraded_feedback INTEGER NOT NULL,
	pipeline_execution TEXT
);
`

// SQLite is the durable api.Repository backed by database/sql over
// mattn/go-sqlite3, the default embedded store for single-node deployments
// (§6).
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if absent) a sqlite database at path and
// applies the schema. path may be ":memory:" for an ephemeral in-process
// database with SQL semantics (useful where the Memory repository's lack of
// transactional isolation matters in a test).
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite serializes writers; avoid pool contention errors.

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	logging.Info("Repository", "opened sqlite repository at %s", path)
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) SaveConfig(ctx context.Context, cfg *api.GradingConfig) error {
	var maxVersion int
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM grading_configs WHERE external_assignment_id = ?`, cfg.ExternalAssignmentID)
	if err := row.Scan(&maxVersion); err != nil {
		return fmt.Errorf("determining next version: %w", err)
	}
	cfg.Version = maxVersion + 1
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("%s-v%d", cfg.ExternalAssignmentID, cfg.Version)
	}
	now := time.Now()
	cfg.CreatedAt, cfg.UpdatedAt = now, now

	languages, err := json.Marshal(cfg.SupportedLanguages)
	if err != nil {
		return err
	}
	criteria, err := json.Marshal(cfg.CriteriaConfig)
	if err != nil {
		return err
	}
	setup, err := json.Marshal(cfg.SetupConfig)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if cfg.IsActive || maxVersion == 0 {
		cfg.IsActive = true
		if _, err := tx.ExecContext(ctx, `UPDATE grading_configs SET is_active = 0 WHERE external_assignment_id = ?`, cfg.ExternalAssignmentID); err != nil {
			return fmt.Errorf("deactivating prior config versions: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO grading_configs (id, external_assignment_id, template_name, supported_languages, criteria_config, setup_config, version, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID, cfg.ExternalAssignmentID, cfg.TemplateName, string(languages), string(criteria), string(setup), cfg.Version, cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting grading config: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) ActiveConfig(ctx context.Context, externalAssignmentID string) (*api.GradingConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, external_assignment_id, template_name, supported_languages, criteria_config, setup_config, version, is_active, created_at, updated_at
		FROM grading_configs WHERE external_assignment_id = ? AND is_active = 1`, externalAssignmentID)
	return scanConfig(row)
}

func (s *SQLite) ActivateConfig(ctx context.Context, externalAssignmentID string, version int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE grading_configs SET is_active = 0 WHERE external_assignment_id = ?`, externalAssignmentID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE grading_configs SET is_active = 1 WHERE external_assignment_id = ? AND version = ?`, externalAssignmentID, version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.NewGradingError(api.KindConfigMissing, "no such config version", map[string]interface{}{"version": version})
	}
	return tx.Commit()
}

func scanConfig(row *sql.Row) (*api.GradingConfig, error) {
	var cfg api.GradingConfig
	var languages, criteria, setup string
	err := row.Scan(&cfg.ID, &cfg.ExternalAssignmentID, &cfg.TemplateName, &languages, &criteria, &setup, &cfg.Version, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, api.NewGradingError(api.KindConfigMissing, "no active config for "+cfg.ExternalAssignmentID, nil)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(languages), &cfg.SupportedLanguages); err != nil {
		return nil, fmt.Errorf("decoding supported_languages: %w", err)
	}
	if err := json.Unmarshal([]byte(criteria), &cfg.CriteriaConfig); err != nil {
		return nil, fmt.Errorf("decoding criteria_config: %w", err)
	}
	if err := json.Unmarshal([]byte(setup), &cfg.SetupConfig); err != nil {
		return nil, fmt.Errorf("decoding setup_config: %w", err)
	}
	return &cfg, nil
}

func (s *SQLite) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	files, err := json.Marshal(sub.Files)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, external_assignment_id, external_user_id, username, language, files, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		sub.ID, sub.ExternalAssignmentID, sub.ExternalUserID, sub.Username, sub.Language, string(files), sub.Status, sub.CreatedAt, sub.UpdatedAt)
	return err
}

func (s *SQLite) Submission(ctx context.Context, id string) (*api.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, external_assignment_id, external_user_id, username, language, files, status, created_at, updated_at
		FROM submissions WHERE id = ?`, id)

	var sub api.Submission
	var files string
	err := row.Scan(&sub.ID, &sub.ExternalAssignmentID, &sub.ExternalUserID, &sub.Username, &sub.Language, &files, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, api.NewGradingError(api.KindInternalError, "submission not found: "+id, nil)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(files), &sub.Files); err != nil {
		return nil, fmt.Errorf("decoding files: %w", err)
	}
	return &sub, nil
}

func (s *SQLite) UpdateSubmissionStatus(ctx context.Context, id string, status api.SubmissionStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.NewGradingError(api.KindInternalError, "submission not found: "+id, nil)
	}
	return nil
}

func (s *SQLite) SaveResult(ctx context.Context, result *api.SubmissionResult) error {
	tree, err := json.Marshal(result.ResultTree)
	if err != nil {
		return err
	}
	focus, err := json.Marshal(result.Focus)
	if err != nil {
		return err
	}
	var pipelineJSON []byte
	if result.PipelineExecution != nil {
		pipelineJSON, err = json.Marshal(result.PipelineExecution)
		if err != nil {
			return err
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submission_results (submission_id, final_score, result_tree, focus, feedback, degraded_feedback, pipeline_execution)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(submission_id) DO UPDATE SET
			final_score = excluded.final_score,
			result_tree = excluded.result_tree,
			focus = excluded.focus,
			feedback = excluded.feedback,
			degraded_feedback = excluded.degraded_feedback,
			pipeline_execution = excluded.pipeline_execution`,
		result.SubmissionID, result.FinalScore, string(tree), string(focus), result.Feedback, result.DegradedFeedback, string(pipelineJSON))
	return err
}

func (s *SQLite) Result(ctx context.Context, submissionID string) (*api.SubmissionResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT submission_id, final_score, result_tree, focus, feedback, degraded_feedback, pipeline_execution
		FROM submission_results WHERE submission_id = ?`, submissionID)

	var result api.SubmissionResult
	var tree, focus, pipelineJSON sql.NullString
	err := row.Scan(&result.SubmissionID, &result.FinalScore, &tree, &focus, &result.Feedback, &result.DegradedFeedback, &pipelineJSON)
	if err == sql.ErrNoRows {
		return nil, api.NewGradingError(api.KindInternalError, "result not found: "+submissionID, nil)
	}
	if err != nil {
		return nil, err
	}
	if tree.Valid && tree.String != "" {
		result.ResultTree = &api.ResultTree{}
		if err := json.Unmarshal([]byte(tree.String), result.ResultTree); err != nil {
			return nil, fmt.Errorf("decoding result_tree: %w", err)
		}
	}
	if focus.Valid && focus.String != "" {
		result.Focus = &api.Focus{}
		if err := json.Unmarshal([]byte(focus.String), result.Focus); err != nil {
			return nil, fmt.Errorf("decoding focus: %w", err)
		}
	}
	if pipelineJSON.Valid && pipelineJSON.String != "" {
		result.PipelineExecution = &api.PipelineExecution{}
		if err := json.Unmarshal([]byte(pipelineJSON.String), result.PipelineExecution); err != nil {
			return nil, fmt.Errorf("decoding pipeline_execution: %w", err)
		}
	}
	return &result, nil
}

var _ api.Repository = (*SQLite)(nil)
