package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/teampulse/internal/domain/model"
	"github.com/okian/teampulse/pkg/metrics"

	_ "modernc.org/sqlite"
)

const (
	memoryDSN  = ":memory:"
	timeLayout = time.RFC3339Nano
)

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
// ":memory:" keeps everything on a single in-memory connection.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == memoryDSN {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLiteStore{db: db, opts: o}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutGroup(ctx context.Context, g model.GroupDescriptor) error {
	defer observe("put_group", time.Now())
	members, err := json.Marshal(g.Members)
	if err != nil {
		return fmt.Errorf("encoding members: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO project_groups (id, name, project, members, deadline, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, project = excluded.project, members = excluded.members,
			deadline = excluded.deadline, status = excluded.status`,
		g.ID, g.Name, g.Project, string(members), formatOptionalTime(g.Deadline), string(g.Status))
	if err != nil {
		return fmt.Errorf("storing group %s: %w", g.ID, err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_groups`).Scan(&n); err == nil {
		metrics.UpdateGroupsTotal(n)
	}
	return nil
}

const groupColumns = `id, name, project, members, deadline, status`

func scanGroup(row interface{ Scan(...any) error }) (model.GroupDescriptor, error) {
	var (
		g        model.GroupDescriptor
		members  string
		deadline sql.NullString
		status   string
	)
	if err := row.Scan(&g.ID, &g.Name, &g.Project, &members, &deadline, &status); err != nil {
		return model.GroupDescriptor{}, err
	}
	if err := json.Unmarshal([]byte(members), &g.Members); err != nil {
		return model.GroupDescriptor{}, fmt.Errorf("decoding members of %s: %w", g.ID, err)
	}
	if deadline.Valid && deadline.String != "" {
		t, err := time.Parse(timeLayout, deadline.String)
		if err != nil {
			return model.GroupDescriptor{}, fmt.Errorf("parsing deadline of %s: %w", g.ID, err)
		}
		g.Deadline = t
	}
	g.Status = model.GroupStatus(status)
	return g, nil
}

func (s *SQLiteStore) Group(ctx context.Context, id string) (model.GroupDescriptor, error) {
	defer observe("group", time.Now())
	g, err := scanGroup(s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM project_groups WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.GroupDescriptor{}, fmt.Errorf("%w: group %s", ErrNotFound, id)
	}
	if err != nil {
		return model.GroupDescriptor{}, fmt.Errorf("loading group %s: %w", id, err)
	}
	return g, nil
}

func (s *SQLiteStore) Groups(ctx context.Context) ([]model.GroupDescriptor, error) {
	defer observe("groups", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM project_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var out []model.GroupDescriptor
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GroupForStudent(ctx context.Context, studentID string) (model.GroupDescriptor, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return model.GroupDescriptor{}, err
	}
	for _, g := range groups {
		if g.HasMember(studentID) {
			return g, nil
		}
	}
	return model.GroupDescriptor{}, fmt.Errorf("%w: no group for student %s", ErrNotFound, studentID)
}

func (s *SQLiteStore) PutStudent(ctx context.Context, st model.Student) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		st.ID, st.Name, st.Email)
	if err != nil {
		return fmt.Errorf("storing student %s: %w", st.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Student(ctx context.Context, id string) (model.Student, error) {
	var st model.Student
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email FROM students WHERE id = ?`, id).
		Scan(&st.ID, &st.Name, &st.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Student{}, fmt.Errorf("%w: student %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Student{}, fmt.Errorf("loading student %s: %w", id, err)
	}
	return st, nil
}

func (s *SQLiteStore) AddContribution(ctx context.Context, c model.ContributionRecord) error {
	defer observe("add_contribution", time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contributions (id, student_id, group_id, task, action, hours, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.StudentID, c.GroupID, c.Task, c.Action, c.Hours, c.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: contribution %s", ErrConflict, c.ID)
		}
		return fmt.Errorf("storing contribution %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveContribution(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contributions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing contribution %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: contribution %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Contributions(ctx context.Context, f ContributionFilter) ([]model.ContributionRecord, error) {
	defer observe("contributions", time.Now())
	query := `SELECT id, student_id, group_id, task, action, hours, timestamp FROM contributions WHERE 1 = 1`
	var args []any
	if f.GroupID != "" {
		query += ` AND group_id = ?`
		args = append(args, f.GroupID)
	}
	if f.StudentID != "" {
		query += ` AND student_id = ?`
		args = append(args, f.StudentID)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	defer rows.Close()

	var out []model.ContributionRecord
	for rows.Next() {
		var (
			c  model.ContributionRecord
			ts string
		)
		if err := rows.Scan(&c.ID, &c.StudentID, &c.GroupID, &c.Task, &c.Action, &c.Hours, &ts); err != nil {
			return nil, fmt.Errorf("scanning contribution: %w", err)
		}
		if c.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp of %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddMilestone(ctx context.Context, m model.MilestoneRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO milestones (id, group_id, name, description, due_date, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.Name, m.Description, m.DueDate.UTC().Format(timeLayout), string(m.Status))
	if err != nil {
		return fmt.Errorf("storing milestone %s: %w", m.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Milestones(ctx context.Context, groupID string) ([]model.MilestoneRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, name, description, due_date, status
		FROM milestones WHERE group_id = ? ORDER BY seq`, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	defer rows.Close()

	var out []model.MilestoneRecord
	for rows.Next() {
		var (
			m           model.MilestoneRecord
			due, status string
		)
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Name, &m.Description, &due, &status); err != nil {
			return nil, fmt.Errorf("scanning milestone: %w", err)
		}
		if m.DueDate, err = time.Parse(timeLayout, due); err != nil {
			return nil, fmt.Errorf("parsing due date of %s: %w", m.Name, err)
		}
		m.Status = model.MilestoneStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddCommunication(ctx context.Context, c model.CommunicationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO communications (id, group_id, sender, recipient, message, tone, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GroupID, c.Sender, c.Recipient, c.Message, string(c.Tone), c.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("storing communication: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Communications(ctx context.Context, groupID string) ([]model.CommunicationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, sender, recipient, message, tone, timestamp
		FROM communications WHERE group_id = ? ORDER BY seq`, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing communications: %w", err)
	}
	defer rows.Close()

	var out []model.CommunicationRecord
	for rows.Next() {
		var (
			c        model.CommunicationRecord
			tone, ts string
		)
		if err := rows.Scan(&c.ID, &c.GroupID, &c.Sender, &c.Recipient, &c.Message, &tone, &ts); err != nil {
			return nil, fmt.Errorf("scanning communication: %w", err)
		}
		if c.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp of communication %s: %w", c.ID, err)
		}
		c.Tone = model.Tone(tone)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveHealthSnapshot(ctx context.Context, snap model.HealthSnapshot) error {
	defer observe("save_snapshot", time.Now())
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO health_snapshots
			(id, group_id, health_score, status, high_alerts, medium_alerts, participation_rate, total_hours, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.GroupID, snap.HealthScore, string(snap.Status), snap.HighAlerts, snap.MediumAlerts,
		snap.ParticipationRate, snap.TotalHours, snap.RecordedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("storing snapshot for %s: %w", snap.GroupID, err)
	}
	if limit := s.opts.historyLimit; limit > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM health_snapshots WHERE group_id = ? AND seq NOT IN (
				SELECT seq FROM health_snapshots WHERE group_id = ? ORDER BY seq DESC LIMIT ?)`,
			snap.GroupID, snap.GroupID, limit); err != nil {
			return fmt.Errorf("pruning snapshots for %s: %w", snap.GroupID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	metrics.RecordSnapshotSaved()
	return nil
}

func (s *SQLiteStore) HealthHistory(ctx context.Context, groupID string, limit int) ([]model.HealthSnapshot, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	sqlLimit := limit
	if sqlLimit == 0 {
		sqlLimit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, health_score, status, high_alerts, medium_alerts, participation_rate, total_hours, recorded_at
		FROM health_snapshots WHERE group_id = ? ORDER BY seq DESC LIMIT ?`, groupID, sqlLimit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	out := []model.HealthSnapshot{}
	for rows.Next() {
		var (
			h          model.HealthSnapshot
			status, at string
		)
		if err := rows.Scan(&h.ID, &h.GroupID, &h.HealthScore, &status, &h.HighAlerts, &h.MediumAlerts,
			&h.ParticipationRate, &h.TotalHours, &at); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if h.RecordedAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parsing snapshot time: %w", err)
		}
		h.Status = model.GroupStatus(status)
		out = append(out, h)
	}
	return out, rows.Err()
}

func formatOptionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
