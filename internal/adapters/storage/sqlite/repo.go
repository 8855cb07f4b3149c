package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// tsLayout is fixed width so stored timestamps compare lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// pragmas are applied to every pooled connection through the DSN.
const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Repository implements app.Store on SQLite.
type Repository struct {
	db *sql.DB
}

var _ app.Store = (*Repository)(nil)

// Open opens (and migrates) the database file at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:csrpulse-%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// A shared-cache memory database disappears with its last connection.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema when missing.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS departments (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			code TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stakeholder_categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS programs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			department_id TEXT NOT NULL REFERENCES departments(id),
			category_id TEXT NOT NULL DEFAULT '',
			target_beneficiaries INTEGER NOT NULL DEFAULT 0,
			start_date TEXT,
			end_date TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			program_id TEXT NOT NULL REFERENCES programs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			progress REAL NOT NULL DEFAULT 0,
			budget TEXT NOT NULL DEFAULT '0',
			actual_cost TEXT NOT NULL DEFAULT '0',
			start_date TEXT,
			end_date TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			participants INTEGER NOT NULL DEFAULT 0,
			progress REAL NOT NULL DEFAULT 0,
			budget TEXT NOT NULL DEFAULT '0',
			actual_cost TEXT NOT NULL DEFAULT '0',
			location TEXT NOT NULL DEFAULT '',
			start_date TEXT,
			end_date TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id TEXT PRIMARY KEY,
			department_id TEXT NOT NULL REFERENCES departments(id),
			program_id TEXT NOT NULL DEFAULT '',
			project_id TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL DEFAULT '0',
			spent_amount TEXT NOT NULL DEFAULT '0',
			status TEXT NOT NULL,
			period TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL DEFAULT 'IDR',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stakeholders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			category_id TEXT NOT NULL DEFAULT '',
			importance TEXT NOT NULL DEFAULT '',
			influence TEXT NOT NULL DEFAULT '',
			relationship TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS program_stakeholders (
			program_id TEXT NOT NULL REFERENCES programs(id) ON DELETE CASCADE,
			stakeholder_id TEXT NOT NULL REFERENCES stakeholders(id) ON DELETE CASCADE,
			PRIMARY KEY (program_id, stakeholder_id)
		);`,
		`CREATE TABLE IF NOT EXISTS activity_stakeholders (
			activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			stakeholder_id TEXT NOT NULL REFERENCES stakeholders(id) ON DELETE CASCADE,
			PRIMARY KEY (activity_id, stakeholder_id)
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			period TEXT NOT NULL,
			period_label TEXT NOT NULL DEFAULT '',
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			program_id TEXT NOT NULL DEFAULT '',
			department_id TEXT NOT NULL DEFAULT '',
			template TEXT NOT NULL DEFAULT '',
			tags_json TEXT NOT NULL DEFAULT '[]',
			content_json TEXT NOT NULL DEFAULT '{}',
			metrics_json TEXT NOT NULL DEFAULT '{}',
			version INTEGER NOT NULL DEFAULT 1,
			view_count INTEGER NOT NULL DEFAULT 0,
			download_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			submitted_at TEXT,
			reviewed_at TEXT,
			approved_at TEXT,
			published_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS report_metrics (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			report_version INTEGER NOT NULL,
			total_budget REAL NOT NULL,
			budget_used REAL NOT NULL,
			budget_remaining REAL NOT NULL,
			budget_percentage REAL NOT NULL,
			total_programs INTEGER NOT NULL,
			active_programs INTEGER NOT NULL,
			completed_programs INTEGER NOT NULL,
			program_completion_rate REAL NOT NULL,
			total_activities INTEGER NOT NULL,
			completed_activities INTEGER NOT NULL,
			ongoing_activities INTEGER NOT NULL,
			activity_completion_rate REAL NOT NULL,
			total_stakeholders INTEGER NOT NULL,
			total_beneficiaries INTEGER NOT NULL,
			average_satisfaction REAL NOT NULL,
			social_impact REAL NOT NULL,
			environmental_impact REAL NOT NULL,
			economic_impact REAL NOT NULL,
			overall_impact REAL NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_programs_department ON programs(department_id);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_program ON projects(program_id);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_project ON activities(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_department ON budgets(department_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_report_metrics_report ON report_metrics(report_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// UpsertDepartment inserts or replaces a department.
func (r *Repository) UpsertDepartment(ctx context.Context, d domain.Department) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO departments(id, name, code, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, code = excluded.code
	`, d.ID, d.Name, d.Code, ts(d.CreatedAt))
	return err
}

// ListDepartments lists departments by id.
func (r *Repository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, code, created_at FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Department{}
	for rows.Next() {
		var (
			d          domain.Department
			createdRaw string
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &createdRaw); err != nil {
			return nil, err
		}
		d.CreatedAt = parseTS(createdRaw)
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpsertCategory inserts or replaces a program category.
func (r *Repository) UpsertCategory(ctx context.Context, c domain.Category) error {
	return r.upsertNamed(ctx, "categories", c.ID, c.Name, c.CreatedAt)
}

// ListCategories lists program categories by id.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.listNamed(ctx, "categories", func(id, name string, created time.Time) {
		out = append(out, domain.Category{ID: id, Name: name, CreatedAt: created})
	})
	return out, err
}

// UpsertStakeholderCategory inserts or replaces a stakeholder category.
func (r *Repository) UpsertStakeholderCategory(ctx context.Context, c domain.StakeholderCategory) error {
	return r.upsertNamed(ctx, "stakeholder_categories", c.ID, c.Name, c.CreatedAt)
}

// ListStakeholderCategories lists stakeholder categories by id.
func (r *Repository) ListStakeholderCategories(ctx context.Context) ([]domain.StakeholderCategory, error) {
	out := []domain.StakeholderCategory{}
	err := r.listNamed(ctx, "stakeholder_categories", func(id, name string, created time.Time) {
		out = append(out, domain.StakeholderCategory{ID: id, Name: name, CreatedAt: created})
	})
	return out, err
}

// upsertNamed writes an id/name lookup row. table is always a package constant.
func (r *Repository) upsertNamed(ctx context.Context, table, id, name string, created time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO `+table+`(id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, id, name, ts(created))
	return err
}

func (r *Repository) listNamed(ctx context.Context, table string, fn func(id, name string, created time.Time)) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM `+table+` ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name, createdRaw string
		if err := rows.Scan(&id, &name, &createdRaw); err != nil {
			return err
		}
		fn(id, name, parseTS(createdRaw))
	}
	return rows.Err()
}

// UpsertProgram writes a program and replaces its stakeholder links.
func (r *Repository) UpsertProgram(ctx context.Context, p domain.Program) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO programs(id, name, description, status, department_id, category_id, target_beneficiaries, start_date, end_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				status = excluded.status,
				department_id = excluded.department_id,
				category_id = excluded.category_id,
				target_beneficiaries = excluded.target_beneficiaries,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				updated_at = excluded.updated_at
		`, p.ID, p.Name, p.Description, string(p.Status), p.DepartmentID, p.CategoryID, p.TargetBeneficiaries,
			nullableTS(p.StartDate), nullableTS(p.EndDate), ts(p.CreatedAt), ts(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upsert program %q: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM program_stakeholders WHERE program_id = ?`, p.ID); err != nil {
			return err
		}
		for _, sid := range p.StakeholderIDs {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO program_stakeholders(program_id, stakeholder_id) VALUES (?, ?)`, p.ID, sid); err != nil {
				return fmt.Errorf("link program %q to stakeholder %q: %w", p.ID, sid, err)
			}
		}
		return nil
	})
}

// ListPrograms lists programs matching filter, oldest first.
func (r *Repository) ListPrograms(ctx context.Context, filter domain.RecordFilter) ([]domain.Program, error) {
	var w where
	switch scope := filter.Scope.Normalize(); {
	case scope.IsProgram():
		w.add("p.id = ?", scope.ProgramID)
	case scope.IsDepartment():
		w.add("p.department_id = ?", scope.DepartmentID)
	}
	w.window("p.created_at", filter.Window)

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.status, p.department_id, COALESCE(d.name, ''), p.category_id, COALESCE(c.name, ''),
			p.target_beneficiaries, p.start_date, p.end_date, p.created_at, p.updated_at
		FROM programs p
		LEFT JOIN departments d ON d.id = p.department_id
		LEFT JOIN categories c ON c.id = p.category_id
	`+w.String()+` ORDER BY p.created_at, p.id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Program{}
	for rows.Next() {
		var (
			p          domain.Program
			status     string
			startRaw   sql.NullString
			endRaw     sql.NullString
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &status, &p.DepartmentID, &p.DepartmentName, &p.CategoryID, &p.CategoryName,
			&p.TargetBeneficiaries, &startRaw, &endRaw, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		p.Status = domain.ProgramStatus(status)
		p.StartDate = parseNullTS(startRaw)
		p.EndDate = parseNullTS(endRaw)
		p.CreatedAt = parseTS(createdRaw)
		p.UpdatedAt = parseTS(updatedRaw)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	links, err := r.links(ctx, `SELECT program_id, stakeholder_id FROM program_stakeholders ORDER BY stakeholder_id`)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].StakeholderIDs = links[out[i].ID]
	}
	return out, nil
}

// UpsertProject inserts or replaces a sub-program.
func (r *Repository) UpsertProject(ctx context.Context, p domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects(id, program_id, name, status, progress, budget, actual_cost, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			program_id = excluded.program_id,
			name = excluded.name,
			status = excluded.status,
			progress = excluded.progress,
			budget = excluded.budget,
			actual_cost = excluded.actual_cost,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`, p.ID, p.ProgramID, p.Name, string(p.Status), p.Progress, p.Budget.String(), p.ActualCost.String(),
		nullableTS(p.StartDate), nullableTS(p.EndDate), ts(p.CreatedAt), ts(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert project %q: %w", p.ID, err)
	}
	return nil
}

// ListProjects lists every sub-program by id.
func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, program_id, name, status, progress, budget, actual_cost, start_date, end_date, created_at, updated_at
		FROM projects
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		var (
			p          domain.Project
			status     string
			budgetRaw  string
			actualRaw  string
			startRaw   sql.NullString
			endRaw     sql.NullString
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&p.ID, &p.ProgramID, &p.Name, &status, &p.Progress, &budgetRaw, &actualRaw,
			&startRaw, &endRaw, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		if p.Budget, err = parseDecimal("projects.budget", budgetRaw); err != nil {
			return nil, err
		}
		if p.ActualCost, err = parseDecimal("projects.actual_cost", actualRaw); err != nil {
			return nil, err
		}
		p.Status = domain.ProgramStatus(status)
		p.StartDate = parseNullTS(startRaw)
		p.EndDate = parseNullTS(endRaw)
		p.CreatedAt = parseTS(createdRaw)
		p.UpdatedAt = parseTS(updatedRaw)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertActivity inserts or replaces an activity.
func (r *Repository) UpsertActivity(ctx context.Context, a domain.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities(id, project_id, name, type, status, participants, progress, budget, actual_cost, location, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			type = excluded.type,
			status = excluded.status,
			participants = excluded.participants,
			progress = excluded.progress,
			budget = excluded.budget,
			actual_cost = excluded.actual_cost,
			location = excluded.location,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`, a.ID, a.ProjectID, a.Name, a.Type, string(a.Status), a.Participants, a.Progress, a.Budget.String(), a.ActualCost.String(),
		a.Location, nullableTS(a.StartDate), nullableTS(a.EndDate), ts(a.CreatedAt), ts(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert activity %q: %w", a.ID, err)
	}
	return nil
}

// ListActivities lists activities whose owning program matches filter.
func (r *Repository) ListActivities(ctx context.Context, filter domain.RecordFilter) ([]domain.Activity, error) {
	var w where
	switch scope := filter.Scope.Normalize(); {
	case scope.IsProgram():
		w.add("pr.program_id = ?", scope.ProgramID)
	case scope.IsDepartment():
		w.add("prog.department_id = ?", scope.DepartmentID)
	}
	w.window("a.created_at", filter.Window)

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.project_id, COALESCE(pr.name, ''), COALESCE(pr.program_id, ''), COALESCE(prog.name, ''),
			a.name, a.type, a.status, a.participants, a.progress, a.budget, a.actual_cost, a.location,
			a.start_date, a.end_date, a.created_at, a.updated_at
		FROM activities a
		LEFT JOIN projects pr ON pr.id = a.project_id
		LEFT JOIN programs prog ON prog.id = pr.program_id
	`+w.String()+` ORDER BY a.created_at, a.id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Activity{}
	for rows.Next() {
		var (
			a          domain.Activity
			status     string
			budgetRaw  string
			actualRaw  string
			startRaw   sql.NullString
			endRaw     sql.NullString
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.ProjectName, &a.ProgramID, &a.ProgramName,
			&a.Name, &a.Type, &status, &a.Participants, &a.Progress, &budgetRaw, &actualRaw, &a.Location,
			&startRaw, &endRaw, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		if a.Budget, err = parseDecimal("activities.budget", budgetRaw); err != nil {
			return nil, err
		}
		if a.ActualCost, err = parseDecimal("activities.actual_cost", actualRaw); err != nil {
			return nil, err
		}
		a.Status = domain.ActivityStatus(status)
		a.StartDate = parseNullTS(startRaw)
		a.EndDate = parseNullTS(endRaw)
		a.CreatedAt = parseTS(createdRaw)
		a.UpdatedAt = parseTS(updatedRaw)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertBudget inserts or replaces a budget line.
func (r *Repository) UpsertBudget(ctx context.Context, b domain.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets(id, department_id, program_id, project_id, description, category, amount, spent_amount, status, period, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			department_id = excluded.department_id,
			program_id = excluded.program_id,
			project_id = excluded.project_id,
			description = excluded.description,
			category = excluded.category,
			amount = excluded.amount,
			spent_amount = excluded.spent_amount,
			status = excluded.status,
			period = excluded.period,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`, b.ID, b.DepartmentID, b.ProgramID, b.ProjectID, b.Description, b.Category, b.Amount.String(), b.SpentAmount.String(),
		string(b.Status), b.Period, b.Currency, ts(b.CreatedAt), ts(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert budget %q: %w", b.ID, err)
	}
	return nil
}

// ListBudgets lists budget lines matching filter. A budget without a program
// inherits the program of its sub-program.
func (r *Repository) ListBudgets(ctx context.Context, filter domain.RecordFilter) ([]domain.Budget, error) {
	const programExpr = `COALESCE(NULLIF(b.program_id, ''), pr.program_id, '')`
	var w where
	switch scope := filter.Scope.Normalize(); {
	case scope.IsProgram():
		w.add(programExpr+" = ?", scope.ProgramID)
	case scope.IsDepartment():
		w.add("b.department_id = ?", scope.DepartmentID)
	}
	w.window("b.created_at", filter.Window)

	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.department_id, COALESCE(d.name, ''), `+programExpr+`, b.project_id, b.description, b.category,
			b.amount, b.spent_amount, b.status, b.period, b.currency, b.created_at, b.updated_at
		FROM budgets b
		LEFT JOIN departments d ON d.id = b.department_id
		LEFT JOIN projects pr ON pr.id = NULLIF(b.project_id, '')
	`+w.String()+` ORDER BY b.created_at, b.id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Budget{}
	for rows.Next() {
		var (
			b          domain.Budget
			amountRaw  string
			spentRaw   string
			status     string
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&b.ID, &b.DepartmentID, &b.DepartmentName, &b.ProgramID, &b.ProjectID, &b.Description, &b.Category,
			&amountRaw, &spentRaw, &status, &b.Period, &b.Currency, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		if b.Amount, err = parseDecimal("budgets.amount", amountRaw); err != nil {
			return nil, err
		}
		if b.SpentAmount, err = parseDecimal("budgets.spent_amount", spentRaw); err != nil {
			return nil, err
		}
		b.Status = domain.BudgetStatus(status)
		b.CreatedAt = parseTS(createdRaw)
		b.UpdatedAt = parseTS(updatedRaw)
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpsertStakeholder writes a stakeholder and replaces its program and activity links.
func (r *Repository) UpsertStakeholder(ctx context.Context, s domain.Stakeholder) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stakeholders(id, name, type, category_id, importance, influence, relationship, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				type = excluded.type,
				category_id = excluded.category_id,
				importance = excluded.importance,
				influence = excluded.influence,
				relationship = excluded.relationship,
				updated_at = excluded.updated_at
		`, s.ID, s.Name, s.Type, s.CategoryID, s.Importance, s.Influence, s.Relationship, ts(s.CreatedAt), ts(s.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upsert stakeholder %q: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM program_stakeholders WHERE stakeholder_id = ?`, s.ID); err != nil {
			return err
		}
		for _, pid := range s.ProgramIDs {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO program_stakeholders(program_id, stakeholder_id) VALUES (?, ?)`, pid, s.ID); err != nil {
				return fmt.Errorf("link stakeholder %q to program %q: %w", s.ID, pid, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM activity_stakeholders WHERE stakeholder_id = ?`, s.ID); err != nil {
			return err
		}
		for _, aid := range s.ActivityIDs {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO activity_stakeholders(activity_id, stakeholder_id) VALUES (?, ?)`, aid, s.ID); err != nil {
				return fmt.Errorf("link stakeholder %q to activity %q: %w", s.ID, aid, err)
			}
		}
		return nil
	})
}

// ListStakeholders lists stakeholders linked to at least one program in scope.
// An empty scope also returns unlinked stakeholders. The time window is ignored:
// stakeholders count for every period once registered.
func (r *Repository) ListStakeholders(ctx context.Context, filter domain.RecordFilter) ([]domain.Stakeholder, error) {
	var w where
	switch scope := filter.Scope.Normalize(); {
	case scope.IsProgram():
		w.add(`EXISTS (SELECT 1 FROM program_stakeholders ps WHERE ps.stakeholder_id = s.id AND ps.program_id = ?)`, scope.ProgramID)
	case scope.IsDepartment():
		w.add(`EXISTS (
			SELECT 1 FROM program_stakeholders ps
			JOIN programs p ON p.id = ps.program_id
			WHERE ps.stakeholder_id = s.id AND p.department_id = ?
		)`, scope.DepartmentID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.type, s.category_id, COALESCE(c.name, ''), s.importance, s.influence, s.relationship, s.created_at, s.updated_at
		FROM stakeholders s
		LEFT JOIN stakeholder_categories c ON c.id = s.category_id
	`+w.String()+` ORDER BY s.created_at, s.id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Stakeholder{}
	for rows.Next() {
		var (
			s          domain.Stakeholder
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.CategoryID, &s.CategoryName, &s.Importance, &s.Influence, &s.Relationship,
			&createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTS(createdRaw)
		s.UpdatedAt = parseTS(updatedRaw)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	programs, err := r.links(ctx, `SELECT stakeholder_id, program_id FROM program_stakeholders ORDER BY program_id`)
	if err != nil {
		return nil, err
	}
	activities, err := r.links(ctx, `SELECT stakeholder_id, activity_id FROM activity_stakeholders ORDER BY activity_id`)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].ProgramIDs = programs[out[i].ID]
		out[i].ActivityIDs = activities[out[i].ID]
	}
	return out, nil
}

// links reads a two-column link query into owner -> ids.
func (r *Repository) links(ctx context.Context, query string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]string{}
	for rows.Next() {
		var owner, id string
		if err := rows.Scan(&owner, &id); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], id)
	}
	return out, rows.Err()
}

// withTx runs fn in a transaction, rolling back on error.
func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// where accumulates AND-ed predicates and their arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

// window applies the half-open [From, Until) bounds of tw to column.
func (w *where) window(column string, tw domain.TimeWindow) {
	if tw.From != nil {
		w.add(column+" >= ?", ts(*tw.From))
	}
	if tw.Until != nil {
		w.add(column+" < ?", ts(*tw.Until))
	}
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}

func parseDecimal(column, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode %s: %w", column, err)
	}
	return d, nil
}
