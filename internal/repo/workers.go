package repo

import (
	"context"
	"database/sql"

	"fieldline/internal/domain"
)

func scanWorker(row rowScanner) (domain.Worker, error) {
	var w domain.Worker
	err := row.Scan(&w.ID, &w.Username, &w.Password, &w.Role)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	return w, err
}

func (r Repo) GetWorker(ctx context.Context, id int64) (domain.Worker, error) {
	return scanWorker(r.DB.QueryRowContext(ctx, `SELECT id,username,password,role FROM workers WHERE id=?`, id))
}

func (r Repo) GetWorkerTx(ctx context.Context, tx *sql.Tx, id int64) (domain.Worker, error) {
	return scanWorker(tx.QueryRowContext(ctx, `SELECT id,username,password,role FROM workers WHERE id=?`, id))
}

// GetWorkerByCredentials performs the single credential check used by login.
func (r Repo) GetWorkerByCredentials(ctx context.Context, username, password, role string) (domain.Worker, error) {
	return scanWorker(r.DB.QueryRowContext(ctx,
		`SELECT id,username,password,role FROM workers WHERE username=? AND password=? AND role=?`,
		username, password, role))
}

func (r Repo) InsertWorker(ctx context.Context, w domain.Worker) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO workers(username,password,role) VALUES (?,?,?)`,
		w.Username, w.Password, w.Role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateWorkerProfile replaces username and password for one worker.
func (r Repo) UpdateWorkerProfile(ctx context.Context, id int64, username, password string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE workers SET username=?, password=? WHERE id=?`, username, password, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListWorkers(ctx context.Context, role string) ([]domain.Worker, error) {
	query := `SELECT id,username,password,role FROM workers ORDER BY id`
	var args []any
	if role != "" {
		query = `SELECT id,username,password,role FROM workers WHERE role=? ORDER BY id`
		args = append(args, role)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Worker
	for rows.Next() {
		var w domain.Worker
		if err := rows.Scan(&w.ID, &w.Username, &w.Password, &w.Role); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}
