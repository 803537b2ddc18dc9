package repo

import (
	"context"
	"database/sql"
	"errors"

	"fieldline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const reportColumns = `id,client_name,date,address,contact,description,service,location,status,worker_id,proof,proof_type,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (domain.Report, error) {
	var rep domain.Report
	var workerID sql.NullInt64
	var proofType sql.NullString
	err := row.Scan(&rep.ID, &rep.ClientName, &rep.Date, &rep.Address, &rep.Contact, &rep.Description,
		&rep.Service, &rep.Location, &rep.Status, &workerID, &rep.Proof, &proofType, &rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return rep, ErrNotFound
	}
	if err != nil {
		return rep, err
	}
	if workerID.Valid {
		rep.WorkerID = &workerID.Int64
	}
	if proofType.Valid {
		rep.ProofType = proofType.String
	}
	return rep, nil
}

func (r Repo) InsertReportTx(ctx context.Context, tx *sql.Tx, rep domain.Report) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO reports(client_name,date,address,contact,description,service,location,status,worker_id,proof,proof_type,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.ClientName, rep.Date, rep.Address, rep.Contact, rep.Description, rep.Service, rep.Location,
		rep.Status, nullableInt64Ptr(rep.WorkerID), nullableBytes(rep.Proof), nullable(rep.ProofType),
		rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	return scanReport(r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=?`, id))
}

func (r Repo) GetReportTx(ctx context.Context, tx *sql.Tx, id int64) (domain.Report, error) {
	return scanReport(tx.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=?`, id))
}

// GetReportByLocation returns the latest open report filed for an
// establishment.
func (r Repo) GetReportByLocation(ctx context.Context, location string) (domain.Report, error) {
	return scanReport(r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE location=? ORDER BY created_at DESC, id DESC LIMIT 1`, location))
}

// ListReports returns all open reports joined with the assigned worker's
// username. The stored status field is authoritative; the join only
// annotates, it never re-derives status.
func (r Repo) ListReports(ctx context.Context) ([]domain.ReportListing, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT r.`+joinedReportColumns(`r`)+`, w.username
FROM reports r LEFT JOIN workers w ON r.worker_id = w.id
ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ReportListing
	for rows.Next() {
		var item domain.ReportListing
		var workerID sql.NullInt64
		var proofType, username sql.NullString
		if err := rows.Scan(&item.ID, &item.ClientName, &item.Date, &item.Address, &item.Contact, &item.Description,
			&item.Service, &item.Location, &item.Status, &workerID, &item.Proof, &proofType, &item.CreatedAt, &item.UpdatedAt,
			&username); err != nil {
			return nil, err
		}
		if workerID.Valid {
			item.WorkerID = &workerID.Int64
		}
		if proofType.Valid {
			item.ProofType = proofType.String
		}
		if username.Valid {
			item.WorkerUsername = &username.String
		}
		res = append(res, item)
	}
	return res, rows.Err()
}

func joinedReportColumns(alias string) string {
	return `id,` + alias + `.client_name,` + alias + `.date,` + alias + `.address,` + alias + `.contact,` +
		alias + `.description,` + alias + `.service,` + alias + `.location,` + alias + `.status,` +
		alias + `.worker_id,` + alias + `.proof,` + alias + `.proof_type,` + alias + `.created_at,` + alias + `.updated_at`
}

// AssignReportTx performs the accept transition as one conditional update:
// it only succeeds while the report is still pending.
func (r Repo) AssignReportTx(ctx context.Context, tx *sql.Tx, id, workerID int64, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE reports SET status=?, worker_id=?, updated_at=? WHERE id=? AND status=?`,
		domain.StatusWorking, workerID, updatedAt, id, domain.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// CompleteReportTx flips the report to completed unless it already is.
func (r Repo) CompleteReportTx(ctx context.Context, tx *sql.Tx, id int64, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE reports SET status=?, updated_at=? WHERE id=? AND status != ?`,
		domain.StatusCompleted, updatedAt, id, domain.StatusCompleted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r Repo) DeleteReportTx(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertAccomplishmentTx(ctx context.Context, tx *sql.Tx, acc domain.Accomplishment) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO accomplishments(report_id,departure_time,arrival_time,accomplish_date,proof,proof_type,created_at)
VALUES (?,?,?,?,?,?,?)`,
		acc.ReportID, acc.DepartureTime, acc.ArrivalTime, acc.AccomplishDate,
		nullableBytes(acc.Proof), nullable(acc.ProofType), acc.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func scanAccomplishment(row rowScanner) (domain.Accomplishment, error) {
	var acc domain.Accomplishment
	var proofType sql.NullString
	err := row.Scan(&acc.ID, &acc.ReportID, &acc.DepartureTime, &acc.ArrivalTime, &acc.AccomplishDate,
		&acc.Proof, &proofType, &acc.CreatedAt)
	if err == sql.ErrNoRows {
		return acc, ErrNotFound
	}
	if err != nil {
		return acc, err
	}
	if proofType.Valid {
		acc.ProofType = proofType.String
	}
	return acc, nil
}

const accomplishmentColumns = `id,report_id,departure_time,arrival_time,accomplish_date,proof,proof_type,created_at`

func (r Repo) GetAccomplishmentByReport(ctx context.Context, reportID int64) (domain.Accomplishment, error) {
	return scanAccomplishment(r.DB.QueryRowContext(ctx, `SELECT `+accomplishmentColumns+` FROM accomplishments WHERE report_id=?`, reportID))
}

func (r Repo) GetAccomplishmentByReportTx(ctx context.Context, tx *sql.Tx, reportID int64) (domain.Accomplishment, error) {
	return scanAccomplishment(tx.QueryRowContext(ctx, `SELECT `+accomplishmentColumns+` FROM accomplishments WHERE report_id=?`, reportID))
}

func (r Repo) DeleteAccomplishmentByReportTx(ctx context.Context, tx *sql.Tx, reportID int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM accomplishments WHERE report_id=?`, reportID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertArchiveEntryTx(ctx context.Context, tx *sql.Tx, e domain.ArchiveEntry) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO archive(client_name,date,address,contact,description,service,location,proof,proof_type,departure_time,arrival_time,accomplish_date,accomplish_proof,accomplish_proof_type,worker_name,approved_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ClientName, e.Date, e.Address, e.Contact, e.Description, e.Service, e.Location,
		nullableBytes(e.Proof), nullable(e.ProofType),
		e.DepartureTime, e.ArrivalTime, e.AccomplishDate,
		nullableBytes(e.AccomplishProof), nullable(e.AccomplishProofType),
		e.WorkerName, e.ApprovedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListArchive returns archive entries ordered by service date descending.
func (r Repo) ListArchive(ctx context.Context) ([]domain.ArchiveEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,client_name,date,address,contact,description,service,location,proof,proof_type,departure_time,arrival_time,accomplish_date,accomplish_proof,accomplish_proof_type,worker_name,approved_at
FROM archive ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ArchiveEntry
	for rows.Next() {
		var e domain.ArchiveEntry
		var proofType, accProofType sql.NullString
		if err := rows.Scan(&e.ID, &e.ClientName, &e.Date, &e.Address, &e.Contact, &e.Description, &e.Service,
			&e.Location, &e.Proof, &proofType, &e.DepartureTime, &e.ArrivalTime, &e.AccomplishDate,
			&e.AccomplishProof, &accProofType, &e.WorkerName, &e.ApprovedAt); err != nil {
			return nil, err
		}
		if proofType.Valid {
			e.ProofType = proofType.String
		}
		if accProofType.Valid {
			e.AccomplishProofType = accProofType.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
