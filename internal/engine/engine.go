package engine

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"time"

	"fieldline/internal/config"
	"fieldline/internal/domain"
	"fieldline/internal/events"
	"fieldline/internal/images"
	"fieldline/internal/repo"
)

// Engine orchestrates report lifecycle transitions against the shared
// datastore. Each transition is one transaction: the status change, any
// dependent rows and the audit event commit or roll back together.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Log    *log.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Log:    log.Default(),
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *log.Logger {
	if e.Log != nil {
		return e.Log
	}
	return log.Default()
}

// SubmitOptions carries the client-filed fields of a new report.
type SubmitOptions struct {
	ClientName  string
	Date        string
	Address     string
	Contact     string
	Description string
	Service     string
	Location    string
	Proof       []byte
	ProofType   string
	Actor       string
}

// Submit files a new report in pending status. An attached proof image is
// normalized before persistence; the raw upload is not retained.
func (e Engine) Submit(ctx context.Context, opts SubmitOptions) (domain.Report, error) {
	for _, f := range []struct{ name, value string }{
		{"client_name", opts.ClientName},
		{"date", opts.Date},
		{"address", opts.Address},
		{"contact", opts.Contact},
		{"description", opts.Description},
		{"service", opts.Service},
		{"location", opts.Location},
	} {
		if f.value == "" {
			return domain.Report{}, ValidationError{Field: f.name}
		}
	}
	proof := opts.Proof
	proofType := opts.ProofType
	if len(proof) > 0 {
		normalized, mediaType, err := images.Normalize(proof, proofType, e.Config.Images.MaxWidth, e.Config.Images.MaxHeight)
		if err != nil {
			return domain.Report{}, ValidationError{Field: "proof", Reason: "is not a decodable image"}
		}
		proof = normalized
		proofType = mediaType
	}
	now := e.now().UTC().Format(time.RFC3339)
	rep := domain.Report{
		ClientName:  opts.ClientName,
		Date:        opts.Date,
		Address:     opts.Address,
		Contact:     opts.Contact,
		Description: opts.Description,
		Service:     opts.Service,
		Location:    opts.Location,
		Status:      domain.StatusPending,
		Proof:       proof,
		ProofType:   proofType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, classify(err)
	}
	defer tx.Rollback()

	id, err := e.Repo.InsertReportTx(ctx, tx, rep)
	if err != nil {
		return domain.Report{}, classify(err)
	}
	rep.ID = id
	if err := e.Events.Append(ctx, tx, "report.submitted", "report", id, opts.Actor, events.EventPayload{
		"client_name": rep.ClientName,
		"service":     rep.Service,
	}); err != nil {
		return domain.Report{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, classify(err)
	}
	return rep, nil
}

// Accept binds a worker to a pending report and moves it to working. The
// check and the status flip are one conditional update, so of two competing
// accepts on the same report exactly one succeeds.
func (e Engine) Accept(ctx context.Context, reportID, workerID int64, actor string) (domain.Report, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, classify(err)
	}
	defer tx.Rollback()

	w, err := e.Repo.GetWorkerTx(ctx, tx, workerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Report{}, NotFoundError{Kind: "worker", Ref: strconv.FormatInt(workerID, 10)}
		}
		return domain.Report{}, classify(err)
	}
	if w.Role != e.Config.Worker.Role {
		return domain.Report{}, NotFoundError{Kind: "worker", Ref: strconv.FormatInt(workerID, 10)}
	}

	updatedAt := e.now().UTC().Format(time.RFC3339)
	assigned, err := e.Repo.AssignReportTx(ctx, tx, reportID, workerID, updatedAt)
	if err != nil {
		return domain.Report{}, classify(err)
	}
	if !assigned {
		// Distinguish a missing report from one already past pending.
		if _, err := e.Repo.GetReportTx(ctx, tx, reportID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.Report{}, NotFoundError{Kind: "report", Ref: strconv.FormatInt(reportID, 10)}
			}
			return domain.Report{}, classify(err)
		}
		return domain.Report{}, ConflictError{Reason: "report already assigned"}
	}
	if err := e.Events.Append(ctx, tx, "report.accepted", "report", reportID, actor, events.EventPayload{
		"worker_id": workerID,
	}); err != nil {
		return domain.Report{}, err
	}
	rep, err := e.Repo.GetReportTx(ctx, tx, reportID)
	if err != nil {
		return domain.Report{}, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, classify(err)
	}
	return rep, nil
}

// AccomplishOptions carries the field worker's completion details.
type AccomplishOptions struct {
	ReportID       int64
	DepartureTime  string
	ArrivalTime    string
	AccomplishDate string
	Proof          []byte
	ProofType      string
	Actor          string
}

// Accomplish records completion proof and flips the report to completed.
// Reports in pending or working are both accepted; only an already
// completed report is rejected.
func (e Engine) Accomplish(ctx context.Context, opts AccomplishOptions) (domain.Accomplishment, error) {
	for _, f := range []struct{ name, value string }{
		{"departure_time", opts.DepartureTime},
		{"arrival_time", opts.ArrivalTime},
		{"accomplish_date", opts.AccomplishDate},
	} {
		if f.value == "" {
			return domain.Accomplishment{}, ValidationError{Field: f.name}
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Accomplishment{}, classify(err)
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	completed, err := e.Repo.CompleteReportTx(ctx, tx, opts.ReportID, now)
	if err != nil {
		return domain.Accomplishment{}, classify(err)
	}
	if !completed {
		if _, err := e.Repo.GetReportTx(ctx, tx, opts.ReportID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.Accomplishment{}, NotFoundError{Kind: "report", Ref: strconv.FormatInt(opts.ReportID, 10)}
			}
			return domain.Accomplishment{}, classify(err)
		}
		return domain.Accomplishment{}, ConflictError{Reason: "report already completed"}
	}
	acc := domain.Accomplishment{
		ReportID:       opts.ReportID,
		DepartureTime:  opts.DepartureTime,
		ArrivalTime:    opts.ArrivalTime,
		AccomplishDate: opts.AccomplishDate,
		Proof:          opts.Proof,
		ProofType:      opts.ProofType,
		CreatedAt:      now,
	}
	id, err := e.Repo.InsertAccomplishmentTx(ctx, tx, acc)
	if err != nil {
		return domain.Accomplishment{}, classify(err)
	}
	acc.ID = id
	if err := e.Events.Append(ctx, tx, "report.accomplished", "report", opts.ReportID, opts.Actor, events.EventPayload{
		"accomplishment_id": id,
	}); err != nil {
		return domain.Accomplishment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Accomplishment{}, classify(err)
	}
	return acc, nil
}

// Approve archives a completed report: it reads the report, its
// accomplishment and the assigned worker, writes one archive entry and
// deletes the working copies, all in a single transaction. Oversized proof
// images are compressed on the way in; a compression failure is logged and
// the original bytes archived instead, it never blocks approval.
func (e Engine) Approve(ctx context.Context, reportID int64, actor string) (domain.ArchiveEntry, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ArchiveEntry{}, classify(err)
	}
	defer tx.Rollback()

	rep, err := e.Repo.GetReportTx(ctx, tx, reportID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.ArchiveEntry{}, NotFoundError{Kind: "report", Ref: strconv.FormatInt(reportID, 10)}
		}
		return domain.ArchiveEntry{}, classify(err)
	}
	acc, err := e.Repo.GetAccomplishmentByReportTx(ctx, tx, reportID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.ArchiveEntry{}, NotFoundError{Kind: "accomplishment"}
		}
		return domain.ArchiveEntry{}, classify(err)
	}
	if rep.WorkerID == nil {
		return domain.ArchiveEntry{}, NotFoundError{Kind: "assigned worker"}
	}
	w, err := e.Repo.GetWorkerTx(ctx, tx, *rep.WorkerID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return domain.ArchiveEntry{}, classify(err)
	}
	if errors.Is(err, repo.ErrNotFound) || w.Role != e.Config.Worker.Role {
		return domain.ArchiveEntry{}, NotFoundError{Kind: "worker identity", Ref: strconv.FormatInt(*rep.WorkerID, 10)}
	}

	proof, proofType := e.compressIfOversized(rep.Proof, rep.ProofType, "report", reportID)
	accProof, accProofType := e.compressIfOversized(acc.Proof, acc.ProofType, "accomplishment", acc.ID)

	entry := domain.ArchiveEntry{
		ClientName:          rep.ClientName,
		Date:                rep.Date,
		Address:             rep.Address,
		Contact:             rep.Contact,
		Description:         rep.Description,
		Service:             rep.Service,
		Location:            rep.Location,
		Proof:               proof,
		ProofType:           proofType,
		DepartureTime:       acc.DepartureTime,
		ArrivalTime:         acc.ArrivalTime,
		AccomplishDate:      acc.AccomplishDate,
		AccomplishProof:     accProof,
		AccomplishProofType: accProofType,
		WorkerName:          w.Username,
		ApprovedAt:          e.now().UTC().Format(time.RFC3339),
	}
	id, err := e.Repo.InsertArchiveEntryTx(ctx, tx, entry)
	if err != nil {
		return domain.ArchiveEntry{}, classify(err)
	}
	entry.ID = id
	if err := e.Repo.DeleteAccomplishmentByReportTx(ctx, tx, reportID); err != nil {
		return domain.ArchiveEntry{}, classify(err)
	}
	if err := e.Repo.DeleteReportTx(ctx, tx, reportID); err != nil {
		return domain.ArchiveEntry{}, classify(err)
	}
	if err := e.Events.Append(ctx, tx, "report.approved", "report", reportID, actor, events.EventPayload{
		"archive_id":  id,
		"worker_name": w.Username,
	}); err != nil {
		return domain.ArchiveEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ArchiveEntry{}, classify(err)
	}
	return entry, nil
}

// compressIfOversized re-encodes a proof above the configured threshold.
// Best effort: on failure the original bytes and type are kept.
func (e Engine) compressIfOversized(data []byte, mediaType, kind string, id int64) ([]byte, string) {
	if int64(len(data)) <= e.Config.Images.CompressThreshold {
		return data, mediaType
	}
	compressed, err := images.Compress(data, e.Config.Images.MaxWidth, e.Config.Images.MaxHeight, e.Config.Images.JPEGQuality)
	if err != nil {
		e.logger().Printf("WARNING: compressing %s %d proof failed, archiving original: %v", kind, id, err)
		return data, mediaType
	}
	return compressed, "image/jpeg"
}
