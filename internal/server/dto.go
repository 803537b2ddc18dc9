package server

import (
	"encoding/base64"
	"fmt"

	"fieldline/internal/domain"
)

// Request payloads

type SubmitReportRequest struct {
	ClientName  string `json:"client_name"`
	Date        string `json:"date"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
	Service     string `json:"service"`
	Location    string `json:"location"`
	Proof       []byte `json:"proof,omitempty"`
	ProofType   string `json:"proof_type,omitempty"`
}

type AcceptReportRequest struct {
	WorkerID int64 `json:"worker_id,omitempty"`
}

type AccomplishReportRequest struct {
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	AccomplishDate string `json:"accomplish_date"`
	Proof          []byte `json:"proof,omitempty"`
	ProofType      string `json:"proof_type,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateWorkerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LocationRequest struct {
	Name   string `json:"name"`
	Coords string `json:"coords"`
	Type   string `json:"type"`
}

// Response payloads

type ReportResponse struct {
	ID             int64   `json:"id"`
	ClientName     string  `json:"client_name"`
	Date           string  `json:"date"`
	Address        string  `json:"address"`
	Contact        string  `json:"contact"`
	Description    string  `json:"description"`
	Service        string  `json:"service"`
	Location       string  `json:"location"`
	Status         string  `json:"status" enum:"pending,working,completed"`
	WorkerID       *int64  `json:"worker_id,omitempty"`
	WorkerUsername *string `json:"worker_username,omitempty"`
	Proof          string  `json:"proof,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type AccomplishmentResponse struct {
	ID             int64  `json:"id"`
	ReportID       int64  `json:"report_id"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	AccomplishDate string `json:"accomplish_date"`
	Proof          string `json:"proof,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type ArchiveEntryResponse struct {
	ID              int64  `json:"id"`
	ClientName      string `json:"client_name"`
	Date            string `json:"date"`
	Address         string `json:"address"`
	Contact         string `json:"contact"`
	Description     string `json:"description"`
	Service         string `json:"service"`
	Location        string `json:"location"`
	Proof           string `json:"proof,omitempty"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	AccomplishDate  string `json:"accomplish_date"`
	AccomplishProof string `json:"accomplish_proof,omitempty"`
	WorkerName      string `json:"worker_name"`
	ApprovedAt      string `json:"approved_at"`
}

type WorkerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Token  string         `json:"token"`
	Worker WorkerResponse `json:"worker"`
}

type LocationResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Coords string `json:"coords"`
	Type   string `json:"type"`
}

// dataURL encodes proof bytes the way browsers consume them inline.
func dataURL(data []byte, mediaType string) string {
	if len(data) == 0 {
		return ""
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

func reportResponse(rep domain.Report, includeProof bool) ReportResponse {
	res := ReportResponse{
		ID:          rep.ID,
		ClientName:  rep.ClientName,
		Date:        rep.Date,
		Address:     rep.Address,
		Contact:     rep.Contact,
		Description: rep.Description,
		Service:     rep.Service,
		Location:    rep.Location,
		Status:      rep.Status,
		WorkerID:    rep.WorkerID,
		CreatedAt:   rep.CreatedAt,
		UpdatedAt:   rep.UpdatedAt,
	}
	if includeProof {
		res.Proof = dataURL(rep.Proof, rep.ProofType)
	}
	return res
}

func listingResponse(item domain.ReportListing) ReportResponse {
	res := reportResponse(item.Report, false)
	res.WorkerUsername = item.WorkerUsername
	return res
}

func accomplishmentResponse(acc domain.Accomplishment) AccomplishmentResponse {
	return AccomplishmentResponse{
		ID:             acc.ID,
		ReportID:       acc.ReportID,
		DepartureTime:  acc.DepartureTime,
		ArrivalTime:    acc.ArrivalTime,
		AccomplishDate: acc.AccomplishDate,
		Proof:          dataURL(acc.Proof, acc.ProofType),
		CreatedAt:      acc.CreatedAt,
	}
}

func archiveEntryResponse(e domain.ArchiveEntry) ArchiveEntryResponse {
	return ArchiveEntryResponse{
		ID:              e.ID,
		ClientName:      e.ClientName,
		Date:            e.Date,
		Address:         e.Address,
		Contact:         e.Contact,
		Description:     e.Description,
		Service:         e.Service,
		Location:        e.Location,
		Proof:           dataURL(e.Proof, e.ProofType),
		DepartureTime:   e.DepartureTime,
		ArrivalTime:     e.ArrivalTime,
		AccomplishDate:  e.AccomplishDate,
		AccomplishProof: dataURL(e.AccomplishProof, e.AccomplishProofType),
		WorkerName:      e.WorkerName,
		ApprovedAt:      e.ApprovedAt,
	}
}

type CoordinateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CoordinateResponse struct {
	NodeID    string  `json:"node_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func coordinateResponse(n domain.CoordinateNode) CoordinateResponse {
	return CoordinateResponse{NodeID: n.NodeID, Latitude: n.Latitude, Longitude: n.Longitude}
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Actor      string `json:"actor"`
	Payload    string `json:"payload_json,omitempty"`
}

func eventResponse(ev domain.Event) EventResponse {
	return EventResponse{
		ID:         ev.ID,
		TS:         ev.TS,
		Type:       ev.Type,
		EntityKind: ev.EntityKind,
		EntityID:   ev.EntityID,
		Actor:      ev.Actor,
		Payload:    ev.Payload,
	}
}

func locationFromRequest(req LocationRequest) domain.Location {
	return domain.Location{Name: req.Name, Coords: req.Coords, Type: req.Type}
}

func workerResponse(w domain.Worker) WorkerResponse {
	return WorkerResponse{ID: w.ID, Username: w.Username, Role: w.Role}
}

func locationResponse(l domain.Location) LocationResponse {
	return LocationResponse{ID: l.ID, Name: l.Name, Coords: l.Coords, Type: l.Type}
}
