package domain

// Report statuses. A report never leaves this set; an approved report is
// deleted and lives on only as an ArchiveEntry.
const (
	StatusPending   = "pending"
	StatusWorking   = "working"
	StatusCompleted = "completed"
)

type Report struct {
	ID          int64  `json:"id"`
	ClientName  string `json:"client_name"`
	Date        string `json:"date"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
	Service     string `json:"service"`
	Location    string `json:"location"`
	Status      string `json:"status" enum:"pending,working,completed"`
	WorkerID    *int64 `json:"worker_id,omitempty"`
	Proof       []byte `json:"proof,omitempty"`
	ProofType   string `json:"proof_type,omitempty"`
	CreatedAt   string `json:"created_at" format:"date-time"`
	UpdatedAt   string `json:"updated_at" format:"date-time"`
}

// ReportListing is a report joined with its assigned worker's username.
type ReportListing struct {
	Report
	WorkerUsername *string `json:"worker_username,omitempty"`
}

type Accomplishment struct {
	ID             int64  `json:"id"`
	ReportID       int64  `json:"report_id"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	AccomplishDate string `json:"accomplish_date"`
	Proof          []byte `json:"proof,omitempty"`
	ProofType      string `json:"proof_type,omitempty"`
	CreatedAt      string `json:"created_at" format:"date-time"`
}

// ArchiveEntry is the immutable record written by an approval. Its id space
// is independent from Report ids.
type ArchiveEntry struct {
	ID                  int64  `json:"id"`
	ClientName          string `json:"client_name"`
	Date                string `json:"date"`
	Address             string `json:"address"`
	Contact             string `json:"contact"`
	Description         string `json:"description"`
	Service             string `json:"service"`
	Location            string `json:"location"`
	Proof               []byte `json:"proof,omitempty"`
	ProofType           string `json:"proof_type,omitempty"`
	DepartureTime       string `json:"departure_time"`
	ArrivalTime         string `json:"arrival_time"`
	AccomplishDate      string `json:"accomplish_date"`
	AccomplishProof     []byte `json:"accomplish_proof,omitempty"`
	AccomplishProofType string `json:"accomplish_proof_type,omitempty"`
	WorkerName          string `json:"worker_name"`
	ApprovedAt          string `json:"approved_at" format:"date-time"`
}

type Worker struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Password string `json:"-"`
}

// Location is a named establishment with a "lat,lng" coordinate string.
type Location struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Coords string `json:"coords"`
	Type   string `json:"type"`
}

// CoordinateNode is one vertex of the hand-authored street graph.
type CoordinateNode struct {
	NodeID    string  `json:"node_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Actor      string `json:"actor"`
	Payload    string `json:"payload_json"`
}
