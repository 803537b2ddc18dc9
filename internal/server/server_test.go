package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"

	"fieldline/internal/config"
	"fieldline/internal/db"
	"fieldline/internal/domain"
	"fieldline/internal/engine"
	"fieldline/internal/migrate"
)

type testServer struct {
	URL      string
	client   *http.Client
	close    func()
	WorkerID int64
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	workerID, err := e.Repo.InsertWorker(context.Background(), domain.Worker{
		Username: "mario",
		Password: "secret",
		Role:     "technician",
	})
	if err != nil {
		t.Fatalf("seed worker: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v1", Auth: AuthConfig{JWTSecret: "test-secret"}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:      "http://" + ln.Addr().String(),
		client:   &http.Client{},
		WorkerID: workerID,
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer) string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/login", map[string]any{
		"username": "mario",
		"password": "secret",
		"role":     "technician",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, string(data))
	}
	var out LoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if out.Token == "" {
		t.Fatalf("login returned empty token")
	}
	return out.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func submitBody() map[string]any {
	return map[string]any{
		"client_name": "Alice Cruz",
		"date":        "2024-01-01",
		"address":     "12 Main St",
		"contact":     "0917 000 0000",
		"description": "leaking pipe under sink",
		"service":     "repair",
		"location":    "GCC",
	}
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	token := login(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports", submitBody(), nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
	}
	var rep ReportResponse
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if rep.Status != "pending" {
		t.Fatalf("submitted status %q, want pending", rep.Status)
	}
	id := strconv.FormatInt(rep.ID, 10)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports/"+id+"/accept", map[string]any{}, bearer(token))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("accept status %d: %s", res.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal accepted: %v", err)
	}
	if rep.Status != "working" || rep.WorkerID == nil || *rep.WorkerID != srv.WorkerID {
		t.Fatalf("accepted report: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports/"+id+"/accomplish", map[string]any{
		"departure_time":  "08:00",
		"arrival_time":    "09:30",
		"accomplish_date": "2024-01-02",
	}, bearer(token))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("accomplish status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/reports/"+id+"/accomplishment", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get accomplishment status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports/"+id+"/approve", nil, bearer(token))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d: %s", res.StatusCode, string(data))
	}
	var entry ArchiveEntryResponse
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("unmarshal archive entry: %v", err)
	}
	if entry.WorkerName != "mario" {
		t.Fatalf("archive worker %q, want mario", entry.WorkerName)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/reports/"+id, nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("report after approve status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/archive", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("archive status %d: %s", res.StatusCode, string(data))
	}
	var archived []ArchiveEntryResponse
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("unmarshal archive: %v", err)
	}
	if len(archived) != 1 {
		t.Fatalf("archive rows %d, want 1", len(archived))
	}
}

func TestMutationsRequireToken(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports", submitBody(), nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("open submit status %d: %s", res.StatusCode, string(data))
	}
	var rep ReportResponse
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	id := strconv.FormatInt(rep.ID, 10)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports/"+id+"/accept", map[string]any{"worker_id": srv.WorkerID}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("accept without token status %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "unauthorized" {
		t.Fatalf("error code %q, want unauthorized", envelope.Error.Code)
	}

	// reads stay open
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/reports", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("open list status %d: %s", res.StatusCode, string(data))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/login", map[string]any{
		"username": "mario",
		"password": "wrong",
		"role":     "technician",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status %d: %s", res.StatusCode, string(data))
	}

	// valid credentials under the wrong role are also rejected
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/login", map[string]any{
		"username": "mario",
		"password": "secret",
		"role":     "admin",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong role login status %d: %s", res.StatusCode, string(data))
	}
}

func TestSubmitValidationEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	body := submitBody()
	delete(body, "contact")
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/reports", body, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid submit status %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "bad_request" {
		t.Fatalf("error code %q, want bad_request", envelope.Error.Code)
	}
}

func TestAcceptConflictStatus(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	token := login(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports", submitBody(), nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", res.StatusCode, string(data))
	}
	var rep ReportResponse
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	id := strconv.FormatInt(rep.ID, 10)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports/"+id+"/accept", map[string]any{}, bearer(token))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("first accept status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/reports/"+id+"/accept", map[string]any{}, bearer(token))
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("second accept status %d: %s", res.StatusCode, string(data))
	}
}

func TestLocationRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	token := login(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/locations", map[string]any{
		"name":   "GCC",
		"coords": "15.9285,120.3487",
		"type":   "landmark",
	}, bearer(token))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create location status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/locations", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list locations status %d: %s", res.StatusCode, string(data))
	}
	var items []LocationResponse
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal locations: %v", err)
	}
	if len(items) != 1 || items[0].Name != "GCC" {
		t.Fatalf("locations: %s", string(data))
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/locations/GCC", nil, bearer(token))
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete location status %d: %s", res.StatusCode, string(data))
	}
}

func TestHealthReportsSchemaVersion(t *testing.T) {
	srv, done := newTestServer(t)
	defer done()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	var body struct {
		Status        string `json:"status"`
		SchemaVersion int    `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("health status = %q, want ok", body.Status)
	}
	if body.SchemaVersion < 1 {
		t.Fatalf("schema_version = %d, want >= 1 on a migrated database", body.SchemaVersion)
	}
}
