package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"fieldline/internal/domain"
	"fieldline/internal/engine"
	"fieldline/internal/geo"
	"fieldline/internal/migrate"
	"fieldline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"report_conflict"`
	Message string         `json:"message" example:"report already assigned"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"report_id\":12}"`
}

// apiError models the error envelope every non-2xx response uses.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Fieldline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope above.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Fieldline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group, cfg.Engine)
	registerAuth(group, cfg.Engine, cfg.Auth)
	registerReports(group, cfg.Engine)
	registerArchive(group, cfg.Engine)
	registerWorkers(group, cfg.Engine)
	registerLocations(group, cfg.Engine)
	registerCoordinates(group, cfg.Engine)
	registerGraph(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": ve.Field})
	}
	var nf engine.NotFoundError
	if errors.As(err, &nf) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	var ce engine.ConflictError
	if errors.As(err, &ce) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	}
	var te engine.TransientError
	if errors.As(err, &te) {
		return newAPIError(http.StatusServiceUnavailable, "store_busy", "datastore busy, retry", nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "store_busy"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{{"bearerAuth": {}}}
	loginPath := path.Join(basePath, "login")
	submitPath := path.Join(basePath, "reports")
	for route, item := range oas.Paths {
		for method, op := range map[string]*huma.Operation{
			http.MethodGet:    item.Get,
			http.MethodPost:   item.Post,
			http.MethodPut:    item.Put,
			http.MethodPatch:  item.Patch,
			http.MethodDelete: item.Delete,
		} {
			if op == nil {
				continue
			}
			open := method == http.MethodGet ||
				route == loginPath ||
				(method == http.MethodPost && route == submitPath)
			if open {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Fieldline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API, e engine.Engine) {
	type healthOutput struct {
		Body struct {
			Status        string `json:"status"`
			SchemaVersion int    `json:"schema_version"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*healthOutput, error) {
		v, err := migrate.Version(ctx, e.DB)
		if err != nil {
			return nil, handleError(err)
		}
		out := &healthOutput{}
		out.Body.Status = "ok"
		out.Body.SchemaVersion = v
		return out, nil
	})
}

func registerAuth(api huma.API, e engine.Engine, auth AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Exchange worker credentials for a token",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		if input.Body.Username == "" || input.Body.Password == "" || input.Body.Role == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "username, password and role are required", nil)
		}
		w, err := e.Repo.GetWorkerByCredentials(ctx, input.Body.Username, input.Body.Password, input.Body.Role)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil)
			}
			return nil, handleError(err)
		}
		token, err := issueToken(w, auth, e.Now())
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{Token: token, Worker: workerResponse(w)}}, nil
	})
}

func registerReports(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-report",
		Method:        http.MethodPost,
		Path:          "/reports",
		Summary:       "Submit a report",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusServiceUnavailable,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body SubmitReportRequest `json:"body"`
	}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		rep, err := e.Submit(ctx, engine.SubmitOptions{
			ClientName:  input.Body.ClientName,
			Date:        input.Body.Date,
			Address:     input.Body.Address,
			Contact:     input.Body.Contact,
			Description: input.Body.Description,
			Service:     input.Body.Service,
			Location:    input.Body.Location,
			Proof:       input.Body.Proof,
			ProofType:   input.Body.ProofType,
			Actor:       actorFromContext(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(rep, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-reports",
		Method:      http.MethodGet,
		Path:        "/reports",
		Summary:     "List reports",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ReportResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListReports(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]ReportResponse, 0, len(items))
		for _, item := range items {
			res = append(res, listingResponse(item))
		}
		return &struct {
			Body []ReportResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/reports/{id}",
		Summary:     "Get report with proof",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		rep, err := e.Repo.GetReport(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(rep, true)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report-by-location",
		Method:      http.MethodGet,
		Path:        "/reports/by-location/{location}",
		Summary:     "Get latest report for a location",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Location string `path:"location"`
	}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		rep, err := e.Repo.GetReportByLocation(ctx, input.Location)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(rep, true)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-report",
		Method:      http.MethodPost,
		Path:        "/reports/{id}/accept",
		Summary:     "Accept a pending report",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		ID   int64               `path:"id"`
		Body AcceptReportRequest `json:"body"`
	}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		workerID := input.Body.WorkerID
		if workerID == 0 {
			if p, ok := principalFromContext(ctx); ok {
				workerID = p.WorkerID
			}
		}
		if workerID == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "worker_id is required", nil)
		}
		rep, err := e.Accept(ctx, input.ID, workerID, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(rep, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accomplish-report",
		Method:      http.MethodPost,
		Path:        "/reports/{id}/accomplish",
		Summary:     "Record completion proof",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		ID   int64                   `path:"id"`
		Body AccomplishReportRequest `json:"body"`
	}) (*struct {
		Body AccomplishmentResponse `json:"body"`
	}, error) {
		acc, err := e.Accomplish(ctx, engine.AccomplishOptions{
			ReportID:       input.ID,
			DepartureTime:  input.Body.DepartureTime,
			ArrivalTime:    input.Body.ArrivalTime,
			AccomplishDate: input.Body.AccomplishDate,
			Proof:          input.Body.Proof,
			ProofType:      input.Body.ProofType,
			Actor:          actorFromContext(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AccomplishmentResponse `json:"body"`
		}{Body: accomplishmentResponse(acc)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report-accomplishment",
		Method:      http.MethodGet,
		Path:        "/reports/{id}/accomplishment",
		Summary:     "Get a report's accomplishment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body AccomplishmentResponse `json:"body"`
	}, error) {
		acc, err := e.Repo.GetAccomplishmentByReport(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AccomplishmentResponse `json:"body"`
		}{Body: accomplishmentResponse(acc)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-report",
		Method:      http.MethodPost,
		Path:        "/reports/{id}/approve",
		Summary:     "Approve a completed report",
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body ArchiveEntryResponse `json:"body"`
	}, error) {
		entry, err := e.Approve(ctx, input.ID, actorFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ArchiveEntryResponse `json:"body"`
		}{Body: archiveEntryResponse(entry)}, nil
	})
}

func registerArchive(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-archive",
		Method:      http.MethodGet,
		Path:        "/archive",
		Summary:     "List approved reports",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ArchiveEntryResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListArchive(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]ArchiveEntryResponse, 0, len(items))
		for _, item := range items {
			res = append(res, archiveEntryResponse(item))
		}
		return &struct {
			Body []ArchiveEntryResponse `json:"body"`
		}{Body: res}, nil
	})
}

func registerWorkers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-worker",
		Method:      http.MethodGet,
		Path:        "/workers/{id}",
		Summary:     "Get worker",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body WorkerResponse `json:"body"`
	}, error) {
		w, err := e.Repo.GetWorker(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WorkerResponse `json:"body"`
		}{Body: workerResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-worker",
		Method:      http.MethodPatch,
		Path:        "/workers/{id}",
		Summary:     "Update worker credentials",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   int64               `path:"id"`
		Body UpdateWorkerRequest `json:"body"`
	}) (*struct {
		Body WorkerResponse `json:"body"`
	}, error) {
		if input.Body.Username == "" || input.Body.Password == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "username and password are required", nil)
		}
		if err := e.Repo.UpdateWorkerProfile(ctx, input.ID, input.Body.Username, input.Body.Password); err != nil {
			return nil, handleError(err)
		}
		w, err := e.Repo.GetWorker(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WorkerResponse `json:"body"`
		}{Body: workerResponse(w)}, nil
	})
}

func registerLocations(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-location",
		Method:        http.MethodPost,
		Path:          "/locations",
		Summary:       "Create location",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, input *struct {
		Body LocationRequest `json:"body"`
	}) (*struct {
		Body LocationResponse `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		if _, err := e.Repo.InsertLocation(ctx, locationFromRequest(input.Body)); err != nil {
			return nil, handleError(err)
		}
		l, err := e.Repo.GetLocationByName(ctx, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LocationResponse `json:"body"`
		}{Body: locationResponse(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-locations",
		Method:      http.MethodGet,
		Path:        "/locations",
		Summary:     "List locations",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []LocationResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListLocations(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]LocationResponse, 0, len(items))
		for _, item := range items {
			res = append(res, locationResponse(item))
		}
		return &struct {
			Body []LocationResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-location",
		Method:      http.MethodPut,
		Path:        "/locations/{name}",
		Summary:     "Update location",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Name string          `path:"name"`
		Body LocationRequest `json:"body"`
	}) (*struct {
		Body LocationResponse `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		if err := e.Repo.UpdateLocation(ctx, input.Name, locationFromRequest(input.Body)); err != nil {
			return nil, handleError(err)
		}
		l, err := e.Repo.GetLocationByName(ctx, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LocationResponse `json:"body"`
		}{Body: locationResponse(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-location",
		Method:      http.MethodDelete,
		Path:        "/locations/{name}",
		Summary:     "Delete location",
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Name string `path:"name"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteLocation(ctx, input.Name); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerCoordinates(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-coordinates",
		Method:      http.MethodGet,
		Path:        "/coordinates",
		Summary:     "List street graph node coordinates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []CoordinateResponse `json:"body"`
	}, error) {
		nodes, err := e.Repo.ListCoordinates(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]CoordinateResponse, 0, len(nodes))
		for _, n := range nodes {
			res = append(res, coordinateResponse(n))
		}
		return &struct {
			Body []CoordinateResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-coordinate",
		Method:      http.MethodPut,
		Path:        "/coordinates/{node_id}",
		Summary:     "Set a graph node's coordinates",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, input *struct {
		NodeID string            `path:"node_id"`
		Body   CoordinateRequest `json:"body"`
	}) (*struct {
		Body CoordinateResponse `json:"body"`
	}, error) {
		node := domain.CoordinateNode{
			NodeID:    input.NodeID,
			Latitude:  input.Body.Latitude,
			Longitude: input.Body.Longitude,
		}
		if err := e.Repo.UpsertCoordinate(ctx, node); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CoordinateResponse `json:"body"`
		}{Body: coordinateResponse(node)}, nil
	})
}

func registerGraph(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "road-graph",
		Method:      http.MethodGet,
		Path:        "/graph",
		Summary:     "Weighted road graph for routing",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]map[string]float64 `json:"body"`
	}, error) {
		nodes, err := e.Repo.ListCoordinates(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]map[string]float64 `json:"body"`
		}{Body: geo.Graph(nodes)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" default:"50"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := e.Repo.LatestEvents(ctx, input.Limit, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]EventResponse, 0, len(items))
		for _, ev := range items {
			res = append(res, eventResponse(ev))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: res}, nil
	})
}
