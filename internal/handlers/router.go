package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/buildinfo"
	"github.com/xelth-com/eckassets/internal/middleware"
	"github.com/xelth-com/eckassets/internal/services/assets"
	"github.com/xelth-com/eckassets/internal/services/assignments"
	"github.com/xelth-com/eckassets/internal/services/maintenance"
	"github.com/xelth-com/eckassets/internal/services/notify"
	"github.com/xelth-com/eckassets/internal/services/requests"
	"github.com/xelth-com/eckassets/internal/services/schedules"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Assets        *assets.Service
	Assignments   *assignments.Service
	Schedules     *schedules.Service
	Maintenance   *maintenance.Service
	Requests      *requests.Service
	Notifications *notify.Service
}

// Router wraps the mux router and its dependencies
type Router struct {
	*mux.Router
	db        *gorm.DB
	svc       Services
	jwtSecret string
	log       *zap.Logger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *gorm.DB, svc Services, jwtSecret string, log *zap.Logger) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		db:        db,
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log.Named("handlers"),
	}
	r.Use(middleware.RequestID, middleware.AccessLog(log))

	// Public
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/auth/login", r.login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(jwtSecret))

	// Assets
	api.HandleFunc("/assets", r.listAssets).Methods("GET")
	api.HandleFunc("/assets", r.createAsset).Methods("POST")
	api.HandleFunc("/assets/labels", r.assetLabels).Methods("POST")
	api.HandleFunc("/assets/{id:[0-9]+}", r.getAsset).Methods("GET")
	api.HandleFunc("/assets/{id:[0-9]+}", r.updateAsset).Methods("PUT", "PATCH")
	api.HandleFunc("/assets/{id:[0-9]+}", r.deleteAsset).Methods("DELETE")
	api.HandleFunc("/assets/{id:[0-9]+}/status", r.setAssetStatus).Methods("PUT")
	api.HandleFunc("/assets/{id:[0-9]+}/qr", r.regenerateQR).Methods("POST")
	api.HandleFunc("/assets/{id:[0-9]+}/history", r.assetHistory).Methods("GET")
	api.HandleFunc("/assets/{id:[0-9]+}/assignments", r.assetAssignments).Methods("GET")
	api.HandleFunc("/assets/{id:[0-9]+}/maintenance", r.assetMaintenance).Methods("GET")

	// Assignments
	api.HandleFunc("/assignments", r.listAssignments).Methods("GET")
	api.HandleFunc("/assignments", r.createAssignment).Methods("POST")
	api.HandleFunc("/assignments/{id:[0-9]+}", r.getAssignment).Methods("GET")
	api.HandleFunc("/assignments/{id:[0-9]+}", r.deleteAssignment).Methods("DELETE")
	api.HandleFunc("/assignments/{id:[0-9]+}/return", r.returnAssignment).Methods("POST")
	api.HandleFunc("/employees/{id:[0-9]+}/assignments", r.employeeAssignments).Methods("GET")

	// Scheduled maintenance
	sm := api.PathPrefix("/scheduled-maintenance").Subrouter()
	sm.HandleFunc("", r.listSchedules).Methods("GET")
	sm.HandleFunc("", r.createSchedule).Methods("POST")
	sm.HandleFunc("/bulk", r.createSchedulesBulk).Methods("POST")
	sm.HandleFunc("/due", r.dueSchedules).Methods("GET")
	sm.HandleFunc("/{id:[0-9]+}", r.getSchedule).Methods("GET")
	sm.HandleFunc("/{id:[0-9]+}", r.updateSchedule).Methods("PUT", "PATCH")
	sm.HandleFunc("/{id:[0-9]+}", r.deleteSchedule).Methods("DELETE")
	sm.HandleFunc("/{id:[0-9]+}/complete", r.completeSchedule).Methods("POST")
	sm.HandleFunc("/{id:[0-9]+}/technician", r.reassignSchedule).Methods("PUT")
	sm.HandleFunc("/{id:[0-9]+}/cancel", r.cancelSchedule).Methods("POST")

	// Maintenance records
	api.HandleFunc("/maintenance", r.listRecords).Methods("GET")
	api.HandleFunc("/maintenance", r.createRecord).Methods("POST")
	api.HandleFunc("/maintenance/{id:[0-9]+}", r.getRecord).Methods("GET")
	api.HandleFunc("/maintenance/{id:[0-9]+}", r.updateRecord).Methods("PUT", "PATCH")
	api.HandleFunc("/maintenance/{id:[0-9]+}", r.deleteRecord).Methods("DELETE")

	// Notifications
	api.HandleFunc("/notifications", r.listNotifications).Methods("GET")
	api.HandleFunc("/notifications/unread-count", r.unreadCount).Methods("GET")
	api.HandleFunc("/notifications/read-all", r.markAllRead).Methods("POST")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", r.markRead).Methods("POST")
	api.HandleFunc("/notifications/{id:[0-9]+}", r.deleteNotification).Methods("DELETE")

	// Requests
	api.HandleFunc("/requests", r.listRequests).Methods("GET")
	api.HandleFunc("/requests", r.createRequest).Methods("POST")
	api.HandleFunc("/requests/{id:[0-9]+}", r.getRequest).Methods("GET")
	api.HandleFunc("/requests/{id:[0-9]+}/approve", r.approveRequest).Methods("POST")
	api.HandleFunc("/requests/{id:[0-9]+}/reject", r.rejectRequest).Methods("POST")
	api.HandleFunc("/requests/{id:[0-9]+}/complete", r.completeRequest).Methods("POST")

	return r
}

// healthCheck returns the health status and build info of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	status := "ok"
	code := http.StatusOK
	if sqlDB, err := r.db.DB(); err != nil || sqlDB.PingContext(req.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]string{
		"status":     status,
		"buildTime":  buildinfo.BuildTime,
		"commitHash": buildinfo.CommitHash,
		"startedAt":  buildinfo.StartTime,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps err to a status code and sends {"error", "message"}
func (r *Router) respondError(w http.ResponseWriter, req *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		r.log.Error("Request failed",
			zap.String("path", req.URL.Path),
			zap.String("request_id", middleware.RequestIDFrom(req.Context())),
			zap.Error(err))
		message = "internal server error"
	}
	respondJSON(w, status, map[string]string{
		"error":   apperr.Kind(err),
		"message": message,
	})
}

// decodeJSON reads the body into dst. An empty body leaves dst untouched.
func decodeJSON(req *http.Request, dst interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid request payload: %v", err)
	}
	return nil
}

// identity returns the authenticated caller. Routes under /api always have one.
func identity(req *http.Request) access.Identity {
	id, _ := middleware.IdentityFrom(req.Context())
	return id
}

func pathID(req *http.Request) uint {
	// the route pattern only admits digits
	v, _ := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	return uint(v)
}

// queryUint parses an optional numeric query parameter
func queryUint(req *http.Request, key string) (*uint, error) {
	raw := strings.TrimSpace(req.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation("%s must be a positive integer", key)
	}
	u := uint(v)
	return &u, nil
}

// queryUints reads several optional numeric query parameters in one go
func queryUints(req *http.Request, keys ...string) (map[string]*uint, error) {
	out := make(map[string]*uint, len(keys))
	for _, k := range keys {
		v, err := queryUint(req, k)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func queryBool(req *http.Request, key string) bool {
	v, _ := strconv.ParseBool(req.URL.Query().Get(key))
	return v
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
