package handlers

import (
	"net/http"
	"strconv"

	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/services/schedules"
)

// defaultDueDays is the lookahead of /due when "days" is omitted
const defaultDueDays = 7

func (r *Router) listSchedules(w http.ResponseWriter, req *http.Request) {
	q, err := queryUints(req, "companyId", "assetId", "technicianId")
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	list, err := r.svc.Schedules.List(req.Context(), identity(req), schedules.ListFilter{
		CompanyID:    q["companyId"],
		AssetID:      q["assetId"],
		TechnicianID: q["technicianId"],
		Status:       models.ScheduleStatus(req.URL.Query().Get("status")),
	})
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createSchedule(w http.ResponseWriter, req *http.Request) {
	var in schedules.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	sm, err := r.svc.Schedules.Create(req.Context(), identity(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, sm)
}

func (r *Router) createSchedulesBulk(w http.ResponseWriter, req *http.Request) {
	var in schedules.BulkInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	res, err := r.svc.Schedules.CreateBulk(req.Context(), identity(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (r *Router) dueSchedules(w http.ResponseWriter, req *http.Request) {
	days := defaultDueDays
	if raw := req.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			r.respondError(w, req, apperr.Validation("days must be a non-negative integer"))
			return
		}
		days = n
	}
	companyID, err := queryUint(req, "companyId")
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	list, err := r.svc.Schedules.Due(req.Context(), identity(req), days, companyID)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) getSchedule(w http.ResponseWriter, req *http.Request) {
	sm, err := r.svc.Schedules.Get(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sm)
}

func (r *Router) updateSchedule(w http.ResponseWriter, req *http.Request) {
	var in schedules.UpdateInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	sm, err := r.svc.Schedules.Update(req.Context(), identity(req), pathID(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sm)
}

func (r *Router) completeSchedule(w http.ResponseWriter, req *http.Request) {
	var in schedules.CompletionInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	res, err := r.svc.Schedules.Complete(req.Context(), identity(req), pathID(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) reassignSchedule(w http.ResponseWriter, req *http.Request) {
	var body struct {
		TechnicianID *uint `json:"technicianId"`
	}
	if err := decodeJSON(req, &body); err != nil {
		r.respondError(w, req, err)
		return
	}
	sm, err := r.svc.Schedules.ReassignTechnician(req.Context(), identity(req), pathID(req), body.TechnicianID)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sm)
}

func (r *Router) cancelSchedule(w http.ResponseWriter, req *http.Request) {
	sm, err := r.svc.Schedules.Cancel(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sm)
}

func (r *Router) deleteSchedule(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Schedules.Remove(req.Context(), identity(req), pathID(req)); err != nil {
		r.respondError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
