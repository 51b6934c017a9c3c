package handlers

import (
	"net/http"

	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/services/maintenance"
)

func (r *Router) listRecords(w http.ResponseWriter, req *http.Request) {
	q, err := queryUints(req, "companyId", "assetId", "technicianId")
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	list, err := r.svc.Maintenance.List(req.Context(), identity(req), maintenance.ListFilter{
		CompanyID:    q["companyId"],
		AssetID:      q["assetId"],
		TechnicianID: q["technicianId"],
		Type:         models.MaintenanceType(req.URL.Query().Get("type")),
	})
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createRecord(w http.ResponseWriter, req *http.Request) {
	var in maintenance.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	rec, err := r.svc.Maintenance.Create(req.Context(), identity(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (r *Router) getRecord(w http.ResponseWriter, req *http.Request) {
	rec, err := r.svc.Maintenance.Get(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (r *Router) updateRecord(w http.ResponseWriter, req *http.Request) {
	var in maintenance.UpdateInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	rec, err := r.svc.Maintenance.Update(req.Context(), identity(req), pathID(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (r *Router) deleteRecord(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Maintenance.Remove(req.Context(), identity(req), pathID(req)); err != nil {
		r.respondError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
