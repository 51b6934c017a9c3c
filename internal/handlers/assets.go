package handlers

import (
	"net/http"

	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/services/assets"
)

func (r *Router) listAssets(w http.ResponseWriter, req *http.Request) {
	q, err := queryUints(req, "companyId", "siteId", "categoryId")
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	list, err := r.svc.Assets.List(req.Context(), identity(req), assets.ListFilter{
		CompanyID:  q["companyId"],
		SiteID:     q["siteId"],
		CategoryID: q["categoryId"],
		Status:     models.AssetStatus(req.URL.Query().Get("status")),
	})
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createAsset(w http.ResponseWriter, req *http.Request) {
	var in assets.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	asset, err := r.svc.Assets.Create(req.Context(), identity(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, asset)
}

func (r *Router) getAsset(w http.ResponseWriter, req *http.Request) {
	detail, err := r.svc.Assets.Get(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (r *Router) updateAsset(w http.ResponseWriter, req *http.Request) {
	var in assets.UpdateInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	asset, err := r.svc.Assets.Update(req.Context(), identity(req), pathID(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, asset)
}

func (r *Router) setAssetStatus(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Status models.AssetStatus `json:"status"`
	}
	if err := decodeJSON(req, &body); err != nil {
		r.respondError(w, req, err)
		return
	}
	asset, err := r.svc.Assets.SetStatus(req.Context(), identity(req), pathID(req), body.Status)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, asset)
}

func (r *Router) deleteAsset(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Assets.Remove(req.Context(), identity(req), pathID(req)); err != nil {
		r.respondError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) regenerateQR(w http.ResponseWriter, req *http.Request) {
	row, err := r.svc.Assets.RegenerateQR(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, row)
}

func (r *Router) assetHistory(w http.ResponseWriter, req *http.Request) {
	entries, err := r.svc.Assets.History(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (r *Router) assetAssignments(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Assignments.ForAsset(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) assetMaintenance(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Maintenance.ForAsset(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
