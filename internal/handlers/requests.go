package handlers

import (
	"net/http"

	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/services/requests"
)

type decisionBody struct {
	Observations string `json:"observations"`
}

func (r *Router) listRequests(w http.ResponseWriter, req *http.Request) {
	companyID, err := queryUint(req, "companyId")
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	list, err := r.svc.Requests.List(req.Context(), identity(req), requests.ListFilter{
		CompanyID: companyID,
		Status:    models.RequestStatus(req.URL.Query().Get("status")),
	})
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createRequest(w http.ResponseWriter, req *http.Request) {
	var in requests.CreateInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	created, err := r.svc.Requests.Create(req.Context(), identity(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (r *Router) getRequest(w http.ResponseWriter, req *http.Request) {
	found, err := r.svc.Requests.Get(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (r *Router) approveRequest(w http.ResponseWriter, req *http.Request) {
	var body decisionBody
	if err := decodeJSON(req, &body); err != nil {
		r.respondError(w, req, err)
		return
	}
	out, err := r.svc.Requests.Approve(req.Context(), identity(req), pathID(req), body.Observations)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (r *Router) rejectRequest(w http.ResponseWriter, req *http.Request) {
	var body decisionBody
	if err := decodeJSON(req, &body); err != nil {
		r.respondError(w, req, err)
		return
	}
	out, err := r.svc.Requests.Reject(req.Context(), identity(req), pathID(req), body.Observations)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (r *Router) completeRequest(w http.ResponseWriter, req *http.Request) {
	out, err := r.svc.Requests.Complete(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
