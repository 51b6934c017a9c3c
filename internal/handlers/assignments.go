package handlers

import (
	"net/http"

	"github.com/xelth-com/eckassets/internal/services/assignments"
)

func (r *Router) listAssignments(w http.ResponseWriter, req *http.Request) {
	q, err := queryUints(req, "companyId", "assetId", "employeeId")
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	list, err := r.svc.Assignments.List(req.Context(), identity(req), assignments.ListFilter{
		CompanyID:  q["companyId"],
		AssetID:    q["assetId"],
		EmployeeID: q["employeeId"],
		OpenOnly:   queryBool(req, "open"),
	})
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) createAssignment(w http.ResponseWriter, req *http.Request) {
	var in assignments.AssignInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	a, err := r.svc.Assignments.Assign(req.Context(), identity(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (r *Router) getAssignment(w http.ResponseWriter, req *http.Request) {
	a, err := r.svc.Assignments.Get(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (r *Router) returnAssignment(w http.ResponseWriter, req *http.Request) {
	var in assignments.ReturnInput
	if err := decodeJSON(req, &in); err != nil {
		r.respondError(w, req, err)
		return
	}
	a, err := r.svc.Assignments.Return(req.Context(), identity(req), pathID(req), in)
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (r *Router) deleteAssignment(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Assignments.Remove(req.Context(), identity(req), pathID(req)); err != nil {
		r.respondError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) employeeAssignments(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Assignments.ForEmployee(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
