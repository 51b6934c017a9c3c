package handlers

import "net/http"

func (r *Router) listNotifications(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Notifications.List(req.Context(), identity(req), queryBool(req, "unread"))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) unreadCount(w http.ResponseWriter, req *http.Request) {
	n, err := r.svc.Notifications.CountUnread(req.Context(), identity(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (r *Router) markRead(w http.ResponseWriter, req *http.Request) {
	n, err := r.svc.Notifications.MarkRead(req.Context(), identity(req), pathID(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (r *Router) markAllRead(w http.ResponseWriter, req *http.Request) {
	n, err := r.svc.Notifications.MarkAllRead(req.Context(), identity(req))
	if err != nil {
		r.respondError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (r *Router) deleteNotification(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Notifications.Delete(req.Context(), identity(req), pathID(req)); err != nil {
		r.respondError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
