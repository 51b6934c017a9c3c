package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// assetLabels renders a QR label sheet for the posted asset ids
func (r *Router) assetLabels(w http.ResponseWriter, req *http.Request) {
	var body struct {
		AssetIDs []uint `json:"assetIds"`
	}
	if err := decodeJSON(req, &body); err != nil {
		r.respondError(w, req, err)
		return
	}

	pdfBytes, err := r.svc.Assets.LabelsPDF(req.Context(), identity(req), body.AssetIDs)
	if err != nil {
		r.respondError(w, req, err)
		return
	}

	// Set headers for download
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(fmt.Sprintf("asset_labels_%s.pdf", time.Now().UTC().Format("20060102_150405"))))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))

	w.Write(pdfBytes)
}
