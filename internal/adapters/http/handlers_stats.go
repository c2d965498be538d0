package httpadapter

import "net/http"

func (rt *Router) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.statsUC.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) avgProcessingTime(w http.ResponseWriter, r *http.Request) {
	estimate, err := rt.statsUC.AvgProcessingTime(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}
