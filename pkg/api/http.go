package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parley/pkg/conversation"
	"parley/pkg/store"
	"parley/pkg/utils"
)

// Handler returns the read-only debug API over the conversation registry.
func Handler(reg *conversation.Registry) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.JSONWrite(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"store_ready": store.Ready(),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/conversations", func(w http.ResponseWriter, _ *http.Request) {
		convs := reg.All()
		out := make([]conversation.Snapshot, 0, len(convs))
		for _, c := range convs {
			out = append(out, c.Snapshot())
		}
		utils.JSONWrite(w, http.StatusOK, out)
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/conversations/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		c, ok := reg.Get(id)
		if !ok {
			utils.JSONError(w, http.StatusNotFound, "conversation not found")
			return
		}
		utils.JSONWrite(w, http.StatusOK, c.Snapshot())
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/conversations/{id}/messages", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		c, ok := reg.Get(id)
		if !ok {
			utils.JSONError(w, http.StatusNotFound, "conversation not found")
			return
		}
		limit := 0
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				utils.JSONError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		utils.JSONWrite(w, http.StatusOK, c.Messages(limit))
	}).Methods(http.MethodGet)

	return r
}
