package galaxytest

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// Handler returns the fake server's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.failures, s.auth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/histories", s.listHistories)
		r.Post("/histories", s.createHistory)
		r.Get("/histories/{historyID}", s.showHistory)
		r.Put("/histories/{historyID}", s.updateHistory)
		r.Delete("/histories/{historyID}", s.deleteHistory)
		r.Get("/histories/{historyID}/contents", s.listContents)
		r.Delete("/histories/{historyID}/contents/{datasetID}", s.deleteDataset)
		r.Post("/histories/{historyID}/contents/dataset_collections", s.createCollection)

		r.Post("/tools", s.uploadTool)

		r.Get("/workflows", s.listWorkflows)
		r.Get("/workflows/{workflowID}", s.showWorkflow)
		r.Post("/workflows/{workflowID}/invocations", s.invokeWorkflow)
		r.Get("/workflows/{workflowID}/invocations", s.listInvocations)
		r.Delete("/workflows/{workflowID}/invocations/{invocationID}", s.cancelInvocation)

		r.Get("/invocations/{invocationID}", s.showInvocation)
		r.Get("/invocations/{invocationID}/steps/{stepID}", s.showInvocationStep)

		r.Get("/jobs/{jobID}", s.showJob)
		r.Get("/datasets/{datasetID}", s.showDataset)
		r.Get("/datasets/{datasetID}/display", s.displayDataset)
		r.Get("/genomes", s.listGenomes)
	})

	return r
}

func (s *Server) failures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		s.mu.Unlock()

		if fail {
			writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.APIKey != "" && r.Header.Get("x-api-key") != s.APIKey {
			writeError(w, http.StatusForbidden, "Provided API key is not valid.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"err_msg": msg})
}

func (s *Server) historyJSON(h *history) map[string]any {
	return map[string]any{
		"id":      h.ID,
		"name":    h.Name,
		"deleted": h.Deleted,
		"tags":    h.Tags,
	}
}

// historyState aggregates per-state dataset counts for a history.
func (s *Server) historyState(h *history) (string, map[string]int) {
	counts := map[string]int{
		"new": 0, "upload": 0, "queued": 0, "running": 0,
		"setting_metadata": 0, "ok": 0, "error": 0, "paused": 0,
	}
	for _, d := range s.datasets {
		if d.HistoryID == h.ID && !d.Deleted {
			counts[d.State]++
		}
	}

	switch {
	case counts["error"] > 0:
		return "error", counts
	case counts["new"]+counts["upload"]+counts["queued"]+counts["running"]+counts["setting_metadata"] > 0:
		return "running", counts
	default:
		return "ok", counts
	}
}

func (s *Server) listHistories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.histories))
	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, s.historyJSON(s.histories[id]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createHistory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h := &history{ID: newID(), Name: body.Name, Tags: []string{}}
	s.histories[h.ID] = h
	writeJSON(w, http.StatusOK, s.historyJSON(h))
}

func (s *Server) showHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[chi.URLParam(r, "historyID")]
	if !ok {
		writeError(w, http.StatusNotFound, "History not found")
		return
	}
	state, counts := s.historyState(h)
	out := s.historyJSON(h)
	out["state"] = state
	out["state_details"] = counts
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateHistory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[chi.URLParam(r, "historyID")]
	if !ok {
		writeError(w, http.StatusNotFound, "History not found")
		return
	}
	if body.Tags != nil {
		h.Tags = body.Tags
	}
	writeJSON(w, http.StatusOK, s.historyJSON(h))
}

func (s *Server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[chi.URLParam(r, "historyID")]
	if !ok {
		writeError(w, http.StatusNotFound, "History not found")
		return
	}
	h.Deleted = true
	if r.URL.Query().Get("purge") == "true" {
		h.Purged = true
	}
	writeJSON(w, http.StatusOK, s.historyJSON(h))
}

func (s *Server) listContents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	historyID := chi.URLParam(r, "historyID")
	if _, ok := s.histories[historyID]; !ok {
		writeError(w, http.StatusNotFound, "History not found")
		return
	}

	out := make([]map[string]any, 0)
	ids := make([]string, 0)
	for id, d := range s.datasets {
		if d.HistoryID == historyID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		d := s.datasets[id]
		out = append(out, map[string]any{
			"id": d.ID, "name": d.Name, "deleted": d.Deleted, "state": d.State,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteDataset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datasets[chi.URLParam(r, "datasetID")]
	if !ok || d.HistoryID != chi.URLParam(r, "historyID") {
		writeError(w, http.StatusNotFound, "Dataset not found")
		return
	}
	d.Deleted = true
	if r.URL.Query().Get("purge") == "true" {
		d.Purged = true
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": d.ID, "deleted": true})
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name               string              `json:"name"`
		CollectionType     string              `json:"collection_type"`
		ElementIdentifiers []collectionElement `json:"element_identifiers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	historyID := chi.URLParam(r, "historyID")
	if _, ok := s.histories[historyID]; !ok {
		writeError(w, http.StatusNotFound, "History not found")
		return
	}
	for _, el := range body.ElementIdentifiers {
		if _, ok := s.datasets[el.ID]; !ok {
			writeError(w, http.StatusBadRequest, "Element dataset not found")
			return
		}
	}

	col := &collection{ID: newID(), HistoryID: historyID, Name: body.Name, Elements: body.ElementIdentifiers}
	s.collections[col.ID] = col
	writeJSON(w, http.StatusOK, map[string]any{
		"id": col.ID, "name": col.Name, "collection_type": body.CollectionType,
	})
}

func (s *Server) uploadTool(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "malformed upload")
		return
	}
	if r.FormValue("tool_id") != "upload1" {
		writeError(w, http.StatusBadRequest, "unknown tool")
		return
	}

	var inputs struct {
		Name     string `json:"files_0|NAME"`
		FileType string `json:"file_type"`
	}
	if err := json.Unmarshal([]byte(r.FormValue("inputs")), &inputs); err != nil {
		writeError(w, http.StatusBadRequest, "malformed tool inputs")
		return
	}

	file, _, err := r.FormFile("files_0|file_data")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing upload content")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable upload content")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	historyID := r.FormValue("history_id")
	if _, ok := s.histories[historyID]; !ok {
		writeError(w, http.StatusBadRequest, "History not found")
		return
	}

	ext := inputs.FileType
	if ext == "auto" || ext == "" {
		ext = "data"
	}
	d := &dataset{
		ID:            newID(),
		HistoryID:     historyID,
		Name:          inputs.Name,
		State:         s.UploadState,
		FileExt:       ext,
		Content:       content,
		RequestedType: inputs.FileType,
	}
	s.datasets[d.ID] = d

	writeJSON(w, http.StatusOK, map[string]any{
		"outputs": []map[string]any{s.datasetJSON(d)},
	})
}

func (s *Server) datasetJSON(d *dataset) map[string]any {
	return map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"history_id": d.HistoryID,
		"state":      d.State,
		"deleted":    d.Deleted,
		"file_ext":   d.FileExt,
		"file_size":  len(d.Content),
		"misc_info":  d.MiscInfo,
	}
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.workflows))
	ids := make([]string, 0, len(s.workflows))
	for id := range s.workflows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		wf := s.workflows[id]
		out = append(out, map[string]any{
			"id": wf.ID, "name": wf.Name, "owner": wf.Owner,
			"tags": wf.Tags, "published": wf.Published,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) showWorkflow(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[chi.URLParam(r, "workflowID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id": wf.ID, "name": wf.Name, "owner": wf.Owner,
		"tags": wf.Tags, "published": wf.Published, "inputs": wf.Inputs,
	})
}

func (s *Server) invokeWorkflow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Inputs    map[string]any `json:"inputs"`
		HistoryID string         `json:"history_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[chi.URLParam(r, "workflowID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Workflow not found")
		return
	}
	if _, ok := s.histories[body.HistoryID]; !ok {
		writeError(w, http.StatusBadRequest, "History not found")
		return
	}

	inv := &invocation{
		ID:         newID(),
		WorkflowID: wf.ID,
		HistoryID:  body.HistoryID,
		State:      "scheduled",
		Outputs:    make(map[string]outputRef),
	}
	for label, spec := range s.InvokeOutputs {
		d := &dataset{
			ID:        newID(),
			HistoryID: body.HistoryID,
			Name:      label,
			State:     spec.State,
			FileExt:   spec.Ext,
			Content:   []byte(spec.Content),
		}
		s.datasets[d.ID] = d
		inv.Outputs[label] = outputRef{ID: d.ID, Src: "hda"}
	}
	s.invocations[inv.ID] = inv
	s.invocationOrder = append(s.invocationOrder, inv.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"id": inv.ID, "workflow_id": inv.WorkflowID,
		"history_id": inv.HistoryID, "state": inv.State,
	})
}

func (s *Server) listInvocations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflowID := chi.URLParam(r, "workflowID")
	historyID := r.URL.Query().Get("history_id")

	out := make([]map[string]any, 0)
	ids := make([]string, 0)
	for id, inv := range s.invocations {
		if inv.WorkflowID == workflowID && (historyID == "" || inv.HistoryID == historyID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		inv := s.invocations[id]
		out = append(out, map[string]any{
			"id": inv.ID, "workflow_id": inv.WorkflowID,
			"history_id": inv.HistoryID, "state": inv.State,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) cancelInvocation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invocations[chi.URLParam(r, "invocationID")]
	if !ok || inv.WorkflowID != chi.URLParam(r, "workflowID") {
		writeError(w, http.StatusNotFound, "Invocation not found")
		return
	}
	if inv.State != "new" && inv.State != "ready" {
		writeError(w, http.StatusBadRequest, "Cannot cancel an inactive workflow invocation.")
		return
	}
	inv.State = "cancelled"
	writeJSON(w, http.StatusOK, map[string]any{"id": inv.ID, "state": inv.State})
}

func (s *Server) invocationJSON(inv *invocation) map[string]any {
	steps := make([]map[string]any, 0, len(inv.Steps))
	for _, st := range inv.Steps {
		steps = append(steps, map[string]any{
			"id":                        st.ID,
			"subworkflow_invocation_id": st.SubInvocation,
		})
	}
	return map[string]any{
		"id":          inv.ID,
		"workflow_id": inv.WorkflowID,
		"history_id":  inv.HistoryID,
		"state":       inv.State,
		"outputs":     inv.Outputs,
		"steps":       steps,
	}
}

func (s *Server) showInvocation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invocations[chi.URLParam(r, "invocationID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Invocation not found")
		return
	}
	writeJSON(w, http.StatusOK, s.invocationJSON(inv))
}

func (s *Server) showInvocationStep(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invocations[chi.URLParam(r, "invocationID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Invocation not found")
		return
	}
	for _, st := range inv.Steps {
		if st.ID == chi.URLParam(r, "stepID") {
			writeJSON(w, http.StatusOK, map[string]any{
				"id":                  st.ID,
				"workflow_step_label": st.Label,
				"jobs":                st.Jobs,
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Invocation step not found")
}

func (s *Server) showJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[chi.URLParam(r, "jobID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      j.ID,
		"state":   j.State,
		"stderr":  j.Stderr,
		"params":  j.Params,
		"inputs":  j.Inputs,
		"outputs": j.Outputs,
	})
}

func (s *Server) showDataset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datasets[chi.URLParam(r, "datasetID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, s.datasetJSON(d))
}

func (s *Server) displayDataset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	d, ok := s.datasets[chi.URLParam(r, "datasetID")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Dataset not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(d.Content)
}

func (s *Server) listGenomes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.genomes == nil {
		writeJSON(w, http.StatusOK, [][]string{})
		return
	}
	writeJSON(w, http.StatusOK, s.genomes)
}
