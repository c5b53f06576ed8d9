package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wathaci/internal/domain"
	"wathaci/internal/service/compliance"
)

type taskView struct {
	domain.ComplianceTask
	Overdue bool `json:"overdue"`
}

func viewTask(t *domain.ComplianceTask, now time.Time) *taskView {
	if t == nil {
		return nil
	}
	return &taskView{ComplianceTask: *t, Overdue: t.Overdue(now)}
}

func (a *App) ComplianceList(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var overdue *bool
	if raw := r.URL.Query().Get("overdue"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "overdue must be true or false")
			return
		}
		overdue = &v
	}
	tasks, err := a.Compliance.List(r.Context(), userID, r.URL.Query().Get("status"), overdue)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	now := time.Now()
	items := make([]*taskView, 0, len(tasks))
	for i := range tasks {
		items = append(items, viewTask(&tasks[i], now))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) ComplianceCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var in compliance.CreateInput
	if !a.decode(w, r, &in) {
		return
	}
	task, err := a.Compliance.Create(r.Context(), userID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, viewTask(task, time.Now()))
}

func (a *App) ComplianceGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	task, err := a.Compliance.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	docs, err := a.Compliance.Documents(r.Context(), userID, task.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.ComplianceDocument{}
	}
	a.json(w, http.StatusOK, map[string]any{"task": viewTask(task, time.Now()), "documents": docs})
}

func (a *App) ComplianceUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var in compliance.UpdateInput
	if !a.decode(w, r, &in) {
		return
	}
	res, err := a.Compliance.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	now := time.Now()
	out := map[string]any{"task": viewTask(res.Task, now)}
	if res.Next != nil {
		out["next"] = viewTask(res.Next, now)
	}
	a.json(w, http.StatusOK, out)
}

func (a *App) ComplianceDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.Compliance.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ComplianceSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	summary, err := a.Compliance.Summary(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, summary)
}

// ComplianceUpload accepts one multipart file in the "file" field.
func (a *App) ComplianceUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, compliance.MaxDocumentBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "document exceeds 10 MiB")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form with a file field required")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, compliance.MaxDocumentBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	doc, err := a.Compliance.AddDocument(r.Context(), userID, chi.URLParam(r, "id"), compliance.Upload{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, doc)
}

func (a *App) ComplianceArchive(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	archive, filename, err := a.Compliance.Archive(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
