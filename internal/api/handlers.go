package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tagprogress/internal/checksum"
	"github.com/starford/tagprogress/internal/statservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *statservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *statservice.Service) *Handler {
	return &Handler{svc: svc}
}

// GetOverview handles GET /api/overview.
//
//	@Summary		Compute the progress overview
//	@Tags			overview
//	@Produce		json
//	@Param			mode					query		string	false	"Reporting mode"	Enums(items, sdd, subject)
//	@Param			only_rang				query		string	false	"Keep only notes of this rank"
//	@Param			exclude_rang			query		string	false	"Drop notes of this rank"
//	@Param			include_children		query		bool	false	"List child tags as units"
//	@Param			subject_filter			query		[]string	false	"Subject roots"
//	@Param			suspend_mask_threshold	query		number	false	"Unsuspended share at or below which a unit is hidden"
//	@Param			overlap_threshold		query		number	false	"Minimum subject overlap (ratio or percent)"
//	@Success		200						{object}	OverviewResponse
//	@Failure		400						{object}	errResponse
//	@Security		BearerAuth
//	@Router			/overview [get]
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r.URL.Query(), h.svc.Defaults())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	ov, err := h.svc.Overview(r.Context(), opts)
	if err != nil {
		writeServiceError(w, "overview", err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// PostOverview handles POST /api/overview.
//
//	@Summary		Compute the progress overview from a JSON request
//	@Tags			overview
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OverviewRequest	true	"Options; absent fields keep the defaults"
//	@Success		200		{object}	OverviewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/overview [post]
func (h *Handler) PostOverview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	opts := h.svc.Defaults()
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	ov, err := h.svc.Overview(r.Context(), opts)
	if err != nil {
		writeServiceError(w, "overview", err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// InitialOverview handles POST /api/overview/initial.
//
//	@Summary		Compute the overview for the last saved settings
//	@Tags			overview
//	@Produce		json
//	@Success		200	{object}	OverviewResponse
//	@Security		BearerAuth
//	@Router			/overview/initial [post]
func (h *Handler) InitialOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.InitialOverview(r.Context())
	if err != nil {
		writeServiceError(w, "initial overview", err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// TagStats handles GET /api/tags/stats.
//
//	@Summary		Statistics of one arbitrary tag
//	@Tags			tags
//	@Produce		json
//	@Param			tag	query		string	true	"Tag"
//	@Success		200	{object}	UnitStats
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/stats [get]
func (h *Handler) TagStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tag := q.Get("tag")
	if strings.TrimSpace(tag) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'tag' is required"))
		return
	}
	opts, err := optionsFromQuery(q, h.svc.Defaults())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	u, err := h.svc.TagStats(r.Context(), tag, opts)
	if err != nil {
		writeServiceError(w, "tag stats", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CustomTagStats handles GET /api/tags/custom.
//
//	@Summary		Statistics of the custom tags pinned in the saved settings
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	CustomTagsResponse
//	@Security		BearerAuth
//	@Router			/tags/custom [get]
func (h *Handler) CustomTagStats(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.CustomTagStats(r.Context())
	if err != nil {
		writeServiceError(w, "custom tag stats", err)
		return
	}
	writeJSON(w, http.StatusOK, CustomTagsResponse{Items: items})
}

// SearchTags handles GET /api/tags/search.
//
//	@Summary		Search item, SDD and subject tags
//	@Tags			tags
//	@Produce		json
//	@Param			q		query		string	false	"Whitespace-separated terms"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/tags/search [get]
func (h *Handler) SearchTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tags, err := h.svc.SearchTags(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search tags", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Tags: tags})
}

// Subjects handles GET /api/subjects.
//
//	@Summary		List subject tags
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	SubjectsResponse
//	@Security		BearerAuth
//	@Router			/subjects [get]
func (h *Handler) Subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.svc.Subjects(r.Context())
	if err != nil {
		writeServiceError(w, "subjects", err)
		return
	}
	writeJSON(w, http.StatusOK, SubjectsResponse{Subjects: subjects})
}

// GetState handles GET /api/state.
//
//	@Summary		Get the saved presets and settings
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Security		BearerAuth
//	@Router			/state [get]
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetState(r.Context())
	if err != nil {
		writeServiceError(w, "get state", err)
		return
	}
	if etag := checksum.ETag(st.Checksum); etag != "" {
		w.Header().Set("ETag", etag)
	}
	writeJSON(w, http.StatusOK, st)
}

// PutState handles PUT /api/state.
//
//	@Summary		Replace the saved presets and settings
//	@Tags			state
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header		string			false	"Checksum for optimistic concurrency"
//	@Param			body		body		StateRequest	true	"New state"
//	@Success		200			{object}	StateResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/state [put]
func (h *Handler) PutState(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	st, err := h.svc.SaveState(r.Context(), req, checksum.FromIfMatch(r.Header.Get("If-Match")))
	if err != nil {
		writeServiceError(w, "save state", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(st.Checksum))
	writeJSON(w, http.StatusOK, st)
}

// Modules handles GET /api/modules.
//
//	@Summary		List modules with their enabled flag
//	@Tags			modules
//	@Produce		json
//	@Success		200	{object}	ModulesResponse
//	@Security		BearerAuth
//	@Router			/modules [get]
func (h *Handler) Modules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModulesResponse{Modules: h.svc.Modules(r.Context())})
}

// PutModule handles PUT /api/modules/{id}.
//
//	@Summary		Enable or disable a module
//	@Tags			modules
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Module ID"
//	@Param			body	body		ModuleToggleRequest	true	"Flag"
//	@Success		200		{object}	registry.Status
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/modules/{id} [put]
func (h *Handler) PutModule(w http.ResponseWriter, r *http.Request) {
	var req ModuleToggleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil || req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("body must be {\"enabled\": bool}"))
		return
	}
	st, err := h.svc.SetModuleEnabled(r.Context(), chi.URLParam(r, "id"), *req.Enabled)
	if err != nil {
		writeServiceError(w, "set module", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ExportCSV handles GET /api/export.csv.
//
//	@Summary		Export the overview as CSV
//	@Tags			export
//	@Produce		text/csv
//	@Param			mode	query		string	false	"Reporting mode"	Enums(items, sdd, subject)
//	@Success		200		{file}		file
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export.csv [get]
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r.URL.Query(), h.svc.Defaults())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(r.Context(), &buf, opts); err != nil {
		writeServiceError(w, "export csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="edn_export.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Status handles GET /api/status.
//
//	@Summary		Collection path and sizes
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	statservice.Status
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		writeServiceError(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
