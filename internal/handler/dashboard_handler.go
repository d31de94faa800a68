package handler

import (
	"net/http"
	"strconv"

	"zerowaste/internal/dashboard"
	"zerowaste/internal/listing"
	"zerowaste/internal/model"
	"zerowaste/internal/projection"

	"github.com/rs/zerolog"
)

// DashboardHandler serves the projected, paginated dashboard of the caller.
type DashboardHandler struct {
	loader   *dashboard.Loader
	pageSize int
	logger   zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(loader *dashboard.Loader, pageSize int, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		loader:   loader,
		pageSize: pageSize,
		logger:   logger.With().Str("handler", "dashboard").Logger(),
	}
}

// TabSummary names a tab and how many cards it holds before filtering.
type TabSummary struct {
	Tab   projection.Tab `json:"tab"`
	Count int            `json:"count"`
}

// DashboardResponse is the body of GET /api/dashboard.
type DashboardResponse struct {
	Actor model.Actor  `json:"actor"`
	Tabs  []TabSummary `json:"tabs"`
	listing.Page
}

// Get handles GET /api/dashboard?tab=&q=&sort=&dir=&page=&history=&distances=
// requests. distances carries id:km pairs for sort=distance.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	state, opts, fields := h.parseQuery(r)
	if len(fields) > 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, model.ErrValidation.Message, fields)
		return
	}

	donations, err := h.loader.Donations(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	dir, err := h.loader.Directory(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	view, err := projection.Project(actor, donations, dir, opts)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	page, err := dashboard.Paginate(view, state)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	tabs := make([]TabSummary, len(view.Sections))
	for i, s := range view.Sections {
		tabs[i] = TabSummary{Tab: s.Tab, Count: len(s.Cards)}
	}

	writeJSON(w, r, http.StatusOK, DashboardResponse{Actor: actor, Tabs: tabs, Page: page})
}

func (h *DashboardHandler) parseQuery(r *http.Request) (listing.State, projection.Options, []model.FieldError) {
	var verr model.ValidationError
	q := r.URL.Query()

	state := listing.NewState(projection.Tab(q.Get("tab")), h.pageSize)
	state.Query = q.Get("q")

	if key, ok := listing.ParseSortKey(q.Get("sort")); ok {
		state.Sort = key
	} else {
		verr.Add("sort", "must be one of date, distance, status, name")
	}
	state.Direction = listing.ParseDirection(q.Get("dir"))

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("page", "must be an integer")
		} else {
			state.Page = page
		}
	}

	var opts projection.Options
	if raw := q.Get("history"); raw != "" {
		history, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("history", "must be true or false")
		}
		opts.IncludeHistory = history
	}
	if state.Tab == projection.TabHistory {
		opts.IncludeHistory = true
	}
	distances, err := projection.ParseDistances(q.Get("distances"))
	if err != nil {
		verr.Add("distances", err.Error())
	}
	opts.Distances = distances

	return state, opts, verr.Fields
}
