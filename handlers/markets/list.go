package markets

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"clawstreetbets/market"
	"clawstreetbets/middleware"
	"clawstreetbets/models"
	"clawstreetbets/security"
)

// ListMarketsHandler handles GET /api/markets
func ListMarketsHandler(svc *market.Service, auth *middleware.AgentAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, httpErr := auth.Optional(r)
		if httpErr != nil {
			writeHTTPError(w, httpErr)
			return
		}

		opts := market.ListOptions{
			Category: r.URL.Query().Get("category"),
			Sort:     r.URL.Query().Get("sort"),
		}
		if s := r.URL.Query().Get("status"); s != "" {
			status, err := models.ParseMarketStatus(s)
			if err != nil {
				writeValidationError(w, err.Error())
				return
			}
			opts.Status = &status
		}
		switch opts.Sort {
		case "", market.SortNewest, market.SortMostVotes, market.SortClosingSoon:
		default:
			writeValidationError(w, "sort must be one of newest, most_votes, closing_soon")
			return
		}
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil {
				opts.Limit = parsed
			}
		}
		if o := r.URL.Query().Get("offset"); o != "" {
			if parsed, err := strconv.Atoi(o); err == nil {
				opts.Offset = parsed
			}
		}

		list, err := svc.ListMarkets(opts)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		creatorIDs := make([]string, 0, len(list))
		seen := make(map[string]bool, len(list))
		for _, m := range list {
			if !seen[m.AgentID] {
				seen[m.AgentID] = true
				creatorIDs = append(creatorIDs, m.AgentID)
			}
		}
		names, err := svc.AgentNames(creatorIDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]models.MarketPublic, len(list))
		for i := range list {
			m := &list[i]
			var yourVote *string
			if viewer != nil {
				yourVote, _ = svc.AgentVote(m.ID, viewer.ID)
			}
			name := names[m.AgentID]
			if name == "" {
				name = "Unknown"
			}
			out[i] = m.ToPublic(name, yourVote)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GetMarketHandler handles GET /api/markets/{id}
func GetMarketHandler(svc *market.Service, auth *middleware.AgentAuth, sec *security.SecurityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, httpErr := auth.Optional(r)
		if httpErr != nil {
			writeHTTPError(w, httpErr)
			return
		}

		m, err := svc.GetMarket(mux.Vars(r)["id"])
		if err != nil {
			writeDomainError(w, err)
			return
		}

		names, err := svc.AgentNames([]string{m.AgentID})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		name := names[m.AgentID]
		if name == "" {
			name = "Unknown"
		}

		var yourVote *string
		if viewer != nil {
			yourVote, _ = svc.AgentVote(m.ID, viewer.ID)
		}

		pub := m.ToPublic(name, yourVote)
		pub.DescriptionHTML = sec.RenderDescription(m.Description)
		writeJSON(w, http.StatusOK, pub)
	}
}

// CategoriesHandler handles GET /api/markets/categories
func CategoriesHandler(svc *market.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}
