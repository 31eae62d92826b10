package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nmslite/check-foreman/internal/middleware"
)

// DefaultPerPage is Foreman's default page size when per_page is absent.
const DefaultPerPage = 20

// searchMeta is the envelope Foreman puts around search results.
type searchMeta struct {
	Total    int    `json:"total"`
	Subtotal int    `json:"subtotal"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	Search   string `json:"search"`
}

type hostResult struct {
	Name      string `json:"name"`
	Hostgroup string `json:"hostgroup_name,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "Foreman Mock API",
	})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	if s.fixtures.Dashboard.IsZero() {
		middleware.SendError(w, r, http.StatusNotFound, "No dashboard fixture")
		return
	}

	var buf bytes.Buffer
	if err := nodeJSON(&buf, &s.fixtures.Dashboard); err != nil {
		s.logger.Error("Failed to render dashboard", "error", err)
		middleware.SendError(w, r, http.StatusInternalServerError, "Failed to render dashboard")
		return
	}
	respondRaw(w, http.StatusOK, buf.Bytes())
}

func (s *Server) hosts(w http.ResponseWriter, r *http.Request) {
	q, perPage, ok := s.searchRequest(w, r)
	if !ok {
		return
	}

	var matched []hostResult
	for i := range s.fixtures.Hosts {
		h := &s.fixtures.Hosts[i]
		if q.matchHost(h) {
			matched = append(matched, hostResult{Name: h.Name, Hostgroup: h.Params["hostgroup"]})
		}
	}

	page := matched
	if len(page) > perPage {
		page = page[:perPage]
	}
	if page == nil {
		page = []hostResult{}
	}

	respondJSON(w, http.StatusOK, struct {
		searchMeta
		Results []hostResult `json:"results"`
	}{
		searchMeta: searchMeta{
			Total:    len(s.fixtures.Hosts),
			Subtotal: len(matched),
			Page:     1,
			PerPage:  perPage,
			Search:   r.URL.Query().Get("search"),
		},
		Results: page,
	})
}

// factValues answers with results keyed by host then fact name. The page
// limit counts (host, fact) pairs, like Foreman's fact_values table.
func (s *Server) factValues(w http.ResponseWriter, r *http.Request) {
	q, perPage, ok := s.searchRequest(w, r)
	if !ok {
		return
	}

	var results bytes.Buffer
	results.WriteByte('{')
	total, matched, written := 0, 0, 0
	firstHost := true

	for i := range s.fixtures.Hosts {
		h := &s.fixtures.Hosts[i]
		names := h.FactNames()
		total += len(names)
		if !q.matchHost(h) {
			continue
		}

		var facts bytes.Buffer
		for _, name := range names {
			if !q.matchFact(name) {
				continue
			}
			matched++
			if written >= perPage {
				continue
			}
			if facts.Len() > 0 {
				facts.WriteByte(',')
			}
			if err := writeJSONString(&facts, name); err != nil {
				middleware.SendError(w, r, http.StatusInternalServerError, "Failed to render facts")
				return
			}
			facts.WriteByte(':')
			if err := nodeJSON(&facts, h.factValue(name)); err != nil {
				s.logger.Error("Failed to render fact", "host", h.Name, "fact", name, "error", err)
				middleware.SendError(w, r, http.StatusInternalServerError, "Failed to render facts")
				return
			}
			written++
		}
		if facts.Len() == 0 {
			continue
		}

		if !firstHost {
			results.WriteByte(',')
		}
		firstHost = false
		if err := writeJSONString(&results, h.Name); err != nil {
			middleware.SendError(w, r, http.StatusInternalServerError, "Failed to render facts")
			return
		}
		results.WriteString(":{")
		results.Write(facts.Bytes())
		results.WriteByte('}')
	}
	results.WriteByte('}')

	meta, err := json.Marshal(searchMeta{
		Total:    total,
		Subtotal: matched,
		Page:     1,
		PerPage:  perPage,
		Search:   r.URL.Query().Get("search"),
	})
	if err != nil {
		middleware.SendError(w, r, http.StatusInternalServerError, "Failed to render facts")
		return
	}

	// Splice "results" into the envelope object, keeping its key order.
	var body bytes.Buffer
	body.Write(meta[:len(meta)-1])
	body.WriteString(`,"results":`)
	body.Write(results.Bytes())
	body.WriteByte('}')
	respondRaw(w, http.StatusOK, body.Bytes())
}

func (s *Server) searchRequest(w http.ResponseWriter, r *http.Request) (query, int, bool) {
	params := r.URL.Query()

	perPage := DefaultPerPage
	if raw := params.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.SendError(w, r, http.StatusUnprocessableEntity, "per_page must be a positive integer")
			return nil, 0, false
		}
		perPage = n
	}

	q, err := parseQuery(params.Get("search"))
	if err != nil {
		middleware.SendError(w, r, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}
	return q, perPage, true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondRaw(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
