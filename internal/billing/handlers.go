package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/velonias/billsentry/internal/scrape"
)

// envelope is the uniform response body shape of the ingestion API.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: "error", Message: message})
}

// billingView is the wire shape of a stored record. The secret hash and the
// dedup key never leave the store.
type billingView struct {
	ID         uint64          `json:"billingid"`
	Service    string          `json:"service"`
	Username   string          `json:"username"`
	Data       json.RawMessage `json:"data"`
	CategoryID *uint64         `json:"categoryid,omitempty"`
}

// handleSave dispatches credentials to the matching driver and persists the
// outcome.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service  string `json:"service"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := s.service.SubmitScrape(r.Context(), req.Service, req.Username, req.Password)
	if err != nil {
		var validationErr *ValidationError
		var scrapeErr *scrape.Error
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.As(err, &scrapeErr):
			// Automation failures are an application-level outcome,
			// not a transport failure; the client offers a retry.
			writeError(w, http.StatusOK, scrapeErr.Error())
		default:
			slog.Error("Error saving billing data", "service", req.Service, "error", err)
			writeError(w, http.StatusInternalServerError, "Error saving billing data")
		}
		return
	}

	writeSuccess(w, saveData(report))
}

// saveData shapes the response payload: single-bill providers return one
// object, the telecom provider an array of bills.
func saveData(report *ScrapeReport) any {
	if report.Service == scrape.ServiceTelecom {
		return report.Entries
	}
	if len(report.Entries) == 0 {
		return nil
	}
	return report.Entries[0]
}

// handleListBillingRecords returns every stored record; clients filter and
// group on their side.
func (s *Server) handleListBillingRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListBillingRecords()
	if err != nil {
		slog.Error("Error listing billing records", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching data")
		return
	}

	views := make([]billingView, 0, len(records))
	for _, rec := range records {
		views = append(views, billingView{
			ID:         rec.ID,
			Service:    rec.Service,
			Username:   rec.Username,
			Data:       rec.Payload,
			CategoryID: rec.CategoryID,
		})
	}
	writeSuccess(w, views)
}

// handleListCategories returns all seeded categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.service.ListCategories()
	if err != nil {
		slog.Error("Error listing categories", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching categories")
		return
	}
	writeSuccess(w, categories)
}

// handleAssignCategory sets the category on a billing record
func (s *Server) handleAssignCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BillingID  uint64 `json:"billingid"`
		CategoryID uint64 `json:"categoryid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := s.service.AssignCategory(req.BillingID, req.CategoryID)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrCategoryNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			slog.Error("Error assigning category", "billingid", req.BillingID, "error", err)
			writeError(w, http.StatusInternalServerError, "Error updating category")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{Status: "success"})
}
