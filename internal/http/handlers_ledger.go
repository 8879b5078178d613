package http

import (
	"net/http"

	"fintrack/internal/core"
)

type createAccountRequest struct {
	Name           string           `json:"name"`
	Type           core.AccountType `json:"type"`
	InitialBalance core.Money       `json:"initial_balance"`
	Currency       string           `json:"currency"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.ledger.CreateAccount(r.Context(), ownerFrom(r.Context()), req.Name, req.Type, req.InitialBalance, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountJSON(a))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	accounts, err := s.ledger.ListAccounts(r.Context(), ownerFrom(r.Context()), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(accounts, toAccountJSON))
}

type updateAccountRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Active == nil {
		writeError(w, r, &core.ValidationError{Field: "active", Reason: "required"})
		return
	}
	a, err := s.ledger.SetAccountActive(r.Context(), ownerFrom(r.Context()), id, *req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountJSON(a))
}

func (s *Server) handleAuditAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.auditor.AuditAccount(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditJSON(result))
}

type createCategoryRequest struct {
	Name  string         `json:"name"`
	Type  core.Direction `json:"type"`
	Color string         `json:"color"`
	Icon  string         `json:"icon"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.CreateCategory(r.Context(), ownerFrom(r.Context()), req.Name, req.Type, req.Color, req.Icon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	dir := q.direction("type")
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	cats, err := s.ledger.ListCategories(r.Context(), ownerFrom(r.Context()), dir)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(cats, toCategoryJSON))
}

type createTransactionRequest struct {
	AccountID   int64          `json:"account_id"`
	CategoryID  int64          `json:"category_id"`
	Amount      core.Money     `json:"amount"`
	Type        core.Direction `json:"type"`
	Description string         `json:"description"`
	Date        core.Date      `json:"date"`
	Tags        []string       `json:"tags"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.ledger.CreateTransaction(r.Context(), ownerFrom(r.Context()), core.NewTransaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Direction:   req.Type,
		Description: req.Description,
		Date:        req.Date,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, page, err := transactionQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.ledger.ListTransactions(r.Context(), ownerFrom(r.Context()), filter, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionPageJSON{
		Items:  mapSlice(result.Items, toTransactionJSON),
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.ledger.GetTransaction(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

type updateTransactionRequest struct {
	Amount      *core.Money     `json:"amount"`
	Type        *core.Direction `json:"type"`
	CategoryID  *int64          `json:"category_id"`
	Description *string         `json:"description"`
	Date        *core.Date      `json:"date"`
	Tags        *[]string       `json:"tags"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.ledger.UpdateTransaction(r.Context(), ownerFrom(r.Context()), id, core.TransactionPatch{
		Amount:      req.Amount,
		Direction:   req.Type,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        req.Date,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), ownerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
