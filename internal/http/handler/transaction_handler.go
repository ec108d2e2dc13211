package handler

import (
	"net/http"

	"github.com/techvilo/crm-api/internal/domain"
	"github.com/techvilo/crm-api/internal/service"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	txService *service.TransactionService
	logger    *zap.Logger
}

func NewTransactionHandler(txService *service.TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{txService: txService, logger: logger}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	txType := domain.TransactionType(r.URL.Query().Get("type"))
	if txType != "" && txType != domain.TransactionIncome && txType != domain.TransactionExpense {
		respondWithError(w, http.StatusBadRequest, "Invalid transaction type filter")
		return
	}

	txns, total, err := h.txService.List(r.Context(), page, pageSize, txType)
	if err != nil {
		h.logger.Error("failed to list transactions", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: txns, Total: total, Page: page, PageSize: pageSize})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}
	txn, err := h.txService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	txn, err := h.txService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create transaction", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}
	var req domain.UpdateTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondBindError(w, err)
		return
	}
	txn, err := h.txService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update transaction", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}
	if err := h.txService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
