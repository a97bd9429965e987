package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"summarymaker/internal/document/model"
	"summarymaker/internal/document/service"
	"summarymaker/middleware"
	"summarymaker/pkg/apperr"
	"summarymaker/pkg/logger"
	"summarymaker/pkg/response"
	"summarymaker/socket"

	"go.uber.org/zap"
)

const maxBodyBytes = 50 << 20

type DocumentHandler struct {
	Service *service.DocumentService
	Hub     *socket.Hub
}

func NewDocumentHandler(service *service.DocumentService, hub *socket.Hub) *DocumentHandler {
	return &DocumentHandler{Service: service, Hub: hub}
}

func (h *DocumentHandler) FetchDocument(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.FetchDocument(r.Context(), middleware.UserID(r.Context()), r.PathValue("userId"), r.PathValue("documentId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	setETag(w, view.Version)
	response.OK(w, view)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := model.ListQuery{
		Paginate: q.Get("paginate"),
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
	}

	view, err := h.Service.ListDocuments(r.Context(), middleware.UserID(r.Context()), r.PathValue("userId"), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view.Meta != nil {
		response.Paginated(w, view.Docs, response.Pagination(*view.Meta))
		return
	}
	response.OK(w, view.Docs)
}

func (h *DocumentHandler) FetchBlockContent(w http.ResponseWriter, r *http.Request) {
	elems, err := h.Service.FetchBlockContent(r.Context(), r.PathValue("documentId"), r.PathValue("blockId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, elems)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	ifVersion, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, &apperr.DomainError{Status: http.StatusRequestEntityTooLarge, Code: apperr.CodeBadRequest, Message: "Request body too large"})
			return
		}
		h.fail(w, r, apperr.InvalidInput("Invalid request body"))
		return
	}

	view, err := h.Service.UpdateDocument(r.Context(), middleware.UserID(r.Context()), r.PathValue("userId"), r.PathValue("documentId"), body, ifVersion)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	setETag(w, view.Version)
	response.OK(w, view)
}

// Events upgrades to a websocket that receives DOCUMENT_UPDATED messages for
// one owned document.
func (h *DocumentHandler) Events(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	docID := r.PathValue("documentId")
	if err := h.Service.AuthorizeSubscription(r.Context(), middleware.UserID(r.Context()), userID, docID); err != nil {
		h.fail(w, r, err)
		return
	}
	socket.ServeWs(h.Hub, w, r, docID, userID)
}

func (h *DocumentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	de := apperr.From(err)
	if de.Status >= http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	response.Error(w, de)
}

func setETag(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", fmt.Sprintf("%q", strconv.FormatInt(version, 10)))
}

// parseIfMatch reads a single version tag. An absent header or "*" means the
// write is unconditional.
func parseIfMatch(header string) (*int64, error) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return nil, nil
	}
	tag := strings.TrimPrefix(header, "W/")
	unquoted, err := strconv.Unquote(tag)
	if err != nil {
		unquoted = tag
	}
	v, err := strconv.ParseInt(unquoted, 10, 64)
	if err != nil || v < 0 {
		return nil, apperr.InvalidInput("Invalid value provided for header If-Match")
	}
	return &v, nil
}
