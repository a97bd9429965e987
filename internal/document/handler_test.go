package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"summarymaker/internal/document/model"
	"summarymaker/internal/document/repository"
	"summarymaker/internal/document/service"
	"summarymaker/middleware"
	"summarymaker/socket"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "handler-secret"

type stubDocs map[string]model.Document

func (s stubDocs) FindByOwner(_ context.Context, docID, ownerID string) (*model.Document, error) {
	d, ok := s[docID]
	if !ok || d.CreatedBy != ownerID {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s stubDocs) FindByID(_ context.Context, docID string) (*model.Document, error) {
	d, ok := s[docID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s stubDocs) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	var n int64
	for _, d := range s {
		if d.CreatedBy == ownerID {
			n++
		}
	}
	return n, nil
}

func (s stubDocs) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]model.Document, error) {
	out := []model.Document{}
	for _, id := range []string{"d1", "d2"} {
		if d, ok := s[id]; ok && d.CreatedBy == ownerID {
			out = append(out, d)
		}
	}
	if offset >= len(out) {
		return []model.Document{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s stubDocs) UpdatePayload(_ context.Context, docID string, p model.Payload, ifVersion *int64) (*model.Document, error) {
	d, ok := s[docID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ifVersion != nil && *ifVersion != d.Version {
		return nil, repository.ErrVersionConflict
	}
	d.Payload = p
	d.Version++
	s[docID] = d
	return &d, nil
}

type stubTemplates map[string]model.Template

func (s stubTemplates) FindByID(_ context.Context, id string) (*model.Template, error) {
	t, ok := s[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s stubTemplates) FindByIDs(_ context.Context, ids []string) (map[string]model.Template, error) {
	out := map[string]model.Template{}
	for _, id := range ids {
		if t, ok := s[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

type envelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data       json.RawMessage `json:"data"`
	TotalDocs  *int64          `json:"totalDocs"`
	TotalPages int             `json:"totalPages"`
}

func setup(t *testing.T) (http.Handler, stubDocs, *socket.Hub) {
	t.Helper()
	docs := stubDocs{
		"d1": {ID: "d1", TemplateID: "t1", CreatedBy: "u1", Version: 4, Payload: model.Payload{
			Name: "Doc",
			Blocks: map[string]model.Block{"k": {ID: "b1", ContentElements: []model.ContentElement{
				{ID: "c1", Name: "cover", Thumbnail: &model.Thumbnail{URL: "http://img/1"}},
			}}},
		}},
		"d2": {ID: "d2", TemplateID: "t1", CreatedBy: "u1", Payload: model.Payload{Name: "Other"}},
	}
	templates := stubTemplates{"t1": {ID: "t1", Payload: model.TemplatePayload{Name: "Tpl", Variables: []model.Variable{
		{ID: "v1", Value: json.RawMessage(`"X"`)},
	}}}}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := socket.NewHub()
	go hub.Run(ctx)

	h := NewDocumentHandler(service.NewDocumentService(docs, templates, hub, 1000), hub)
	auth := middleware.NewAuth(secret).Middleware
	mux := http.NewServeMux()
	mux.Handle("GET /summary/users/{userId}/documents", auth(http.HandlerFunc(h.ListDocuments)))
	mux.Handle("GET /summary/users/{userId}/documents/{documentId}", auth(http.HandlerFunc(h.FetchDocument)))
	mux.Handle("PATCH /summary/users/{userId}/documents/{documentId}", auth(http.HandlerFunc(h.UpdateDocument)))
	mux.Handle("GET /summary/users/{userId}/documents/{documentId}/events", auth(http.HandlerFunc(h.Events)))
	mux.Handle("GET /summary/documents/{documentId}/blocks/{blockId}/content", auth(http.HandlerFunc(h.FetchBlockContent)))
	return mux, docs, hub
}

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, sub, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token(t, sub))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestFetchDocumentHandler(t *testing.T) {
	h, _, _ := setup(t)

	rec, env := do(t, h, http.MethodGet, "/summary/users/u1/documents/d1", "auth0|u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.Equal(t, `"4"`, rec.Header().Get("ETag"))

	var view map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "d1", view["_id"])
	assert.Equal(t, map[string]any{"_id": "t1", "name": "Tpl"}, view["template"])
	assert.NotContains(t, view, "jsonObject")
	assert.NotContains(t, view, "version")
	assert.Len(t, view["variables"], 1)
}

func TestFetchDocumentHandlerErrors(t *testing.T) {
	h, _, _ := setup(t)

	rec, env := do(t, h, http.MethodGet, "/summary/users/u1/documents/d1", "u2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized", env.Error.Code)
	assert.Equal(t, "null", string(env.Data))

	rec, env = do(t, h, http.MethodGet, "/summary/users/u1/documents/nope", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Resource Not Found", env.Error.Code)
}

func TestListDocumentsHandler(t *testing.T) {
	h, _, _ := setup(t)

	rec, env := do(t, h, http.MethodGet, "/summary/users/u1/documents", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.TotalDocs, "unpaginated responses carry no page fields")
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	assert.Len(t, docs, 2)
	assert.NotContains(t, docs[0], "variables")

	rec, env = do(t, h, http.MethodGet, "/summary/users/u1/documents?paginate=true&page=1&limit=1", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.TotalDocs)
	assert.Equal(t, int64(2), *env.TotalDocs)
	assert.Equal(t, 2, env.TotalPages)

	rec, env = do(t, h, http.MethodGet, "/summary/users/u1/documents?paginate=true&page=0&limit=1", "u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid value provided for field page", env.Error.Message)

	rec, _ = do(t, h, http.MethodGet, "/summary/users/u1/documents", "u9", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFetchBlockContentHandler(t *testing.T) {
	h, _, _ := setup(t)

	rec, env := do(t, h, http.MethodGet, "/summary/documents/d1/blocks/b1/content", "anyone", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"_id":"c1","name":"cover","url":"http://img/1"}]`, string(env.Data))

	rec, env = do(t, h, http.MethodGet, "/summary/documents/d1/blocks/zzz/content", "anyone", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Provided blockId doesnt exists", env.Error.Message)
}

func TestUpdateDocumentHandler(t *testing.T) {
	h, docs, _ := setup(t)

	rec, env := do(t, h, http.MethodPatch, "/summary/users/u1/documents/d1", "u1", `{"variables":[{"_id":"v1","value":"Z"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `"5"`, rec.Header().Get("ETag"))
	var view struct {
		Variables []struct {
			ID    string          `json:"_id"`
			Value json.RawMessage `json:"value"`
		} `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Variables, 1)
	assert.JSONEq(t, `"Z"`, string(view.Variables[0].Value))

	rec, _ = do(t, h, http.MethodGet, "/summary/users/u1/documents/d1", "u1", "")
	assert.Contains(t, rec.Body.String(), `"value":"Z"`)
	assert.Equal(t, "Doc", docs["d1"].Payload.Name)
}

func TestUpdateDocumentHandlerErrors(t *testing.T) {
	h, _, _ := setup(t)
	path := "/summary/users/u1/documents/d1"

	rec, env := do(t, h, http.MethodPatch, path, "u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No Data Was Posted.", env.Error.Message)

	rec, _ = do(t, h, http.MethodPatch, path, "u2", `{"name":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = do(t, h, http.MethodPatch, path, "u1", `{"variables":[{"_id":"unknown","value":"Q"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid variable id provided", env.Error.Message)

	rec, env = do(t, h, http.MethodPatch, path, "u1", `{"name":"x"}`, "If-Match", `"3"`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Conflict", env.Error.Code)

	rec, _ = do(t, h, http.MethodPatch, path, "u1", `{"name":"x"}`, "If-Match", `W/"4"`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPatch, path, "u1", `{"name":"x"}`, "If-Match", `"abc"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseIfMatch(t *testing.T) {
	v, err := parseIfMatch("")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseIfMatch("*")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseIfMatch(`"12"`)
	require.NoError(t, err)
	assert.Equal(t, int64(12), *v)

	_, err = parseIfMatch(`"-1"`)
	assert.Error(t, err)
}

func TestEventsReceivesUpdates(t *testing.T) {
	h, _, _ := setup(t)
	server := httptest.NewServer(h)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/summary/users/u1/documents/d1/events?token="+token(t, "u1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() socket.WSMessage {
		var msg socket.WSMessage
		conn.SetReadDeadline(time.Now().Add(time.Second))
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	assert.Equal(t, socket.SubscribedType, read().Type)

	req, _ := http.NewRequest(http.MethodPatch, server.URL+"/summary/users/u1/documents/d1", strings.NewReader(`{"name":"Live"}`))
	req.Header.Set("Authorization", "Bearer "+token(t, "u1"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msg := read()
	assert.Equal(t, socket.DocumentUpdatedType, msg.Type)
	assert.Equal(t, "d1", msg.DocID)
	assert.Contains(t, string(msg.Payload), `"name":"Live"`)
}

func TestEventsRejectsOtherUsers(t *testing.T) {
	h, _, _ := setup(t)
	server := httptest.NewServer(h)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/summary/users/u1/documents/d1/events?token="+token(t, "u2"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
