// Package httpapi exposes the application services over REST.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	app "github.com/openboard/openboard/internal/app"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/metrics"
	imagesvc "github.com/openboard/openboard/internal/app/services/images"
	"github.com/openboard/openboard/internal/apperr"
	"github.com/openboard/openboard/internal/middleware"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the REST API under /api/v2.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v2").Subrouter()

	api.HandleFunc("/users/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/users/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/users/logout", h.logout).Methods(http.MethodPost)
	api.HandleFunc("/users/{id:[0-9]+}", h.getUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}", h.updateUser).Methods(http.MethodPatch)
	api.HandleFunc("/users/{id:[0-9]+}", h.deleteUser).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id:[0-9]+}/password", h.changePassword).Methods(http.MethodPatch)

	api.HandleFunc("/posts", h.listPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.createPost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id:[0-9]+}", h.getPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}", h.updatePost).Methods(http.MethodPatch)
	api.HandleFunc("/posts/{id:[0-9]+}", h.deletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id:[0-9]+}/like", h.likePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id:[0-9]+}/like", h.unlikePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", h.listComments).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", h.addComment).Methods(http.MethodPost)
	api.HandleFunc("/posts/{post_id:[0-9]+}/comments/{id:[0-9]+}", h.updateComment).Methods(http.MethodPatch)
	api.HandleFunc("/posts/{post_id:[0-9]+}/comments/{id:[0-9]+}", h.deleteComment).Methods(http.MethodDelete)

	api.HandleFunc("/images", h.uploadImage).Methods(http.MethodPost)
	api.HandleFunc("/images/{id:[0-9]+}", h.getImage).Methods(http.MethodGet)
	api.HandleFunc("/images/{id:[0-9]+}", h.deleteImage).Methods(http.MethodDelete)
	api.HandleFunc("/images/{id:[0-9]+}/attach", h.attachImage).Methods(http.MethodPost)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

// Users -----------------------------------------------------------------------

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
		ImageURL string `json:"image_url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	created, err := h.app.Users.Register(r.Context(), payload.Email, payload.Password, payload.Nickname, payload.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordUserRegistered()
	writeJSON(w, http.StatusCreated, toUserResponse(created))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	token, u, err := h.app.Users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        toUserResponse(u),
	})
}

// logout is stateless: tokens expire on their own, so the endpoint only
// acknowledges the client's intent to discard its token.
func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "id")
	u, err := h.app.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nickname *string `json:"nickname"`
		ImageURL *string `json:"image_url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	updated, err := h.app.Users.UpdateProfile(r.Context(), pathID(r, "id"), middleware.UserID(r.Context()), payload.Nickname, payload.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	err := h.app.Users.ChangePassword(r.Context(), pathID(r, "id"), middleware.UserID(r.Context()),
		payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Users.Deactivate(r.Context(), pathID(r, "id"), middleware.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Posts -----------------------------------------------------------------------

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	cursor, limit := pageParams(r)
	page, err := h.app.Posts.List(r.Context(), cursor, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := postPageResponse{
		Posts:      make([]postResponse, 0, len(page.Posts)),
		NextCursor: page.NextCursor,
	}
	for _, agg := range page.Posts {
		resp.Posts = append(resp.Posts, toPostResponse(agg))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	agg, err := h.app.Posts.Create(r.Context(), middleware.UserID(r.Context()), payload.Title, payload.Content, payload.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordPostCreated()
	writeJSON(w, http.StatusCreated, toPostResponse(agg))
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request) {
	agg, err := h.app.Posts.Get(r.Context(), pathID(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(agg))
}

func (h *handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title    *string `json:"title"`
		Content  *string `json:"content"`
		ImageURL *string `json:"image_url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	agg, err := h.app.Posts.Update(r.Context(), pathID(r, "id"), middleware.UserID(r.Context()),
		payload.Title, payload.Content, payload.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(agg))
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Posts.Delete(r.Context(), pathID(r, "id"), middleware.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) likePost(w http.ResponseWriter, r *http.Request) {
	agg, err := h.app.Posts.Like(r.Context(), pathID(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordLike()
	writeJSON(w, http.StatusOK, toPostResponse(agg))
}

func (h *handler) unlikePost(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Posts.Unlike(r.Context(), pathID(r, "id"), middleware.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Comments --------------------------------------------------------------------

func (h *handler) listComments(w http.ResponseWriter, r *http.Request) {
	cursor, limit := pageParams(r)
	page, err := h.app.Posts.ListComments(r.Context(), pathID(r, "id"), cursor, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := commentPageResponse{
		Comments:   make([]commentResponse, 0, len(page.Comments)),
		NextCursor: page.NextCursor,
	}
	for _, c := range page.Comments {
		resp.Comments = append(resp.Comments, toCommentResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	agg, err := h.app.Posts.AddComment(r.Context(), pathID(r, "id"), middleware.UserID(r.Context()),
		payload.Content, payload.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordCommentCreated()
	writeJSON(w, http.StatusCreated, toPostResponse(agg))
}

func (h *handler) updateComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	agg, err := h.app.Posts.UpdateComment(r.Context(), pathID(r, "post_id"), pathID(r, "id"),
		middleware.UserID(r.Context()), payload.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(agg))
}

func (h *handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.app.Posts.RemoveComment(r.Context(), pathID(r, "post_id"), pathID(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Images ----------------------------------------------------------------------

func (h *handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(imagesvc.MaxFileSize); err != nil {
		metrics.RecordImageUpload(false)
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed multipart request"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.RecordImageUpload(false)
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, `multipart field "file" is required`))
		return
	}
	defer file.Close()

	img, err := h.app.Images.Upload(r.Context(), middleware.UserID(r.Context()),
		header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		metrics.RecordImageUpload(false)
		writeError(w, err)
		return
	}
	metrics.RecordImageUpload(true)
	writeJSON(w, http.StatusCreated, toImageResponse(img))
}

func (h *handler) attachImage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EntityType string `json:"entity_type"`
		EntityID   int64  `json:"entity_id"`
		Order      int    `json:"order"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperr.BadRequest(apperr.CodeInvalidRequest, "malformed request body"))
		return
	}

	img, err := h.app.Images.Attach(r.Context(), pathID(r, "id"), middleware.UserID(r.Context()),
		image.Type(payload.EntityType), payload.EntityID, payload.Order)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toImageResponse(img))
}

func (h *handler) getImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.app.Images.Get(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toImageResponse(img))
}

func (h *handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Images.Delete(r.Context(), pathID(r, "id"), middleware.UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health ----------------------------------------------------------------------

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers ---------------------------------------------------------------------

// pathID reads a numeric path variable. Routes constrain the variables to
// digits, so a parse failure cannot happen for matched requests.
func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func pageParams(r *http.Request) (int64, int) {
	var cursor int64
	var limit int
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	return cursor, limit
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	ae := apperr.FromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":  ae.Code,
		"error": ae.Message,
	})
}
