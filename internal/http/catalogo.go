package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bailaconsara/portal/internal/app"
	httpmiddleware "github.com/bailaconsara/portal/internal/http/middleware"
	"github.com/bailaconsara/portal/internal/posts"
	"github.com/bailaconsara/portal/internal/salas"
)

// maxCoverSize limita a capa enviada junto com a publicação.
const maxCoverSize = 8 << 20

// ListSalas devolve as salas abertas no dia informado em ?dia=.
func (h *Handler) ListSalas(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	list, err := ws.Salas.ByDay(r.Context(), r.URL.Query().Get("dia"))
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetSala(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sala, err := ws.Salas.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, sala)
}

func (h *Handler) CreateSala(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	var sala salas.Sala
	if !decodeJSON(w, r, &sala) {
		return
	}
	msg, err := ws.Salas.Create(r.Context(), sala)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusCreated, msg)
}

func (h *Handler) UpdateSala(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var sala salas.Sala
	if !decodeJSON(w, r, &sala) {
		return
	}
	msg, err := ws.Salas.Update(r.Context(), id, sala)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}

func (h *Handler) DeleteSala(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	msg, err := ws.Salas.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	list, err := ws.Posts.List(r.Context())
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writePost(w, ws)(ws.Posts.Get(r.Context(), id))
}

func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	writePost(w, ws)(ws.Posts.GetBySlug(r.Context(), chi.URLParam(r, "slug")))
}

func (h *Handler) GetPostByTitle(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	writePost(w, ws)(ws.Posts.GetByTitle(r.Context(), chi.URLParam(r, "titulo")))
}

func writePost(w http.ResponseWriter, ws *app.Workspace) func(posts.Post, error) {
	return func(post posts.Post, err error) {
		if err != nil {
			writeFailure(w, ws, err)
			return
		}
		WriteJSON(w, http.StatusOK, post)
	}
}

// CreatePost recebe multipart com o campo "data" (JSON da publicação) e o
// arquivo "imagenportada".
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	post, cover, ok := readPostForm(w, r)
	if !ok {
		return
	}
	if cover == nil {
		cover = &posts.Image{}
	}
	created, err := ws.Posts.Create(r.Context(), *cover, post)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	ws.Notify.Success("Post creado", 0)
	WriteJSON(w, http.StatusCreated, created)
}

// UpdatePost aceita o mesmo formulário de CreatePost; sem arquivo, a capa é mantida.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	post, cover, ok := readPostForm(w, r)
	if !ok {
		return
	}
	post.ID = id
	updated, err := ws.Posts.Update(r.Context(), cover, post)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	ws.Notify.Success("Post actualizado", 0)
	WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	msg, err := ws.Posts.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, ws, err)
		return
	}
	writeMessage(w, ws, http.StatusOK, msg)
}

func readPostForm(w http.ResponseWriter, r *http.Request) (posts.Post, *posts.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize+maxJSONBody)
	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Formulario no válido", nil)
		return posts.Post{}, nil, false
	}

	var post posts.Post
	if err := json.Unmarshal([]byte(r.FormValue("data")), &post); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return posts.Post{}, nil, false
	}

	file, header, err := r.FormFile("imagenportada")
	if errors.Is(err, http.ErrMissingFile) {
		return post, nil, true
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Imagen no válida", nil)
		return posts.Post{}, nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCoverSize))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Imagen no válida", nil)
		return posts.Post{}, nil, false
	}
	return post, &posts.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
