package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bfcdev/bfc-blog-backend/internal/telemetry/metrics"
	"github.com/bfcdev/bfc-blog-backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	featuredPostsLimit = 3
	maxTitleLength     = 100
	maxSummaryLength   = 200

	maxUploadFormMemory = 32 << 20
)

type postsRepo interface {
	Add(ctx context.Context, post *Post) error
	Update(ctx context.Context, id int, title, summary, content string, imageURLs []string, featured bool) error
	Delete(ctx context.Context, id int) error
	All(ctx context.Context) ([]*Post, error)
	Featured(ctx context.Context, limit int) ([]*Post, error)
	GetByID(ctx context.Context, id int) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
}

type imageUploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

type Handler struct {
	repo           postsRepo
	uploader       imageUploader
	metricsManager *metrics.Manager
}

func NewHandler(
	repo postsRepo,
	uploader imageUploader,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		uploader:       uploader,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	// public, read only
	router.HandleFunc("/api/blogs", handler.handleAll).Methods("GET", "OPTIONS").Name("all-blogs")
	router.HandleFunc("/api/blogs/featured", handler.handleFeatured).Methods("GET", "OPTIONS").Name("featured-blogs")
	router.HandleFunc("/api/blogs/slug/{slug}", handler.handleGetBySlug).Methods("GET", "OPTIONS").Name("blog-by-slug")

	// dashboard, behind the gate
	router.HandleFunc("/dashboard/api/blogs", handler.handleCreate).Methods("POST", "OPTIONS").Name("new-blog")
	router.HandleFunc("/dashboard/api/blogs/{id}", handler.handleGet).Methods("GET", "OPTIONS").Name("get-blog")
	router.HandleFunc("/dashboard/api/blogs/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-blog")
	router.HandleFunc("/dashboard/api/blogs/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-blog")
}

type postForm struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls"`
	Featured  bool     `json:"featured"`
}

// readPostForm accepts either a JSON body or a multipart form (fields plus
// image files to upload).
func readPostForm(r *http.Request) (*postForm, []*multipart.FileHeader, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadFormMemory); err != nil {
			return nil, nil, fmt.Errorf("parse multipart form: %w", err)
		}
		form := &postForm{
			Title:     r.FormValue("title"),
			Summary:   r.FormValue("summary"),
			Content:   r.FormValue("content"),
			ImageURLs: r.MultipartForm.Value["imageUrls"],
			Featured:  r.FormValue("featured") == "true",
		}
		return form, r.MultipartForm.File["images"], nil
	}

	var form postForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return nil, nil, fmt.Errorf("unmarshal json params: %w", err)
	}
	return &form, nil, nil
}

// validate trims the text fields and returns a field level error message for
// the dashboard form, or empty string when all is fine.
func (form *postForm) validate() string {
	form.Title = strings.TrimSpace(form.Title)
	form.Summary = strings.TrimSpace(form.Summary)
	form.Content = strings.TrimSpace(form.Content)

	switch {
	case form.Title == "":
		return "Title is required"
	case form.Summary == "":
		return "Summary is required"
	case form.Content == "":
		return "Content is required"
	case utf8.RuneCountInString(form.Title) > maxTitleLength:
		return fmt.Sprintf("Title must be less than %d characters", maxTitleLength)
	case utf8.RuneCountInString(form.Summary) > maxSummaryLength:
		return fmt.Sprintf("Summary must be less than %d characters", maxSummaryLength)
	}
	return ""
}

// uploadImages sends the images to the image host one by one and returns the
// durable URLs. A failure aborts the loop: URLs uploaded before it stay
// orphaned on the host, the post write never happens.
func (handler *Handler) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	var urls []string
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file %s: %w", fileHeader.Filename, err)
		}

		url, err := handler.uploader.Upload(ctx, fileHeader.Filename, file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", fileHeader.Filename, err)
		}

		handler.metricsManager.CounterImageUploads.Inc()
		urls = append(urls, url)
	}
	return urls, nil
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	form, files, err := readPostForm(r)
	if err != nil {
		log.Errorf("new blog post: %s", err)
		pkg.WriteJSONError(w, "Failed to create blog post", http.StatusBadRequest)
		return
	}

	if msg := form.validate(); msg != "" {
		pkg.WriteJSONError(w, msg, http.StatusBadRequest)
		return
	}

	imageURLs, err := handler.uploadImages(r.Context(), files)
	if err != nil {
		log.Errorf("new blog post, image upload: %s", err)
		pkg.WriteJSONError(w, "Image upload failed", http.StatusBadGateway)
		return
	}

	newPost := &Post{
		Title:     form.Title,
		Summary:   form.Summary,
		Content:   form.Content,
		ImageURLs: append(form.ImageURLs, imageURLs...),
		Featured:  form.Featured,
	}
	if err := handler.repo.Add(r.Context(), newPost); err != nil {
		log.Errorf("add new blog post failed: %s", err)
		pkg.WriteJSONError(w, "Failed to create blog post", http.StatusInternalServerError)
		return
	}

	log.Tracef("new blog post %d: [%s] added", newPost.ID, newPost.Title)

	postJson, err := json.Marshal(newPost)
	if err != nil {
		log.Errorf("marshal new blog post: %s", err)
		pkg.WriteJSONError(w, "Failed to create blog post", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, postJson, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	form, files, err := readPostForm(r)
	if err != nil {
		log.Errorf("update blog post %d: %s", id, err)
		pkg.WriteJSONError(w, "Failed to update blog post", http.StatusBadRequest)
		return
	}

	if msg := form.validate(); msg != "" {
		pkg.WriteJSONError(w, msg, http.StatusBadRequest)
		return
	}

	// newly uploaded images go after the kept ones
	uploadedURLs, err := handler.uploadImages(r.Context(), files)
	if err != nil {
		log.Errorf("update blog post %d, image upload: %s", id, err)
		pkg.WriteJSONError(w, "Image upload failed", http.StatusBadGateway)
		return
	}
	imageURLs := append(form.ImageURLs, uploadedURLs...)

	err = handler.repo.Update(r.Context(), id, form.Title, form.Summary, form.Content, imageURLs, form.Featured)
	if err == ErrPostNotFound {
		http.Error(w, "blog post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("update blog post %d failed: %s", id, err)
		pkg.WriteJSONError(w, "Failed to update blog post", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%d", id))
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(r.Context(), id); err != nil {
		if err == ErrPostNotFound {
			http.Error(w, "blog post not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete blog post %d: %s", id, err)
		pkg.WriteJSONError(w, "Failed to delete blog post", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func (handler *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	posts, err := handler.repo.All(r.Context())
	if err != nil {
		log.Errorf("get all blog posts error: %s", err)
		http.Error(w, "get blog posts error", http.StatusInternalServerError)
		return
	}

	handler.writePosts(w, posts)
}

func (handler *Handler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	posts, err := handler.repo.Featured(r.Context(), featuredPostsLimit)
	if err != nil {
		log.Errorf("get featured blog posts error: %s", err)
		http.Error(w, "get blog posts error", http.StatusInternalServerError)
		return
	}

	handler.writePosts(w, posts)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "error, id invalid", http.StatusBadRequest)
		return
	}

	post, err := handler.repo.GetByID(r.Context(), id)
	if err == ErrPostNotFound {
		http.Error(w, "blog post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get blog post %d error: %s", id, err)
		http.Error(w, "get blog post error", http.StatusInternalServerError)
		return
	}

	handler.writePost(w, post)
}

func (handler *Handler) handleGetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if slug == "" {
		http.Error(w, "error, slug empty", http.StatusBadRequest)
		return
	}

	post, err := handler.repo.GetBySlug(r.Context(), slug)
	if err == ErrPostNotFound {
		http.Error(w, "blog post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get blog post [%s] error: %s", slug, err)
		http.Error(w, "get blog post error", http.StatusInternalServerError)
		return
	}

	handler.writePost(w, post)
}

func (handler *Handler) writePost(w http.ResponseWriter, post *Post) {
	postJson, err := json.Marshal(post)
	if err != nil {
		log.Errorf("marshal blog post error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, postJson)
}

func (handler *Handler) writePosts(w http.ResponseWriter, posts []*Post) {
	if posts == nil {
		posts = []*Post{}
	}
	postsJson, err := json.Marshal(posts)
	if err != nil {
		log.Errorf("marshal blog posts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, postsJson)
}

func postID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}
