package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orientis/orientis/internal/config"
	"github.com/orientis/orientis/internal/domain"
	"github.com/orientis/orientis/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Auth       *usecase.AuthService
	Docs       *usecase.DocumentService
	Chat       *usecase.ChatService
	JWT        *JWTService
	DBCheck    func(ctx context.Context) error
	ModelCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, auth *usecase.AuthService, docs *usecase.DocumentService, chat *usecase.ChatService, jwtSvc *JWTService, dbCheck, modelCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Auth: auth, Docs: docs, Chat: chat, JWT: jwtSvc, DBCheck: dbCheck, ModelCheck: modelCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeValid(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(req); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u domain.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone, Location: u.Location, Bio: u.Bio, CreatedAt: u.CreatedAt}
}

type documentView struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	FileType  string          `json:"file_type"`
	FileSize  int64           `json:"file_size"`
	Analysis  domain.Analysis `json:"analysis"`
	CreatedAt time.Time       `json:"created_at"`
}

func toDocumentView(d domain.Document) documentView {
	return documentView{ID: d.ID, Filename: d.Filename, FileType: d.FileType, FileSize: d.FileSize, Analysis: d.Analysis, CreatedAt: d.CreatedAt}
}

// RegisterHandler creates an account and returns it with a bearer token.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required,min=8"`
			Name     string `json:"name" validate:"required,min=1"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		u, err := s.Auth.Register(r.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		token, err := s.JWT.IssueToken(u.ID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"user": toUserView(u), "token": token})
	}
}

// LoginHandler verifies credentials and returns the account with a token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		u, err := s.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		token, err := s.JWT.IssueToken(u.ID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": toUserView(u), "token": token})
	}
}

// ProfileHandler returns the authenticated user's profile.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		u, err := s.Auth.Profile(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": toUserView(u)})
	}
}

// UpdateProfileHandler replaces the editable profile fields.
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		var req struct {
			Name     string `json:"name" validate:"required,min=1"`
			Phone    string `json:"phone" validate:"max=50"`
			Location string `json:"location" validate:"max=255"`
			Bio      string `json:"bio" validate:"max=2000"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		u, err := s.Auth.UpdateProfile(r.Context(), userID, usecase.ProfileUpdate{
			Name: req.Name, Phone: req.Phone, Location: req.Location, Bio: req.Bio,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": toUserView(u)})
	}
}

// allowedExt enforces an allowlist for CV uploads: .pdf and .docx only.
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx")
}

func allowedMIMEFor(m string) bool {
	m = strings.ToLower(m)
	return m == "application/pdf" ||
		m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" ||
		// docx sniffing sometimes yields generic zip; the extension allowlist already ran
		m == "application/zip"
}

// UploadCVHandler handles multipart upload of one CV file, runs the
// analysis pipeline and returns the stored document with its analysis.
func (s *Server) UploadCVHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "PAYLOAD_TOO_LARGE", Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("cv_file")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: cv_file required", domain.ErrInvalidArgument), map[string]string{"field": "cv_file"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if !allowedExt(header.Filename) {
			writeError(w, r, fmt.Errorf("%w: only pdf and docx are accepted", domain.ErrUnsupportedFormat), map[string]string{"filename": header.Filename})
			return
		}
		mime := mimetype.Detect(data)
		if !allowedMIMEFor(mime.String()) {
			writeError(w, r, fmt.Errorf("%w: content does not match an accepted format", domain.ErrUnsupportedFormat), map[string]string{"mime": mime.String(), "filename": header.Filename})
			return
		}

		doc, err := s.Docs.ProcessUpload(r.Context(), usecase.Upload{
			UserID:   userID,
			Filename: header.Filename,
			MIMEType: mime.String(),
			Data:     data,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"document": toDocumentView(doc)})
	}
}

// ListDocumentsHandler returns the user's documents, newest first.
func (s *Server) ListDocumentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		docs, err := s.Docs.List(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		views := make([]documentView, 0, len(docs))
		for _, d := range docs {
			views = append(views, toDocumentView(d))
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": views})
	}
}

// GetDocumentHandler returns one document owned by the user.
func (s *Server) GetDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		doc, err := s.Docs.Get(r.Context(), id, userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"document": toDocumentView(doc)})
	}
}

// DeleteDocumentHandler removes one document owned by the user.
func (s *Server) DeleteDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		if err := s.Docs.Delete(r.Context(), id, userID); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	}
}

// ChatMessageHandler handles one counselor chat turn.
func (s *Server) ChatMessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		var req struct {
			Content        string `json:"content" validate:"required,min=1,max=4000"`
			ConversationID string `json:"conversation_id"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		reply, err := s.Chat.SendMessage(r.Context(), userID, req.ConversationID, req.Content)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"conversation_id": reply.ConversationID,
			"message": map[string]any{
				"id":      reply.Assistant.ID,
				"role":    reply.Assistant.Role,
				"content": reply.Assistant.Content,
			},
			"degraded": reply.Degraded,
		})
	}
}

type conversationView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type messageView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationsHandler lists the user's conversations, newest first.
func (s *Server) ConversationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		convs, err := s.Chat.Conversations(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		views := make([]conversationView, 0, len(convs))
		for _, c := range convs {
			views = append(views, conversationView{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt})
		}
		writeJSON(w, http.StatusOK, map[string]any{"conversations": views})
	}
}

// ConversationHandler returns one conversation with its full history.
func (s *Server) ConversationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFrom(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		conv, msgs, err := s.Chat.ConversationWithMessages(r.Context(), id, userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		views := make([]messageView, 0, len(msgs))
		for _, m := range msgs {
			views = append(views, messageView{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"conversation": conversationView{ID: conv.ID, Title: conv.Title, CreatedAt: conv.CreatedAt},
			"messages":     views,
		})
	}
}

// HealthzHandler is the liveness probe.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the database and the model endpoint.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.ModelCheck != nil {
			if err := s.ModelCheck(ctx); err != nil {
				checks = append(checks, check{Name: "model", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "model", OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
