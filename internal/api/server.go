package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"proprag/internal/auth"
	"proprag/internal/config"
	"proprag/internal/embed"
	"proprag/internal/models"
	"proprag/internal/providers"
	"proprag/internal/qa"
	"proprag/internal/storage"
	"proprag/internal/util"
	"proprag/internal/vector"
	"proprag/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg      config.Config
	db       *storage.DB
	docRepo  *storage.DocumentRepo
	authSvc  *auth.Service
	pipeline *qa.Pipeline
	temporal tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}

	embedOrder := pm.PreferredEmbedOrder()
	embedProvider, _ := pm.EmbedProviderByIndex(embedOrder[0])
	llmOrder := pm.PreferredCompletionOrder()
	llm, _ := pm.CompletionProviderByIndex(llmOrder[0])

	producer := embed.NewProducer(embedProvider, cfg.EmbedDim, cfg.EmbedMaxChars)
	searcher := vector.NewSearcher(db.Pool)
	synth := qa.NewSynthesizer(llm, cfg.ConfidenceMedium, cfg.ConfidenceHigh)
	pipeline := qa.NewPipeline(producer, searcher, synth, qa.PipelineConfig{
		SearchThreshold:  cfg.SearchThreshold,
		SearchLimit:      cfg.SearchLimit,
		MaxContextChunks: cfg.MaxContextChunks,
		MinTopSimilarity: cfg.MinTopSimilarity,
	})

	return &Server{
		cfg:      cfg,
		db:       db,
		docRepo:  storage.NewDocumentRepo(db),
		authSvc:  auth.NewService(storage.NewUserRepo(db), storage.NewSessionRepo(db), time.Duration(cfg.SessionTTLHours)*time.Hour),
		pipeline: pipeline,
		temporal: tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/auth/signup", s.handleSignUp)
	mux.HandleFunc("/auth/signin", s.handleSignIn)
	mux.HandleFunc("/auth/signout", s.handleSignOut)
	mux.HandleFunc("/documents", s.withIdentity(s.handleDocuments))
	mux.HandleFunc("/documents/", s.withIdentity(s.handleDocumentScoped))
	mux.HandleFunc("/ingest/progress", s.withIdentity(s.handleIngestProgress))
	mux.HandleFunc("/stats", s.withIdentity(s.handleStats))
	mux.HandleFunc("/ask", s.withIdentity(s.handleAsk))
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	user, err := s.authSvc.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": user.UserID, "email": user.Email})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	session, err := s.authSvc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeErr(w, http.StatusUnauthorized, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": session.Token, "expires_at": session.ExpiresAt})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	token := bearerToken(r)
	if token == "" {
		writeErr(w, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
		return
	}
	if err := s.authSvc.SignOut(r.Context(), token); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// withIdentity resolves the bearer token and hands the caller identity to
// the wrapped handler. All document and question routes require it.
func (s *Server) withIdentity(next func(http.ResponseWriter, *http.Request, auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeErr(w, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
			return
		}
		identity, err := s.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			writeErr(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r, identity)
	}
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	switch r.Method {
	case http.MethodGet:
		docs, err := s.docRepo.ListByOwner(r.Context(), identity.UserID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	case http.MethodPost:
		s.handleUpload(w, r, identity)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

// handleUpload registers each accepted file and starts one batch workflow
// for all of them. A rejected file (duplicate name, unsupported type) is
// reported per filename and never blocks the rest of the batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	inDir := filepath.Join(s.cfg.DataInRoot, identity.UserID)
	if err := util.EnsureDir(inDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	type uploadResult struct {
		Filename   string `json:"filename"`
		DocumentID string `json:"document_id"`
	}
	type rejectResult struct {
		Filename string `json:"filename"`
		Reason   string `json:"reason"`
	}
	accepted := make([]uploadResult, 0, len(files))
	rejected := make([]rejectResult, 0)
	ingestFiles := make([]workflows.IngestFile, 0, len(files))

	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if !supportedUpload(name) {
			rejected = append(rejected, rejectResult{Filename: name, Reason: "unsupported file type (only .pdf and .txt)"})
			continue
		}
		docID := uuid.NewString()
		err := s.docRepo.RegisterPending(r.Context(), models.Document{
			DocumentID: docID,
			OwnerID:    identity.UserID,
			Filename:   name,
		})
		if errors.Is(err, util.ErrDuplicateFilename) {
			rejected = append(rejected, rejectResult{Filename: name, Reason: "a document with this filename already exists"})
			continue
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		savedPath, err := saveUploadedFile(inDir, fh)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		accepted = append(accepted, uploadResult{Filename: name, DocumentID: docID})
		ingestFiles = append(ingestFiles, workflows.IngestFile{DocumentID: docID, Path: savedPath, Filename: name})
	}

	if len(ingestFiles) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"uploaded": accepted, "rejected": rejected})
		return
	}

	wfID := "ingest-" + identity.UserID + "-" + uuid.NewString()
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                    wfID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.BatchIngestWorkflow, workflows.BatchIngestInput{
		OwnerID:               identity.UserID,
		Files:                 ingestFiles,
		MaxConcurrentChildren: s.cfg.IngestMaxChildren,
		ChunkSize:             s.cfg.ChunkSize,
		ChunkOverlap:          s.cfg.ChunkOverlap,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"uploaded":    accepted,
		"rejected":    rejected,
		"workflow_id": we.GetID(),
		"run_id":      we.GetRunID(),
	})
}

func (s *Server) handleDocumentScoped(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	docID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
	if docID == "" || strings.Contains(docID, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodDelete {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	deleted, err := s.docRepo.Delete(r.Context(), docID, identity.UserID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if !deleted {
		writeErr(w, http.StatusNotFound, fmt.Errorf("document not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}

func (s *Server) handleIngestProgress(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	wfID := strings.TrimSpace(r.URL.Query().Get("workflow_id"))
	if wfID != "" {
		var prog workflows.BatchIngestProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), wfID, "", workflows.QueryGetProgress)
		if err == nil {
			if err := resp.Get(&prog); err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			if prog.OwnerID != identity.UserID {
				writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
				return
			}
			writeJSON(w, http.StatusOK, prog)
			return
		}
	}

	// Fallback to DB-derived progress when no active workflow query is available.
	docs, err := s.docRepo.ListByOwner(r.Context(), identity.UserID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	per := make(map[string]string, len(docs))
	done := 0
	failed := 0
	for _, d := range docs {
		per[d.DocumentID] = d.Status
		switch d.Status {
		case "processed", "stored_degraded":
			done++
		case "failed":
			failed++
		}
	}
	writeJSON(w, http.StatusOK, workflows.BatchIngestProgress{
		OwnerID:     identity.UserID,
		Total:       len(docs),
		Done:        done,
		Failed:      failed,
		PerDocument: per,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	stats, err := s.docRepo.StatsByOwner(r.Context(), identity.UserID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	answer := s.pipeline.Answer(r.Context(), identity, req.Question)
	writeJSON(w, http.StatusOK, answer)
}

func supportedUpload(name string) bool {
	low := strings.ToLower(name)
	return strings.HasSuffix(low, ".pdf") || strings.HasSuffix(low, ".txt")
}

func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	finalPath := util.SafeJoin(dstDir, fh.Filename)
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("atomic move upload: %w", err)
	}
	return finalPath, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "PR-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "PR-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "PR-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "PR-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "PR-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusUnauthorized:
		code = "PR-API-4010"
		msg = "Authentication required or session invalid."
	case status == http.StatusNotFound:
		code = "PR-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "PR-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "PR-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusBadGateway:
		code = "PR-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "invalid email"):
			msg = "A valid email address is required."
		case strings.Contains(raw, "password must be"):
			msg = "Password must be at least 8 characters."
		case strings.Contains(raw, "invalid email or password"):
			msg = "Invalid email or password."
		case strings.Contains(raw, "session expired"):
			msg = "Session has expired. Sign in again."
		case strings.Contains(raw, "question is required"):
			msg = "A question is required."
		case strings.Contains(raw, "no files provided"):
			msg = "No files were provided."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
