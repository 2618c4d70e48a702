package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/orientis/orientis/internal/domain"
)

// minExtractedTextLen is the threshold below which extracted text is
// considered too thin to analyze and the degraded placeholder is used.
const minExtractedTextLen = 50

// DocumentService handles CV uploads and the stored documents they produce.
type DocumentService struct {
	Docs      domain.DocumentRepository
	Skills    domain.SkillRepository
	Extractor domain.TextExtractor
	Analyzer  AnalyzeService
}

func NewDocumentService(docs domain.DocumentRepository, skills domain.SkillRepository, ex domain.TextExtractor, an AnalyzeService) *DocumentService {
	return &DocumentService{Docs: docs, Skills: skills, Extractor: ex, Analyzer: an}
}

// Upload is the input for ProcessUpload.
type Upload struct {
	UserID   string
	Filename string
	MIMEType string
	Data     []byte
}

// ProcessUpload extracts text from the uploaded file, runs the analysis
// pipeline and persists the resulting document. Extraction failures do not
// abort the upload: a placeholder text is analyzed instead so the user
// always gets a stored document with an analysis.
func (s *DocumentService) ProcessUpload(ctx domain.Context, up Upload) (domain.Document, error) {
	text, err := s.Extractor.Extract(up.Data, up.MIMEType, up.Filename)
	if err != nil {
		slog.Warn("text extraction failed; analyzing placeholder",
			slog.String("filename", up.Filename), slog.String("mime", up.MIMEType), slog.Any("error", err))
		text = placeholderText(up)
	} else if len(strings.TrimSpace(text)) < minExtractedTextLen {
		slog.Warn("extracted text too short; analyzing placeholder",
			slog.String("filename", up.Filename), slog.Int("length", len(text)))
		text = placeholderText(up)
	}

	res := s.Analyzer.Analyze(ctx, text)

	doc := domain.Document{
		UserID:   up.UserID,
		Filename: up.Filename,
		FileType: simplifyFileType(up.MIMEType, up.Filename),
		FileSize: int64(len(up.Data)),
		Analysis: res,
	}
	id, err := s.Docs.Create(ctx, doc)
	if err != nil {
		return domain.Document{}, fmt.Errorf("op=document.ProcessUpload: %w", err)
	}
	doc.ID = id

	// Skill rows are denormalized per document. Failure here is not fatal:
	// the document and its embedded analysis are already stored.
	if err := s.Skills.ReplaceForDocument(ctx, up.UserID, id, res.Skills); err != nil {
		slog.Warn("skill persistence failed", slog.String("document_id", id), slog.Any("error", err))
	}

	return doc, nil
}

// List returns the user's documents, newest first.
func (s *DocumentService) List(ctx domain.Context, userID string) ([]domain.Document, error) {
	docs, err := s.Docs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("op=document.List: %w", err)
	}
	return docs, nil
}

// Get returns one document owned by the user.
func (s *DocumentService) Get(ctx domain.Context, id, userID string) (domain.Document, error) {
	doc, err := s.Docs.Get(ctx, id, userID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("op=document.Get: %w", err)
	}
	return doc, nil
}

// Delete removes one document owned by the user.
func (s *DocumentService) Delete(ctx domain.Context, id, userID string) error {
	if err := s.Docs.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("op=document.Delete: %w", err)
	}
	return nil
}

// placeholderText stands in for unreadable uploads so the pipeline still
// produces a (general) analysis instead of an error.
func placeholderText(up Upload) string {
	return fmt.Sprintf("CV: %s\nType: %s\nTaille: %d bytes\nImpossible d'extraire le contenu textuel complet.",
		up.Filename, up.MIMEType, len(up.Data))
}

func simplifyFileType(mimeType, filename string) string {
	switch {
	case mimeType == "application/pdf" || strings.HasSuffix(strings.ToLower(filename), ".pdf"):
		return "pdf"
	case strings.Contains(mimeType, "word") || strings.HasSuffix(strings.ToLower(filename), ".docx"):
		return "docx"
	default:
		return "other"
	}
}
