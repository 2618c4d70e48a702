package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrExtraction         = errors.New("extraction failed")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrModelUnavailable   = errors.New("model unavailable")
	ErrUnparsableResponse = errors.New("unparsable model response")
	ErrInternal           = errors.New("internal error")
)

// Experience levels as they appear in persisted analyses and in the UI.
const (
	LevelBeginner     = "Débutant"
	LevelIntermediate = "Intermédiaire"
	LevelAdvanced     = "Avancé"
)

// CategoryGeneral is the default skill category when no taxonomy entry matches.
const CategoryGeneral = "Général"

// FieldGeneral is the default detected field when no domain keyword matches.
const FieldGeneral = "Général"

// Skill is one detected competency.
// Invariant: Level is clamped to [0,100].
type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    int    `json:"level"`
}

// AnalysisMeta carries diagnostic context attached to every analysis.
// Fallback and Reason are only set when the heuristic fallback produced
// the result instead of the model.
type AnalysisMeta struct {
	CVLength     int       `json:"cv_length"`
	SkillsCount  int       `json:"skills_count"`
	HasProjects  bool      `json:"has_projects"`
	HasEducation bool      `json:"has_education"`
	AnalysisDate time.Time `json:"analysis_date"`
	Fallback     bool      `json:"fallback,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// Analysis is the structured outcome of a CV analysis. It is created once
// per upload, immutable once returned, and persisted verbatim as JSONB on
// the owning document.
// Invariants: SuggestedRoles has at most 5 deduplicated entries;
// ExperienceLevel is one of LevelBeginner/LevelIntermediate/LevelAdvanced.
type Analysis struct {
	Skills          []Skill      `json:"skills"`
	SuggestedRoles  []string     `json:"suggested_roles"`
	DetectedField   string       `json:"detected_field"`
	Summary         string       `json:"summary"`
	ExperienceLevel string       `json:"experience_level"`
	Metadata        AnalysisMeta `json:"metadata"`
}

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Location     string
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Document is a stored CV upload together with its analysis.
type Document struct {
	ID        string
	UserID    string
	Filename  string
	FileType  string // simplified: pdf, docx, other
	FileSize  int64
	Analysis  Analysis
	CreatedAt time.Time
}

// SkillRecord is a persisted per-user skill row denormalized from an analysis.
type SkillRecord struct {
	ID         string
	UserID     string
	DocumentID string
	Name       string
	Category   string
	Level      int
	CreatedAt  time.Time
}

// Conversation groups chat messages for one user.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

// Message is one chat turn. Role is "user" or "assistant".
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// Repositories (ports)

type UserRepository interface {
	Create(ctx Context, u User) (string, error)
	GetByEmail(ctx Context, email string) (User, error)
	Get(ctx Context, id string) (User, error)
	UpdateProfile(ctx Context, u User) (User, error)
}

type DocumentRepository interface {
	Create(ctx Context, d Document) (string, error)
	Get(ctx Context, id, userID string) (Document, error)
	ListByUser(ctx Context, userID string) ([]Document, error)
	Delete(ctx Context, id, userID string) error
}

type SkillRepository interface {
	ReplaceForDocument(ctx Context, userID, documentID string, skills []Skill) error
	ListByUser(ctx Context, userID string) ([]SkillRecord, error)
}

type ConversationRepository interface {
	Create(ctx Context, c Conversation) (string, error)
	Get(ctx Context, id, userID string) (Conversation, error)
	ListByUser(ctx Context, userID string) ([]Conversation, error)
	AppendMessage(ctx Context, m Message) (string, error)
	ListMessages(ctx Context, conversationID string) ([]Message, error)
}

// ModelClient (port) sends a single-prompt chat completion to the model
// endpoint and returns the raw response text. Implementations perform no
// retries; any failure maps to ErrModelUnavailable.
type ModelClient interface {
	Chat(ctx Context, prompt string, opts GenerationOptions) (string, error)
}

// GenerationOptions are forwarded to the model endpoint verbatim.
type GenerationOptions struct {
	Temperature float64
	TopP        float64
	NumPredict  int
}

// TextExtractor (port) converts an uploaded binary into plain text.
// Pure transform: no I/O beyond reading the buffer.
type TextExtractor interface {
	Extract(data []byte, mimeType, filename string) (string, error)
}

// Context is an alias so the domain package does not spread std context
// imports through every port signature.
type Context = context.Context
