package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientis/orientis/internal/domain"
)

type stubModel struct {
	reply string
	err   error
	calls []domain.GenerationOptions
	seen  []string
}

func (m *stubModel) Chat(_ domain.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	m.calls = append(m.calls, opts)
	m.seen = append(m.seen, prompt)
	return m.reply, m.err
}

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) Extract([]byte, string, string) (string, error) { return e.text, e.err }

type memDocs struct {
	seq  int
	docs []domain.Document
	fail error
}

func (r *memDocs) Create(_ domain.Context, d domain.Document) (string, error) {
	if r.fail != nil {
		return "", r.fail
	}
	r.seq++
	d.ID = fmt.Sprintf("doc-%d", r.seq)
	r.docs = append([]domain.Document{d}, r.docs...)
	return d.ID, nil
}

func (r *memDocs) Get(_ domain.Context, id, userID string) (domain.Document, error) {
	for _, d := range r.docs {
		if d.ID == id && d.UserID == userID {
			return d, nil
		}
	}
	return domain.Document{}, domain.ErrNotFound
}

func (r *memDocs) ListByUser(_ domain.Context, userID string) ([]domain.Document, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	var out []domain.Document
	for _, d := range r.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocs) Delete(_ domain.Context, id, userID string) error {
	for i, d := range r.docs {
		if d.ID == id && d.UserID == userID {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memSkills struct {
	byDoc map[string][]domain.Skill
	fail  error
}

func (r *memSkills) ReplaceForDocument(_ domain.Context, _ string, documentID string, skills []domain.Skill) error {
	if r.fail != nil {
		return r.fail
	}
	if r.byDoc == nil {
		r.byDoc = map[string][]domain.Skill{}
	}
	r.byDoc[documentID] = skills
	return nil
}

func (r *memSkills) ListByUser(domain.Context, string) ([]domain.SkillRecord, error) { return nil, nil }

type memUsers struct {
	seq   int
	users []domain.User
}

func (r *memUsers) Create(_ domain.Context, u domain.User) (string, error) {
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	r.users = append(r.users, u)
	return u.ID, nil
}

func (r *memUsers) GetByEmail(_ domain.Context, email string) (domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *memUsers) Get(_ domain.Context, id string) (domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *memUsers) UpdateProfile(_ domain.Context, u domain.User) (domain.User, error) {
	for i := range r.users {
		if r.users[i].ID == u.ID {
			r.users[i] = u
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

type memConvs struct {
	seq   int
	convs []domain.Conversation
	msgs  []domain.Message
}

func (r *memConvs) Create(_ domain.Context, c domain.Conversation) (string, error) {
	r.seq++
	c.ID = fmt.Sprintf("conv-%d", r.seq)
	r.convs = append(r.convs, c)
	return c.ID, nil
}

func (r *memConvs) Get(_ domain.Context, id, userID string) (domain.Conversation, error) {
	for _, c := range r.convs {
		if c.ID == id && c.UserID == userID {
			return c, nil
		}
	}
	return domain.Conversation{}, domain.ErrNotFound
}

func (r *memConvs) ListByUser(_ domain.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range r.convs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memConvs) AppendMessage(_ domain.Context, m domain.Message) (string, error) {
	r.seq++
	m.ID = fmt.Sprintf("msg-%d", r.seq)
	r.msgs = append(r.msgs, m)
	return m.ID, nil
}

func (r *memConvs) ListMessages(_ domain.Context, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

const devCV = "Développeur full-stack avec 5 ans d'expérience. JavaScript, React, Node.js, Python, Docker. Plusieurs projets web livrés en production. Formation: Master informatique."

func TestAnalyzeUsesModelResult(t *testing.T) {
	t.Parallel()
	model := &stubModel{reply: `{"skills":[{"name":"Go","category":"Backend","level":80}],"suggested_roles":["Backend Developer"],"detected_field":"Développement Logiciel","summary":"ok","experience_level":"Avancé"}`}
	svc := NewAnalyzeService(model)

	res := svc.Analyze(context.Background(), devCV)

	require.Len(t, model.calls, 1)
	assert.InDelta(t, 0.2, model.calls[0].Temperature, 1e-9)
	assert.Equal(t, 1000, model.calls[0].NumPredict)
	require.Len(t, res.Skills, 1)
	assert.Equal(t, "Go", res.Skills[0].Name)
	assert.False(t, res.Metadata.Fallback)
}

func TestAnalyzeFallsBackOnModelError(t *testing.T) {
	t.Parallel()
	model := &stubModel{err: domain.ErrModelUnavailable}
	svc := NewAnalyzeService(model)

	res := svc.Analyze(context.Background(), devCV)

	assert.True(t, res.Metadata.Fallback)
	assert.NotEmpty(t, res.Skills)
	assert.NotEmpty(t, res.SuggestedRoles)
	assert.Equal(t, "Développement Logiciel", res.DetectedField)
}

func TestAnalyzeFallsBackOnGarbageReply(t *testing.T) {
	t.Parallel()
	model := &stubModel{reply: "je ne peux pas produire de JSON"}
	svc := NewAnalyzeService(model)

	res := svc.Analyze(context.Background(), devCV)

	assert.True(t, res.Metadata.Fallback)
	assert.NotEmpty(t, res.Skills)
}

func TestProcessUploadStoresDocumentAndSkills(t *testing.T) {
	t.Parallel()
	docs := &memDocs{}
	skills := &memSkills{}
	model := &stubModel{err: domain.ErrModelUnavailable}
	svc := NewDocumentService(docs, skills, &stubExtractor{text: devCV}, NewAnalyzeService(model))

	doc, err := svc.ProcessUpload(context.Background(), Upload{
		UserID:   "u1",
		Filename: "cv.pdf",
		MIMEType: "application/pdf",
		Data:     []byte("%PDF-1.4 fake"),
	})

	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "pdf", doc.FileType)
	assert.Equal(t, int64(13), doc.FileSize)
	assert.NotEmpty(t, doc.Analysis.Skills)
	assert.Equal(t, doc.Analysis.Skills, skills.byDoc["doc-1"])
}

func TestProcessUploadDegradesWhenExtractionFails(t *testing.T) {
	t.Parallel()
	docs := &memDocs{}
	model := &stubModel{err: domain.ErrModelUnavailable}
	svc := NewDocumentService(docs, &memSkills{}, &stubExtractor{err: domain.ErrExtraction}, NewAnalyzeService(model))

	doc, err := svc.ProcessUpload(context.Background(), Upload{
		UserID: "u1", Filename: "scan.pdf", MIMEType: "application/pdf", Data: []byte("x"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.FieldGeneral, doc.Analysis.DetectedField)
	assert.True(t, doc.Analysis.Metadata.Fallback)
}

func TestProcessUploadDegradesOnShortText(t *testing.T) {
	t.Parallel()
	docs := &memDocs{}
	model := &stubModel{err: domain.ErrModelUnavailable}
	svc := NewDocumentService(docs, &memSkills{}, &stubExtractor{text: "   trop court   "}, NewAnalyzeService(model))

	doc, err := svc.ProcessUpload(context.Background(), Upload{
		UserID: "u1", Filename: "cv.docx", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Data: []byte("x"),
	})

	require.NoError(t, err)
	assert.Equal(t, "docx", doc.FileType)
	assert.Equal(t, domain.FieldGeneral, doc.Analysis.DetectedField)
}

func TestProcessUploadSurvivesSkillPersistenceFailure(t *testing.T) {
	t.Parallel()
	docs := &memDocs{}
	skills := &memSkills{fail: fmt.Errorf("skills table gone")}
	model := &stubModel{err: domain.ErrModelUnavailable}
	svc := NewDocumentService(docs, skills, &stubExtractor{text: devCV}, NewAnalyzeService(model))

	doc, err := svc.ProcessUpload(context.Background(), Upload{
		UserID: "u1", Filename: "cv.pdf", MIMEType: "application/pdf", Data: []byte("x"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
}

func TestSimplifyFileType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "pdf", simplifyFileType("application/pdf", "cv.bin"))
	assert.Equal(t, "pdf", simplifyFileType("application/octet-stream", "CV.PDF"))
	assert.Equal(t, "docx", simplifyFileType("application/vnd.openxmlformats-officedocument.wordprocessingml.document", "cv"))
	assert.Equal(t, "docx", simplifyFileType("", "cv.docx"))
	assert.Equal(t, "other", simplifyFileType("text/plain", "cv.txt"))
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc := NewAuthService(&memUsers{})
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Alice@Example.COM ", "s3cret-pass", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	got, err := svc.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()
	svc := NewAuthService(&memUsers{})
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "pass-one", "Bob")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob@example.com", "pass-two", "Bob")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	svc := NewAuthService(&memUsers{})
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "right-pass", "Carol")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "carol@example.com", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	users := &memUsers{}
	svc := NewAuthService(users)
	ctx := context.Background()

	u, err := svc.Register(ctx, "dan@example.com", "pass-word", "Dan")
	require.NoError(t, err)

	out, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Name: "Daniel", Location: "Lyon", Bio: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "Daniel", out.Name)
	assert.Equal(t, "Lyon", out.Location)

	got, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Daniel", got.Name)
}

func TestSendMessageStartsConversationAndPersistsExchange(t *testing.T) {
	t.Parallel()
	convs := &memConvs{}
	model := &stubModel{reply: "Visez un poste de développeur backend."}
	svc := NewChatService(convs, &memDocs{}, model)

	reply, err := svc.SendMessage(context.Background(), "u1", "", "Quel métier me conseillez-vous ?")
	require.NoError(t, err)
	assert.False(t, reply.Degraded)
	assert.NotEmpty(t, reply.ConversationID)
	assert.Equal(t, "Visez un poste de développeur backend.", reply.Assistant.Content)

	msgs, err := convs.ListMessages(context.Background(), reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)

	require.Len(t, model.calls, 1)
	assert.InDelta(t, 0.7, model.calls[0].Temperature, 1e-9)
	assert.Zero(t, model.calls[0].NumPredict)
	assert.Contains(t, model.seen[0], noProfileContext)
}

func TestSendMessageSeedsPromptWithLatestAnalysis(t *testing.T) {
	t.Parallel()
	docs := &memDocs{}
	_, err := docs.Create(context.Background(), domain.Document{
		UserID: "u1",
		Analysis: domain.Analysis{
			Skills:          []domain.Skill{{Name: "Python", Category: "Programmation", Level: 80}},
			SuggestedRoles:  []string{"Data Analyst"},
			DetectedField:   "Data & Analyse",
			Summary:         "Profil data.",
			ExperienceLevel: domain.LevelIntermediate,
		},
	})
	require.NoError(t, err)

	model := &stubModel{reply: "Orientez-vous vers la data."}
	svc := NewChatService(&memConvs{}, docs, model)

	_, err = svc.SendMessage(context.Background(), "u1", "", "Et maintenant ?")
	require.NoError(t, err)

	require.Len(t, model.seen, 1)
	assert.Contains(t, model.seen[0], "Compétences principales: Python")
	assert.Contains(t, model.seen[0], "Rôles suggérés: Data Analyst")
	assert.NotContains(t, model.seen[0], noProfileContext)
}

func TestSendMessageDegradesWhenModelDown(t *testing.T) {
	t.Parallel()
	convs := &memConvs{}
	svc := NewChatService(convs, &memDocs{}, &stubModel{err: domain.ErrModelUnavailable})

	reply, err := svc.SendMessage(context.Background(), "u1", "", "Bonjour")
	require.NoError(t, err)
	assert.True(t, reply.Degraded)
	assert.Equal(t, degradedReply, reply.Assistant.Content)

	msgs, err := convs.ListMessages(context.Background(), reply.ConversationID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	t.Parallel()
	svc := NewChatService(&memConvs{}, &memDocs{}, &stubModel{})
	_, err := svc.SendMessage(context.Background(), "u1", "", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSendMessageRejectsForeignConversation(t *testing.T) {
	t.Parallel()
	convs := &memConvs{}
	id, err := convs.Create(context.Background(), domain.Conversation{UserID: "owner"})
	require.NoError(t, err)

	svc := NewChatService(convs, &memDocs{}, &stubModel{reply: "ok"})
	_, err = svc.SendMessage(context.Background(), "intruder", id, "Bonjour")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationTitleTruncated(t *testing.T) {
	t.Parallel()
	convs := &memConvs{}
	svc := NewChatService(convs, &memDocs{}, &stubModel{reply: "ok"})

	long := strings.Repeat("question ", 20)
	reply, err := svc.SendMessage(context.Background(), "u1", "", long)
	require.NoError(t, err)

	conv, err := convs.Get(context.Background(), reply.ConversationID, "u1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(conv.Title), maxTitleLen)
}
