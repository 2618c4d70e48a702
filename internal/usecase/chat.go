package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/orientis/orientis/internal/domain"
	"github.com/orientis/orientis/pkg/textx"
)

// chatOptions are the generation settings for counselor replies. Higher
// temperature than the analysis call since advice is free-form prose.
var chatOptions = domain.GenerationOptions{Temperature: 0.7, TopP: 0.9}

// degradedReply is sent when the model endpoint cannot produce an answer.
const degradedReply = "Pouvez-vous reformuler votre question ? Je souhaite vous donner la meilleure réponse possible."

const noProfileContext = "Utilisateur sans analyse de profil."

const counselorPromptTemplate = `TU ES ORIENTIA, UN CONSEILLER D'ORIENTATION PROFESSIONNELLE EXPERT.

CONTEXTE UTILISATEUR :
%s

TA MISSION :
1. Donner des conseils PERSONNALISÉS basés sur le profil ci-dessus
2. Être précis et technique, pas générique
3. Proposer des formations, métiers et parcours adaptés
4. Aider à la reconversion professionnelle si pertinent
5. Répondre aux questions spécifiques sur l'orientation

DIRECTIVES :
- NE sois PAS générique, utilise le CONTEXTE utilisateur
- Si le profil montre des compétences techniques, propose des métiers techniques
- Si le profil est commercial, propose des métiers commerciaux
- Sois réaliste sur les perspectives de carrière
- Donne des conseils actionnables

QUESTION DE L'UTILISATEUR: "%s"

RÉPONSE PERSONNALISÉE (sois précis et utilise le contexte) :`

// maxTitleLen bounds the conversation title derived from the first message.
const maxTitleLen = 60

// ChatService implements the career counselor chat. Replies are grounded in
// the user's most recent CV analysis when one exists.
type ChatService struct {
	Convs domain.ConversationRepository
	Docs  domain.DocumentRepository
	Model domain.ModelClient
}

func NewChatService(convs domain.ConversationRepository, docs domain.DocumentRepository, model domain.ModelClient) *ChatService {
	return &ChatService{Convs: convs, Docs: docs, Model: model}
}

// ChatReply is the outcome of one exchange.
type ChatReply struct {
	ConversationID string
	UserMessage    domain.Message
	Assistant      domain.Message
	Degraded       bool
}

// SendMessage handles one chat turn: resolve (or start) the conversation,
// build the counselor prompt from the user's latest analysis, call the
// model, and persist both sides of the exchange. Model failures degrade to
// a canned reply rather than an error.
func (s *ChatService) SendMessage(ctx domain.Context, userID, conversationID, content string) (ChatReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ChatReply{}, fmt.Errorf("op=chat.SendMessage: empty message: %w", domain.ErrInvalidArgument)
	}

	conv, err := s.resolveConversation(ctx, userID, conversationID, content)
	if err != nil {
		return ChatReply{}, fmt.Errorf("op=chat.SendMessage: %w", err)
	}

	prompt := fmt.Sprintf(counselorPromptTemplate, s.userContext(ctx, userID), content)

	degraded := false
	reply, err := s.Model.Chat(ctx, prompt, chatOptions)
	if err != nil || strings.TrimSpace(reply) == "" {
		slog.Warn("counselor model call failed; sending degraded reply",
			slog.String("conversation_id", conv.ID), slog.Any("error", err))
		reply = degradedReply
		degraded = true
	}

	userMsg := domain.Message{ConversationID: conv.ID, Role: "user", Content: content}
	if userMsg.ID, err = s.Convs.AppendMessage(ctx, userMsg); err != nil {
		return ChatReply{}, fmt.Errorf("op=chat.SendMessage: %w", err)
	}
	asstMsg := domain.Message{ConversationID: conv.ID, Role: "assistant", Content: reply}
	if asstMsg.ID, err = s.Convs.AppendMessage(ctx, asstMsg); err != nil {
		return ChatReply{}, fmt.Errorf("op=chat.SendMessage: %w", err)
	}

	return ChatReply{ConversationID: conv.ID, UserMessage: userMsg, Assistant: asstMsg, Degraded: degraded}, nil
}

// Conversations lists the user's conversations, newest first.
func (s *ChatService) Conversations(ctx domain.Context, userID string) ([]domain.Conversation, error) {
	convs, err := s.Convs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("op=chat.Conversations: %w", err)
	}
	return convs, nil
}

// ConversationWithMessages returns one conversation and its full history.
func (s *ChatService) ConversationWithMessages(ctx domain.Context, id, userID string) (domain.Conversation, []domain.Message, error) {
	conv, err := s.Convs.Get(ctx, id, userID)
	if err != nil {
		return domain.Conversation{}, nil, fmt.Errorf("op=chat.ConversationWithMessages: %w", err)
	}
	msgs, err := s.Convs.ListMessages(ctx, conv.ID)
	if err != nil {
		return domain.Conversation{}, nil, fmt.Errorf("op=chat.ConversationWithMessages: %w", err)
	}
	return conv, msgs, nil
}

func (s *ChatService) resolveConversation(ctx domain.Context, userID, conversationID, firstContent string) (domain.Conversation, error) {
	if conversationID != "" {
		return s.Convs.Get(ctx, conversationID, userID)
	}
	conv := domain.Conversation{UserID: userID, Title: textx.Truncate(firstContent, maxTitleLen)}
	id, err := s.Convs.Create(ctx, conv)
	if err != nil {
		return domain.Conversation{}, err
	}
	conv.ID = id
	return conv, nil
}

// userContext summarizes the latest analysis for the counselor prompt.
// Any lookup failure yields the no-profile context; chat must not depend
// on the documents store being healthy.
func (s *ChatService) userContext(ctx domain.Context, userID string) string {
	docs, err := s.Docs.ListByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("latest analysis lookup failed", slog.Any("error", err))
		}
		return noProfileContext
	}
	if len(docs) == 0 {
		return noProfileContext
	}

	a := docs[0].Analysis
	names := make([]string, len(a.Skills))
	for i, sk := range a.Skills {
		names[i] = sk.Name
	}
	return fmt.Sprintf(`PROFIL UTILISATEUR ANALYSÉ :
- Compétences principales: %s
- Domaine: %s
- Niveau: %s
- Rôles suggérés: %s
- Synthèse: %s`,
		strings.Join(names, ", "), a.DetectedField, a.ExperienceLevel,
		strings.Join(a.SuggestedRoles, ", "), a.Summary)
}
