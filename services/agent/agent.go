package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	sessionRepo "bookline/database/repository/session"
	settingsRepo "bookline/database/repository/settings"
	"bookline/models"
	"bookline/services/availability"
	"bookline/services/ledger"
	"bookline/services/llm"
	"bookline/utils"

	openai "github.com/sashabaranov/go-openai"
)

// maxToolIterations bounds the model round-trips spent on one user message.
// The loop never runs unbounded on a model that keeps requesting tools.
const maxToolIterations = 6

// historyTurns is how much stored conversation is replayed to the model.
const historyTurns = 40

// sessionLockTTL caps how long one turn may hold its session. Generous
// enough for the full tool loop, short enough that a crashed worker frees
// the conversation on its own.
const sessionLockTTL = 2 * time.Minute

// Replies used when the engine cannot produce a model answer. Real causes
// are logged; guests only ever see these.
const (
	budgetReply  = "I'm sorry, that request took more steps than I can handle in one go. Could you break it into smaller parts?"
	failureReply = "I'm sorry, something went wrong on my side. Please try again in a moment."
)

// DefaultAgentService is the production AgentService.
type DefaultAgentService struct {
	Settings     settingsRepo.SettingsRepository
	Sessions     sessionRepo.SessionRepository
	Ledger       ledger.LedgerService
	Availability *availability.Engine
	Locks        utils.Locker

	// NewClient builds the model client from current settings on every
	// request, so admin changes to model or key apply without a restart.
	NewClient func(gs *models.GlobalSettings) (llm.Client, error)

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewAgentService(
	settings settingsRepo.SettingsRepository,
	sessions sessionRepo.SessionRepository,
	ldg ledger.LedgerService,
	avail *availability.Engine,
	locks utils.Locker,
) *DefaultAgentService {
	return &DefaultAgentService{
		Settings:     settings,
		Sessions:     sessions,
		Ledger:       ldg,
		Availability: avail,
		Locks:        locks,
		NewClient: func(gs *models.GlobalSettings) (llm.Client, error) {
			return llm.NewClientFromSettings(gs)
		},
		Now: time.Now,
	}
}

func (s *DefaultAgentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// HandleMessage runs one turn of the conversation: serialize on the session,
// persist the user turn, then alternate model calls and tool executions until
// the model answers in plain text or the iteration budget runs out.
func (s *DefaultAgentService) HandleMessage(ctx context.Context, inst *models.Instance, sessionID, message string) (string, error) {
	log := utils.GetLogger().Sugar()

	lockKey := fmt.Sprintf("session:%s:%s", inst.ID, sessionID)
	acquired, err := s.Locks.Acquire(ctx, lockKey, sessionLockTTL)
	if err != nil {
		log.Errorw("failed to acquire session lock", "instanceId", inst.ID, "sessionId", sessionID, "error", err)
		return failureReply, nil
	}
	if !acquired {
		return "", &ConcurrencyError{SessionID: sessionID}
	}
	defer func() {
		if err := s.Locks.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			log.Warnw("failed to release session lock", "sessionId", sessionID, "error", err)
		}
	}()

	userTurn := models.ChatMessage{Role: models.RoleUser, Content: message}
	if err := s.Sessions.Append(ctx, inst.ID, sessionID, userTurn); err != nil {
		log.Errorw("failed to persist user turn", "instanceId", inst.ID, "sessionId", sessionID, "error", err)
		return failureReply, nil
	}

	gs, err := s.Settings.Get(ctx)
	if err != nil {
		log.Errorw("failed to load settings", "error", err)
		return failureReply, nil
	}
	client, err := s.NewClient(gs)
	if err != nil {
		log.Errorw("failed to build model client", "error", err)
		return failureReply, nil
	}

	history, err := s.Sessions.History(ctx, inst.ID, sessionID, historyTurns)
	if err != nil {
		log.Errorw("failed to load history", "instanceId", inst.ID, "sessionId", sessionID, "error", err)
		return failureReply, nil
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildSystemPrompt(inst, s.now()),
	})
	for _, m := range history {
		msgs = append(msgs, toOpenAI(m))
	}

	tools := toolSchemas()
	for i := 0; i < maxToolIterations; i++ {
		reply, err := client.Chat(ctx, msgs, tools)
		if err != nil {
			log.Errorw("model call failed", "instanceId", inst.ID, "sessionId", sessionID, "error", err)
			return failureReply, nil
		}

		assistantTurn := fromOpenAI(reply)
		if err := s.Sessions.Append(ctx, inst.ID, sessionID, assistantTurn); err != nil {
			log.Errorw("failed to persist assistant turn", "sessionId", sessionID, "error", err)
			return failureReply, nil
		}
		msgs = append(msgs, reply)

		if len(reply.ToolCalls) == 0 {
			text := strings.TrimSpace(reply.Content)
			if text == "" {
				return failureReply, nil
			}
			return text, nil
		}

		for _, tc := range reply.ToolCalls {
			call := models.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
			log.Infow("executing tool", "instanceId", inst.ID, "sessionId", sessionID, "tool", call.Name)
			result := s.dispatchTool(ctx, inst, call)

			toolTurn := models.ChatMessage{
				Role:       models.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			}
			if err := s.Sessions.Append(ctx, inst.ID, sessionID, toolTurn); err != nil {
				log.Errorw("failed to persist tool turn", "sessionId", sessionID, "error", err)
				return failureReply, nil
			}
			msgs = append(msgs, toOpenAI(toolTurn))
		}
	}

	// Budget exhausted mid tool chain. Persist the apology so the transcript
	// stays coherent for the next turn.
	log.Warnw("tool iteration budget exhausted", "instanceId", inst.ID, "sessionId", sessionID)
	apology := models.ChatMessage{Role: models.RoleAssistant, Content: budgetReply}
	if err := s.Sessions.Append(ctx, inst.ID, sessionID, apology); err != nil {
		log.Errorw("failed to persist apology turn", "sessionId", sessionID, "error", err)
	}
	return budgetReply, nil
}

// toOpenAI converts a stored turn into the wire shape.
func toOpenAI(m models.ChatMessage) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return out
}

// fromOpenAI converts a model reply into the stored shape.
func fromOpenAI(m openai.ChatCompletionMessage) models.ChatMessage {
	out := models.ChatMessage{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}
