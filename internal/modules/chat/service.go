// README: Conversation service; drives the order-capture pipeline per turn.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bvetra/internal/ai"
	"bvetra/internal/modules/dispatch"
	"bvetra/internal/modules/draft"
	"bvetra/internal/modules/extract"
	"bvetra/internal/types"
)

var (
	ErrNoAssistant         = errors.New("assistant is not configured")
	ErrDispatchUnavailable = errors.New("dispatch is not available")
)

// fallbackReply is appended as an assistant turn when the upstream model
// fails; conversational errors never crash the session.
const fallbackReply = "Извините, произошла ошибка при обращении к ассистенту. Попробуйте ещё раз."

// Dispatcher is satisfied by dispatch.Coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, d draft.Draft, history []types.Turn) dispatch.Submission
}

type Service struct {
	store      Store
	provider   ai.Provider
	dispatcher Dispatcher
	log        *zap.Logger
}

// NewService wires the conversation pipeline. provider may be nil when the
// assistant credential is absent; chat calls then short-circuit.
func NewService(store Store, provider ai.Provider, dispatcher Dispatcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, provider: provider, dispatcher: dispatcher, log: log}
}

// SendMessage appends the user message, streams the assistant reply through
// onChunk (which observes the growing partial text), re-runs extraction over
// the updated transcript and merges the result into the session draft.
//
// Upstream failures degrade to a fallback assistant line rather than an
// error; cancellation discards the partial reply and returns ctx's error.
func (s *Service) SendMessage(ctx context.Context, sessionID, message string, onChunk func(partial string)) (string, error) {
	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", err
	}
	sess.Append(types.RoleUser, message)

	if s.provider == nil {
		_ = s.store.Save(ctx, sess)
		return "", ErrNoAssistant
	}

	history := sess.Turns[:len(sess.Turns)-1]
	src, err := s.provider.StreamReply(ctx, history, message)
	if err != nil {
		return s.degrade(ctx, sess, err), nil
	}

	final, err := ai.Consume(ctx, src, onChunk)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Abandoned session: keep the user turn, drop the partial reply.
			_ = s.store.Save(context.WithoutCancel(ctx), sess)
			return "", err
		}
		// Failed before the first byte.
		return s.degrade(ctx, sess, err), nil
	}

	sess.Append(types.RoleAssistant, final)
	if f, ok := extract.Extract(sess.Turns); ok {
		sess.Draft.MergeExtracted(f)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return final, err
	}
	return final, nil
}

func (s *Service) degrade(ctx context.Context, sess *Session, cause error) string {
	s.log.Warn("assistant call failed", zap.String("session", sess.ID), zap.Error(cause))
	sess.Append(types.RoleAssistant, fallbackReply)
	_ = s.store.Save(ctx, sess)
	return fallbackReply
}

// History returns the transcript, empty for an unknown session.
func (s *Service) History(ctx context.Context, sessionID string) ([]types.Turn, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess.Turns, nil
}

// Clear wipes the transcript and the draft.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// Draft returns the session's current draft.
func (s *Service) Draft(ctx context.Context, sessionID string) (draft.Draft, error) {
	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return draft.Draft{}, err
	}
	return sess.Draft.Snapshot(), nil
}

// EditDraft applies user edits field by field, marking them user-edited so
// later extraction never silently overwrites them.
func (s *Service) EditDraft(ctx context.Context, sessionID string, edits map[draft.Field]string) (draft.Draft, error) {
	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return draft.Draft{}, err
	}
	for field, value := range edits {
		if err := sess.Draft.ApplyEdit(field, value); err != nil {
			return draft.Draft{}, fmt.Errorf("edit %s: %w", field, err)
		}
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return draft.Draft{}, err
	}
	return sess.Draft.Snapshot(), nil
}

// Confirm moves the draft in front of the user for review.
func (s *Service) Confirm(ctx context.Context, sessionID string) (draft.Draft, error) {
	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return draft.Draft{}, err
	}
	if err := sess.Draft.RequestConfirmation(); err != nil {
		return draft.Draft{}, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return draft.Draft{}, err
	}
	return sess.Draft.Snapshot(), nil
}

// Submit validates the draft, dispatches it to all configured channels and
// appends the order confirmation line to the transcript. Per-channel failures
// still complete the submission; only an unusable dispatch boundary fails it.
func (s *Service) Submit(ctx context.Context, sessionID string) (dispatch.Submission, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return dispatch.Submission{}, err
	}

	if sess.Draft.State == draft.StateFailed {
		_ = sess.Draft.Retry()
	}
	if err := sess.Draft.BeginSubmission(); err != nil {
		// validation failed or wrong state; draft stays put for correction
		_ = s.store.Save(ctx, sess)
		return dispatch.Submission{}, err
	}

	if s.dispatcher == nil {
		_ = sess.Draft.Fail()
		_ = s.store.Save(ctx, sess)
		return dispatch.Submission{}, ErrDispatchUnavailable
	}

	// A dispatch that has started runs to completion even if the caller
	// disconnects mid-flight; only the result goes unobserved.
	dctx := context.WithoutCancel(ctx)
	sub := s.dispatcher.Dispatch(dctx, sess.Draft, sess.Turns)
	_ = sess.Draft.Complete()
	sess.Append(types.RoleOrder, orderLine(sub.Order))
	sess.Draft.Reset()

	if err := s.store.Save(dctx, sess); err != nil {
		return sub, err
	}
	return sub, nil
}

func (s *Service) loadOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return NewSession(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func orderLine(d draft.Draft) string {
	return fmt.Sprintf("Заказ отправлен: %s %s — %s → %s (%s)",
		d.Name, d.Phone, orDash(d.Pickup), orDash(d.Dropoff), orDash(d.Datetime))
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
