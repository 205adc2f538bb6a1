package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

var (
	errRoundIDRequired = errors.New("round_id is required")
	errCellRequired    = errors.New("row and col are required")
)

func (that *Server) handleNewRound(ctx context.Context, sess *session, msg *Message) error {
	log := that.logger.With("method", "handleNewRound")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	round, err := that.rounds.StartRound(ctx, payloadReq.Mode)
	if err != nil {
		return fmt.Errorf("failed to start round: %w", err)
	}

	if err = sess.send(actionRoundUpdate, Payload{Round: round}); err != nil {
		return err
	}

	log.Info("round started", "roundID", round.ID, "mode", round.Mode)

	that.scheduleAI(sess, round)

	return nil
}

func (that *Server) handleRoundTurn(ctx context.Context, sess *session, msg *Message) error {
	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.RoundID == "" {
		return errRoundIDRequired
	}

	if payloadReq.Row == nil || payloadReq.Col == nil {
		return errCellRequired
	}

	round, err := that.rounds.PlayHuman(ctx, payloadReq.RoundID, *payloadReq.Row, *payloadReq.Col)
	if err != nil {
		return fmt.Errorf("failed to make turn: %w", err)
	}

	if err = sess.send(actionRoundUpdate, Payload{Round: round}); err != nil {
		return err
	}

	that.scheduleAI(sess, round)

	return nil
}

func (that *Server) handleResetRound(ctx context.Context, sess *session, msg *Message) error {
	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.RoundID == "" {
		return errRoundIDRequired
	}

	round, err := that.rounds.ResetRound(ctx, payloadReq.RoundID)
	if err != nil {
		return fmt.Errorf("failed to reset round: %w", err)
	}

	if err = sess.send(actionRoundUpdate, Payload{Round: round}); err != nil {
		return err
	}

	that.scheduleAI(sess, round)

	return nil
}

// scheduleAI - answers for the engine after aiDelay; ai-vs-ai rounds are played continuously.
func (that *Server) scheduleAI(sess *session, round *entity.Round) {
	if round.Mode == entity.AIVsAI {
		if !sess.startAutoplay(round.ID) {
			return
		}

		sess.wg.Add(1)
		go func() {
			defer sess.wg.Done()
			defer sess.stopAutoplay(round.ID)

			that.autoplay(sess, round.ID)
		}()

		return
	}

	if !round.IsAITurn() {
		return
	}

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()

		if !sess.wait(that.aiDelay) {
			return
		}

		that.playAI(sess, round.ID)
	}()
}

// autoplay - plays both sides, resetting after each finished round until maxRounds are done.
func (that *Server) autoplay(sess *session, roundID string) {
	log := that.logger.With("method", "autoplay", "roundID", roundID)

	played := 0
	for sess.wait(that.aiDelay) {
		round, ok := that.playAI(sess, roundID)
		if !ok {
			return
		}

		if !round.IsFinished() {
			continue
		}

		played++
		log.Info("round finished", "outcome", round.Outcome.String(), "played", played)

		if played >= that.maxRounds || !sess.wait(that.aiDelay) {
			return
		}

		round, err := that.rounds.ResetRound(sess.ctx, roundID)
		if err != nil {
			that.sendError(sess, actionRoundReset, err.Error())
			return
		}

		if err = sess.send(actionRoundUpdate, Payload{Round: round}); err != nil {
			log.Error("failed to send round update", "error", err)
			return
		}
	}
}

func (that *Server) playAI(sess *session, roundID string) (*entity.Round, bool) {
	log := that.logger.With("method", "playAI", "roundID", roundID)

	round, err := that.rounds.PlayAI(sess.ctx, roundID)
	if err != nil {
		if sess.ctx.Err() == nil {
			log.Error("failed to make ai turn", "error", err)
			that.sendError(sess, actionRoundUpdate, err.Error())
		}

		return nil, false
	}

	if err = sess.send(actionRoundUpdate, Payload{Round: round}); err != nil {
		log.Error("failed to send round update", "error", err)
		return nil, false
	}

	return round, true
}
