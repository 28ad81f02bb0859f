package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/session"
)

var errNotConnected = errors.New("not connected")

func (that *Server) handleConnect(ctx context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handleConnect", "sessionID", client.sessionID)

	sess := client.attached()
	if sess == nil {
		attached, release, err := that.uGame.AttachSession(ctx, client.sessionID)
		if err != nil {
			client.sendError(msg.Action, "failed to open the game")
			return fmt.Errorf("failed to get session: %w", err)
		}

		sess = client.attach(attached, release)
	}

	client.sendGame(msg.Action, sess)

	log.Info("successfully connected player")

	return nil
}

func (that *Server) handleGameTurn(_ context.Context, client *client, msg *Message) error {
	sess, ok := that.requireSession(client, msg)
	if !ok {
		return nil
	}

	var payload TurnPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Cell == nil {
		client.sendError(msg.Action, "cell is required")
		return nil
	}

	if err := sess.Move(*payload.Cell); err != nil {
		client.sendError(msg.Action, err.Error())
		return rejected(err)
	}

	client.sendGame(msg.Action, sess)

	return nil
}

func (that *Server) handleGameReset(_ context.Context, client *client, msg *Message) error {
	sess, ok := that.requireSession(client, msg)
	if !ok {
		return nil
	}

	if err := sess.Reset(); err != nil {
		client.sendError(msg.Action, err.Error())
		return fmt.Errorf("failed to reset game: %w", err)
	}

	client.sendGame(msg.Action, sess)

	return nil
}

func (that *Server) handleGameSettings(_ context.Context, client *client, msg *Message) error {
	sess, ok := that.requireSession(client, msg)
	if !ok {
		return nil
	}

	var payload SettingsPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Settings == nil {
		client.sendError(msg.Action, "settings are required")
		return nil
	}

	if err := sess.Configure(*payload.Settings); err != nil {
		client.sendError(msg.Action, err.Error())
		return rejected(err)
	}

	client.sendGame(msg.Action, sess)

	return nil
}

func (that *Server) requireSession(client *client, msg *Message) (*session.Session, bool) {
	sess := client.attached()
	if sess == nil {
		client.sendError(msg.Action, errNotConnected.Error())
		return nil, false
	}

	return sess, true
}

// rejected hides rule violations from the error log; they are answered to the client already.
func rejected(err error) error {
	if errors.Is(err, session.ErrSessionClosed) {
		return err
	}

	return nil
}
