package notify

import (
	"context"
	"log/slog"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// UserSender delivers messages to employees.
type UserSender interface {
	SendToUsers(ctx context.Context, users []model.UserProfile, msg model.Message) error
}

// TeamSender posts and edits team cards.
type TeamSender interface {
	SendToTeam(ctx context.Context, teamID string, msg model.Message, replaceMessageID string) (string, error)
}

// Gateway joins the user and team channels into one notifier.
type Gateway struct {
	users  UserSender
	team   TeamSender
	logger *slog.Logger
}

// NewGateway returns a Gateway. A nil team sender disables team cards: posts
// succeed without a message id.
func NewGateway(users UserSender, team TeamSender, logger *slog.Logger) *Gateway {
	return &Gateway{users: users, team: team, logger: logger}
}

// SendToUsers mails msg to users. An empty list is a no-op.
func (g *Gateway) SendToUsers(ctx context.Context, users []model.UserProfile, msg model.Message) error {
	if len(users) == 0 {
		return nil
	}
	if err := g.users.SendToUsers(ctx, users, msg); err != nil {
		return err
	}
	g.logger.DebugContext(ctx, "user notification sent", "subject", msg.Subject, "recipients", len(users))
	return nil
}

// SendToTeam posts msg to the team channel, or edits replaceMessageID.
func (g *Gateway) SendToTeam(ctx context.Context, teamID string, msg model.Message, replaceMessageID string) (string, error) {
	if g.team == nil {
		g.logger.DebugContext(ctx, "team channel disabled, card skipped", "team_id", teamID)
		return replaceMessageID, nil
	}
	return g.team.SendToTeam(ctx, teamID, msg, replaceMessageID)
}
