package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// BotSender sends Telegram requests. *tgbotapi.BotAPI satisfies it.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TeamChannel posts event cards to each team's Telegram chat.
type TeamChannel struct {
	bot   BotSender
	chats map[string]int64
}

// NewTeamChannel connects a bot with token.
func NewTeamChannel(token string, chats map[string]int64) (*TeamChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return NewTeamChannelWithSender(bot, chats), nil
}

// NewTeamChannelWithSender returns a TeamChannel sending through bot.
func NewTeamChannelWithSender(bot BotSender, chats map[string]int64) *TeamChannel {
	return &TeamChannel{bot: bot, chats: chats}
}

// SendToTeam posts msg to teamID's chat, or edits replaceMessageID in place
// when it is set. It returns the id of the message showing msg.
func (c *TeamChannel) SendToTeam(ctx context.Context, teamID string, msg model.Message, replaceMessageID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chatID, ok := c.chats[teamID]
	if !ok {
		return "", fmt.Errorf("no telegram chat configured for team %s", teamID)
	}
	text := msg.Subject + "\n\n" + msg.Body

	if replaceMessageID != "" {
		messageID, err := strconv.Atoi(replaceMessageID)
		if err != nil {
			return "", fmt.Errorf("parse team card id %q: %w", replaceMessageID, err)
		}
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.DisableWebPagePreview = true
		if _, err := c.bot.Send(edit); err != nil {
			return "", fmt.Errorf("edit team card %d: %w", messageID, err)
		}
		return replaceMessageID, nil
	}

	post := tgbotapi.NewMessage(chatID, text)
	post.DisableWebPagePreview = true
	sent, err := c.bot.Send(post)
	if err != nil {
		return "", fmt.Errorf("post team card: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}
