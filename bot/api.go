package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// chatAPI is the narrow slice of the Telegram surface the pipeline needs.
// The indirection keeps the pipeline testable without a live bot session.
type chatAPI interface {
	SendText(chatID int64, text string, opts *gotgbot.SendMessageOpts) error
	SendVideo(chatID int64, videoURL string, opts *gotgbot.SendVideoOpts) error
	SetReaction(chatID, messageID int64, emoji string) error
	SendChatAction(chatID int64, action string) error
	FileURL(ctx context.Context, fileID string) (string, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// telegramAPI backs chatAPI with a live gotgbot session.
type telegramAPI struct {
	bot        *gotgbot.Bot
	httpClient *http.Client
}

func newTelegramAPI(bot *gotgbot.Bot) *telegramAPI {
	return &telegramAPI{
		bot:        bot,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *telegramAPI) SendText(chatID int64, text string, opts *gotgbot.SendMessageOpts) error {
	_, err := t.bot.SendMessage(chatID, text, opts)
	return err
}

func (t *telegramAPI) SendVideo(chatID int64, videoURL string, opts *gotgbot.SendVideoOpts) error {
	_, err := t.bot.SendVideo(chatID, gotgbot.InputFileByURL(videoURL), opts)
	return err
}

func (t *telegramAPI) SetReaction(chatID, messageID int64, emoji string) error {
	_, err := t.bot.SetMessageReaction(chatID, messageID, &gotgbot.SetMessageReactionOpts{
		Reaction: []gotgbot.ReactionType{gotgbot.ReactionTypeEmoji{Emoji: emoji}},
	})
	return err
}

func (t *telegramAPI) SendChatAction(chatID int64, action string) error {
	_, err := t.bot.SendChatAction(chatID, action, nil)
	return err
}

// FileURL resolves a Telegram file id to its public download URL.
func (t *telegramAPI) FileURL(ctx context.Context, fileID string) (string, error) {
	f, err := t.bot.GetFile(fileID, nil)
	if err != nil {
		return "", fmt.Errorf("get file %s: %w", fileID, err)
	}
	return f.URL(t.bot, nil), nil
}

// DownloadFile fetches the raw bytes of a Telegram file.
func (t *telegramAPI) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.FileURL(ctx, fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
