package bot

import (
	"fmt"
	"log/slog"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const (
	welcomeText = "Hi! Send or forward me an anime screenshot, clip or video and I'll find the source scene for you."
	howToText   = "Send a screenshot, GIF or video frame taken from an anime episode.\n\n" +
		"Caption flags (anywhere in the caption, any case):\n" +
		"• nocrop — search without trimming black borders\n" +
		"• mute — deliver the preview clip without sound\n" +
		"• skip — text-only reply, no preview clip\n\n" +
		"You can also reply to someone else's image with any of the flags."
	aboutText = "I match screenshots against the trace.moe frame database and pull show details from AniList.\n" +
		"Results include titles, episode, timestamp, similarity and genres."
	helpText = "You can send/forward anime screenshots to me."
)

func menuKeyboard() gotgbot.InlineKeyboardMarkup {
	return gotgbot.InlineKeyboardMarkup{
		InlineKeyboard: [][]gotgbot.InlineKeyboardButton{{
			{Text: "How to use", CallbackData: "how_to_use"},
			{Text: "About", CallbackData: "about"},
		}},
	}
}

func backKeyboard() gotgbot.InlineKeyboardMarkup {
	return gotgbot.InlineKeyboardMarkup{
		InlineKeyboard: [][]gotgbot.InlineKeyboardButton{{
			{Text: "« Back", CallbackData: "main_menu"},
		}},
	}
}

func (b *Bot) helpKeyboard() gotgbot.InlineKeyboardMarkup {
	return gotgbot.InlineKeyboardMarkup{
		InlineKeyboard: [][]gotgbot.InlineKeyboardButton{{
			{Text: "Channel", Url: b.cfg.ChannelURL},
			{Text: "Support", Url: b.cfg.SupportURL},
		}},
	}
}

func (b *Bot) handleStart(tb *gotgbot.Bot, ctx *ext.Context) error {
	_, err := tb.SendMessage(ctx.EffectiveChat.Id, welcomeText, &gotgbot.SendMessageOpts{
		ReplyMarkup: menuKeyboard(),
	})
	return err
}

func (b *Bot) handleHelp(tb *gotgbot.Bot, ctx *ext.Context) error {
	_, err := tb.SendMessage(ctx.EffectiveChat.Id, helpText, &gotgbot.SendMessageOpts{
		ReplyMarkup: b.helpKeyboard(),
	})
	return err
}

func (b *Bot) handleAbout(tb *gotgbot.Bot, ctx *ext.Context) error {
	_, err := tb.SendMessage(ctx.EffectiveChat.Id, aboutText, nil)
	return err
}

// editMenu answers the callback and swaps the menu message in place.
func editMenu(tb *gotgbot.Bot, ctx *ext.Context, text string, markup gotgbot.InlineKeyboardMarkup) error {
	cq := ctx.CallbackQuery
	if _, err := cq.Answer(tb, nil); err != nil {
		slog.Debug("callback answer failed", slog.Any("err", err))
	}
	msg := cq.Message
	if msg == nil {
		return fmt.Errorf("callback %q without message", cq.Data)
	}
	_, _, err := tb.EditMessageText(text, &gotgbot.EditMessageTextOpts{
		ChatId:      msg.GetChat().Id,
		MessageId:   msg.GetMessageId(),
		ReplyMarkup: markup,
	})
	return err
}

func (b *Bot) handleMainMenu(tb *gotgbot.Bot, ctx *ext.Context) error {
	return editMenu(tb, ctx, welcomeText, menuKeyboard())
}

func (b *Bot) handleHowToUse(tb *gotgbot.Bot, ctx *ext.Context) error {
	return editMenu(tb, ctx, howToText, backKeyboard())
}

func (b *Bot) handleAboutCallback(tb *gotgbot.Bot, ctx *ext.Context) error {
	return editMenu(tb, ctx, aboutText, backKeyboard())
}
