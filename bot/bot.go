// Package bot contains the Telegram shell and the per-event search pipeline.
//
// The shell registers commands (/start, /help, /about), inline menu callbacks
// and a media message handler. Each inbound media message runs one pipeline
// invocation: extract the image reference, submit it to the reverse-search
// provider, enrich the match with catalog metadata and send one reply. The
// pipeline always terminates with exactly one user-visible response.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"

	"github.com/meeps-dev/anitrace/anilist"
	"github.com/meeps-dev/anitrace/config"
	"github.com/meeps-dev/anitrace/tracemoe"
)

// searcher submits an image to the reverse-search provider.
type searcher interface {
	SearchByURL(ctx context.Context, imageURL string, opts tracemoe.SearchOptions) (*tracemoe.Match, error)
	SearchByImage(ctx context.Context, image []byte, filename string, opts tracemoe.SearchOptions) (*tracemoe.Match, error)
}

// catalog fetches show metadata for a numeric id.
type catalog interface {
	Media(ctx context.Context, id int) (*anilist.CatalogInfo, error)
}

// Bot wires the Telegram shell to the search pipeline.
type Bot struct {
	cfg     *config.Config
	tg      *gotgbot.Bot
	api     chatAPI
	search  searcher
	catalog catalog
	rootCtx context.Context
}

// New connects the bot session and builds the pipeline dependencies.
func New(cfg *config.Config) (*Bot, error) {
	tg, err := gotgbot.NewBot(cfg.TelegramToken, nil)
	if err != nil {
		return nil, err
	}
	return &Bot{
		cfg:     cfg,
		tg:      tg,
		api:     newTelegramAPI(tg),
		search:  tracemoe.New(cfg.TraceMoeURL, cfg.TraceMoeKey),
		catalog: anilist.New(cfg.AniListURL),
	}, nil
}

// Username returns the authenticated bot account name.
func (b *Bot) Username() string {
	if b.tg == nil {
		return ""
	}
	return b.tg.Username
}

// hasVisualMedia matches the messages the pipeline can act on: photos,
// animations, videos and image-typed documents.
func hasVisualMedia(m *gotgbot.Message) bool {
	if m == nil {
		return false
	}
	return len(m.Photo) > 0 ||
		m.Animation != nil ||
		m.Video != nil ||
		(m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/"))
}

// Run starts long polling and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.rootCtx = ctx

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// Handlers perform their own boundary handling; anything reaching here is a bug.
		Error: func(tb *gotgbot.Bot, ectx *ext.Context, err error) ext.DispatcherAction {
			slog.Error("unhandled dispatcher error", slog.Any("err", err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})

	dispatcher.AddHandler(handlers.NewCommand("start", b.handleStart))
	dispatcher.AddHandler(handlers.NewCommand("help", b.handleHelp))
	dispatcher.AddHandler(handlers.NewCommand("about", b.handleAbout))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Equal("main_menu"), b.handleMainMenu))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Equal("how_to_use"), b.handleHowToUse))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Equal("about"), b.handleAboutCallback))
	dispatcher.AddHandler(handlers.NewMessage(filters.Message(hasVisualMedia), b.handleMedia))

	updater := ext.NewUpdater(dispatcher, nil)
	if err := updater.StartPolling(b.tg, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout:        9,
			AllowedUpdates: []string{"message", "callback_query"},
			RequestOpts:    &gotgbot.RequestOpts{Timeout: 10 * time.Second},
		},
	}); err != nil {
		return err
	}
	slog.Info("telegram polling started", slog.String("username", b.tg.Username))

	go func() {
		<-ctx.Done()
		if err := updater.Stop(); err != nil {
			slog.Error("updater stop error", slog.Any("err", err))
		}
	}()

	updater.Idle()
	return nil
}
