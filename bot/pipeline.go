package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meeps-dev/anitrace/anilist"
	"github.com/meeps-dev/anitrace/reply"
	"github.com/meeps-dev/anitrace/telemetry"
	"github.com/meeps-dev/anitrace/tracemoe"
)

const (
	noMatchText  = "No results found, please try again with a different screenshot."
	adultText    = "Adult content detected. Please contact me privately."
	failureText  = "An error occurred, please try again."
	reactionWork = "👌"
	reactionDone = "👍"
)

// imageRef points at the media to search. download selects the byte-upload
// path; otherwise the public file URL is submitted.
type imageRef struct {
	fileID   string
	filename string
	download bool
}

// extractImageRef picks the image from a subject message in priority order:
// photo (largest variant) → animation → video thumbnail → image document.
// Photos and documents go by bytes; animation and video thumbnails by URL,
// since those may exceed the provider's upload limits anyway.
func extractImageRef(m *gotgbot.Message) (imageRef, bool) {
	switch {
	case m == nil:
		return imageRef{}, false
	case len(m.Photo) > 0:
		// Telegram orders size variants smallest to largest.
		p := m.Photo[len(m.Photo)-1]
		return imageRef{fileID: p.FileId, filename: "photo.jpg", download: true}, true
	case m.Animation != nil:
		return imageRef{fileID: m.Animation.FileId}, true
	case m.Video != nil && m.Video.Thumbnail != nil:
		return imageRef{fileID: m.Video.Thumbnail.FileId}, true
	case m.Video != nil:
		return imageRef{fileID: m.Video.FileId}, true
	case m.Document != nil:
		name := m.Document.FileName
		if name == "" {
			name = "document"
		}
		return imageRef{fileID: m.Document.FileId, filename: name, download: true}, true
	default:
		return imageRef{}, false
	}
}

// handleMedia is the gotgbot entrypoint for the pipeline. It never returns an
// error upward: every outcome, including unexpected faults, ends in exactly one
// user-visible reply.
func (b *Bot) handleMedia(tb *gotgbot.Bot, ectx *ext.Context) error {
	msg := ectx.EffectiveMessage
	if msg == nil || ectx.EffectiveUser == nil {
		return nil
	}

	base := b.rootCtx
	if base == nil {
		base = context.Background()
	}
	ctx := telemetry.WithCorrelation(base, uuid.NewString())
	log := telemetry.LoggerWithCorr(ctx)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", slog.Any("panic", r), slog.Int64("chat", msg.Chat.Id))
			telemetry.PipelineFailures.Inc()
			b.replyText(msg, failureText, false)
		}
		if telemetry.PipelineDuration != nil {
			telemetry.PipelineDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if err := b.process(ctx, msg, ectx.EffectiveUser.Id); err != nil {
		log.Error("pipeline failed", slog.Any("err", err), slog.Int64("chat", msg.Chat.Id))
		telemetry.PipelineFailures.Inc()
		b.replyText(msg, failureText, false)
	}
	return nil
}

// process runs steps 1-10 of the per-event pipeline. A returned error means an
// unexpected fault: the caller converts it to the generic failure reply. All
// expected outcomes (no image, no match, provider error, adult content) are
// terminal inside this function with their own reply.
func (b *Bot) process(ctx context.Context, msg *gotgbot.Message, requesterID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "scene-search",
		attribute.Int64("chat_id", msg.Chat.Id),
	)
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx)

	// The subject is the replied-to message when the inbound is a reply.
	subject := msg
	if msg.ReplyToMessage != nil {
		subject = msg.ReplyToMessage
	}

	opts := tracemoe.OptionsFromCaption(msg.Caption, requesterID)

	ref, ok := extractImageRef(subject)
	if !ok {
		// User-correctable, not an error.
		telemetry.RepliesHelp.Inc()
		b.sendHelp(msg)
		return nil
	}

	// Acknowledge; failures here must never abort the pipeline.
	if err := b.api.SetReaction(msg.Chat.Id, msg.MessageId, reactionWork); err != nil {
		log.Debug("reaction failed", slog.Any("err", err))
	}
	if err := b.api.SendChatAction(msg.Chat.Id, "typing"); err != nil {
		log.Debug("chat action failed", slog.Any("err", err))
	}

	match, err := b.runSearch(ctx, ref, opts)
	if err != nil {
		var pe *tracemoe.ProviderError
		switch {
		case errors.Is(err, tracemoe.ErrNoMatch):
			telemetry.SearchesNoMatch.Inc()
			log.Info("no match", slog.Int64("chat", msg.Chat.Id))
			b.replyText(msg, noMatchText, false)
			return nil
		case errors.As(err, &pe):
			telemetry.SearchesFailed.Inc()
			log.Warn("provider error", slog.Int("status", pe.StatusCode), slog.String("msg", pe.Message))
			b.replyText(msg, pe.UserMessage(), false)
			return nil
		default:
			telemetry.SearchesFailed.Inc()
			return fmt.Errorf("reverse search: %w", err)
		}
	}
	telemetry.SearchesSucceeded.Inc()

	info := b.fetchCatalog(ctx, match.CatalogID)
	payload := reply.Build(match, info, opts)

	if err := b.api.SetReaction(msg.Chat.Id, msg.MessageId, reactionDone); err != nil {
		log.Debug("reaction failed", slog.Any("err", err))
	}

	if payload.IsAdult {
		telemetry.AdultFiltered.Inc()
		b.replyText(msg, adultText, false)
		// Best effort: deliver the full result privately to the requester.
		if err := b.api.SendText(requesterID, payload.Text, &gotgbot.SendMessageOpts{ParseMode: gotgbot.ParseModeMarkdown}); err != nil {
			log.Debug("private delivery failed", slog.Any("err", err))
		}
		return nil
	}

	if payload.VideoURL != "" && !opts.SkipPreview {
		telemetry.RepliesVideo.Inc()
		err := b.api.SendVideo(msg.Chat.Id, payload.VideoURL, &gotgbot.SendVideoOpts{
			Caption:         payload.Text,
			ParseMode:       gotgbot.ParseModeMarkdown,
			ReplyParameters: &gotgbot.ReplyParameters{MessageId: subject.MessageId},
		})
		if err != nil {
			return fmt.Errorf("send video reply: %w", err)
		}
		return nil
	}

	telemetry.RepliesText.Inc()
	err = b.api.SendText(msg.Chat.Id, payload.Text, &gotgbot.SendMessageOpts{
		ParseMode:       gotgbot.ParseModeMarkdown,
		ReplyParameters: &gotgbot.ReplyParameters{MessageId: subject.MessageId},
	})
	if err != nil {
		return fmt.Errorf("send text reply: %w", err)
	}
	return nil
}

// runSearch resolves the image reference and submits it to the provider.
func (b *Bot) runSearch(ctx context.Context, ref imageRef, opts tracemoe.SearchOptions) (*tracemoe.Match, error) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "tracemoe-search",
		attribute.Bool("upload", ref.download),
	)
	defer span.End()
	telemetry.SearchesStarted.Inc()

	var match *tracemoe.Match
	var err error
	telemetry.TimeFunc(telemetry.SearchDuration, func() {
		if ref.download {
			var image []byte
			image, err = b.api.DownloadFile(ctx, ref.fileID)
			if err != nil {
				return
			}
			match, err = b.search.SearchByImage(ctx, image, ref.filename, opts)
			return
		}
		var url string
		url, err = b.api.FileURL(ctx, ref.fileID)
		if err != nil {
			return
		}
		match, err = b.search.SearchByURL(ctx, url, opts)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetSpanSuccess(span)
	return match, nil
}

// fetchCatalog looks up show metadata, degrading to a blank record on failure.
// Every lookup is fresh; results are never cached across requests.
func (b *Bot) fetchCatalog(ctx context.Context, catalogID int) *anilist.CatalogInfo {
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "anilist-media",
		attribute.Int("catalog_id", catalogID),
	)
	defer span.End()
	telemetry.MetadataFetches.Inc()

	var info *anilist.CatalogInfo
	var err error
	telemetry.TimeFunc(telemetry.MetadataDuration, func() {
		info, err = b.catalog.Media(ctx, catalogID)
	})
	if err != nil {
		telemetry.MetadataFailures.Inc()
		telemetry.RecordError(span, err)
		telemetry.LoggerWithCorr(ctx).Warn("metadata fetch failed, degrading", slog.Int("catalog_id", catalogID), slog.Any("err", err))
		return &anilist.CatalogInfo{}
	}
	telemetry.SetSpanSuccess(span)
	return info
}

// replyText sends a plain reply to msg, logging rather than propagating failures
// when the reply itself is a terminal error notice.
func (b *Bot) replyText(msg *gotgbot.Message, text string, markdown bool) {
	opts := &gotgbot.SendMessageOpts{
		ReplyParameters: &gotgbot.ReplyParameters{MessageId: msg.MessageId},
	}
	if markdown {
		opts.ParseMode = gotgbot.ParseModeMarkdown
	}
	if err := b.api.SendText(msg.Chat.Id, text, opts); err != nil {
		slog.Warn("reply failed", slog.Int64("chat", msg.Chat.Id), slog.Any("err", err))
	}
}

// sendHelp answers an imageless message with usage text and the link keyboard.
func (b *Bot) sendHelp(msg *gotgbot.Message) {
	if err := b.api.SendText(msg.Chat.Id, helpText, &gotgbot.SendMessageOpts{
		ReplyMarkup: b.helpKeyboard(),
	}); err != nil {
		slog.Warn("help reply failed", slog.Int64("chat", msg.Chat.Id), slog.Any("err", err))
	}
}
