// =============================================================================
// shiftpay - Telegram Schedule Downloader
// =============================================================================
//
// This module waits for a schedule to be sent to the bot and saves it to the
// download directory.
//
// FLOW:
//   1. Long-poll the Bot API for updates
//   2. Ignore updates that are not document messages
//   3. Reject documents that are not .xls/.xlsx with a reply
//   4. Download the file (with retries) under the configured name
//   5. Reply "File received!" and return the local path
//
// Polling starts with the first wait and runs until Close, so repeated waits
// share one update stream. Waiting stops early when the context is cancelled.
//
// =============================================================================

package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/ginjaninja78/shiftpay/internal/retry"
	"github.com/ginjaninja78/shiftpay/pkg/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Replies sent to the user.
const (
	ReplyWrongType = "Please send an XLS/XLSX file."
	ReplyReceived  = "File received!"
	ReplyFailed    = "Could not download the file, please send it again."
)

// DefaultNameFormat names downloads after the file's unique ID and its
// original name.
const DefaultNameFormat = "{unique}_{original}"

var (
	// ErrNoToken is returned when no bot token is configured.
	ErrNoToken = errors.New("telegram bot token is not set")

	// ErrClosed is returned by WaitForSchedule after Close.
	ErrClosed = errors.New("telegram downloader is closed")
)

// BotAPI is the part of the Bot API client the downloader uses.
// *tgbotapi.BotAPI satisfies it.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Downloader.
type Options struct {
	// Dir is where files are saved. Created when missing.
	Dir string

	// NameFormat is passed to utils.GenerateFileName with the {unique} and
	// {original} placeholders. Empty means DefaultNameFormat.
	NameFormat string

	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int

	// Retry controls download attempts.
	Retry retry.Config

	// FileEndpoint is the download URL format taking the token and the file
	// path. Empty means tgbotapi.FileEndpoint.
	FileEndpoint string

	// HTTPClient downloads files. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// =============================================================================
// DOWNLOADER
// =============================================================================

// Downloader receives schedule files through the bot.
type Downloader struct {
	bot   BotAPI
	token string
	opts  Options

	mu      sync.Mutex
	updates tgbotapi.UpdatesChannel
	closed  bool
}

// New wraps an existing bot client.
func New(bot BotAPI, token string, opts Options) *Downloader {
	if opts.NameFormat == "" {
		opts.NameFormat = DefaultNameFormat
	}
	if opts.FileEndpoint == "" {
		opts.FileEndpoint = tgbotapi.FileEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &Downloader{bot: bot, token: token, opts: opts}
}

// Connect logs in to the Bot API with token.
func Connect(token string, opts Options) (*Downloader, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("Connected to Telegram")
	return New(bot, token, opts), nil
}

// WaitForSchedule blocks until a schedule file has been downloaded and
// returns its local path.
func (d *Downloader) WaitForSchedule(ctx context.Context) (string, error) {
	if err := os.MkdirAll(d.opts.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	updates, err := d.updateStream()
	if err != nil {
		return "", err
	}

	log.Info().Msg("Waiting for a schedule file, send it to the bot now")

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case update, ok := <-updates:
			if !ok {
				return "", errors.New("telegram update channel closed")
			}
			msg := update.Message
			if msg == nil || msg.Document == nil {
				continue
			}

			if !utils.IsSchedule(msg.Document.FileName) {
				log.Info().Str("file", msg.Document.FileName).Msg("Rejected non-spreadsheet document")
				d.reply(msg, ReplyWrongType)
				continue
			}

			path, err := d.download(ctx, msg.Document)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				log.Error().Err(err).Str("file", msg.Document.FileName).Msg("Download failed")
				d.reply(msg, ReplyFailed)
				continue
			}

			d.reply(msg, ReplyReceived)
			log.Info().Str("path", path).Msg("File captured")
			return path, nil
		}
	}
}

// updateStream starts polling on first use and returns the shared channel.
func (d *Downloader) updateStream() (tgbotapi.UpdatesChannel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.updates == nil {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = d.opts.PollTimeout
		d.updates = d.bot.GetUpdatesChan(u)
	}
	return d.updates, nil
}

// Close stops polling. It is safe to call more than once.
func (d *Downloader) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	if d.updates != nil {
		d.bot.StopReceivingUpdates()
	}
}

func (d *Downloader) reply(to *tgbotapi.Message, text string) {
	if to.Chat == nil {
		return
	}
	m := tgbotapi.NewMessage(to.Chat.ID, text)
	m.ReplyToMessageID = to.MessageID
	if _, err := d.bot.Send(m); err != nil {
		log.Warn().Err(err).Msg("Failed to send reply")
	}
}

// download saves doc under the configured name.
func (d *Downloader) download(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	name := utils.GenerateFileName(d.opts.NameFormat, map[string]string{
		"unique":   doc.FileUniqueID,
		"original": filepath.Base(doc.FileName),
	})
	dest := filepath.Join(d.opts.Dir, name)

	return retry.WithRetry(ctx, d.opts.Retry, func(ctx context.Context) (string, error) {
		file, err := d.bot.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
		if err != nil {
			return "", fmt.Errorf("failed to look up file: %w", err)
		}
		url := fmt.Sprintf(d.opts.FileEndpoint, d.token, file.FilePath)
		if err := d.fetch(ctx, url, dest); err != nil {
			return "", err
		}
		return dest, nil
	})
}

// fetch downloads url into dest through a temp file in the same directory.
func (d *Downloader) fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	resp, err := d.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("download returned %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".shiftpay-*")
	if err != nil {
		return retry.Permanent(err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return retry.Permanent(err)
	}
	return nil
}
