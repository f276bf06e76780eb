package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ginjaninja78/shiftpay/internal/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeBot feeds queued updates and records replies.
type fakeBot struct {
	updates chan tgbotapi.Update
	files   map[string]string

	mu      sync.Mutex
	replies []string
	streams int
	stopped bool
}

func newFakeBot(updates ...tgbotapi.Update) *fakeBot {
	ch := make(chan tgbotapi.Update, len(updates))
	for _, u := range updates {
		ch <- u
	}
	return &fakeBot{updates: ch, files: map[string]string{}}
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streams++
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *fakeBot) GetFile(c tgbotapi.FileConfig) (tgbotapi.File, error) {
	path, ok := b.files[c.FileID]
	if !ok {
		return tgbotapi.File{}, errors.New("file not found")
	}
	return tgbotapi.File{FileID: c.FileID, FilePath: path}, nil
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.replies = append(b.replies, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func documentUpdate(id int, fileID, name string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id,
			Chat:      &tgbotapi.Chat{ID: 42},
			Document: &tgbotapi.Document{
				FileID:       fileID,
				FileUniqueID: "U" + fileID,
				FileName:     name,
			},
		},
	}
}

func fileServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/botTOKEN/documents/week.xls" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte("schedule bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(dir string, srv *httptest.Server) Options {
	return Options{
		Dir:          dir,
		FileEndpoint: srv.URL + "/file/bot%s/%s",
		HTTPClient:   srv.Client(),
		Retry: retry.Config{
			MaxRetries: 1,
			BaseDelay:  time.Millisecond,
			MaxDelay:   time.Millisecond,
			Timeout:    time.Second,
		},
	}
}

func TestWaitForScheduleDownloadsSpreadsheet(t *testing.T) {
	srv := fileServer(t, http.StatusOK)
	dir := filepath.Join(t.TempDir(), "downloads")

	bot := newFakeBot(
		tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 42}, Text: "hi"}},
		documentUpdate(2, "F1", "notes.pdf"),
		documentUpdate(3, "F2", "Week.XLS"),
	)
	bot.files["F2"] = "documents/week.xls"

	dl := New(bot, "TOKEN", testOptions(dir, srv))
	path, err := dl.WaitForSchedule(context.Background())
	if err != nil {
		t.Fatalf("WaitForSchedule: %v", err)
	}

	if want := filepath.Join(dir, "UF2_Week.XLS"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "schedule bytes" {
		t.Fatalf("downloaded %q, %v", data, err)
	}

	if len(bot.replies) != 2 || bot.replies[0] != ReplyWrongType || bot.replies[1] != ReplyReceived {
		t.Fatalf("replies = %q", bot.replies)
	}
	if bot.stopped {
		t.Fatal("polling stopped before Close")
	}
	dl.Close()
	if !bot.stopped {
		t.Fatal("polling was not stopped by Close")
	}
}

func TestWaitForScheduleKeepsWaitingAfterFailedDownload(t *testing.T) {
	srv := fileServer(t, http.StatusOK)

	bot := newFakeBot(
		documentUpdate(1, "GONE", "lost.xlsx"),
		documentUpdate(2, "F2", "week.xls"),
	)
	bot.files["GONE"] = "documents/missing.xlsx"
	bot.files["F2"] = "documents/week.xls"

	path, err := New(bot, "TOKEN", testOptions(t.TempDir(), srv)).WaitForSchedule(context.Background())
	if err != nil {
		t.Fatalf("WaitForSchedule: %v", err)
	}
	if filepath.Base(path) != "UF2_week.xls" {
		t.Fatalf("path = %q", path)
	}
	if len(bot.replies) != 2 || bot.replies[0] != ReplyFailed || bot.replies[1] != ReplyReceived {
		t.Fatalf("replies = %q", bot.replies)
	}
}

func TestWaitForScheduleRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	bot := newFakeBot(documentUpdate(1, "F1", "week.xlsx"))
	bot.files["F1"] = "documents/week.xlsx"

	if _, err := New(bot, "TOKEN", testOptions(t.TempDir(), srv)).WaitForSchedule(context.Background()); err != nil {
		t.Fatalf("WaitForSchedule: %v", err)
	}
	if calls != 2 {
		t.Fatalf("download attempts = %d, want 2", calls)
	}
}

func TestWaitForScheduleCancelled(t *testing.T) {
	srv := fileServer(t, http.StatusOK)
	bot := newFakeBot()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	dl := New(bot, "TOKEN", testOptions(t.TempDir(), srv))
	_, err := dl.WaitForSchedule(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitForSchedule error = %v, want DeadlineExceeded", err)
	}

	dl.Close()
	dl.Close()
	if !bot.stopped {
		t.Fatal("polling was not stopped")
	}
	if _, err := dl.WaitForSchedule(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("WaitForSchedule after Close error = %v, want ErrClosed", err)
	}
}

func TestWaitForScheduleSharesUpdateStream(t *testing.T) {
	srv := fileServer(t, http.StatusOK)

	bot := newFakeBot(
		documentUpdate(1, "F1", "week.xls"),
		documentUpdate(2, "F2", "week.xls"),
	)
	bot.files["F1"] = "documents/week.xls"
	bot.files["F2"] = "documents/week.xls"

	dl := New(bot, "TOKEN", testOptions(t.TempDir(), srv))
	defer dl.Close()

	for i, want := range []string{"UF1_week.xls", "UF2_week.xls"} {
		path, err := dl.WaitForSchedule(context.Background())
		if err != nil {
			t.Fatalf("WaitForSchedule #%d: %v", i+1, err)
		}
		if filepath.Base(path) != want {
			t.Fatalf("WaitForSchedule #%d path = %q, want %s", i+1, path, want)
		}
	}
	if bot.streams != 1 {
		t.Fatalf("update streams = %d, want 1", bot.streams)
	}
}

// apiServer answers the Bot API methods the downloader uses. getUpdates hands
// out one document per offset, starting at update 1, up to last.
func apiServer(t *testing.T, last int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"shiftpay","username":"shiftpay_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			offset, _ := strconv.Atoi(r.FormValue("offset"))
			if offset == 0 {
				offset = 1
			}
			if offset > last {
				time.Sleep(10 * time.Millisecond)
				fmt.Fprint(w, `{"ok":true,"result":[]}`)
				return
			}
			fmt.Fprintf(w, `{"ok":true,"result":[{"update_id":%d,"message":{"message_id":%d,"date":0,`+
				`"chat":{"id":42,"type":"private"},`+
				`"document":{"file_id":"F%d","file_unique_id":"U%d","file_name":"week.xls"}}}]}`,
				offset, offset, offset, offset)
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			fmt.Fprintf(w, `{"ok":true,"result":{"file_id":%q,"file_path":"documents/week.xls"}}`, r.FormValue("file_id"))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":100,"date":0,"chat":{"id":42,"type":"private"}}}`)
		case r.URL.Path == "/file/botTOKEN/documents/week.xls":
			w.Write([]byte("schedule bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWaitForScheduleRepeatedWithBotClient(t *testing.T) {
	srv := apiServer(t, 2)

	bot, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	if err != nil {
		t.Fatalf("NewBotAPIWithClient: %v", err)
	}
	dl := New(bot, "TOKEN", testOptions(t.TempDir(), srv))
	t.Cleanup(dl.Close)

	for i := 1; i <= 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		path, err := dl.WaitForSchedule(ctx)
		cancel()
		if err != nil {
			t.Fatalf("WaitForSchedule #%d: %v", i, err)
		}
		if want := fmt.Sprintf("U%d_week.xls", i); filepath.Base(path) != want {
			t.Fatalf("WaitForSchedule #%d path = %q, want %s", i, path, want)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := dl.WaitForSchedule(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("idle WaitForSchedule error = %v, want DeadlineExceeded", err)
	}
}

func TestConnectRequiresToken(t *testing.T) {
	if _, err := Connect("", Options{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Connect(\"\") error = %v, want ErrNoToken", err)
	}
}
