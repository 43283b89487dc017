// Package whatsapp connects the assistant to WhatsApp through whatsmeow.
//
// The session lives in a SQLite file; on first run a pairing QR code is
// printed in the terminal. Only the allowed sender is answered, every other
// message is dropped with a log line.
package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/reply"
)

// Replier answers one message.
type Replier interface {
	Reply(ctx context.Context, sender, text string) reply.Reply
}

type Config struct {
	SessionPath   string
	AllowedSender string
	// QROut receives the pairing code; defaults to stdout.
	QROut io.Writer
}

type Transport struct {
	cfg       Config
	db        *sql.DB
	container *sqlstore.Container
	client    *whatsmeow.Client
	logger    *log.Logger

	wg        sync.WaitGroup
	loggedOut chan struct{}
	once      sync.Once
}

// New opens the session store and prepares a client for the first device in
// it (a new one when the store is empty).
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Transport, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentWhatsApp)
	if cfg.QROut == nil {
		cfg.QROut = os.Stdout
	}

	if dir := filepath.Dir(cfg.SessionPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}
	dsn := "file:" + cfg.SessionPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	container := sqlstore.NewWithDB(db, "sqlite3", newWALogger(logger, "store"))
	if err := container.Upgrade(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("upgrade session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("get device: %w", err)
	}

	client := whatsmeow.NewClient(device, newWALogger(logger, "client"))
	client.EnableAutoReconnect = true

	return &Transport{
		cfg:       cfg,
		db:        db,
		container: container,
		client:    client,
		logger:    logger,
		loggedOut: make(chan struct{}),
	}, nil
}

// Run connects and answers messages until ctx is done or the session is
// logged out. Disconnections are retried by the client.
func (t *Transport) Run(ctx context.Context, r Replier) error {
	t.client.AddEventHandler(func(evt any) { t.handleEvent(ctx, r, evt) })

	if t.client.Store.ID == nil {
		qrChan, err := t.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("get qr channel: %w", err)
		}
		if err := t.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		for item := range qrChan {
			switch item.Event {
			case "code":
				t.logger.InfoContext(ctx, "Scan the QR code with WhatsApp to pair this device")
				qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, t.cfg.QROut)
			default:
				t.logger.InfoContext(ctx, "Pairing event", "event", item.Event)
			}
		}
	} else if err := t.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	var err error
	select {
	case <-ctx.Done():
	case <-t.loggedOut:
		err = errors.New("whatsapp session logged out, delete the session file and pair again")
	}
	t.client.Disconnect()
	t.wg.Wait()
	return err
}

func (t *Transport) handleEvent(ctx context.Context, r Replier, evt any) {
	switch e := evt.(type) {
	case *events.Message:
		t.handleMessage(ctx, r, e)
	case *events.Connected:
		t.logger.InfoContext(ctx, "Connected to WhatsApp")
	case *events.Disconnected:
		t.logger.WarnContext(ctx, "Disconnected from WhatsApp, reconnecting")
	case *events.LoggedOut:
		t.logger.ErrorContext(ctx, "WhatsApp session logged out", "reason", e.Reason.String())
		t.once.Do(func() { close(t.loggedOut) })
	}
}

func (t *Transport) handleMessage(ctx context.Context, r Replier, evt *events.Message) {
	if evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}
	text := messageText(evt.Message)
	if text == "" {
		return
	}
	sender := evt.Info.Sender.ToNonAD()
	if !Allowed(sender, t.cfg.AllowedSender) {
		t.logger.InfoContext(ctx, "Ignoring message from sender not allowed", log.FieldSender, sender.String())
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		out := r.Reply(ctx, core.NormalizeSender(sender.String()), text)
		if err := t.send(ctx, evt.Info.Chat, out); err != nil {
			t.logger.LogError(ctx, "Failed to send reply", err, log.OpReply, log.FieldSender, sender.String())
		}
	}()
}

func (t *Transport) send(ctx context.Context, to types.JID, r reply.Reply) error {
	imgs, ok := r.(reply.Images)
	if !ok {
		_, err := t.client.SendMessage(ctx, to, &waE2E.Message{Conversation: proto.String(reply.Plain(r))})
		if err != nil {
			return fmt.Errorf("send text: %w", err)
		}
		return nil
	}
	for _, img := range imgs.Items {
		if err := t.sendImage(ctx, to, img); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) sendImage(ctx context.Context, to types.JID, img reply.Image) error {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return fmt.Errorf("read image %s: %w", img.Path, err)
	}
	up, err := t.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	msg := &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
		Caption:       proto.String(img.Caption),
		Mimetype:      proto.String(MimeType(img.Path)),
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
	}}
	if _, err := t.client.SendMessage(ctx, to, msg); err != nil {
		return fmt.Errorf("send image: %w", err)
	}
	return nil
}

// Close disconnects and closes the session database.
func (t *Transport) Close() error {
	t.client.Disconnect()
	return t.db.Close()
}

// messageText takes the text of a plain, extended or captioned image message.
func messageText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	for _, s := range []string{
		m.GetConversation(),
		m.GetExtendedTextMessage().GetText(),
		m.GetImageMessage().GetCaption(),
	} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Allowed matches a sender against the configured allow-list entry, which
// may be a full JID or just the phone number. An empty entry allows nobody.
func Allowed(sender types.JID, allowed string) bool {
	return core.SenderAllowed(sender.ToNonAD().String(), allowed)
}

// MimeType guesses an image MIME type from the file extension.
func MimeType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/png"
}
