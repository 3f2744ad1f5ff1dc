package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"signalcore/common"
	"signalcore/config"
	"signalcore/jobqueue"
	"signalcore/sessionbuilder"
	"signalcore/sessioncipher"
	"signalcore/storage"

	"github.com/gorilla/websocket"
	"github.com/jroimartin/gocui"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// ChatApp drives one interactive terminal session against a single
// recipient, layering the WebSocket relay and the key-directory HTTP
// calls under a gocui screen.
type ChatApp struct {
	Gui         *gocui.Gui
	recipientID string
	messages    []string
	wsConn      *websocket.Conn
	messageLock sync.Mutex
	userID      string
	wg          sync.WaitGroup

	store   storage.Store
	builder *sessionbuilder.Builder
	cipher  *sessioncipher.Cipher

	signedPreKeyID uint32
	oneTimePreKeyID *uint32
}

// NewChatApp initializes a new ChatApp against the given local identity
// store; the caller is responsible for having provisioned it (identity
// key pair, registration id, signed prekey, one-time prekeys) beforehand,
// and passes the ids of the signed prekey and (if any) one-time prekey it
// should advertise in its published bundle.
func NewChatApp(userID string, store storage.Store, signedPreKeyID uint32, oneTimePreKeyID *uint32) *ChatApp {
	queue := jobqueue.New()
	return &ChatApp{
		userID:          userID,
		store:           store,
		builder:         sessionbuilder.New(store),
		cipher:          sessioncipher.New(store, queue),
		signedPreKeyID:  signedPreKeyID,
		oneTimePreKeyID: oneTimePreKeyID,
	}
}

// connectToWebSocket connects to the relay. recipientID must already be
// set.
func (app *ChatApp) connectToWebSocket() error {
	serverURL := fmt.Sprintf("ws://%s%s?from=%s&to=%s", config.ServerAddress, config.WebSocketPath, app.userID, app.recipientID)
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket server: %w", err)
	}
	app.wsConn = conn

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.listenForMessages()
	}()

	return nil
}

// listenForMessages listens for incoming WebSocket messages.
func (app *ChatApp) listenForMessages() {
	ctx := context.Background()
	for {
		_, msgBytes, err := app.wsConn.ReadMessage()
		if err != nil {
			logger.Errorf("Error reading message: %v", err)
			return
		}

		var msg common.MessageBundle
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			logger.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		plaintext, err := app.decryptMessage(ctx, &msg)
		if err != nil {
			logger.Errorf("Error decrypting message from %s: %v", msg.From, err)
			continue
		}

		app.messageLock.Lock()
		app.messages = append(app.messages, fmt.Sprintf("[%s] %s", msg.From, string(plaintext)))
		app.messageLock.Unlock()

		app.Gui.Update(func(g *gocui.Gui) error {
			return app.UpdateMessages(g)
		})
	}
}

// sendMessage encrypts message for the current recipient and sends it
// over the relay in JSON form.
func (app *ChatApp) sendMessage(message string) error {
	if app.wsConn == nil {
		return fmt.Errorf("WebSocket connection not established")
	}

	bundle, err := app.encryptMessage(context.Background(), message)
	if err != nil {
		return fmt.Errorf("failed to encrypt message: %w", err)
	}

	msgJSON, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	if err := app.wsConn.WriteMessage(websocket.TextMessage, msgJSON); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// quit handles quitting the application.
func (app *ChatApp) quit(_ *gocui.Gui, _ *gocui.View) error {
	logger.Info("Shutting down gracefully...")
	if app.wsConn != nil {
		app.wsConn.Close()
	}
	app.wg.Wait()
	return gocui.ErrQuit
}

// PostKeys publishes this identity's public bundle to the relay.
func (app *ChatApp) PostKeys() error {
	ctx := context.Background()
	serverURL := fmt.Sprintf("http://%s%s/%s", config.ServerAddress, config.PublishKeysPath, app.userID)

	identity, err := app.store.GetOurIdentity(ctx)
	if err != nil {
		return fmt.Errorf("failed to load our identity: %w", err)
	}
	regID, err := app.store.GetOurRegistrationID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load our registration id: %w", err)
	}
	signedPreKey, err := app.store.LoadSignedPreKey(ctx, app.signedPreKeyID)
	if err != nil {
		return fmt.Errorf("failed to load our signed prekey: %w", err)
	}
	if signedPreKey == nil {
		return fmt.Errorf("no signed prekey with id %d provisioned", app.signedPreKeyID)
	}

	payload := common.PublicBundle{
		RegistrationID: regID,
		IdentityKey:    identity.Pub[:],
		SignedPreKey: common.PublicSignedPreKey{
			ID:        signedPreKey.ID,
			Pub:       signedPreKey.KeyPair.Pub[:],
			Signature: signedPreKey.Signature,
		},
	}
	if app.oneTimePreKeyID != nil {
		oneTimePreKey, err := app.store.LoadPreKey(ctx, *app.oneTimePreKeyID)
		if err != nil {
			return fmt.Errorf("failed to load our one-time prekey: %w", err)
		}
		if oneTimePreKey != nil {
			payload.OneTimePreKey = &common.PublicOneTimePreKey{
				ID:  oneTimePreKey.ID,
				Pub: oneTimePreKey.KeyPair.Pub[:],
			}
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := http.Post(serverURL, "application/json", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned non-OK status: %v", resp.Status)
	}

	return nil
}

// GetKeys fetches recipientID's published bundle from the relay.
func (app *ChatApp) GetKeys(recipientID string) (*common.PublicBundle, error) {
	serverURL := fmt.Sprintf("http://%s%s/%s", config.ServerAddress, config.PublishKeysPath, recipientID)

	resp, err := http.Get(serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned non-OK status: %v", resp.Status)
	}

	var bundle common.PublicBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &bundle, nil
}
