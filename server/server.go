// Package server implements the relay: a WebSocket message forwarder plus
// an HTTP key directory that lets a sender fetch a recipient's published
// prekey bundle and unilaterally start a session, the same shape as the
// teacher's relay but speaking the wire-framed session protocol instead of
// bare X3DH structs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"signalcore/common"
	"signalcore/config"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	ctx       context.Context
	cancelCtx context.CancelFunc

	redisClient    *redis.Client
	connectedUsers map[connKey]*websocket.Conn
	mutex          *sync.Mutex
	logger         *logrus.Logger

	// WebSocket upgrader settings
	upgrader *websocket.Upgrader
}

type connKey struct {
	from string
	to   string
}

func NewServer(ctx context.Context, redisClient *redis.Client, logger *logrus.Logger) *Server {
	ctx, cancelCtx := context.WithCancel(ctx)
	return &Server{
		ctx:            ctx,
		cancelCtx:      cancelCtx,
		redisClient:    redisClient,
		connectedUsers: make(map[connKey]*websocket.Conn),
		mutex:          &sync.Mutex{},
		logger:         logger,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnections upgrades to a WebSocket and relays already
// wire-framed common.MessageBundle payloads between fromID and toID; the
// relay never inspects the ciphertext, MAC, or ratchet state it carries.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("Error upgrading to WebSocket: %v", err)
		return
	}
	defer ws.Close()

	fromID := r.URL.Query().Get("from")
	if fromID == "" {
		s.logger.Error("No fromID provided in the query")
		return
	}
	toID := r.URL.Query().Get("to")
	if toID == "" {
		s.logger.Error("No toID provided in the query")
		return
	}

	s.mutex.Lock()
	s.connectedUsers[connKey{from: fromID, to: toID}] = ws
	s.mutex.Unlock()
	s.logger.Infof("User %s connected, talking to %s", fromID, toID)

	s.retrieveQueuedMessages(toID, fromID, ws)

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			s.logger.Errorf("Error reading message from user %s: %v", fromID, err)
			break
		}

		var msgObj common.MessageBundle
		if err := json.Unmarshal(message, &msgObj); err != nil {
			s.logger.Errorf("Invalid message format from user %s: %v", fromID, err)
			continue
		}

		msgObj.From = fromID
		s.logger.Infof("Relaying %d-byte frame (type %d) from %s to %s", len(msgObj.Body), msgObj.Type, fromID, msgObj.To)

		s.handleMessage(&msgObj)
	}

	s.mutex.Lock()
	delete(s.connectedUsers, connKey{from: fromID, to: toID})
	s.mutex.Unlock()
	s.logger.Infof("User %s disconnected", fromID)
}

func (s *Server) Close() {
	s.cancelCtx()
	s.mutex.Lock()
	for _, conn := range s.connectedUsers {
		conn.Close()
	}
	s.mutex.Unlock()
	s.redisClient.Close()
}

func (s *Server) handleMessage(msg *common.MessageBundle) {
	s.mutex.Lock()
	recipientConn, online := s.connectedUsers[connKey{from: msg.To, to: msg.From}]
	s.mutex.Unlock()

	if online {
		messageJSON, _ := json.Marshal(msg)
		if err := recipientConn.WriteMessage(websocket.TextMessage, messageJSON); err != nil {
			s.logger.Errorf("Error sending message to user %s: %v", msg.To, err)
		}
	} else {
		s.queueMessage(msg)
	}
}

func (s *Server) queueMessage(msg *common.MessageBundle) {
	messageJSON, err := json.Marshal(msg)
	if err != nil {
		s.logger.Errorf("Error marshalling message from %s to %s: %v", msg.From, msg.To, err)
		return
	}
	if err := s.redisClient.RPush(s.ctx, fmt.Sprintf(config.MessageQueueKey, msg.To), messageJSON).Err(); err != nil {
		s.logger.Errorf("Error queuing message from %s to %s: %v", msg.From, msg.To, err)
	}
}

func (s *Server) retrieveQueuedMessages(from string, to string, ws *websocket.Conn) {
	messages, err := s.redisClient.LRange(s.ctx, fmt.Sprintf(config.MessageQueueKey, to), 0, -1).Result()
	if err != nil {
		s.logger.Errorf("Error retrieving queued messages from %s to %s: %v", from, to, err)
		return
	}

	for _, message := range messages {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			s.logger.Errorf("Error sending queued message from %s to %s: %v", from, to, err)
			return
		}
	}

	s.redisClient.Del(s.ctx, fmt.Sprintf(config.MessageQueueKey, to))
}

// HandlePostKeys publishes a user's identity key, signed prekey, and (at
// most one, in this minimal directory) one-time prekey.
func (s *Server) HandlePostKeys(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, ok := vars["userID"]
	if !ok {
		s.logger.Error("No userID provided in the query")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var bundle common.PublicBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		s.logger.Errorf("Error decoding keys for user %s: %v", userID, err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		s.logger.Errorf("Error serializing keys for user %s: %v", userID, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := s.redisClient.Set(s.ctx, fmt.Sprintf(config.PublishedBundleKey, userID), data, 0).Err(); err != nil {
		s.logger.Errorf("Error publishing keys for user %s: %v", userID, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.logger.Infof("Public bundle published for user %s", userID)
	w.WriteHeader(http.StatusOK)
}

// HandleGetKeys returns a user's published bundle. Fetching consumes the
// one-time prekey, if any, so it is never handed out twice.
func (s *Server) HandleGetKeys(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, ok := vars["userID"]
	if !ok {
		s.logger.Error("No userID provided in the query")
		http.Error(w, "No userID provided", http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf(config.PublishedBundleKey, userID)
	data, err := s.redisClient.Get(s.ctx, key).Result()
	if err != nil {
		s.logger.Errorf("Error retrieving keys for user %s: %v", userID, err)
		http.Error(w, "Error retrieving keys", http.StatusInternalServerError)
		return
	}

	var bundle common.PublicBundle
	if err := json.Unmarshal([]byte(data), &bundle); err != nil {
		s.logger.Errorf("Error decoding keys for user %s: %v", userID, err)
		http.Error(w, "Error decoding response", http.StatusInternalServerError)
		return
	}

	response := bundle
	if bundle.OneTimePreKey != nil {
		remaining := bundle
		remaining.OneTimePreKey = nil
		if data, err := json.Marshal(remaining); err == nil {
			if err := s.redisClient.Set(s.ctx, key, data, 0).Err(); err != nil {
				s.logger.Errorf("Error consuming one-time prekey for user %s: %v", userID, err)
			}
		}
	}

	s.logger.Infof("Public bundle retrieved for user %s", userID)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Error encoding keys for user %s: %v", userID, err)
		http.Error(w, "Error encoding response", http.StatusInternalServerError)
		return
	}
}
