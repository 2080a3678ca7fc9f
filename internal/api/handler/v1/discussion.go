package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production!
	},
}

type DiscussionService interface {
	PostMessage(ctx context.Context, eventID, userID uint, content string, parentID *uint) (domain.DiscussionMessage, error)
	ListMessages(ctx context.Context, eventID uint) ([]domain.DiscussionMessage, error)
	PinMessage(ctx context.Context, userID, messageID uint, pinned bool) error
	DeleteMessage(ctx context.Context, userID, messageID uint) error
	ToggleReaction(ctx context.Context, userID, messageID uint, emoji string) (domain.DiscussionMessage, bool, error)
}

type boardClient struct {
	conn    *websocket.Conn
	send    chan []byte
	userID  uint
	eventID uint
}

// DiscussionHandler serves the per-event discussion boards over REST and
// pushes new messages to connected board members over websockets.
type DiscussionHandler struct {
	svc          DiscussionService
	uSvc         UserService
	boards       map[uint]map[*boardClient]bool
	clientsMutex sync.RWMutex
	register     chan *boardClient
	unregister   chan *boardClient
}

func NewDiscussionHandler(uSvc UserService) *DiscussionHandler {
	return &DiscussionHandler{
		uSvc:       uSvc,
		boards:     make(map[uint]map[*boardClient]bool),
		register:   make(chan *boardClient),
		unregister: make(chan *boardClient),
	}
}

// AttachService wires the discussion service after construction. The
// handler doubles as the service's broadcaster, so the two reference
// each other.
func (h *DiscussionHandler) AttachService(svc DiscussionService) {
	h.svc = svc
}

func (h *DiscussionHandler) Run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMutex.Lock()
			if h.boards[client.eventID] == nil {
				h.boards[client.eventID] = make(map[*boardClient]bool)
			}
			h.boards[client.eventID][client] = true
			h.clientsMutex.Unlock()
		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if clients, ok := h.boards[client.eventID]; ok {
				if clients[client] {
					delete(clients, client)
					close(client.send)
				}
				if len(clients) == 0 {
					delete(h.boards, client.eventID)
				}
			}
			h.clientsMutex.Unlock()
		}
	}
}

// BroadcastMessage pushes a newly posted message to every client watching
// the event's board.
func (h *DiscussionHandler) BroadcastMessage(eventID uint, message domain.DiscussionMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		zap.L().Warn("failed to marshal discussion message", zap.Error(err))
		return
	}

	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	for client := range h.boards[eventID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// HandleBoardWebSocket godoc
// @Summary      Subscribe to an event's discussion board
// @Description  Establishes a websocket connection that receives every message posted to the board
// @Tags         discussions
// @Produce      json
// @Param        eventID  path  int true "Event ID"
// @Success      101  {string}  string "Switching Protocols to WebSocket"
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Router       /events/{eventID}/discussion/ws [get]
// @Security     BearerAuth
func (h *DiscussionHandler) HandleBoardWebSocket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &boardClient{
		conn:    conn,
		send:    make(chan []byte, 256),
		userID:  user.ID,
		eventID: eventID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (c *boardClient) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *boardClient) readPump(h *DiscussionHandler) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		var req request.PostMessageRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.sendError("invalid message")
			continue
		}
		if err := req.Validate(); err != nil {
			c.sendError(err.Error())
			continue
		}

		// PostMessage broadcasts back through the hub, the sender included.
		_, err = h.svc.PostMessage(context.Background(), c.eventID, c.userID, req.Content, req.ParentID)
		if err != nil {
			if errors.Is(err, service.ErrNotBoardMember) {
				c.sendError("you are not a member of this board")
				continue
			}
			zap.L().Warn("failed to post discussion message", zap.Error(err))
			c.sendError("failed to post message")
		}
	}
}

func (c *boardClient) sendError(msg string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
	select {
	case c.send <- payload:
	default:
	}
}

// HandleListMessages godoc
// @Summary      List an event's discussion messages
// @Description  Pinned messages come first, then newest first
// @Tags         discussions
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Success      200      {array}   domain.DiscussionMessage
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/discussion [get]
// @Security     BearerAuth
func (h *DiscussionHandler) HandleListMessages(ctx *gin.Context) {
	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	messages, err := h.svc.ListMessages(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}

		err = fmt.Errorf("v1.HandleListMessages -> h.svc.ListMessages -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// HandlePostMessage godoc
// @Summary      Post a message to an event's discussion board
// @Description  Organizers of the event, admins and confirmed participants may post
// @Tags         discussions
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Param        request  body      request.PostMessageRequest true "request body"
// @Success      201      {object}  domain.DiscussionMessage
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/discussion [post]
// @Security     BearerAuth
func (h *DiscussionHandler) HandlePostMessage(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.PostMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	message, err := h.svc.PostMessage(ctx.Request.Context(), eventID, user.ID, req.Content, req.ParentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotBoardMember):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrParentMissing):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandlePostMessage -> h.svc.PostMessage -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, message)
}

func parseMessageID(ctx *gin.Context) (uint, *response.Err) {
	messageID, err := strconv.ParseUint(ctx.Param("messageID"), 10, 32)
	if err != nil {
		return 0, response.ErrBadRequest(errors.New("invalid message ID"))
	}
	return uint(messageID), nil
}

// HandlePinMessage godoc
// @Summary      Pin or unpin a message
// @Tags         discussions
// @Param        messageID  path  int true "Message ID"
// @Param        request    body  request.PinMessageRequest true "request body"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /discussion/{messageID}/pin [post]
// @Security     BearerAuth
func (h *DiscussionHandler) HandlePinMessage(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	messageID, respErr := parseMessageID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.PinMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.PinMessage(ctx.Request.Context(), user.ID, messageID, req.Pinned); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			response.RenderErr(ctx, response.ErrNotFound("message", "ID", messageID))
		case errors.Is(err, service.ErrNotBoardMember):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandlePinMessage -> h.svc.PinMessage -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleDeleteMessage godoc
// @Summary      Delete a message
// @Description  Authors may delete their own messages; the event organizer and admins may delete any
// @Tags         discussions
// @Param        messageID  path  int true "Message ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /discussion/{messageID} [delete]
// @Security     BearerAuth
func (h *DiscussionHandler) HandleDeleteMessage(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	messageID, respErr := parseMessageID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteMessage(ctx.Request.Context(), user.ID, messageID); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			response.RenderErr(ctx, response.ErrNotFound("message", "ID", messageID))
		case errors.Is(err, service.ErrNotMessageAuthor), errors.Is(err, service.ErrNotBoardMember):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleDeleteMessage -> h.svc.DeleteMessage -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleToggleReaction godoc
// @Summary      Add or remove an emoji reaction
// @Tags         discussions
// @Produce      json
// @Param        messageID  path      int true "Message ID"
// @Param        request    body      request.ReactionRequest true "request body"
// @Success      200        {object}  domain.DiscussionMessage
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /discussion/{messageID}/reactions [post]
// @Security     BearerAuth
func (h *DiscussionHandler) HandleToggleReaction(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	messageID, respErr := parseMessageID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ReactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	message, _, err := h.svc.ToggleReaction(ctx.Request.Context(), user.ID, messageID, req.Emoji)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			response.RenderErr(ctx, response.ErrNotFound("message", "ID", messageID))
		case errors.Is(err, service.ErrNotBoardMember):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrMessageDeleted):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleToggleReaction -> h.svc.ToggleReaction -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, message)
}
