package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/nkalandia/chatlink/internal/domain"
	"github.com/nkalandia/chatlink/internal/service"
)

// CommandHandler handles CLI commands
type CommandHandler struct {
	chatSvc *service.ChatService
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(chatSvc *service.ChatService) *CommandHandler {
	return &CommandHandler{chatSvc: chatSvc}
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a command string (e.g., "/open bob")
func ParseCommand(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	if !strings.HasPrefix(input, "/") {
		return nil, fmt.Errorf("commands must start with /")
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	return &Command{Name: name, Args: args}, nil
}

// Execute executes a command and returns the result
func (h *CommandHandler) Execute(ctx context.Context, cmd *Command) (interface{}, error) {
	switch cmd.Name {
	case "help", "h":
		return h.cmdHelp()
	case "status", "s":
		return h.cmdStatus()
	case "login":
		return h.cmdLogin(ctx, cmd.Args)
	case "register":
		return h.cmdRegister(ctx, cmd.Args)
	case "logout":
		return h.cmdLogout(ctx)
	case "connect", "c":
		return h.cmdConnect(ctx)
	case "disconnect", "d":
		return h.cmdDisconnect()
	case "online", "who":
		return h.cmdOnline()
	case "open", "o":
		return h.cmdOpen(cmd.Args)
	case "send":
		return h.cmdSend(cmd.Args)
	case "history", "msg":
		return h.cmdHistory(cmd.Args)
	case "react":
		return h.cmdReact(cmd.Args)
	case "unread":
		return h.cmdUnread()
	case "friends", "fr":
		return h.cmdFriends(ctx, cmd.Args)
	case "request", "add":
		return h.cmdRequest(ctx, cmd.Args)
	case "accept":
		return h.cmdAccept(ctx, cmd.Args)
	case "decline":
		return h.cmdDecline(ctx, cmd.Args)
	case "quit", "exit", "q":
		return map[string]bool{"quit": true}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s. Type /help for available commands", cmd.Name)
	}
}

func (h *CommandHandler) cmdHelp() (interface{}, error) {
	help := `Available commands:

Session:
  /login <user> <password>     Log in and connect
  /register <user> <password>  Create an account
  /logout                      Log out and clear the stored session
  /status, /s                  Show connection status
  /connect, /c                 Reconnect the event channel
  /disconnect, /d              Disconnect the event channel

Chat:
  /online, /who                List online users
  /open, /o <user>             Open the conversation with a user
  /send <text>                 Send a message to the open room
  /history, /msg [room]        Show messages for the open room
  /react <msg_id> <emoji>      React to a message in the open room
  /unread                      Show unread counts per room

Friends:
  /friends, /fr [refresh]      Show friends and pending requests
  /request, /add <user>        Send a friend request
  /accept <id>                 Accept a pending request
  /decline <id>                Decline a pending request

Other:
  /help, /h                    Show this help
  /quit, /exit, /q             Exit the CLI`

	return map[string]string{"help": help}, nil
}

func (h *CommandHandler) cmdStatus() (interface{}, error) {
	connected := h.chatSvc.IsConnected()
	loggedIn := h.chatSvc.LoggedIn()

	var status string
	if connected {
		status = "connected"
	} else if loggedIn {
		status = "disconnected (logged in)"
	} else {
		status = "not logged in"
	}

	return ConnectionStatus{
		Connected: connected,
		LoggedIn:  loggedIn,
		Username:  h.chatSvc.Username(),
		Status:    status,
	}, nil
}

func (h *CommandHandler) cmdLogin(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: /login <user> <password>")
	}
	if err := h.chatSvc.Login(ctx, args[0], args[1]); err != nil {
		return nil, err
	}
	return map[string]string{"message": fmt.Sprintf("Logged in as %s", h.chatSvc.Username())}, nil
}

func (h *CommandHandler) cmdRegister(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: /register <user> <password>")
	}
	result, err := h.chatSvc.Register(ctx, args[0], args[1])
	if err != nil {
		return nil, err
	}
	if !result.Success && result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}
	return map[string]string{"message": "Account created. Log in with /login"}, nil
}

func (h *CommandHandler) cmdLogout(ctx context.Context) (interface{}, error) {
	h.chatSvc.Logout(ctx)
	return map[string]string{"message": "Logged out"}, nil
}

func (h *CommandHandler) cmdConnect(ctx context.Context) (interface{}, error) {
	if err := h.chatSvc.Connect(ctx); err != nil {
		return nil, err
	}
	return map[string]string{"message": "Connected"}, nil
}

func (h *CommandHandler) cmdDisconnect() (interface{}, error) {
	h.chatSvc.Disconnect()
	return map[string]string{"message": "Disconnected"}, nil
}

func (h *CommandHandler) cmdOnline() (interface{}, error) {
	return map[string]interface{}{"online": h.chatSvc.OnlineUsers()}, nil
}

func (h *CommandHandler) cmdOpen(args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /open <user>")
	}
	roomID, err := h.chatSvc.OpenRoom(args[0])
	if err != nil {
		return nil, err
	}
	return map[string]string{"message": fmt.Sprintf("Opened room %s", roomID)}, nil
}

func (h *CommandHandler) cmdSend(args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /send <text>")
	}
	body := strings.Join(args, " ")
	if err := h.chatSvc.SendMessage(body); err != nil {
		return nil, err
	}
	return map[string]string{"message": "Sent"}, nil
}

func (h *CommandHandler) cmdHistory(args []string) (interface{}, error) {
	roomID := h.chatSvc.CurrentRoom()
	if len(args) > 0 {
		roomID = args[0]
	}
	if roomID == "" {
		return nil, fmt.Errorf("no open room; use /open <user> first")
	}

	msgs := h.chatSvc.Messages(roomID)
	infos := make([]MessageInfo, len(msgs))
	for i, msg := range msgs {
		infos[i] = messageToInfo(msg)
	}

	return map[string]interface{}{"room_id": roomID, "messages": infos}, nil
}

func (h *CommandHandler) cmdReact(args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: /react <msg_id> <emoji>")
	}
	if err := h.chatSvc.React(args[0], args[1]); err != nil {
		return nil, err
	}
	return map[string]string{"message": "Reaction sent"}, nil
}

func (h *CommandHandler) cmdUnread() (interface{}, error) {
	return map[string]interface{}{"unread": h.chatSvc.UnreadCounts()}, nil
}

func (h *CommandHandler) cmdFriends(ctx context.Context, args []string) (interface{}, error) {
	if len(args) > 0 && args[0] == "refresh" {
		if err := h.chatSvc.RefreshFriends(ctx); err != nil {
			return nil, err
		}
	}

	list := h.chatSvc.Friends()
	return map[string]interface{}{
		"friends": friendsToInfo(list.Friends),
		"pending": friendsToInfo(list.PendingRequests),
	}, nil
}

func (h *CommandHandler) cmdRequest(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /request <user>")
	}
	result, err := h.chatSvc.SendFriendRequest(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("request refused: %s", result.Error)
	}
	return map[string]string{"message": fmt.Sprintf("Friend request sent to %s", args[0])}, nil
}

func (h *CommandHandler) cmdAccept(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /accept <id>")
	}
	result, err := h.chatSvc.AcceptRequest(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("accept refused: %s", result.Error)
	}
	return map[string]string{"message": "Request accepted"}, nil
}

func (h *CommandHandler) cmdDecline(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /decline <id>")
	}
	result, err := h.chatSvc.DeclineRequest(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("decline refused: %s", result.Error)
	}
	return map[string]string{"message": "Request declined"}, nil
}

// SubscribeEvents exposes core state-change events as CLI events.
func (h *CommandHandler) SubscribeEvents(eventTypes []domain.EventType) <-chan Event {
	src := h.chatSvc.SubscribeEvents(eventTypes)
	out := make(chan Event, 100)

	go func() {
		defer close(out)
		for evt := range src {
			out <- convertEvent(evt)
		}
	}()

	return out
}

func convertEvent(evt domain.Event) Event {
	e := Event{
		Type:      string(evt.Type()),
		Timestamp: evt.Timestamp(),
	}

	switch v := evt.(type) {
	case domain.MessageReceivedEvent:
		e.Data = messageToInfo(v.Message)
	case domain.MessagesSeenEvent:
		e.Data = map[string]string{"room_id": v.RoomID}
	case domain.ReactionUpdatedEvent:
		e.Data = map[string]interface{}{"message_id": v.MessageID, "reactions": v.Reactions}
	case domain.PresenceUpdatedEvent:
		e.Data = map[string]interface{}{"online": v.OnlineUsers}
	case domain.TypingUpdatedEvent:
		e.Data = map[string]interface{}{"room_id": v.RoomID, "is_typing": v.IsTyping}
	case domain.UnreadUpdatedEvent:
		e.Data = map[string]interface{}{"room_id": v.RoomID, "count": v.Count}
	case domain.FriendsUpdatedEvent:
		e.Data = map[string]interface{}{
			"friends": friendsToInfo(v.Friends.Friends),
			"pending": friendsToInfo(v.Friends.PendingRequests),
		}
	case domain.RoomOpenedEvent:
		e.Data = map[string]string{"room_id": v.RoomID, "peer": v.Peer}
	case domain.HistoryLoadedEvent:
		e.Data = map[string]interface{}{"room_id": v.RoomID, "count": v.Count}
	case domain.ConnectionStatusEvent:
		e.Data = map[string]interface{}{"connected": v.Connected, "reason": v.Reason}
	}

	return e
}
