package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nkalandia/chatlink/internal/domain"
)

// InteractiveCLI handles interactive command-line interface
type InteractiveCLI struct {
	handler *CommandHandler
	reader  *bufio.Reader
	writer  io.Writer
}

// NewInteractiveCLI creates a new interactive CLI
func NewInteractiveCLI(handler *CommandHandler) *InteractiveCLI {
	return &InteractiveCLI{
		handler: handler,
		reader:  bufio.NewReader(os.Stdin),
		writer:  os.Stdout,
	}
}

// Run starts the interactive CLI loop
func (cli *InteractiveCLI) Run(ctx context.Context) error {
	cli.printWelcome()

	// Subscribe to events in background
	eventChan := cli.handler.SubscribeEvents([]domain.EventType{
		domain.EventTypeMessageReceived,
		domain.EventTypeTypingUpdated,
		domain.EventTypeFriendsUpdated,
		domain.EventTypeConnectionStatus,
	})

	go cli.handleEvents(eventChan)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			cli.print("\n> ")
			line, err := cli.reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if err := cli.processInput(ctx, line); err != nil {
				if err.Error() == "quit" {
					cli.println("Goodbye!")
					return nil
				}
				cli.printf("Error: %s\n", err)
			}
		}
	}
}

func (cli *InteractiveCLI) printWelcome() {
	cli.println("===========================================")
	cli.println("  chatlink")
	cli.println("===========================================")
	cli.println("Type /help for available commands.")
	cli.println("Bare text (no leading /) is sent to the open room.")
	cli.println("")

	// Show current status
	status, _ := cli.handler.cmdStatus()
	if s, ok := status.(ConnectionStatus); ok {
		cli.printf("Status: %s\n", s.Status)
	}
}

func (cli *InteractiveCLI) processInput(ctx context.Context, input string) error {
	// Bare text goes straight to the open room, like a chat composer.
	if !strings.HasPrefix(input, "/") {
		return cli.handler.chatSvc.SendMessage(input)
	}

	cmd, err := ParseCommand(input)
	if err != nil {
		return err
	}

	result, err := cli.handler.Execute(ctx, cmd)
	if err != nil {
		return err
	}

	// Check for quit command
	if m, ok := result.(map[string]bool); ok && m["quit"] {
		return fmt.Errorf("quit")
	}

	// Format and display result
	cli.displayResult(cmd.Name, result)
	return nil
}

func (cli *InteractiveCLI) displayResult(cmdName string, result interface{}) {
	switch cmdName {
	case "help", "h":
		if m, ok := result.(map[string]string); ok {
			cli.println(m["help"])
		}

	case "status", "s":
		if s, ok := result.(ConnectionStatus); ok {
			cli.printf("Connection Status: %s\n", s.Status)
			cli.printf("  Connected: %v\n", s.Connected)
			cli.printf("  Logged In: %v\n", s.LoggedIn)
			if s.Username != "" {
				cli.printf("  User: %s\n", s.Username)
			}
		}

	case "online", "who":
		if m, ok := result.(map[string]interface{}); ok {
			users, _ := m["online"].([]string)
			if len(users) == 0 {
				cli.println("Nobody else is online.")
				return
			}
			cli.printf("%d user(s) online:\n", len(users))
			for _, u := range users {
				cli.printf("  %s\n", u)
			}
		}

	case "history", "msg":
		if m, ok := result.(map[string]interface{}); ok {
			messages, _ := m["messages"].([]MessageInfo)
			roomID, _ := m["room_id"].(string)
			cli.printf("%d message(s) in %s:\n\n", len(messages), roomID)
			for _, msg := range messages {
				seen := ""
				if msg.Seen {
					seen = " ✓"
				}
				cli.printf("%s: %s%s\n", msg.Sender, msg.Body, seen)
				if len(msg.Reactions) > 0 {
					var parts []string
					for _, r := range msg.Reactions {
						parts = append(parts, fmt.Sprintf("%s %s", r.Emoji, r.User))
					}
					cli.printf("  [%s]\n", strings.Join(parts, ", "))
				}
				cli.printf("  ID: %s\n", msg.ID)
			}
		}

	case "unread":
		if m, ok := result.(map[string]interface{}); ok {
			counts, _ := m["unread"].(map[string]int)
			if len(counts) == 0 {
				cli.println("No unread messages.")
				return
			}
			for room, n := range counts {
				cli.printf("  %s: %d unread\n", room, n)
			}
		}

	case "friends", "fr":
		if m, ok := result.(map[string]interface{}); ok {
			friends, _ := m["friends"].([]FriendInfo)
			pending, _ := m["pending"].([]FriendInfo)
			cli.printf("Friends (%d):\n", len(friends))
			for _, f := range friends {
				cli.printf("  %s\n", f.Username)
			}
			cli.printf("Pending requests (%d):\n", len(pending))
			for _, f := range pending {
				cli.printf("  %s (id: %s)\n", f.Username, f.ID)
			}
		}

	default:
		// Generic output for other commands
		if m, ok := result.(map[string]string); ok {
			if msg, exists := m["message"]; exists {
				cli.println(msg)
				return
			}
		}
		// Pretty print JSON
		data, _ := json.MarshalIndent(result, "", "  ")
		cli.println(string(data))
	}
}

func (cli *InteractiveCLI) handleEvents(eventChan <-chan Event) {
	for event := range eventChan {
		switch domain.EventType(event.Type) {
		case domain.EventTypeMessageReceived:
			if msg, ok := event.Data.(MessageInfo); ok {
				cli.printf("\n[%s] %s: %s\n", msg.RoomID, msg.Sender, msg.Body)
				cli.print("> ")
			}

		case domain.EventTypeTypingUpdated:
			if data, ok := event.Data.(map[string]interface{}); ok {
				if isTyping, _ := data["is_typing"].(bool); isTyping {
					room, _ := data["room_id"].(string)
					cli.printf("\n[%s is typing...]\n> ", room)
				}
			}

		case domain.EventTypeFriendsUpdated:
			cli.print("\n[Friend lists updated]\n> ")

		case domain.EventTypeConnectionStatus:
			if data, ok := event.Data.(map[string]interface{}); ok {
				connected, _ := data["connected"].(bool)
				if connected {
					cli.println("\n[Connected]")
				} else {
					reason, _ := data["reason"].(string)
					cli.printf("\n[Disconnected: %s]\n", reason)
				}
				cli.print("> ")
			}
		}
	}
}

func (cli *InteractiveCLI) print(s string) {
	fmt.Fprint(cli.writer, s)
}

func (cli *InteractiveCLI) println(s string) {
	fmt.Fprintln(cli.writer, s)
}

func (cli *InteractiveCLI) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.writer, format, args...)
}
