package cli

import (
	"context"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs []string
	}{
		{"/help", "help", nil},
		{"/open bob", "open", []string{"bob"}},
		{"  /login alice secret  ", "login", []string{"alice", "secret"}},
		{"/send hello   there", "send", []string{"hello", "there"}},
		{"/react m1 👍", "react", []string{"m1", "👍"}},
	}

	for _, tt := range tests {
		cmd, err := ParseCommand(tt.input)
		if err != nil {
			t.Errorf("ParseCommand(%q): %v", tt.input, err)
			continue
		}
		if cmd.Name != tt.wantName {
			t.Errorf("ParseCommand(%q).Name = %q, want %q", tt.input, cmd.Name, tt.wantName)
		}
		if len(cmd.Args) != len(tt.wantArgs) {
			t.Errorf("ParseCommand(%q).Args = %v, want %v", tt.input, cmd.Args, tt.wantArgs)
			continue
		}
		for i := range cmd.Args {
			if cmd.Args[i] != tt.wantArgs[i] {
				t.Errorf("ParseCommand(%q).Args[%d] = %q, want %q", tt.input, i, cmd.Args[i], tt.wantArgs[i])
			}
		}
	}
}

func TestParseCommandRejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "hello", "open bob"} {
		if _, err := ParseCommand(input); err == nil {
			t.Errorf("ParseCommand(%q) should fail", input)
		}
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	h := NewCommandHandler(nil)

	if _, err := h.Execute(context.Background(), &Command{Name: "bogus"}); err == nil {
		t.Error("unknown command must return an error")
	}
}

func TestExecuteQuit(t *testing.T) {
	h := NewCommandHandler(nil)

	for _, name := range []string{"quit", "exit", "q"} {
		result, err := h.Execute(context.Background(), &Command{Name: name})
		if err != nil {
			t.Fatalf("Execute(%s): %v", name, err)
		}
		m, ok := result.(map[string]bool)
		if !ok || !m["quit"] {
			t.Errorf("Execute(%s) = %v, want quit marker", name, result)
		}
	}
}

func TestExecuteHelp(t *testing.T) {
	h := NewCommandHandler(nil)

	result, err := h.Execute(context.Background(), &Command{Name: "help"})
	if err != nil {
		t.Fatalf("Execute(help): %v", err)
	}
	m, ok := result.(map[string]string)
	if !ok || m["help"] == "" {
		t.Errorf("help result = %v", result)
	}
}

func TestArgumentValidation(t *testing.T) {
	h := NewCommandHandler(nil)

	// Commands with missing arguments fail before touching the service,
	// so a nil service is safe here.
	cases := []Command{
		{Name: "login", Args: []string{"alice"}},
		{Name: "register", Args: nil},
		{Name: "open", Args: nil},
		{Name: "send", Args: nil},
		{Name: "react", Args: []string{"m1"}},
		{Name: "request", Args: nil},
		{Name: "accept", Args: nil},
		{Name: "decline", Args: nil},
	}

	for _, cmd := range cases {
		if _, err := h.Execute(context.Background(), &cmd); err == nil {
			t.Errorf("Execute(%s %v) should fail on missing arguments", cmd.Name, cmd.Args)
		}
	}
}
