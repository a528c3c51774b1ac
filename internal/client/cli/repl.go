package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = func(a ...any) { fmt.Println(a...) }

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Generate(ctx context.Context) error
	Connect(ctx context.Context) error
	Bunker(ctx context.Context) error
	Logout(ctx context.Context) error
	AddNote(ctx context.Context) error
	EditNote(ctx context.Context, id string) error
	TagNote(ctx context.Context, id, tag string) error
	ListNotes(ctx context.Context) error
	ShowNote(ctx context.Context, id string) error
	DeleteNote(ctx context.Context, id string) error
	PublishNote(ctx context.Context, id string) error
	SyncNotes(ctx context.Context) error
	CreateStake(ctx context.Context) error
	StakeStatus(ctx context.Context) error
	Progress(ctx context.Context) error
	CancelStake(ctx context.Context) error
	UpdateAddress(ctx context.Context) error
}

// runREPL reads a line, parses the first token as the command, and dispatches
// to methods on 'a'. The loop exits on scanner EOF or on "exit"/"quit".
// Command handlers report their own errors; the loop ignores the returns to
// stay resilient.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("journal %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Notes: add, (l)ist, show <id>, edit <id>, tag <id> <tag>, delete <id>, publish <id>, sync")
				printlnFn("Stake: stake, status, progress, cancelstake, address")
				printlnFn("Other: logout, exit")
			} else {
				printlnFn("Available commands: login, generate, connect, bunker, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "generate":
			_ = a.Generate(ctx)

		case "connect":
			_ = a.Connect(ctx)

		case "bunker":
			_ = a.Bunker(ctx)

		case "add":
			_ = a.AddNote(ctx)

		case "l", "list":
			_ = a.ListNotes(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.ShowNote(ctx, args[0])

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <id>")
				continue
			}
			_ = a.EditNote(ctx, args[0])

		case "tag":
			if len(args) < 2 {
				printlnFn("Usage: tag <id> <tag> (prefix the tag with '-' to remove)")
				continue
			}
			_ = a.TagNote(ctx, args[0], args[1])

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.DeleteNote(ctx, args[0])

		case "publish":
			if len(args) == 0 {
				printlnFn("Usage: publish <id>")
				continue
			}
			_ = a.PublishNote(ctx, args[0])

		case "sync":
			_ = a.SyncNotes(ctx)

		case "stake":
			_ = a.CreateStake(ctx)

		case "status":
			_ = a.StakeStatus(ctx)

		case "progress":
			_ = a.Progress(ctx)

		case "cancelstake":
			_ = a.CancelStake(ctx)

		case "address":
			_ = a.UpdateAddress(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
