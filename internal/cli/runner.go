package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/listsync"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group  bool // list grouped by pending/done
	Logger *log.Logger

	// Interactive runs the full-screen list for `todo ui`.
	Interactive func(ctx context.Context, s *listsync.Synchronizer) error
}

// Run dispatches subcommands against the synchronizer and returns an exit
// code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, s *listsync.Synchronizer, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	if opt.Logger == nil {
		opt.Logger = log.New(io.Discard)
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		f, err := parseFilter(a)
		if err != nil {
			ui.Fail("ls: " + err.Error())
			return 2
		}
		return doList(ctx, s, f, opt)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <description...>")
			return 2
		}
		return doAdd(ctx, s, strings.Join(a, " "), opt)

	case "done":
		n, code := indexArg("done", a)
		if code != 0 {
			return code
		}
		return doToggle(ctx, s, n, opt)

	case "rm":
		n, code := indexArg("rm", a)
		if code != 0 {
			return code
		}
		return doRemove(ctx, s, n, opt)

	case "ui":
		if opt.Interactive == nil {
			ui.Fail("ui: interactive mode unavailable")
			return 1
		}
		if err := opt.Interactive(ctx, s); err != nil {
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Err)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprint(ui.Out, `todo - a tiny client for a remote todo list

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  add <description...>    Add a new item (description can be multiple words)
  ls [pending|done|due]   List items, optionally filtered
  done <index>            Toggle completion of the item at 1-based index
  rm <index>              Remove the item at 1-based index
  ui                      Interactive list

Flags:
  -server <url>   collection API (default from config, http://localhost:8080)
  -config <path>  config file (default: tada.yaml in ., ./config, ~/.tada)
  -group          group ls output by pending/done
  -theme <name>   classic | neon | mono

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo rm 3
`)
}

func indexArg(name string, a []string) (int, int) {
	if len(a) != 1 {
		ui.Fail("usage: todo " + name + " <index>")
		return 0, 2
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		ui.Fail(name + ": not a number: " + a[0])
		return 0, 2
	}
	return n, 0
}

func parseFilter(a []string) (model.ListFilter, error) {
	var f model.ListFilter
	for _, w := range a {
		switch strings.ToLower(w) {
		case "pending", "open":
			f.Complete = model.Bool(false)
		case "done", "completed":
			f.Complete = model.Bool(true)
		case "due":
			f.Due = model.Bool(true)
		default:
			return f, fmt.Errorf("unknown filter %q (want pending, done or due)", w)
		}
	}
	return f, nil
}

// describe turns client errors into one line for the terminal.
func describe(err error) string {
	var (
		ne *api.NetworkError
		se *api.ServerError
		de *api.DecodeError
	)
	switch {
	case errors.As(err, &ne):
		return "cannot reach server: " + ne.Err.Error()
	case errors.As(err, &se):
		if se.Status == 404 {
			return "item no longer exists on the server"
		}
		return fmt.Sprintf("server answered %d", se.Status)
	case errors.As(err, &de):
		return "server sent an unreadable response"
	default:
		return err.Error()
	}
}

// -------------- subcommand impls ----------------

func doList(ctx context.Context, s *listsync.Synchronizer, f model.ListFilter, opt Options) int {
	s.SetFilter(f)
	if err := s.Reload(ctx); err != nil {
		opt.Logger.Error("reload failed", "err", err)
		ui.Fail("load: " + describe(err))
		return 1
	}
	st := s.State()

	d, p := st.Stats()
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymUnchecked), p,
		ui.C(t.Accent, "Total"), len(st.Items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if opt.Group {
		lines = append(lines, groupLines(st.Items)...)
	} else {
		lines = append(lines, flatLines(st.Items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(lines)
	return 0
}

func doAdd(ctx context.Context, s *listsync.Synchronizer, description string, opt Options) int {
	if strings.TrimSpace(description) == "" {
		ui.Fail("add: empty description")
		return 2
	}
	s.SetPendingInput(description)
	if err := s.Submit(ctx); err != nil {
		opt.Logger.Error("create failed", "err", err)
		ui.Fail("add: " + describe(err))
		return 1
	}
	ui.OK(fmt.Sprintf("added (%d items)", len(s.Items())))
	return 0
}

// pick reloads the unfiltered list and resolves a 1-based index against it.
func pick(ctx context.Context, s *listsync.Synchronizer, userIndex int, opt Options) (model.Item, int) {
	s.SetFilter(model.ListFilter{})
	if err := s.Reload(ctx); err != nil {
		opt.Logger.Error("reload failed", "err", err)
		ui.Fail("load: " + describe(err))
		return model.Item{}, 1
	}
	items := s.Items()
	if userIndex < 1 || userIndex > len(items) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
		ui.Hint("Hint: run `todo ls` to see valid indexes")
		return model.Item{}, 2
	}
	return items[userIndex-1], 0
}

func doToggle(ctx context.Context, s *listsync.Synchronizer, userIndex int, opt Options) int {
	it, code := pick(ctx, s, userIndex, opt)
	if code != 0 {
		return code
	}
	if err := s.ToggleComplete(ctx, it); err != nil {
		opt.Logger.Error("toggle failed", "id", it.ID, "err", err)
		ui.Fail("done: " + describe(err))
		return 1
	}
	if it.IsCompleted {
		ui.OK("reopened")
	} else {
		ui.OK("completed")
	}
	return 0
}

func doRemove(ctx context.Context, s *listsync.Synchronizer, userIndex int, opt Options) int {
	it, code := pick(ctx, s, userIndex, opt)
	if code != 0 {
		return code
	}
	if err := s.Delete(ctx, it); err != nil {
		opt.Logger.Error("delete failed", "id", it.ID, "err", err)
		ui.Fail("rm: " + describe(err))
		return 1
	}
	ui.OK("removed")
	return 0
}

// -------------- rendering helpers --------------

func flatLines(items []model.Item) []string {
	if len(items) == 0 {
		return []string{ui.C(ui.Current().Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		out = append(out, ui.ItemLine(i+1, it))
	}
	return out
}

// groupLines keeps each item's snapshot index so `done`/`rm` still line up.
func groupLines(items []model.Item) []string {
	var pend, done []string
	for i, it := range items {
		if it.IsCompleted {
			done = append(done, ui.ItemLine(i+1, it))
		} else {
			pend = append(pend, ui.ItemLine(i+1, it))
		}
	}
	section := func(title string, lines []string) []string {
		out := []string{ui.C(ui.Current().Accent, title)}
		if len(lines) == 0 {
			return append(out, ui.C(ui.Current().Muted, "(none)"))
		}
		return append(out, lines...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}
