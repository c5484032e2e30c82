package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/fragmede/threadline/internal/api"
	"github.com/fragmede/threadline/internal/cache"
	"github.com/fragmede/threadline/internal/config"
	"github.com/fragmede/threadline/internal/logging"
	"github.com/fragmede/threadline/internal/monitor"
	"github.com/fragmede/threadline/internal/render"
	"github.com/fragmede/threadline/internal/source"
	"github.com/fragmede/threadline/internal/thread"
	"github.com/fragmede/threadline/internal/ui"
	"github.com/fragmede/threadline/internal/ui/messages"
	"github.com/fragmede/threadline/internal/ui/threadview"
)

func main() {
	app := cli.App{
		Name:  "threadline",
		Usage: "read and answer discussion board threads in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config.yaml",
				EnvVars: []string{"THREADLINE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log at debug level",
			},
		},
	}
	fileFlag := &cli.StringFlag{
		Name:  "file",
		Usage: "read the thread from a JSON payload instead of the server",
	}
	app.Commands = []*cli.Command{
		{
			Name:      "view",
			Usage:     "browse recent threads, or open one",
			ArgsUsage: "[threadID]",
			Flags:     []cli.Flag{fileFlag},
			Action:    runView,
		},
		{
			Name:      "dump",
			Usage:     "print a thread's filtered tree to stdout",
			ArgsUsage: "<threadID>",
			Flags: []cli.Flag{
				fileFlag,
				&cli.StringSliceFlag{
					Name:  "hide",
					Usage: "hide posts in this category (repeatable)",
				},
				&cli.StringFlag{
					Name:  "mode",
					Usage: "thread, gallery or timeline; defaults to the thread's own view",
				},
				&cli.IntFlag{
					Name:  "width",
					Value: 80,
					Usage: "wrap post text at this width",
				},
			},
			Action: runDump,
		},
	}
	app.DefaultCommand = "view"
	app.RunAndExitOnError()
}

func loadConfig(cctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return cfg, err
	}
	if cctx.Bool("debug") {
		cfg.Debug = true
	}
	return cfg, nil
}

// env holds the pieces shared by the commands that talk to the server.
type env struct {
	cfg     config.Config
	db      *cache.DB
	threads *cache.Threads
	client  *api.Client
	remote  *source.Remote
}

func openEnv(cfg config.Config) (*env, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	threads, err := cache.NewThreads(db, cfg.MemoryCacheSize, cfg.ThreadTTL)
	if err != nil {
		db.Close()
		return nil, err
	}
	client := api.NewClient(cfg)
	return &env{
		cfg:     cfg,
		db:      db,
		threads: threads,
		client:  client,
		remote:  source.NewRemote(client, threads, db),
	}, nil
}

func runView(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(cfg.LogPath, cfg.Debug)
	if err != nil {
		return err
	}
	defer logFile.Close()

	if path := cctx.String("file"); path != "" {
		return viewFile(path)
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.db.Close()

	mon := monitor.New(cfg, e.client, e.threads)
	app := ui.NewApp(ui.Options{
		Source:   e.remote,
		Lister:   e.remote,
		Poster:   e.client,
		Monitor:  mon,
		ThreadID: cctx.Args().First(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetProgram(p)
	_, err = p.Run()
	mon.Stop()
	return err
}

// viewFile opens a local payload read-only and reloads it when it changes
// on disk.
func viewFile(path string) error {
	t, err := source.ReadFile(path)
	if err != nil {
		return err
	}
	src := source.NewFile(path)
	app := ui.NewApp(ui.Options{Source: src, ThreadID: t.ThreadID})
	p := tea.NewProgram(app, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := src.Watch(ctx, func(t *thread.Thread, err error) {
			if err != nil {
				p.Send(messages.StatusMsg{Text: "reload failed: " + err.Error(), IsError: true})
				return
			}
			p.Send(messages.ThreadUpdatedMsg{Thread: t})
		})
		if err != nil {
			slog.Error("watching payload", "path", path, "err", err)
		}
	}()

	_, err = p.Run()
	return err
}

func runDump(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	slog.SetDefault(logging.Setup(os.Stderr, cfg.Debug))

	var src source.Source
	threadID := cctx.Args().First()
	if path := cctx.String("file"); path != "" {
		src = source.NewFile(path)
	} else {
		if threadID == "" {
			return cli.Exit("dump needs a thread id or --file", 1)
		}
		e, err := openEnv(cfg)
		if err != nil {
			return err
		}
		defer e.db.Close()
		src = e.remote
	}

	res, err := src.Load(cctx.Context, threadID, false)
	if err != nil {
		return err
	}
	if res.Stale {
		slog.Warn("server unreachable, showing cached copy", "thread_id", res.Thread.ThreadID)
	}
	t := res.Thread
	v := thread.NewView(t, t.ThreadID, src.FilterState(t.ThreadID))
	if hide := cctx.StringSlice("hide"); len(hide) > 0 {
		v = v.WithFilter(hideCategories(v.FilterState, hide))
	}

	mode := threadview.ModeFor(v.DefaultView())
	if m := cctx.String("mode"); m != "" {
		mode = threadview.ModeFor(m)
	}
	dump(os.Stdout, threadview.Flatten(v, mode, nil, ""), cctx.Int("width"))
	return nil
}

func hideCategories(state []thread.CategoryFilter, names []string) []thread.CategoryFilter {
	out := make([]thread.CategoryFilter, len(state))
	copy(out, state)
	for _, name := range names {
		for i := range out {
			if out[i].Name == name {
				out[i].Active = false
			}
		}
	}
	return out
}

func dump(w io.Writer, entries []threadview.Entry, width int) {
	for _, e := range entries {
		indent := strings.Repeat("  ", e.Depth)
		var id, author, content string
		var isNew bool
		if e.Comment != nil {
			id, author, content, isNew = "c:"+e.Comment.CommentID, e.Comment.SecretIdentity.Name, e.Comment.Content, e.Comment.IsNew
		} else {
			id, author, content, isNew = "p:"+e.Post.PostID, e.Post.SecretIdentity.Name, e.Post.Content, e.Post.IsNew
		}
		flag := ""
		if isNew {
			flag = " [new]"
		}
		fmt.Fprintf(w, "%s%s %s%s\n", indent, id, author, flag)
		text := render.PostToText(content, max(width-len(indent)-2, 20))
		for _, line := range strings.Split(text, "\n") {
			if line != "" {
				fmt.Fprintf(w, "%s  %s\n", indent, line)
			}
		}
	}
}
