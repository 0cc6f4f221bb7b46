package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kdduha/lungscan/internal/config"
	"github.com/kdduha/lungscan/internal/console"
	"github.com/kdduha/lungscan/internal/uploader"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const shellHelp = `Commands:
  open <path>   select an image
  submit        send the selected image for prediction
  clear         discard the selection
  help          show this message
  quit          exit`

func main() {
	os.Exit(run(os.Args, os.Stderr))
}

// run returns the process exit code. Errors that are not cli.ExitCoder
// are printed to stderr.
func run(args []string, stderr io.Writer) int {
	defaults, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}

	app := newApp(defaults)
	app.ErrWriter = stderr
	if err := app.Run(args); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func newApp(defaults *config.ClientConfig) *cli.App {
	return &cli.App{
		Name:  "predict",
		Usage: "classify CT scan images with a lungscan server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "base URL of the prediction server",
				Value: defaults.Endpoint,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "request timeout",
				Value: defaults.RequestTimeout,
			},
			&cli.DurationFlag{
				Name:  "error-dismiss",
				Usage: "how long error messages stay visible in the shell",
				Value: defaults.ErrorDismiss,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "classify",
				Usage:     "classify a single image",
				ArgsUsage: "<image>",
				Action:    classify,
			},
			{
				Name:   "shell",
				Usage:  "interactive session",
				Action: shell,
			},
		},
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	level := zerolog.InfoLevel
	if c.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func newController(c *cli.Context, out io.Writer, interactive bool) *uploader.Controller {
	logger := newLogger(c)
	client := uploader.NewClient(
		c.String("endpoint"),
		&http.Client{Timeout: c.Duration("timeout")},
		logger,
	)

	// One-shot runs exit right after the message is printed, no timer needed.
	var dismiss time.Duration
	if interactive {
		dismiss = c.Duration("error-dismiss")
	}
	return uploader.NewController(client, console.NewView(out),
		uploader.WithLogger(logger),
		uploader.WithErrorDismiss(dismiss),
	)
}

func classify(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one image path", 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := newController(c, os.Stdout, false)

	file, err := uploader.OpenFile(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err := ctrl.SelectFile(file); err != nil {
		return cli.Exit("", 1)
	}
	if err := ctrl.Submit(ctx); err != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func shell(c *cli.Context) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	ctrl := newController(c, rl.Stdout(), true)
	fmt.Fprintln(rl.Stdout(), shellHelp)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			return nil
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch cmd {
		case "":
		case "open":
			file, err := uploader.OpenFile(strings.TrimSpace(arg))
			if err != nil {
				fmt.Fprintln(rl.Stdout(), err)
				continue
			}
			_ = ctrl.SelectFile(file)
		case "submit":
			_ = ctrl.Submit(context.Background())
		case "clear":
			ctrl.ClearSelection()
		case "help":
			fmt.Fprintln(rl.Stdout(), shellHelp)
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(rl.Stdout(), "unknown command %q\n", cmd)
		}
	}
}
