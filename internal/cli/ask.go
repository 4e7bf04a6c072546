package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"promptcraft/internal/app"
	"promptcraft/internal/export"
	"promptcraft/internal/logger"
	"promptcraft/internal/model"
	"promptcraft/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	cmdBack  = "/back"
	cmdReset = "/reset"
	cmdQuit  = "/quit"
)

func newAskCmd() *cobra.Command {
	var noCopy bool
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Walk through the questionnaire in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			// The console belongs to the questionnaire; logs only go to the file.
			log := logger.Nop()
			if cfg.App.LogFilePath != "" {
				l, err := logger.NewFileOnly(cfg.App.LogFilePath)
				if err != nil {
					return err
				}
				log = l
			}
			defer log.Sync()

			engine, err := app.NewEngine(cfg, log)
			if err != nil {
				return err
			}

			var clip copier = export.NewClipboard(log)
			if noCopy {
				clip = nil
			}
			a := NewAsker(engine, clip, cmd.InOrStdin(), cmd.OutOrStdout())
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&noCopy, "no-copy", false, "do not copy the final prompt to the clipboard")
	return cmd
}

type copier interface {
	Copy(text string) bool
}

// Asker runs one questionnaire session over a line-oriented terminal
type Asker struct {
	engine  *service.QuestionnaireEngine
	clip    copier
	scanner *bufio.Scanner
	out     io.Writer
}

// NewAsker creates an Asker. clip may be nil to skip copying.
func NewAsker(engine *service.QuestionnaireEngine, clip copier, in io.Reader, out io.Writer) *Asker {
	return &Asker{
		engine:  engine,
		clip:    clip,
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Run loops until the user quits or input ends
func (a *Asker) Run(ctx context.Context) error {
	sess := a.engine.NewSession(uuid.New().String())
	a.printf("Answer each question and press Enter. %s goes back, %s starts over, %s exits.\n", cmdBack, cmdReset, cmdQuit)

	for {
		var done bool
		var err error
		switch sess.Lifecycle {
		case model.LifecycleFailed:
			done, err = a.failed(ctx, sess)
		case model.LifecycleCompleted:
			done, err = a.completed(sess)
		default:
			done, err = a.collect(ctx, sess)
		}
		if err != nil || done {
			return err
		}
	}
}

func (a *Asker) collect(ctx context.Context, sess *model.Session) (bool, error) {
	q, _ := a.engine.Current(sess)
	total := a.engine.Catalog().Len()
	a.printf("\n%s\n%s\n", model.Progress(sess.Index, total), q.Prompt)
	if sess.Draft != "" {
		a.printf("(current answer: %s, Enter keeps it)\n", sess.Draft)
	}

	line, ok := a.readLine("> ")
	if !ok {
		return true, nil
	}

	switch line {
	case cmdQuit:
		return true, nil
	case cmdBack:
		if err := a.engine.Retreat(sess); errors.Is(err, service.ErrAtFirstQuestion) {
			a.printf("Already at the first question.\n")
		} else if err != nil {
			return false, err
		}
		return false, nil
	case cmdReset:
		return false, a.engine.Reset(sess)
	}

	if line == "" {
		line = sess.Draft
	}
	if strings.TrimSpace(line) == "" {
		a.printf("Please type an answer.\n")
		return false, nil
	}

	if err := a.engine.SetDraft(sess, line); err != nil {
		return false, err
	}
	needsSubmit, err := a.engine.StepForward(sess)
	if err != nil {
		return false, err
	}
	if needsSubmit {
		a.submit(ctx, sess)
	}
	return false, nil
}

func (a *Asker) failed(ctx context.Context, sess *model.Session) (bool, error) {
	a.printf("\n%s\n", sess.ErrorText)
	line, ok := a.readLine(fmt.Sprintf("Retry? [Y/n, %s to edit] ", cmdBack))
	if !ok {
		return true, nil
	}

	switch strings.ToLower(line) {
	case "n", "no", cmdQuit:
		return true, nil
	case cmdBack:
		return false, a.engine.Retreat(sess)
	case cmdReset:
		return false, a.engine.Reset(sess)
	}

	if _, err := a.engine.StepForward(sess); err != nil {
		return false, err
	}
	a.submit(ctx, sess)
	return false, nil
}

func (a *Asker) completed(sess *model.Session) (bool, error) {
	a.printf("\nHere's your prompt:\n\n%s\n\n", sess.FinalText)
	if sess.Diagnostic {
		a.printf("The generation service sent back its template instead of a prompt. The report above shows what was sent.\n")
	}

	if a.clip != nil {
		if a.clip.Copy(sess.FinalText) {
			a.printf("Copied to clipboard.\n")
		} else {
			a.printf("Could not copy to the clipboard; select the text above instead.\n")
		}
	}

	a.printf("\nOpen it in:\n")
	for _, link := range export.Links(sess.FinalText) {
		note := ""
		if !link.Prefilled {
			note = " (paste the prompt)"
		}
		a.printf("  %-8s %s%s\n", link.Name, link.URL, note)
	}

	line, ok := a.readLine("\nStart over? [y/N] ")
	if !ok {
		return true, nil
	}
	switch strings.ToLower(line) {
	case "y", "yes", cmdReset:
		return false, a.engine.Reset(sess)
	}
	return true, nil
}

func (a *Asker) submit(ctx context.Context, sess *model.Session) {
	a.printf("Generating...\n")
	// A failure is recorded on the session and handled by the next turn.
	_ = a.engine.Submit(ctx, sess)
}

func (a *Asker) readLine(prompt string) (string, bool) {
	a.printf("%s", prompt)
	if !a.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.scanner.Text()), true
}

func (a *Asker) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
