package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/elmaestro544/scigenius/pkg/events"
	"github.com/elmaestro544/scigenius/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const uiTopic = "ui"

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat about a research paper in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
	cmd.Flags().String("load", "", "Continue a conversation saved as JSON")
	cmd.Flags().String("file", "", "Document to attach before the chat starts")
	cmd.Flags().String("save", ui.DefaultSavePath, "Where ctrl+s writes the transcript")
	cmd.Flags().String("markdown-style", "auto", "glamour style for answers (auto, dark, light, notty), empty for plain text")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file")
	loadPath, _ := cmd.Flags().GetString("load")
	savePath, _ := cmd.Flags().GetString("save")
	markdownStyle, _ := cmd.Flags().GetString("markdown-style")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tr, err := newTranslator()
	if err != nil {
		return err
	}

	router, err := events.NewEventRouter(events.WithVerbose(viper.GetBool("verbose")))
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	sess, err := newSession(ctx, events.NewWatermillSink(router.Publisher, uiTopic), tr, filePath, loadPath)
	if err != nil {
		return err
	}

	options := []ui.ModelOption{
		ui.WithSavePath(savePath),
		ui.WithGlamourStyle(markdownStyle),
		ui.WithConversation(sess.Conversation()),
	}
	if a := sess.Attachment(); a != nil {
		options = append(options, ui.WithAttachmentName(a.Name))
	}

	programOptions := []tea.ProgramOption{
		tea.WithMouseCellMotion(), // turn on mouse support so we can track the mouse wheel
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		programOptions = append(programOptions, tea.WithOutput(os.Stderr))
	} else {
		programOptions = append(programOptions, tea.WithAltScreen())
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		tty, err := ui.OpenTTY()
		if err != nil {
			return err
		}
		defer func() {
			_ = tty.Close()
		}()
		programOptions = append(programOptions, tea.WithInput(tty))
	}

	// logs on stderr would draw over the TUI
	if viper.GetString("log-file") == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	p := tea.NewProgram(
		ui.InitialModel(ui.NewSessionBackend(ctx, sess), tr, options...),
		programOptions...,
	)

	router.AddHandler(uiTopic, uiTopic, ui.SessionEventForwardFunc(p))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()

		select {
		case <-router.Running():
		case <-ctx.Done():
			return ctx.Err()
		}

		_, err := p.Run()
		log.Debug().Str("session_id", sess.SessionID).Msg("Chat finished")
		return err
	})

	return eg.Wait()
}
