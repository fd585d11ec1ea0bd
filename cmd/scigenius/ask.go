package main

import (
	"context"
	"strings"

	"github.com/elmaestro544/scigenius/pkg/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const askTopic = "chat"

func newAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask MESSAGE...",
		Short: "Ask a single question and stream the answer to stdout",
		Long: "Ask a single question and stream the answer to stdout.\n" +
			"Mention \"related papers\" to search the web for papers on the attached document.",
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}
	cmd.Flags().String("load", "", "Continue a conversation saved as JSON")
	cmd.Flags().String("file", "", "Document to attach")
	cmd.Flags().String("save", "", "Write the conversation as JSON to this file")
	cmd.Flags().String("output", string(events.PrinterFormatText), "Related papers format (text, yaml)")
	cmd.Flags().Bool("print-raw-events", false, "Print the raw events instead of the answer")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file")
	loadPath, _ := cmd.Flags().GetString("load")
	savePath, _ := cmd.Flags().GetString("save")
	output, _ := cmd.Flags().GetString("output")
	printRawEvents, _ := cmd.Flags().GetBool("print-raw-events")

	format := events.PrinterFormat(output)
	if format != events.PrinterFormatText && format != events.PrinterFormatYAML {
		return errors.Errorf("unsupported output format %s", output)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tr, err := newTranslator()
	if err != nil {
		return err
	}

	router, err := events.NewEventRouter(
		events.WithVerbose(viper.GetBool("verbose")),
		events.WithDumpOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	sess, err := newSession(ctx, events.NewWatermillSink(router.Publisher, askTopic), tr, filePath, loadPath)
	if err != nil {
		return err
	}

	if printRawEvents {
		router.AddHandler("raw-events-stdout", askTopic, router.DumpRawEvents)
	} else {
		router.AddHandler("chat-stdout", askTopic, events.StepPrinterFunc("", cmd.OutOrStdout(), format))
	}

	message := strings.Join(args, " ")

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

		handle, err := sess.Submit(ctx, message)
		if err != nil {
			return err
		}
		if _, err := handle.Wait(); err != nil {
			return err
		}

		if savePath != "" {
			if err := sess.SaveToFile(savePath); err != nil {
				return err
			}
			log.Debug().Str("path", savePath).Msg("Conversation saved")
		}

		if cause := handle.Cause(); cause != nil {
			return errors.Wrap(cause, "could not answer")
		}
		return nil
	})

	return eg.Wait()
}
