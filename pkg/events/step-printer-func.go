package events

import (
	"fmt"
	"io"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type PrinterFormat string

const (
	PrinterFormatText PrinterFormat = "text"
	PrinterFormatYAML PrinterFormat = "yaml"
)

// StepPrinterFunc returns a watermill handler that writes a session's answer
// to w as it streams in. Related papers are printed as a numbered list, or as
// YAML when format is PrinterFormatYAML.
func StepPrinterFunc(name string, w io.Writer, format PrinterFormat) func(msg *message.Message) error {
	isFirst := true

	printName := func() error {
		if isFirst && name != "" {
			isFirst = false
			_, err := fmt.Fprintf(w, "\n%s: \n", name)
			return err
		}
		return nil
	}

	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJson(msg.Payload)
		if err != nil {
			return errors.Wrap(err, "could not parse event")
		}

		switch p_ := e.(type) {
		case *EventPartialCompletion:
			if err := printName(); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s", p_.Delta); err != nil {
				return err
			}

		case *EventFinal:
			if !strings.HasSuffix(p_.Text, "\n") {
				if _, err := fmt.Fprintf(w, "\n"); err != nil {
					return err
				}
			}

		case *EventError:
			if err := printName(); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n", p_.Text); err != nil {
				return err
			}

		case *EventRelatedPapers:
			if err := printName(); err != nil {
				return err
			}
			return printRelatedPapers(w, p_, format)

		case *EventPartialCompletionStart,
			*EventConversationSnapshot:
		}

		return nil
	}
}

func printRelatedPapers(w io.Writer, e *EventRelatedPapers, format PrinterFormat) error {
	if _, err := fmt.Fprintf(w, "%s\n", e.Text); err != nil {
		return err
	}
	if len(e.Papers) == 0 {
		return nil
	}

	if format == PrinterFormatYAML {
		v_, err := yaml.Marshal(map[string]interface{}{
			"papers":    e.Papers,
			"citations": e.Citations,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s", v_)
		return err
	}

	for i, p := range e.Papers {
		if _, err := fmt.Fprintf(w, "\n%d. %s\n   %s (%s)\n   %s\n   %s\n",
			i+1, p.Title, p.Authors, p.Year, p.Summary, p.URL); err != nil {
			return err
		}
	}
	if len(e.Citations) > 0 {
		if _, err := fmt.Fprintf(w, "\n"); err != nil {
			return err
		}
		for _, c := range e.Citations {
			if _, err := fmt.Fprintf(w, "- %s (%s)\n", c.Title, c.Hostname()); err != nil {
				return err
			}
		}
	}
	return nil
}
