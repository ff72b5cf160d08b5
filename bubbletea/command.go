package bubbletea

import (
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdAsk commandKind = iota
	cmdUpload
	cmdSummarize
	cmdDept
	cmdDocs
	cmdClear
	cmdHelp
)

type command struct {
	kind commandKind
	arg  string
	n    int
}

const helpText = `Commands:
  /upload <glob>    upload matching files (** matches directories)
  /summarize <n>    summarize uploaded document n
  /dept [name]      show or set the department
  /docs             list uploaded documents
  /clear            start over
  /help             show this help
Anything else is sent as a question. Ctrl+C cancels an answer, or quits.`

// parseCommand classifies a line of input. Input not starting with "/" is
// a question.
func parseCommand(input string) (command, error) {
	if !strings.HasPrefix(input, "/") {
		return command{kind: cmdAsk, arg: input}, nil
	}
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/upload":
		if arg == "" {
			return command{}, fmt.Errorf("usage: /upload <glob>")
		}
		return command{kind: cmdUpload, arg: arg}, nil
	case "/summarize":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return command{}, fmt.Errorf("usage: /summarize <n>")
		}
		return command{kind: cmdSummarize, n: n}, nil
	case "/dept":
		return command{kind: cmdDept, arg: arg}, nil
	case "/docs":
		return command{kind: cmdDocs}, nil
	case "/clear":
		return command{kind: cmdClear}, nil
	case "/help":
		return command{kind: cmdHelp}, nil
	default:
		return command{}, fmt.Errorf("unknown command %s (try /help)", name)
	}
}
