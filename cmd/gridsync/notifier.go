package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// cliNotifier renders grid notifications on the terminal. Confirmations
// prompt on stdin unless auto-confirm is enabled for scripted runs.
type cliNotifier struct {
	log         *logrus.Logger
	autoConfirm bool
	in          io.Reader
	out         io.Writer
}

func (n *cliNotifier) ShowSuccess(text string) {
	n.log.Info(text)
	fmt.Fprintf(n.out, "ok: %s\n", text)
}

func (n *cliNotifier) ShowWarning(text string) {
	n.log.Warn(text)
	fmt.Fprintf(n.out, "warning: %s\n", text)
}

func (n *cliNotifier) ShowError(message string) {
	n.log.Error(message)
	fmt.Fprintf(n.out, "error: %s\n", message)
}

func (n *cliNotifier) Confirm(title, text string) bool {
	if n.autoConfirm {
		n.log.Infof("%s: %s (auto-confirmed)", title, text)
		return true
	}
	fmt.Fprintf(n.out, "%s\n%s [y/N]: ", title, text)
	reader := bufio.NewReader(n.in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
