// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/studentdir/internal/i18n"
	"github.com/toeirei/studentdir/internal/security"
)

// prompter reads answers from the command's input. A terminal input gets
// an unechoed password prompt.
type prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, out: cmd.ErrOrStderr(), reader: bufio.NewReader(in)}
}

func (p *prompter) terminalFd() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) password() (security.Secret, error) {
	if fd, ok := p.terminalFd(); ok {
		fmt.Fprint(p.out, i18n.T("cli.prompt_password"))
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return nil, err
		}
		return security.Secret(b), nil
	}
	s, err := p.line(i18n.T("cli.prompt_password"))
	if err != nil {
		return nil, err
	}
	return security.FromString(s), nil
}

// credentials returns the email (from args or prompted) and the password.
func (p *prompter) credentials(args []string) (string, security.Secret, error) {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = p.line(i18n.T("cli.prompt_email")); err != nil {
			return "", nil, err
		}
	}
	pw, err := p.password()
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(email), pw, nil
}
