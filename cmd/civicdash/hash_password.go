package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smallbiznis/civicdash/internal/auth/password"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print an argon2id hash for DASHBOARD_PASSWORD_HASH",
		Long:  "Reads the dashboard password from the terminal (or one line of stdin) and prints its encoded argon2id hash.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return writeHash(cmd.OutOrStdout(), secret)
		},
	}
}

func readSecret(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeHash(w io.Writer, secret string) error {
	if secret == "" {
		return errors.New("password is empty")
	}
	encoded, err := password.Hash(secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, encoded)
	return err
}
