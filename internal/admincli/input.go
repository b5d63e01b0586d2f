package admincli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// getPassword prints prompt to w and reads a password from the terminal
// without echo.
func getPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// promptNewPassword asks twice and fails when the entries differ.
func promptNewPassword(w io.Writer) (string, error) {
	first, err := getPassword(w, "Enter password: ")
	if err != nil {
		return "", err
	}
	second, err := getPassword(w, "Repeat password: ")
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}

// readPasswordLine reads the first line of r, for --password-stdin.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
