// hubctl is a command-line client for the hub API. It stands in for the
// browser forms: it checks documents, registers accounts and chats with
// the agent.
//
// Usage:
//
//	hubctl doc <value>...
//	hubctl register --api URL --email E --password P --doc D [--name N] [--whatsapp W]
//	hubctl chat --api URL --token T --email E [--timeout 45s] [--export file.html]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// exitError carries a process exit code out of run.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return &exitError{code: 2}
	}

	switch args[0] {
	case "doc":
		return runDoc(args[1:], stdout)
	case "register":
		return runRegister(args[1:], stdout, stderr)
	case "chat":
		return runChat(args[1:], stdin, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	}
	printUsage(stderr)
	return &exitError{code: 2, msg: fmt.Sprintf("unknown command %q", args[0])}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `hubctl: command-line client for the hub API

Commands:
  doc <value>...   validate and format CPF/CNPJ numbers
  register         create an account through /api/register
  chat             talk to the agent through /api/agent

Run "hubctl <command> --help" for the flags of a command.
`)
}

// parseFlags parses args into fs, turning --help into a clean exit.
func parseFlags(fs *pflag.FlagSet, args []string, stderr io.Writer) (bool, error) {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, &exitError{code: 2, msg: err.Error()}
	}
	return true, nil
}
