// Command emailverify verifies email addresses given as arguments, or one
// per line on stdin, and prints one JSON result per line.
//
// Configuration comes from EMAILVERIFY_* environment variables, optionally
// read from a .env file.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/optimode/emailverify"
	"github.com/optimode/emailverify/internal/config"
)

func main() {
	envFile := flag.String("env", ".env", "path of an optional .env file")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	flag.Parse()

	settings, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emailverify: %v\n", err)
		os.Exit(1)
	}
	log := settings.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := emailverify.New(settings.Verify).WithLogger(log)
	if err := run(ctx, v, flag.Args(), os.Stdin, os.Stdout, *pretty, log); err != nil {
		log.WithError(err).Error("verification aborted")
		stop()
		os.Exit(1)
	}
}

// run verifies every address in args, or every non-blank stdin line when
// args is empty, writing one JSON Result per address to out.
func run(ctx context.Context, v *emailverify.Verifier, args []string, in io.Reader, out io.Writer, pretty bool, log logrus.FieldLogger) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}

	verify := func(email string) error {
		res, err := v.Verify(ctx, email)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"email":  res.Email,
			"status": res.Status,
			"score":  res.Score,
		}).Info("verified")
		return enc.Encode(res)
	}

	if len(args) > 0 {
		for _, email := range args {
			if err := verify(email); err != nil {
				return err
			}
		}
		return nil
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := verify(line); err != nil {
			return err
		}
	}
	return sc.Err()
}
