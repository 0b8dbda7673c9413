package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const SecretKeyBytesLen = 32

func main() {
	if err := run(os.Stdout, rand.Reader, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

// run prints random secret suitable for SESSION_SECRET
func run(out io.Writer, random io.Reader, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	useBase64 := fs.Bool("base64", false, "Print secret in base64 instead of hex")
	length := fs.IntP("length", "n", SecretKeyBytesLen, "Secret length in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *length < 16 {
		return errors.New("secret shorter than 16 bytes is too weak")
	}

	b := make([]byte, *length)
	if _, err := io.ReadFull(random, b); err != nil {
		return err
	}

	encoded := hex.EncodeToString(b)
	if *useBase64 {
		encoded = base64.StdEncoding.EncodeToString(b)
	}

	_, err := fmt.Fprintln(out, encoded)
	return err
}
