package config

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// base64Pattern matches canonical, padded standard base64 text.
var base64Pattern = regexp.MustCompile(`^([A-Za-z0-9+/]{4})*([A-Za-z0-9+/]{4}|[A-Za-z0-9+/]{3}=|[A-Za-z0-9+/]{2}==)$`)

// LooksBase64 reports whether s is shaped like canonical base64.
func LooksBase64(s string) bool {
	return base64Pattern.MatchString(s)
}

// DecodeArgument decodes s when it looks like base64 and returns it
// unchanged otherwise. A search string is often itself valid base64
// ("name", "os"), so callers only use this behind the --base64 flag.
func DecodeArgument(s string) string {
	if !LooksBase64(s) {
		return s
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(decoded)
}

// EncodeLine reads a single line from r and returns its base64 encoding.
// The line ending is not part of the encoded value.
func EncodeLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return base64.StdEncoding.EncodeToString([]byte(line)), nil
}
