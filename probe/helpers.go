package probe

import (
	"context"
	"io"
	"strings"
)

// maxBodyBytes caps how much of a response body an attempt reads.
const maxBodyBytes = 4 << 20

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// readBody returns the body text verbatim, line separators included.
func readBody(r io.Reader) (string, error) {
	var sb strings.Builder
	_, err := io.Copy(&sb, io.LimitReader(r, maxBodyBytes))
	return sb.String(), err
}
