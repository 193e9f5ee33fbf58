package format

import (
	"context"
	"unicode"
)

// Chunks splits a message at word granularity, each chunk keeping its trailing
// whitespace, so concatenating the chunks reproduces the message byte for
// byte. The result is never empty for a non-empty message.
func Chunks(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	inSpace := false
	for i, r := range text {
		isSpace := unicode.IsSpace(r)
		if inSpace && !isSpace {
			chunks = append(chunks, text[start:i])
			start = i
		}
		inSpace = isSpace
	}
	chunks = append(chunks, text[start:])
	return chunks
}

// Stream emits the message chunks on an ordered channel, closing it when the
// message is exhausted or ctx is cancelled. The caller owns ctx; cancellation
// stops production without any cleanup obligation, since conversation state is
// committed before streaming starts.
func Stream(ctx context.Context, text string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, chunk := range Chunks(text) {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
