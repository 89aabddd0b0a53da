package markov

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CharTokenizer is a Tokenizer whose tokens are single characters. Sentences
// are split after a terminator that is followed by whitespace or the end of
// input, unless the next word starts with a lowercase letter ("e.g. this"
// stays one sentence). The terminator belongs to the sentence and the
// whitespace after it is dropped. Generated tokens are joined with no separator, so models
// trained with it produce pseudo-words.
type CharTokenizer struct {
	terminators string
}

// CharOption configures a CharTokenizer.
type CharOption func(*CharTokenizer)

// WithTerminators sets the characters that may end a sentence.
// Default: ".!?"
func WithTerminators(chars string) CharOption {
	return func(t *CharTokenizer) {
		t.terminators = chars
	}
}

// NewCharTokenizer returns a CharTokenizer with default settings, overridden
// by opts.
func NewCharTokenizer(opts ...CharOption) *CharTokenizer {
	t := &CharTokenizer{terminators: ".!?"}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Separator always returns the empty string.
func (t *CharTokenizer) Separator(_, _ string) string {
	return ""
}

// EOC always returns the empty string: the terminator is already a token.
func (t *CharTokenizer) EOC(_ string) string {
	return ""
}

// NewStream returns a stream that yields one token per character of r.
func (t *CharTokenizer) NewStream(r io.Reader) StreamTokenizer {
	return &charStream{
		reader:      bufio.NewReader(r),
		terminators: t.terminators,
	}
}

type charStream struct {
	reader      *bufio.Reader
	terminators string
	inSentence  bool
	pendingEOC  bool
}

func (s *charStream) Next() (*Token, error) {
	if s.pendingEOC {
		s.pendingEOC = false
		return &Token{EOC: true}, nil
	}

	for {
		r, _, err := s.reader.ReadRune()
		if err != nil {
			return nil, err
		}

		if !s.inSentence {
			if unicode.IsSpace(r) {
				continue
			}
			s.inSentence = true
		}

		if strings.ContainsRune(s.terminators, r) {
			ends, err := s.atBoundary()
			if err != nil {
				return nil, err
			}
			if ends {
				s.inSentence = false
				s.pendingEOC = true
			}
		}
		return &Token{Text: string(r)}, nil
	}
}

// atBoundary looks past the terminator just read and reports whether it
// ends a sentence: it must be followed by whitespace and then either the end
// of input or a word that does not start lowercase. Nothing is consumed.
func (s *charStream) atBoundary() (bool, error) {
	for n := 2 * utf8.UTFMax; ; n *= 2 {
		buf, err := s.reader.Peek(n)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return false, err
		}

		for i := 0; len(buf) > 0; i++ {
			if !utf8.FullRune(buf) {
				break
			}
			r, size := utf8.DecodeRune(buf)
			if !unicode.IsSpace(r) {
				if i == 0 {
					return false, nil
				}
				return !unicode.IsLower(r), nil
			}
			buf = buf[size:]
		}

		// Only whitespace so far: the input ended or the lookahead is full.
		if err != nil {
			return true, nil
		}
	}
}
