// Package cli provides the interactive interface: ask for a word length, then
// a pattern, then page through the matching words.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/wordmask/internal/utils"
	"github.com/bastiangx/wordmask/pkg/match"
	"github.com/charmbracelet/log"
)

// errQuit ends the session.
var errQuit = errors.New("quit")

// InputHandler runs the interactive length -> pattern -> results loop.
type InputHandler struct {
	matcher      match.IMatcher
	reader       *bufio.Reader
	view         *view
	minLength    int
	maxLength    int
	pageSize     int
	noFilter     bool
	requestCount int
}

// NewInputHandler creates a handler on stdin/stdout.
func NewInputHandler(matcher match.IMatcher, minLength, maxLength, pageSize int, noFilter bool) *InputHandler {
	return NewInputHandlerWithIO(matcher, minLength, maxLength, pageSize, noFilter, os.Stdin, os.Stdout)
}

// NewInputHandlerWithIO creates a handler reading answers from in and
// writing prompts and results to out.
func NewInputHandlerWithIO(matcher match.IMatcher, minLength, maxLength, pageSize int, noFilter bool, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		matcher:   matcher,
		reader:    bufio.NewReader(in),
		view:      newView(out),
		minLength: max(minLength, 1),
		maxLength: max(maxLength, minLength, 1),
		pageSize:  max(pageSize, 1),
		noFilter:  noFilter,
	}
}

// Start runs searches until the input ends or the user types "q".
func (h *InputHandler) Start() error {
	h.view.banner("WordMask CLI")
	h.view.note("Type a word length, then the letters you know with '_' for the rest. 'q' quits.")

	for {
		length, err := h.askLength()
		if err != nil {
			return h.finish(err)
		}
		pattern, err := h.askPattern(length)
		if err != nil {
			return h.finish(err)
		}
		if err := h.showResults(length, pattern); err != nil {
			return h.finish(err)
		}
	}
}

func (h *InputHandler) finish(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		log.Debugf("Session ended after %d searches", h.requestCount)
		return nil
	}
	return err
}

// readLine returns the next trimmed answer. "q" and "quit" end the session.
func (h *InputHandler) readLine() (string, error) {
	line, err := h.reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return "", errQuit
	}
	return line, nil
}

// askLength prompts until it gets a length that is in range and present in
// the index.
func (h *InputHandler) askLength() (int, error) {
	for {
		h.view.ask(fmt.Sprintf("Word length (%d-%d): ", h.minLength, h.maxLength))
		line, err := h.readLine()
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		length, err := strconv.Atoi(line)
		if err != nil {
			h.view.errorf("'%s' is not a number", line)
			continue
		}
		if length < h.minLength || length > h.maxLength {
			h.view.errorf("Length must be between %d and %d", h.minLength, h.maxLength)
			continue
		}
		if !h.matcher.HasLength(length) {
			h.view.errorf("No words of length %d in the dictionary", length)
			continue
		}
		return length, nil
	}
}

// askPattern prompts until it gets a pattern of exactly length cells. Short
// input is padded with wildcards, so an empty answer lists every word.
func (h *InputHandler) askPattern(length int) (string, error) {
	for {
		h.view.ask(fmt.Sprintf("Pattern (%d letters, _ for unknown): ", length))
		line, err := h.readLine()
		if err != nil {
			return "", err
		}
		pattern := utils.PadPattern(utils.NormalizePatternInput(line), length)
		if n := utf8.RuneCountInString(pattern); n != length {
			h.view.errorf("Pattern has %d characters, expected %d", n, length)
			continue
		}
		if !h.noFilter && !utils.IsValidPatternInput(pattern) {
			h.view.errorf("Use letters a-z and '_' only")
			continue
		}
		return pattern, nil
	}
}

// showResults prints pages of matches while the user asks for more.
func (h *InputHandler) showResults(length int, pattern string) error {
	h.requestCount++
	offset := 0
	for {
		res, err := h.matcher.MatchPage(length, pattern, offset, h.pageSize)
		if err != nil {
			h.view.errorf("Search failed: %v", err)
			return nil
		}
		log.Debugf("Took [ %v ] for %q", res.Elapsed, pattern)
		h.view.results(res)

		if res.Remaining() == 0 {
			return nil
		}
		h.view.ask("[n]ext page, enter for a new search: ")
		line, err := h.readLine()
		if err != nil {
			return err
		}
		if strings.ToLower(strings.TrimSpace(line)) != "n" {
			return nil
		}
		offset += len(res.Words)
	}
}
