// Package codec implements the base-protocol framing used by the Language
// Server Protocol family: each message is a UTF-8 JSON body preceded by a
// header block of "Name: value" lines and announced by a mandatory
// Content-Length header.
//
// The Reader turns an unbounded byte stream into discrete message bodies; the
// Writer frames bodies back onto the stream, one atomic write per message.
// Framing failures are split into recoverable ones (the body length was
// determined, so the cursor can skip to the next frame) and fatal ones (the
// stream position is lost).
package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ajitpratap0/lsp-sdk-go/pkg/errors"
	"github.com/ajitpratap0/lsp-sdk-go/pkg/protocol"
)

const (
	headerContentLength = "Content-Length"
	headerContentType   = "Content-Type"
)

// Config controls framing limits.
type Config struct {
	// MaxContentLength bounds the announced body size. Frames above the
	// limit are skipped and reported as recoverable framing errors.
	MaxContentLength int
}

// DefaultConfig returns the framing limits used when none are supplied.
func DefaultConfig() Config {
	return Config{MaxContentLength: 8 << 20}
}

// Reader decodes framed messages from a byte stream. It is owned by a single
// read loop and is not safe for concurrent use.
type Reader struct {
	br     *bufio.Reader
	config Config
}

// NewReader creates a framing reader over r.
func NewReader(r io.Reader, config Config) *Reader {
	if config.MaxContentLength <= 0 {
		config.MaxContentLength = DefaultConfig().MaxContentLength
	}
	return &Reader{br: bufio.NewReader(r), config: config}
}

// Read returns the body of the next framed message. It blocks until a full
// frame is available. A clean end of stream before any header byte is
// reported as io.EOF; a truncated frame is a fatal framing error.
func (r *Reader) Read() ([]byte, error) {
	length, err := r.readHeaders()
	if err != nil {
		return nil, err
	}

	if length > r.config.MaxContentLength {
		// The length is known, so the cursor survives: discard the body
		// and let the caller continue with the next frame.
		if _, err := io.CopyN(io.Discard, r.br, int64(length)); err != nil {
			return nil, errors.NewFramingError("truncated oversized body", false, err)
		}
		return nil, errors.NewFramingError(
			fmt.Sprintf("content length %d exceeds maximum %d", length, r.config.MaxContentLength), true, nil)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return nil, errors.NewFramingError("truncated body", false, err)
	}

	if !utf8.Valid(body) {
		return nil, errors.NewFramingError("body is not valid UTF-8", true, nil)
	}

	return body, nil
}

// ReadMessages returns the parsed messages of the next frame. A frame whose
// body is a JSON array (batch) yields each element as an independent message.
// Bodies that do not parse as any message shape are recoverable framing
// errors: the frame boundary was sound, only its content was not.
func (r *Reader) ReadMessages() ([]protocol.Message, error) {
	body, err := r.Read()
	if err != nil {
		return nil, err
	}

	if protocol.IsBatch(body) {
		messages, err := protocol.ParseBatch(body)
		if err != nil {
			return nil, errors.NewFramingError("invalid batch body", true, err)
		}
		return messages, nil
	}

	msg, err := protocol.ParseMessage(body)
	if err != nil {
		return nil, errors.NewFramingError("invalid message body", true, err)
	}
	return []protocol.Message{msg}, nil
}

// readHeaders consumes the header block and returns the announced body
// length. Errors before the length is known are fatal.
func (r *Reader) readHeaders() (int, error) {
	length := -1
	sawHeader := false

	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && !sawHeader {
				return 0, io.EOF
			}
			return 0, errors.NewFramingError("truncated header block", false, err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		sawHeader = true

		name, value, found := strings.Cut(line, ":")
		if !found {
			return 0, errors.NewFramingError(fmt.Sprintf("malformed header line %q", line), false, nil)
		}

		switch strings.TrimSpace(name) {
		case headerContentLength:
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return 0, errors.NewFramingError(
					fmt.Sprintf("invalid Content-Length %q", strings.TrimSpace(value)), false, err)
			}
			length = n
		case headerContentType:
			// Accepted and ignored.
		default:
			// Unknown headers are tolerated for forward compatibility.
		}
	}

	if length < 0 {
		return 0, errors.NewFramingError("missing Content-Length header", false, nil)
	}
	return length, nil
}

// Writer frames message bodies onto a byte stream. Each message is written
// and flushed atomically under an internal mutex, so bytes of distinct
// messages never interleave even under concurrent writers.
type Writer struct {
	mu sync.Mutex
	bw *bufio.Writer
}

// NewWriter creates a framing writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write frames and flushes a single message body.
func (w *Writer) Write(body []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var header bytes.Buffer
	fmt.Fprintf(&header, "%s: %d\r\n\r\n", headerContentLength, len(body))

	if _, err := w.bw.Write(header.Bytes()); err != nil {
		return errors.Wrap(err, int(protocol.CodeInternalError),
			"failed to write frame header", errors.CategoryTransport, errors.SeverityError)
	}
	if _, err := w.bw.Write(body); err != nil {
		return errors.Wrap(err, int(protocol.CodeInternalError),
			"failed to write frame body", errors.CategoryTransport, errors.SeverityError)
	}
	if err := w.bw.Flush(); err != nil {
		return errors.Wrap(err, int(protocol.CodeInternalError),
			"failed to flush frame", errors.CategoryTransport, errors.SeverityError)
	}
	return nil
}

// WriteMessage serializes and frames a message.
func (w *Writer) WriteMessage(msg protocol.Message) error {
	body, err := protocol.EncodeMessage(msg)
	if err != nil {
		return errors.Wrap(err, int(protocol.CodeInternalError),
			"failed to encode message", errors.CategoryInternal, errors.SeverityError)
	}
	return w.Write(body)
}
