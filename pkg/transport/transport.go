// Package transport supplies the byte streams sessions frame their messages
// over. The engine is transport agnostic: anything satisfying Stream can
// carry a session, and the constructors here cover the common deployments
// (stdio for editor-spawned processes, TCP for socket mode) plus an
// in-memory pipe for tests.
package transport

import (
	"io"
	"os"
)

// Stream is a bidirectional byte stream carrying framed messages. Close
// releases both directions; closing the stream unblocks a pending Read,
// which is how sessions interrupt their read loop.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

type stdioStream struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s *stdioStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *stdioStream) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s *stdioStream) Close() error {
	inErr := s.in.Close()
	outErr := s.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}

// Stdio returns the process standard input/output as a Stream. This is the
// usual transport when the peer spawns this process and talks over pipes.
func Stdio() Stream {
	return &stdioStream{in: os.Stdin, out: os.Stdout}
}

// Pair wraps an arbitrary reader/writer pair as a Stream. The closers of
// both halves are invoked on Close when they implement io.Closer.
func Pair(in io.Reader, out io.Writer) Stream {
	return &pairStream{in: in, out: out}
}

type pairStream struct {
	in  io.Reader
	out io.Writer
}

func (s *pairStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *pairStream) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s *pairStream) Close() error {
	var firstErr error
	if c, ok := s.in.(io.Closer); ok {
		firstErr = c.Close()
	}
	if c, ok := s.out.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pipe returns two connected in-memory streams: bytes written to one are
// read from the other. Both ends must be serviced or writes block, exactly
// like a real pipe. Intended for tests and in-process peers.
func Pipe() (Stream, Stream) {
	clientReader, serverWriter := io.Pipe()
	serverReader, clientWriter := io.Pipe()
	client := &pipeStream{reader: clientReader, writer: clientWriter}
	server := &pipeStream{reader: serverReader, writer: serverWriter}
	return client, server
}

type pipeStream struct {
	reader *io.PipeReader
	writer *io.PipeWriter
}

func (s *pipeStream) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *pipeStream) Write(p []byte) (int, error) { return s.writer.Write(p) }

func (s *pipeStream) Close() error {
	// Closing the write half delivers io.EOF to the peer's reader, so the
	// remote session observes a clean end of stream.
	werr := s.writer.Close()
	rerr := s.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
