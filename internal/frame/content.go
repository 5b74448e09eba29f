package frame

import (
	"io"
	"time"

	"github.com/nettf/nettf/internal/chunker"
	"github.com/nettf/nettf/internal/signal"
	"github.com/nettf/nettf/internal/wire"
)

// ProgressFunc is invoked once per chunk transferred, with the bytes
// transferred so far for the current file, the file's declared total
// size, and the chunk size the adaptive chunker used for that chunk.
// It is never invoked concurrently.
type ProgressFunc func(transferred, total int64, chunkSize int)

// pollCancel checks the cancellation controller between chunks, as
// required by spec §5. A nil controller always means Continue. On
// RequestedOnce it invokes onPrompt exactly once (sticky) and keeps
// going; on Forced it returns ErrInterrupted.
func pollCancel(ctl *signal.Controller, onPrompt func()) error {
	if ctl == nil {
		return nil
	}
	switch ctl.Current() {
	case signal.Forced:
		return wire.Wrap("cancel", wire.ErrInterrupted)
	case signal.RequestedOnce:
		if ctl.AcknowledgePrompt() && onPrompt != nil {
			onPrompt()
		}
	}
	return nil
}

// sendContent streams exactly size bytes read from src to w, chunked
// according to st's advice, timing each chunk to feed st.Update, and
// polling ctl between chunks. It fails with ErrShortRead if src
// reaches EOF before size bytes have been read (the canonical
// behavior per spec §4.4.2 point 7: trust the declared size).
func sendContent(w io.Writer, src io.Reader, size int64, st *chunker.State, ctl *signal.Controller, progress ProgressFunc) error {
	var sent int64
	buf := make([]byte, chunker.MaxChunkSize)
	for sent < size {
		if err := pollCancel(ctl, nil); err != nil {
			return err
		}
		want := st.GetChunkSize()
		remaining := size - sent
		if int64(want) > remaining {
			want = int(remaining)
		}

		start := time.Now()
		n, readErr := io.ReadFull(src, buf[:want])
		if n == 0 && readErr != nil {
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				return wire.Wrap("send content", wire.ErrShortRead)
			}
			return wire.Wrap("send content", joinFileError(readErr))
		}
		if readErr == io.ErrUnexpectedEOF && n < want {
			// io.ReadFull returns this when the reader ran dry
			// partway through the requested slice; any n>0 bytes
			// read are still real bytes we must forward, but this
			// means the file is shorter than declared.
			if err := wire.SendExact(w, buf[:n]); err != nil {
				return err
			}
			return wire.Wrap("send content", wire.ErrShortRead)
		}

		if err := wire.SendExact(w, buf[:n]); err != nil {
			return err
		}
		elapsed := time.Since(start).Seconds()
		st.Update(int64(n), elapsed)
		sent += int64(n)
		if progress != nil {
			progress(sent, size, want)
		}
	}
	return nil
}

// recvContent reads exactly size bytes from r, chunked according to
// st's advice, writing each chunk to dst and retuning st from the
// elapsed wall-clock time per chunk, polling ctl between chunks.
func recvContent(r io.Reader, dst io.Writer, size int64, st *chunker.State, ctl *signal.Controller, progress ProgressFunc) error {
	var received int64
	buf := make([]byte, chunker.MaxChunkSize)
	for received < size {
		if err := pollCancel(ctl, nil); err != nil {
			return err
		}
		want := st.GetChunkSize()
		remaining := size - received
		if int64(want) > remaining {
			want = int(remaining)
		}

		start := time.Now()
		if err := wire.RecvExact(r, buf[:want]); err != nil {
			return err
		}
		if _, err := dst.Write(buf[:want]); err != nil {
			return wire.Wrap("recv content", joinFileError(err))
		}
		elapsed := time.Since(start).Seconds()
		st.Update(int64(want), elapsed)
		received += int64(want)
		if progress != nil {
			progress(received, size, want)
		}
	}
	return nil
}
