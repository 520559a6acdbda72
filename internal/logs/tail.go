package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const defaultPollInterval = 250 * time.Millisecond

// Options controls which lines Tail emits.
type Options struct {
	// Lines is the number of trailing lines printed before following;
	// negative prints the whole file.
	Lines int
	// Follow keeps reading appended lines until the context ends.
	Follow bool
	// Poll is the follow interval; zero uses 250ms.
	Poll time.Duration
	// Match drops lines that do not contain the substring.
	Match string
}

// Tail writes the trailing lines of path to emit and, when Follow is set,
// keeps emitting new lines until ctx is cancelled. A missing file is treated
// as empty so `logs --follow` can be started before the daemon.
func Tail(ctx context.Context, path string, opts Options, emit func(string)) error {
	filter := func(line string) {
		if opts.Match == "" || strings.Contains(line, opts.Match) {
			emit(line)
		}
	}

	lines, offset, err := Last(path, opts.Lines, opts.Match)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		next, err := readFrom(path, offset, filter)
		if err != nil {
			return err
		}
		offset = next
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Last returns up to limit trailing lines containing match and the byte
// offset of the end of the file. A negative limit returns every matching line.
func Last(path string, limit int, match string) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit == 0 {
		return nil, info.Size(), nil
	}

	var all []string
	var ring []string
	if limit > 0 {
		ring = make([]string, limit)
	}
	count, next := 0, 0
	scanner := newScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if match != "" && !strings.Contains(line, match) {
			continue
		}
		if limit < 0 {
			all = append(all, line)
			continue
		}
		ring[next] = line
		next = (next + 1) % limit
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	if limit < 0 {
		return all, offset, nil
	}
	if count < limit {
		return ring[:count], offset, nil
	}
	return append(ring[next:], ring[:next]...), offset, nil
}

// readFrom emits complete lines after offset and returns the new offset. A
// file shorter than offset was rotated or truncated and is reread from the
// start.
func readFrom(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// Partial line; pick it up once the writer finishes it.
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		emit(strings.TrimRight(line, "\r\n"))
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
