package archives

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/roach88/eventhistory/internal/jsonx"
)

// maxLineSize bounds a single record line.
const maxLineSize = 16 * 1024 * 1024

// Record is one archived record.
type Record = map[string]any

// IterRecords decodes each line of a gzipped JSON lines stream and calls fn
// with it. Iteration stops at the first error from fn.
func IterRecords(r io.Reader, fn func(line int, rec Record) error) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		rec, err := jsonx.Decode(raw)
		if err != nil {
			return fmt.Errorf("read records: line %d: %w", line, err)
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	return nil
}

// RewriteRecords streams records from in through transform and writes the
// results to out as gzipped JSON lines. Records for which transform returns
// nil are dropped. Output is deterministic: the same input and transform
// always produce the same bytes.
//
// Returns the hex MD5 and size of what was written to out, and the number of
// records written.
func RewriteRecords(in io.Reader, out io.Writer, transform func(Record) (Record, error)) (hash string, size int64, count int, err error) {
	sum := md5.New()
	counter := &countingWriter{w: io.MultiWriter(out, sum)}

	gz, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return "", 0, 0, err
	}
	bw := bufio.NewWriter(gz)

	err = IterRecords(in, func(line int, rec Record) error {
		rec, err := transform(rec)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}

		b, err := jsonx.Marshal(rec)
		if err != nil {
			return fmt.Errorf("rewrite records: line %d: %w", line, err)
		}
		bw.Write(b)
		bw.WriteByte('\n')
		count++
		return nil
	})
	if err != nil {
		return "", 0, 0, err
	}

	if err := bw.Flush(); err != nil {
		return "", 0, 0, fmt.Errorf("rewrite records: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", 0, 0, fmt.Errorf("rewrite records: %w", err)
	}
	return hex.EncodeToString(sum.Sum(nil)), counter.n, count, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
