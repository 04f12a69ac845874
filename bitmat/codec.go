package bitmat

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

func parseRow(s string) ([]uint8, error) {
	row := make([]uint8, 0, len(s))
	for _, ch := range s {
		switch ch {
		case '0', '1':
			row = append(row, uint8(ch-'0'))
		case ' ', '\t', '\r':
		default:
			return nil, errors.Errorf("entry %q other than 0 and 1", ch)
		}
	}
	return row, nil
}

// Parse reads a matrix written one row per line. Entries are single '0'/'1'
// characters, optionally separated by blanks, which covers both the
// simulator's truth table dumps and the integer matrices written by WriteInts.
// Empty lines are skipped.
func Parse(r io.Reader) (*Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<24)
	rows := make([][]uint8, 0)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		row, err := parseRow(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading matrix")
	}
	return fromRows(rows)
}

func ReadFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %q", path)
	}
	return m, nil
}

// WriteBits writes one row of '0'/'1' characters per line.
func WriteBits(w io.Writer, m *Matrix) error {
	bw := bufio.NewWriter(w)
	for _, s := range m.Strings() {
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteInts writes every entry followed by a blank, one row per line.
func WriteInts(w io.Writer, m *Matrix) error {
	bw := bufio.NewWriter(w)
	for r := 0; r < m.rows; r++ {
		for _, v := range m.Row(r) {
			bw.WriteByte('0' + v)
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeFile(path string, m *Matrix, write func(io.Writer, *Matrix) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %q", path)
	}
	if err := write(f, m); err != nil {
		f.Close()
		return errors.Wrapf(err, "could not write %q", path)
	}
	return f.Close()
}

func WriteBitsFile(path string, m *Matrix) error { return writeFile(path, m, WriteBits) }

func WriteIntsFile(path string, m *Matrix) error { return writeFile(path, m, WriteInts) }
