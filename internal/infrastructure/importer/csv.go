package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// readCSV converts the input to UTF-8 and splits it on ',' or ';', whichever the first line uses more
func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)

	peek, _ := br.Peek(4096)
	var dec io.Reader = br
	if cm := detectCharmap(peek); cm != nil {
		dec = transform.NewReader(br, cm.NewDecoder())
	}

	cr := csv.NewReader(dec)
	cr.Comma = detectSeparator(peek)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// detectCharmap returns nil for UTF-8 input
func detectCharmap(peek []byte) *charmap.Charmap {
	if len(peek) == 0 || utf8.Valid(trimPartialRune(peek)) {
		return nil
	}

	det, err := chardet.NewTextDetector().DetectBest(peek)
	if err != nil || det == nil {
		return charmap.Windows1252
	}
	switch strings.ToLower(det.Charset) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251
	case "iso-8859-15":
		return charmap.ISO8859_15
	case "utf-8":
		return nil
	default:
		// Latin-1 family; Spanish exports are almost always Windows-1252
		return charmap.Windows1252
	}
}

// trimPartialRune drops a multi-byte sequence cut off by the peek window
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.RuneStart(b[len(b)-1-i]) {
			if !utf8.FullRune(b[len(b)-1-i:]) {
				return b[:len(b)-1-i]
			}
			break
		}
	}
	return b
}

func detectSeparator(peek []byte) rune {
	var line []byte
	for _, l := range bytes.FieldsFunc(peek, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if len(bytes.TrimSpace(l)) > 0 {
			line = l
			break
		}
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
