// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package fits

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var reParser *regexp.Regexp = compileRE() // Regexp parser for FITS header lines

// Reads the header describing the image in the file with the given name. Decompresses gzip
// if .gz or .gzip suffix is present. Files ending in .hdr or .txt are read as plain text
// header cards, one per line. All other files are read as FITS, see ReadHeader.
func ReadHeaderFile(fileName string, id int, logWriter io.Writer) (h *Header, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	base := fileName
	lExt := strings.ToLower(path.Ext(base))
	if lExt == ".gz" || lExt == ".gzip" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%d: %s: %w", id, fileName, err)
		}
		defer gz.Close()
		r = gz
		base = strings.TrimSuffix(base, path.Ext(base))
		lExt = strings.ToLower(path.Ext(base))
	}

	if lExt == ".hdr" || lExt == ".txt" {
		h, err = ReadTextHeader(r, id, logWriter)
	} else {
		h, err = ReadHeader(r, id, logWriter)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	h.FileName = fileName
	return h, nil
}

// Reads a FITS header from the given reader. Returns the primary header if the primary
// HDU carries image data, else the header of the first extension.
func ReadHeader(r io.Reader, id int, logWriter io.Writer) (*Header, error) {
	primary := NewHeader()
	primary.ID = id
	if err := primary.read(r, logWriter); err != nil {
		return nil, err
	}

	// check mandatory fields as per standard
	if !primary.Bools["SIMPLE"] {
		return nil, fmt.Errorf("%d: Not a valid FITS file; SIMPLE=T missing in header", id)
	}
	if naxis, _ := primary.GetInt("NAXIS"); naxis > 0 {
		return primary, nil
	}

	// NAXIS=0 means no data follows the primary header, so the extension starts right here
	ext := NewHeader()
	ext.ID = id
	if err := ext.read(r, logWriter); err != nil {
		return nil, fmt.Errorf("%d: primary HDU has no data and no readable extension: %w", id, err)
	}
	if _, ok := ext.GetString("XTENSION"); !ok {
		return nil, fmt.Errorf("%d: primary HDU has no data and XTENSION missing in following header", id)
	}
	return ext, nil
}

// Reads header cards from a text file with one card per line. Lines longer than
// a FITS card are truncated. Stops at END or at the end of the input.
func ReadTextHeader(r io.Reader, id int, logWriter io.Writer) (*Header, error) {
	h := NewHeader()
	h.ID = id
	scanner := bufio.NewScanner(r)
	for lineNo := 0; !h.End && scanner.Scan(); lineNo++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) > HeaderLineSize {
			line = line[:HeaderLineSize]
		}
		h.Length += int32(HeaderLineSize)
		if strings.TrimSpace(line) == "" {
			continue
		}
		h.parseLine([]byte(line), lineNo, logWriter)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%d: %w", id, err)
	}
	return h, nil
}

func (h *Header) read(r io.Reader, logWriter io.Writer) error {
	buf := make([]byte, fitsBlockSize)

	for h.Length = 0; !h.End; {
		// read next header unit
		bytesRead, err := io.ReadFull(r, buf)
		if err != nil {
			return fmt.Errorf("%d: %w", h.ID, err)
		}
		h.Length += int32(bytesRead)

		// parse all lines in this header unit
		for lineNo := 0; lineNo < fitsBlockSize/HeaderLineSize && !h.End; lineNo++ {
			line := buf[lineNo*HeaderLineSize : (lineNo+1)*HeaderLineSize]
			h.parseLine(line, lineNo, logWriter)
		}
	}
	return nil
}

func (h *Header) parseLine(line []byte, lineNo int, logWriter io.Writer) {
	subValues := reParser.FindSubmatch(line)
	if subValues == nil {
		fmt.Fprintf(logWriter, "%d: Warning:Cannot parse '%s', ignoring\n", h.ID, string(line))
		return
	}
	h.readLine(reParser.SubexpNames(), subValues, lineNo, logWriter)
}

func (h *Header) readLine(subNames []string, subValues [][]byte, lineNo int, logWriter io.Writer) {
	key := ""
	// ignore index 0 which is the whole line
	for i := 1; i < len(subNames); i++ {
		if subValues[i] != nil && len(subNames[i]) == 1 {
			switch c := subNames[i][0]; c {
			case byte('E'): // end line
				h.End = true
			case byte('H'): // history line
				h.History = append(h.History, string(subValues[i]))
			case byte('C'): // comment line
				h.Comments = append(h.Comments, string(subValues[i]))
			case byte('k'): // key
				key = string(subValues[i])
			case byte('b'): // boolean
				if len(subValues[i]) > 0 {
					v := subValues[i][0]
					h.Bools[key] = v == byte('t') || v == byte('T')
				}
			case byte('i'): // int
				val, err := strconv.ParseInt(string(subValues[i]), 10, 64)
				if err == nil {
					h.Ints[key] = val
				}
			case byte('f'): // float, FORTRAN style D exponents included
				s := strings.Replace(string(subValues[i]), "D", "E", 1)
				val, err := strconv.ParseFloat(s, 64)
				if err == nil {
					h.Floats[key] = val
				}
			case byte('s'): // string, trailing blanks are not significant
				h.Strings[key] = strings.TrimRight(string(subValues[i]), " ")
			case byte('d'): // date
				h.Dates[key] = string(subValues[i])
			case byte('c'): // comment
				// ignore value comments
			default:
				fmt.Fprintf(logWriter, "%d:%d:Warning:Unknown token '%s'\n", h.ID, lineNo, string(c))
			}
		}
	}
}

// Build regexp parser for FITS header lines
func compileRE() *regexp.Regexp {
	white := "\\s+"
	whiteOpt := "\\s*"
	whiteLine := white

	hist := "HISTORY"
	rest := ".*"
	histLine := hist + white + "(?P<H>" + rest + ")"

	commKey := "COMMENT"
	commLine := commKey + white + "(?P<C>" + rest + ")"

	end := "(?P<E>END)"
	endLine := end + whiteOpt

	key := "(?P<k>[A-Z0-9_-]+)"
	equals := "="

	boo := "(?P<b>[TF])"
	inte := "(?P<i>[+-]?[0-9]+)"
	floa := "(?P<f>[+-]?(?:[0-9]*\\.[0-9]*(?:[ED][-+]?[0-9]+)?|[0-9]+[ED][-+]?[0-9]+))"
	stri := "'(?P<s>[^']*)'"
	date := "(?P<d>[0-9]{1,4}-?[012][0-9]-?[0123][0-9]T[012][0-9]:?[0-5][0-9]:?[0-5][0-9].?[0-9]*)" // FIXME: other variants possible, see ISO8601
	val := "(?:" + boo + "|" + inte + "|" + floa + "|" + stri + "|" + date + ")"

	// missing: CONTINUE for strings
	// missing: complex int: (nr, nr)
	// missing: complex float: (nr, nr)

	commOpt := "(?:/(?P<c>.*))?"
	keyLine := key + whiteOpt + equals + whiteOpt + val + whiteOpt + commOpt

	lineRe := "^(?:" + whiteLine + "|" + histLine + "|" + commLine + "|" + keyLine + "|" + endLine + ")$"
	return regexp.MustCompile(lineRe)
}
