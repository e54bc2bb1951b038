// wordlist.go
//
// Copyright (C) 2026 tilerack contributors

// This file reads the word lists that dictionaries are built from

/*

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.

*/

package tilerack

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

//go:embed dicts/*.txt
var embeddedDicts embed.FS

// ErrUnknownLocale is returned when no word list or tile set
// is available for a locale
var ErrUnknownLocale = errors.New("unknown locale")

// ReadWordList reads a newline-delimited word list. Blank lines and
// lines starting with '#' are skipped; words are converted to upper
// case and entries containing anything but letters are dropped.
func ReadWordList(r io.Reader) ([]string, error) {
	words := make([]string, 0, 1024)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.IndexFunc(line, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			continue
		}
		words = append(words, strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	return words, nil
}

// LoadDictionary builds a Dawg for a locale. If path is not empty,
// the word list is read from that file; otherwise the built-in word
// list of the locale is used.
func LoadDictionary(locale, path string) (*Dawg, error) {
	var r io.Reader
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		f, err := embeddedDicts.Open("dicts/" + locale + ".txt")
		if err != nil {
			return nil, fmt.Errorf("%w: no word list for %q", ErrUnknownLocale, locale)
		}
		defer f.Close()
		r = f
	}
	words, err := ReadWordList(r)
	if err != nil {
		return nil, err
	}
	return NewDawg(words)
}
