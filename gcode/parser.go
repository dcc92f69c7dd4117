package gcode

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Parser reads blocks from a stream of G-code lines.
type Parser struct{ br *bufio.Reader }

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}

	return &Parser{br: bufio.NewReader(r)}
}

var (
	rx      = regexp.MustCompile(`^([A-Z][-+]?[0-9.]+)+$`)
	rxSplit = regexp.MustCompile(`[A-Z][-+]?[0-9.]+`)
)

// Read returns the next non-empty block. Comments (`;` to end of line) are ignored.
func (p *Parser) Read() (Block, error) {
	for {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return nil, err
		}

		s = strings.SplitN(s, ";", 2)[0]
		s = strings.Replace(s, " ", "", -1)
		s = strings.TrimSpace(s)
		s = strings.ToUpper(s)

		if s == "" {
			continue
		}

		if !rx.MatchString(s) {
			return nil, errors.New("invalid or unhandled line: " + s)
		}

		codes := rxSplit.FindAllString(s, -1)
		res := make(Block, len(codes))

		for i, c := range codes {
			res[i].W = c[0]
			res[i].Arg, err = strconv.ParseFloat(c[1:], 64)
			if err != nil {
				return nil, err
			}
		}

		return res, nil
	}
}
