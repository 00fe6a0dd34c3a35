package loader

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// daeMatchMode selects how FindTag and FindChild compare a tag against a needle.
type daeMatchMode int

const (
	// daeMatchName matches opening tags whose element name equals the needle.
	daeMatchName daeMatchMode = iota

	// daeMatchSubstring matches any tag whose raw text contains the needle.
	// A short needle can match attribute text of unrelated tags, so this mode is
	// reserved for lookups keyed by long, distinctive strings such as ids.
	daeMatchSubstring
)

// daeScannerImpl is the implementation of the daeScanner interface.
type daeScannerImpl struct {
	data []byte
	pos  int
}

// daeScanner is a non-validating cursor over a text scene document. It treats the
// input as a flat sequence of <...> tokens separated by character data; structure is
// only recovered by callers through FindChild's nesting depth and explicit bookmarks.
type daeScanner interface {
	// NextTag advances past the next '<' and returns the raw text up to the matching '>'.
	// Whitespace inside the tag is preserved.
	//
	// Returns:
	//   - string: the tag text without delimiters
	//   - error: ErrStreamEnded if no complete tag remains
	NextTag() (string, error)

	// FindTag calls NextTag until a tag matches the needle.
	//
	// Parameters:
	//   - needle: the element name or substring to match
	//   - mode: the comparison mode
	//
	// Returns:
	//   - string: the matching tag text
	//   - error: ErrElementNotFound if the stream ends first
	FindTag(needle string, mode daeMatchMode) (string, error)

	// FindChild calls NextTag until a tag matches the needle, giving up when the closing
	// tag of parent is read at nesting depth zero. Nested elements named like parent are
	// tracked by depth and do not end the search. The closing tag is consumed and nothing
	// after it is read.
	//
	// Parameters:
	//   - needle: the element name or substring to match
	//   - parent: the element name of the enclosing element
	//   - mode: the comparison mode
	//
	// Returns:
	//   - string: the matching tag text
	//   - error: ErrElementNotFound when parent closes or the stream ends
	FindChild(needle, parent string, mode daeMatchMode) (string, error)

	// ReadFloats parses n whitespace-separated float tokens at the cursor.
	//
	// Parameters:
	//   - n: the number of values to read
	//
	// Returns:
	//   - []float32: the parsed values
	//   - error: ErrStreamEnded if fewer than n tokens precede the next tag, ErrMalformedElement on a bad token
	ReadFloats(n int) ([]float32, error)

	// ReadInts parses n whitespace-separated integer tokens at the cursor.
	//
	// Parameters:
	//   - n: the number of values to read
	//
	// Returns:
	//   - []int: the parsed values
	//   - error: ErrStreamEnded if fewer than n tokens precede the next tag, ErrMalformedElement on a bad token
	ReadInts(n int) ([]int, error)

	// ReadNames reads n whitespace-separated name tokens at the cursor.
	//
	// Parameters:
	//   - n: the number of names to read
	//
	// Returns:
	//   - []string: the names
	//   - error: ErrStreamEnded if fewer than n tokens precede the next tag
	ReadNames(n int) ([]string, error)

	// Position returns the cursor as a bookmark for Seek.
	//
	// Returns:
	//   - int: the byte offset of the cursor
	Position() int

	// Seek moves the cursor to a bookmark previously returned by Position.
	//
	// Parameters:
	//   - pos: the byte offset to move to
	Seek(pos int)
}

var _ daeScanner = &daeScannerImpl{}

// newDAEScanner creates a scanner positioned at the start of data.
//
// Parameters:
//   - data: the complete document
//
// Returns:
//   - daeScanner: the scanner
func newDAEScanner(data []byte) daeScanner {
	return &daeScannerImpl{data: data}
}

func (s *daeScannerImpl) NextTag() (string, error) {
	for s.pos < len(s.data) && s.data[s.pos] != '<' {
		s.pos++
	}
	if s.pos >= len(s.data) {
		return "", ErrStreamEnded
	}

	start := s.pos + 1
	end := start
	for end < len(s.data) && s.data[end] != '>' {
		end++
	}
	if end >= len(s.data) {
		s.pos = len(s.data)
		return "", errors.Wrap(ErrStreamEnded, "unterminated tag")
	}

	s.pos = end + 1
	return string(s.data[start:end]), nil
}

func (s *daeScannerImpl) FindTag(needle string, mode daeMatchMode) (string, error) {
	for {
		tag, err := s.NextTag()
		if err != nil {
			return "", errors.Wrapf(ErrElementNotFound, "<%s>", needle)
		}
		if daeTagMatches(tag, needle, mode) {
			return tag, nil
		}
	}
}

func (s *daeScannerImpl) FindChild(needle, parent string, mode daeMatchMode) (string, error) {
	depth := 0
	for {
		tag, err := s.NextTag()
		if err != nil {
			return "", errors.Wrapf(ErrElementNotFound, "<%s> in <%s>", needle, parent)
		}

		if daeIsClosingTag(tag) {
			if depth == 0 {
				if daeTagName(tag) == parent {
					return "", errors.Wrapf(ErrElementNotFound, "<%s> in <%s>", needle, parent)
				}
				continue
			}
			depth--
			continue
		}

		if daeTagMatches(tag, needle, mode) {
			return tag, nil
		}
		if !daeIsSelfClosingTag(tag) {
			depth++
		}
	}
}

func (s *daeScannerImpl) ReadFloats(n int) ([]float32, error) {
	if err := s.checkTokenCount(n, "floats"); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		tok, ok := s.nextToken()
		if !ok {
			return nil, errors.Wrapf(ErrStreamEnded, "read %d of %d floats", i, n)
		}
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedElement, "float token %q", tok)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func (s *daeScannerImpl) ReadInts(n int) ([]int, error) {
	if err := s.checkTokenCount(n, "ints"); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		tok, ok := s.nextToken()
		if !ok {
			return nil, errors.Wrapf(ErrStreamEnded, "read %d of %d ints", i, n)
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedElement, "int token %q", tok)
		}
		out[i] = v
	}
	return out, nil
}

func (s *daeScannerImpl) ReadNames(n int) ([]string, error) {
	if err := s.checkTokenCount(n, "names"); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		tok, ok := s.nextToken()
		if !ok {
			return nil, errors.Wrapf(ErrStreamEnded, "read %d of %d names", i, n)
		}
		out[i] = tok
	}
	return out, nil
}

func (s *daeScannerImpl) Position() int {
	return s.pos
}

func (s *daeScannerImpl) Seek(pos int) {
	s.pos = min(max(pos, 0), len(s.data))
}

// checkTokenCount rejects a token count the rest of the stream cannot hold.
// Every token takes at least one byte plus a separator.
func (s *daeScannerImpl) checkTokenCount(n int, kind string) error {
	if n < 0 {
		return errors.Wrapf(ErrMalformedElement, "negative count of %d %s", n, kind)
	}
	if available := (len(s.data) - s.pos + 1) / 2; n > available {
		return errors.Wrapf(ErrStreamEnded, "%d %s requested, at most %d left", n, kind, available)
	}
	return nil
}

// nextToken returns the next whitespace-delimited token of character data.
// Tokens never extend into a tag; reaching '<' or the end of input reports false.
func (s *daeScannerImpl) nextToken() (string, bool) {
	for s.pos < len(s.data) && isDAESpace(s.data[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.data) || s.data[s.pos] == '<' {
		return "", false
	}
	start := s.pos
	for s.pos < len(s.data) && !isDAESpace(s.data[s.pos]) && s.data[s.pos] != '<' {
		s.pos++
	}
	return string(s.data[start:s.pos]), true
}

// --- Tag Helpers ---

// daeAttribute returns the value of the attribute with exactly the given name.
// Attributes are written name="value" with no whitespace around '='; the first match wins.
func daeAttribute(tag, name string) (string, bool) {
	i := 0
	n := len(tag)

	// Skip the element name.
	for i < n && !isDAESpace(tag[i]) {
		i++
	}

	for i < n {
		for i < n && isDAESpace(tag[i]) {
			i++
		}
		keyStart := i
		for i < n && tag[i] != '=' && !isDAESpace(tag[i]) {
			i++
		}
		key := tag[keyStart:i]

		if i+1 >= n || tag[i] != '=' || tag[i+1] != '"' {
			// Not a name="value" pair; resume at the next whitespace.
			for i < n && !isDAESpace(tag[i]) {
				i++
			}
			continue
		}

		i += 2
		valueStart := i
		for i < n && tag[i] != '"' {
			i++
		}
		value := tag[valueStart:i]
		if i < n {
			i++
		}

		if key == name {
			return value, true
		}
	}
	return "", false
}

// daeRequireAttribute returns the named attribute or ErrMissingAttribute.
func daeRequireAttribute(tag, name string) (string, error) {
	v, ok := daeAttribute(tag, name)
	if !ok {
		return "", errors.Wrapf(ErrMissingAttribute, "%q on <%s>", name, daeTagName(tag))
	}
	return v, nil
}

// daeCountAttribute parses the count attribute of a tag.
func daeCountAttribute(tag string) (int, error) {
	raw, err := daeRequireAttribute(tag, "count")
	if err != nil {
		return 0, err
	}
	count, convErr := strconv.Atoi(raw)
	if convErr != nil || count < 0 {
		return 0, errors.Wrapf(ErrMalformedElement, "count %q on <%s>", raw, daeTagName(tag))
	}
	return count, nil
}

// daeTokenCount multiplies the factors of a declared token count.
// A product that overflows int can never be satisfied by a stream and is ErrStreamEnded.
func daeTokenCount(factors ...int) (int, error) {
	n := 1
	for _, f := range factors {
		if f < 0 {
			return 0, errors.Wrapf(ErrMalformedElement, "negative count factor %d", f)
		}
		if f != 0 && n > math.MaxInt/f {
			return 0, errors.Wrapf(ErrStreamEnded, "token count %v overflows", factors)
		}
		n *= f
	}
	return n, nil
}

// daeIntAttribute parses an optional integer attribute, returning def when absent.
func daeIntAttribute(tag, name string, def int) (int, error) {
	raw, ok := daeAttribute(tag, name)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedElement, "%s %q on <%s>", name, raw, daeTagName(tag))
	}
	return v, nil
}

// daeTagName returns the element name of a tag, without a leading '/' for closing tags.
func daeTagName(tag string) string {
	tag = strings.TrimPrefix(tag, "/")
	end := 0
	for end < len(tag) && !isDAESpace(tag[end]) && tag[end] != '/' {
		end++
	}
	return tag[:end]
}

// daeIsClosingTag reports whether the tag is a closing tag such as </node>.
func daeIsClosingTag(tag string) bool {
	return strings.HasPrefix(tag, "/")
}

// daeIsSelfClosingTag reports whether the tag opens no element scope: <x/>, <?...?> and <!...>.
func daeIsSelfClosingTag(tag string) bool {
	if strings.HasPrefix(tag, "?") || strings.HasPrefix(tag, "!") {
		return true
	}
	return strings.HasSuffix(strings.TrimRight(tag, " \t\r\n"), "/")
}

// daeTagMatches compares a tag against a needle under the given mode.
func daeTagMatches(tag, needle string, mode daeMatchMode) bool {
	switch mode {
	case daeMatchSubstring:
		return strings.Contains(tag, needle)
	default:
		return !daeIsClosingTag(tag) && daeTagName(tag) == needle
	}
}

// daeSeekID advances s past the opening tag of the element with the given name and id.
// Tags are found by their raw id="..." text, then checked by name and exact id.
func daeSeekID(s daeScanner, element, id string) error {
	needle := `id="` + id + `"`
	for {
		tag, err := s.FindTag(needle, daeMatchSubstring)
		if err != nil {
			return err
		}
		if daeTagName(tag) != element || daeIsClosingTag(tag) {
			continue
		}
		if v, ok := daeAttribute(tag, "id"); ok && v == id {
			return nil
		}
	}
}

// daeStripRef removes the leading '#' of a local id reference.
func daeStripRef(ref string) string {
	return strings.TrimPrefix(ref, "#")
}

func isDAESpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
