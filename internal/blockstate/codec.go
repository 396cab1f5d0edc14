package blockstate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/blockstate/internal/intern"
	"github.com/annel0/blockstate/internal/key"
)

// Причины ошибок разбора; доступны через errors.Is.
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrMalformedBrackets = errors.New("malformed brackets")
	ErrMissingSeparator  = errors.New("property without '='")
)

// FormatError возвращается Parse для текста, который не удалось разобрать.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("'%s' could not be parsed to a BlockState: %v", e.Input, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Parse разбирает строку вида namespace:path[k1=v1,k2=v2].
// Скобки необязательны. Ключ и значение разделяются первым '='.
// Экранирования нет: ',', '=' и ']' в тексте свойств недопустимы.
func Parse(text string) (*BlockState, error) {
	return ParseWith(intern.Default(), text)
}

// ParseWith как Parse, но интернирует свойства в указанном интернере.
func ParseWith(in *intern.Interner, text string) (*BlockState, error) {
	fail := func(err error) (*BlockState, error) {
		return nil, &FormatError{Input: text, Err: err}
	}

	s := strings.TrimSpace(text)
	if s == "" {
		return fail(ErrEmptyInput)
	}

	idText, tail, err := splitBrackets(s)
	if err != nil {
		return fail(err)
	}

	props, err := splitProperties(tail)
	if err != nil {
		return fail(err)
	}

	id, err := key.Parse(strings.TrimSpace(idText))
	if err != nil {
		return fail(err)
	}

	return NewWith(in, id, props...), nil
}

// MustParse как Parse, но паникует при ошибке.
func MustParse(text string) *BlockState {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Format возвращает каноническую строку состояния. Обратная операция к Parse.
func Format(s *BlockState) string {
	return s.String()
}

// splitBrackets отделяет идентификатор от хвоста [..] в конце строки.
func splitBrackets(s string) (id, tail string, err error) {
	open := strings.IndexByte(s, '[')

	if s[len(s)-1] != ']' {
		if open >= 0 || strings.IndexByte(s, ']') >= 0 {
			return "", "", ErrMalformedBrackets
		}
		return s, "", nil
	}

	// пустой идентификатор перед скобкой тоже ошибка
	if open <= 0 {
		return "", "", ErrMalformedBrackets
	}

	tail = s[open+1 : len(s)-1]
	if strings.ContainsAny(tail, "[]") {
		return "", "", ErrMalformedBrackets
	}
	return s[:open], tail, nil
}

func splitProperties(tail string) ([]Property, error) {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return nil, nil
	}

	tokens := strings.Split(tail, ",")
	// висящие запятые в конце игнорируются
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}

	props := make([]Property, 0, len(tokens))
	for _, tok := range tokens {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingSeparator, tok)
		}
		props = append(props, Property{Key: k, Value: v})
	}
	return props, nil
}
