package key

import (
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/blockstate/internal/intern"
)

// Пространства имён, известные рендеру
const (
	MinecraftNamespace = "minecraft"
	BlueMapNamespace   = "bluemap"
)

// ErrInvalidKey возвращается, если текст не является идентификатором namespace:path.
var ErrInvalidKey = errors.New("invalid key")

// Key представляет идентификатор вида namespace:path.
// Сравнение регистрозависимое, обе части интернированы.
type Key struct {
	namespace string
	value     string
}

// Хорошо известные идентификаторы
var (
	Air     = Minecraft("air")
	CaveAir = Minecraft("cave_air")
	VoidAir = Minecraft("void_air")
	Water   = Minecraft("water")
	Missing = BlueMap("missing")
)

// New создаёт идентификатор из частей. Части проверяются так же, как в Parse;
// при недопустимых символах New паникует, поэтому годится только для констант.
// Для внешнего ввода используйте Parse.
func New(namespace, value string) Key {
	if !validNamespace(namespace) || !validValue(value) {
		panic(fmt.Errorf("%w: %q:%q", ErrInvalidKey, namespace, value))
	}
	return newKey(namespace, value)
}

func newKey(namespace, value string) Key {
	in := intern.Default()
	return Key{
		namespace: in.Intern(namespace),
		value:     in.Intern(value),
	}
}

// Minecraft создаёт идентификатор в пространстве имён minecraft.
func Minecraft(value string) Key {
	return New(MinecraftNamespace, value)
}

// BlueMap создаёт идентификатор в пространстве имён bluemap.
func BlueMap(value string) Key {
	return New(BlueMapNamespace, value)
}

// Parse разбирает строку namespace:path.
// Без двоеточия используется пространство имён minecraft.
func Parse(text string) (Key, error) {
	namespace, value := MinecraftNamespace, text
	if i := strings.IndexByte(text, ':'); i >= 0 {
		namespace, value = text[:i], text[i+1:]
	}

	if !validNamespace(namespace) {
		return Key{}, fmt.Errorf("%w: bad namespace in %q", ErrInvalidKey, text)
	}
	if !validValue(value) {
		return Key{}, fmt.Errorf("%w: bad path in %q", ErrInvalidKey, text)
	}

	return newKey(namespace, value), nil
}

// MustParse как Parse, но паникует при ошибке. Только для констант.
func MustParse(text string) Key {
	k, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) Namespace() string { return k.namespace }
func (k Key) Value() string     { return k.value }

// IsZero сообщает, что идентификатор не был задан.
func (k Key) IsZero() bool {
	return k.namespace == "" && k.value == ""
}

// Equal сравнивает идентификаторы по содержимому.
func (k Key) Equal(other Key) bool {
	return k.namespace == other.namespace && k.value == other.value
}

// String возвращает форматированный вид namespace:path.
func (k Key) String() string {
	return k.namespace + ":" + k.value
}

func validNamespace(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isKeyChar(c) {
			return false
		}
	}
	return true
}

func validValue(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isKeyChar(c) && c != '/' {
			return false
		}
	}
	return true
}

func isKeyChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == '.'
}
