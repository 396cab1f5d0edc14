package intern

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func sameBacking(a, b string) bool {
	return unsafe.StringData(a) == unsafe.StringData(b)
}

func TestIntern_ReturnsSharedInstance(t *testing.T) {
	in := New()

	src := "facing=east,half=bottom"
	a := in.Intern(src[:6])
	b := in.Intern(strings.Clone("facing"))

	assert.Equal(t, "facing", a)
	assert.True(t, sameBacking(a, b), "равные строки должны разделять буфер")
	assert.Equal(t, 1, in.Len())
}

func TestIntern_SizeIsMonotonic(t *testing.T) {
	in := New()

	prev := in.Len()
	for i := 0; i < 100; i++ {
		in.Intern(fmt.Sprintf("v%d", i%40))
		assert.GreaterOrEqual(t, in.Len(), prev)
		prev = in.Len()
	}
	assert.Equal(t, 40, in.Len())
}

func TestIntern_IsolatedInstances(t *testing.T) {
	a := New()
	b := New()

	a.Intern("level")
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestIntern_Concurrent(t *testing.T) {
	in := New()

	const workers = 16
	results := make([][]string, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			out := make([]string, 0, 50)
			for i := 0; i < 50; i++ {
				out = append(out, in.Intern(fmt.Sprintf("key%d", i)))
			}
			results[w] = out
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 50, in.Len())
	for w := 1; w < workers; w++ {
		for i := range results[w] {
			assert.True(t, sameBacking(results[0][i], results[w][i]))
		}
	}
}

func TestIntern_EmptyString(t *testing.T) {
	in := New()
	assert.Equal(t, "", in.Intern(""))
	assert.Equal(t, 1, in.Len())
}
