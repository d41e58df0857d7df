package eval_test

import (
	"testing"

	"github.com/raks/aegis/internal/domain/eval"
	"github.com/stretchr/testify/assert"
)

func TestStripComments(t *testing.T) {
	assert.Equal(t, "<a></a>", eval.StripComments("<a><!-- secret\n--></a>", "xml"))
	assert.Equal(t, "int x = 1; \nint y;", eval.StripComments("int x = 1; // TODO\nint y;/* block\n */", "java"))
	assert.Equal(t, "\nkey=value", eval.StripComments("# password=x\nkey=value", "properties"))
	assert.Equal(t, "url=http://host/x", eval.StripComments("url=http://host/x", "java"), "URL schemes survive")
	assert.Equal(t, "# kept", eval.StripComments("# kept", "txt"))
}
