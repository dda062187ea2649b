package docs

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type operationDoc struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

var routeLine = regexp.MustCompile(`^// @Router (\S+) \[(\w+)\]`)

// handlerAnnotations reads the swag comments above each handler, keyed by "method path".
func handlerAnnotations(t *testing.T) map[string]operationDoc {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "internal", "server", "*.go"))
	require.NoError(t, err)

	out := map[string]operationDoc{}
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := os.Open(name)
		require.NoError(t, err)

		var op operationDoc
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "// @Summary "):
				op.Summary = strings.TrimPrefix(line, "// @Summary ")
			case strings.HasPrefix(line, "// @Description "):
				op.Description = strings.TrimPrefix(line, "// @Description ")
			case routeLine.MatchString(line):
				m := routeLine.FindStringSubmatch(line)
				out[m[2]+" "+m[1]] = op
				op = operationDoc{}
			case strings.HasPrefix(line, "func "):
				op = operationDoc{}
			}
		}
		require.NoError(t, scanner.Err())
		_ = f.Close()
	}
	return out
}

func TestSwaggerDocMatchesAnnotations(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]operationDoc `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	documented := map[string]operationDoc{}
	for path, methods := range doc.Paths {
		for method, op := range methods {
			documented[method+" "+path] = op
		}
	}

	annotated := handlerAnnotations(t)
	require.NotEmpty(t, annotated)
	assert.Equal(t, annotated, documented)
}
