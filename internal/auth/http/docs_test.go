package http_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	_ "github.com/aussiebroadwan/grimoire/api/grimoire"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

var routerAnnotation = regexp.MustCompile(`^//\s+@Router\s+(\S+)\s+\[(get|post)\]$`)

// Every handler's @Router annotation must be in the form swag parses, and the
// generated document must describe that route.
func TestRouterAnnotationsMatchSwaggerDoc(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	var found int
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}

		f, err := os.Open(name)
		require.NoError(t, err)

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.Contains(line, "@Router") {
				continue
			}
			found++

			m := routerAnnotation.FindStringSubmatch(line)
			require.NotNil(t, m, "%s: malformed annotation %q", name, line)
			require.Contains(t, doc.Paths, m[1], "%s: %s missing from swagger doc", name, m[1])
			require.Contains(t, doc.Paths[m[1]], m[2], "%s: %s %s missing from swagger doc", name, m[2], m[1])
		}
		require.NoError(t, scanner.Err())
		require.NoError(t, f.Close())
	}

	require.Equal(t, len(doc.Paths), found, "every documented path has exactly one handler annotation")
}
