package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// staticFiles serves the bundled frontend for every path the API does not own.
type staticFiles struct {
	dir string
}

func newStaticFiles(dir string) *staticFiles {
	return &staticFiles{dir: strings.TrimSpace(dir)}
}

func (s *staticFiles) serve(c *gin.Context) {
	method := c.Request.Method
	if s.dir == "" || (method != http.MethodGet && method != http.MethodHead) {
		c.String(http.StatusNotFound, "Not Found")
		return
	}

	name := path.Clean("/" + c.Request.URL.Path)
	if name == "/" {
		name = "/index.html"
	}
	file := filepath.Join(s.dir, filepath.FromSlash(name))

	f, err := os.Open(file)
	if err != nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
